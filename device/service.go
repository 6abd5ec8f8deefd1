// Package device maps file-manager requests onto bridge commands and parses
// their output.
package device

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/nrtkbb/adbfm/bridge"
	"github.com/nrtkbb/adbfm/models"
	"go.uber.org/zap"
)

const (
	// DefaultDirectory is listed when no path is given.
	DefaultDirectory = "/sdcard/"

	devicesTimeout           = 10 * time.Second
	defaultScreenshotTimeout = 10 * time.Second
)

// ErrInvalidPath is returned for device paths that are not safe to act on.
var ErrInvalidPath = errors.New("invalid device path")

type Service struct {
	runner            bridge.Runner
	logger            *zap.Logger
	screenshotTimeout time.Duration
}

func NewService(runner bridge.Runner, logger *zap.Logger, screenshotTimeout time.Duration) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if screenshotTimeout <= 0 {
		screenshotTimeout = defaultScreenshotTimeout
	}
	return &Service{
		runner:            runner,
		logger:            logger,
		screenshotTimeout: screenshotTimeout,
	}
}

// ListMedia returns the device's media index for category. The document
// category lists every indexed file.
func (s *Service) ListMedia(ctx context.Context, deviceID string, category models.Category) ([]models.MediaEntry, error) {
	uri, ok := mediaURIs[category]
	if !ok {
		return nil, &UnsupportedCategoryError{Value: string(category)}
	}

	res, err := s.runner.Run(ctx, bridge.Command{Device: deviceID, Args: contentQueryArgs(uri, category)})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", category, err)
	}
	return bridge.ParseRows(res.Stdout, category, s.logger), nil
}

// ListDocuments returns indexed files whose path has an extension of kind.
func (s *Service) ListDocuments(ctx context.Context, deviceID string, kind models.DocumentKind) ([]models.MediaEntry, error) {
	if kind == "" {
		kind = models.KindDocument
	}
	matcher, ok := documentMatchers[kind]
	if !ok {
		return nil, &UnsupportedCategoryError{Value: string(kind)}
	}

	res, err := s.runner.Run(ctx, bridge.Command{Device: deviceID, Args: documentQueryArgs(kind)})
	if err != nil {
		// grep exits 1 when nothing matched.
		if bridge.IsExitCode(err, 1) && strings.TrimSpace(res.Stdout) == "" {
			return []models.MediaEntry{}, nil
		}
		return nil, fmt.Errorf("list %s documents: %w", kind, err)
	}

	rows := bridge.ParseRows(res.Stdout, models.CategoryDocument, s.logger)
	docs := make([]models.MediaEntry, 0, len(rows))
	for _, row := range rows {
		if matcher.MatchString(row.Path) {
			docs = append(docs, row)
		}
	}
	return docs, nil
}

// ListDirectory lists dir on the device. An empty dir means DefaultDirectory.
func (s *Service) ListDirectory(ctx context.Context, deviceID, dir string) ([]models.DirectoryEntry, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = DefaultDirectory
	}
	if err := checkPath(dir); err != nil {
		return nil, err
	}
	dir = bridge.NormalizeDir(dir)

	res, err := s.runner.Run(ctx, bridge.Command{
		Device: deviceID,
		Args:   []string{"shell", "ls", "-lh", bridge.ShellQuote(dir)},
	})
	if err != nil {
		// toybox ls exits 1 when some entries could not be read but still
		// prints the rest.
		if !bridge.IsExitCode(err, 1) || strings.TrimSpace(res.Stdout) == "" {
			return nil, fmt.Errorf("list %s: %w", dir, err)
		}
		s.logger.Warn("partial directory listing", zap.String("dir", dir), zap.Error(err))
	}
	return bridge.ParseListing(res.Stdout, dir, s.logger), nil
}

// ListConnectedDevices returns the ids of devices in the "device" state.
func (s *Service) ListConnectedDevices(ctx context.Context) (models.DeviceList, error) {
	res, err := s.runner.Run(ctx, bridge.Command{Args: []string{"devices"}, Timeout: devicesTimeout})
	if err != nil {
		return models.DeviceList{DeviceIDs: []string{}}, fmt.Errorf("list devices: %w", err)
	}
	return bridge.ParseDeviceList(res.Stdout), nil
}

// Screenshot returns the PNG bytes of the current screen.
func (s *Service) Screenshot(ctx context.Context, deviceID string) ([]byte, error) {
	res, err := s.runner.Run(ctx, bridge.Command{
		Device:  deviceID,
		Args:    []string{"exec-out", "screencap", "-p"},
		Timeout: s.screenshotTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	if res.Stdout == "" {
		return nil, errors.New("screenshot: device returned no image data")
	}
	return []byte(res.Stdout), nil
}

// DeleteFile removes remotePath from the device.
func (s *Service) DeleteFile(ctx context.Context, deviceID, remotePath string) error {
	if err := checkPath(remotePath); err != nil {
		return err
	}
	clean := path.Clean(remotePath)
	if clean == "/" {
		return fmt.Errorf("%w: refusing to delete %q", ErrInvalidPath, remotePath)
	}

	_, err := s.runner.Run(ctx, bridge.Command{
		Device: deviceID,
		Args:   []string{"shell", "rm", "-f", bridge.ShellQuote(clean)},
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", clean, err)
	}
	s.logger.Info("deleted device file", zap.String("device", deviceID), zap.String("path", clean))
	return nil
}

// checkPath accepts absolute device paths without control characters.
func checkPath(p string) error {
	if !strings.HasPrefix(p, "/") {
		return fmt.Errorf("%w: %q is not absolute", ErrInvalidPath, p)
	}
	if strings.IndexFunc(p, unicode.IsControl) >= 0 {
		return fmt.Errorf("%w: %q contains control characters", ErrInvalidPath, p)
	}
	return nil
}
