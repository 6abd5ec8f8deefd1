// Package transfer moves files between the device and the local cache.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/nrtkbb/adbfm/bridge"
	"github.com/nrtkbb/adbfm/metrics"
	"github.com/nrtkbb/adbfm/models"
	"go.uber.org/zap"
)

const defaultPullTimeout = 30 * time.Minute

// Recorder stores a history row for each transfer.
type Recorder interface {
	RecordTransfer(ctx context.Context, rec models.TransferRecord) error
}

// Outcome describes a successful EnsureLocalCopy.
type Outcome struct {
	LocalPath string
	SizeBytes int64
	Cached    bool // the file was already present and no pull ran
}

// Failure is returned when a pull or push did not produce the expected file.
type Failure struct {
	Remote  string
	Local   string
	Detail  string
	Missing bool // the command succeeded but the file is not there
	Err     error
}

func (f *Failure) Error() string {
	if f.Missing {
		return fmt.Sprintf("transfer %s -> %s: file not found after transfer: %s", f.Remote, f.Local, f.Detail)
	}
	return fmt.Sprintf("transfer %s -> %s failed: %s", f.Remote, f.Local, f.Detail)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

type Service struct {
	runner      bridge.Runner
	logger      *zap.Logger
	ledger      Recorder
	pullTimeout time.Duration
}

// NewService builds a transfer service. ledger may be nil.
func NewService(runner bridge.Runner, logger *zap.Logger, ledger Recorder, pullTimeout time.Duration) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pullTimeout <= 0 {
		pullTimeout = defaultPullTimeout
	}
	return &Service{runner: runner, logger: logger, ledger: ledger, pullTimeout: pullTimeout}
}

// EnsureLocalCopy makes sure localPath holds remotePath. An existing file is
// used as is. Otherwise the parent directory is created and the file pulled
// once; the pull only counts when the file exists afterwards.
func (s *Service) EnsureLocalCopy(ctx context.Context, deviceID, remotePath, localPath string) (Outcome, error) {
	if info, err := os.Stat(localPath); err == nil && info.Mode().IsRegular() {
		metrics.RecordTransfer(string(models.DirectionPull), string(models.StatusCached), 0)
		s.logger.Debug("using cached copy", zap.String("remote", remotePath), zap.String("local", localPath))
		return Outcome{LocalPath: localPath, SizeBytes: info.Size(), Cached: true}, nil
	}

	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return Outcome{}, s.fail(ctx, deviceID, models.DirectionPull, &Failure{
			Remote: remotePath, Local: localPath, Detail: err.Error(), Err: err,
		})
	}

	res, err := s.runner.Run(ctx, bridge.Command{
		Device:  deviceID,
		Args:    []string{"pull", remotePath, localPath},
		Timeout: s.pullTimeout,
	})
	if err != nil {
		// A partial file would otherwise be taken for a cached copy next time.
		if rmErr := os.Remove(localPath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			s.logger.Warn("could not remove partial download", zap.String("local", localPath), zap.Error(rmErr))
		}
		return Outcome{}, s.fail(ctx, deviceID, models.DirectionPull, &Failure{
			Remote: remotePath, Local: localPath, Detail: diagnostic(err), Err: err,
		})
	}

	info, err := os.Stat(localPath)
	if err != nil {
		return Outcome{}, s.fail(ctx, deviceID, models.DirectionPull, &Failure{
			Remote: remotePath, Local: localPath, Detail: strings.TrimSpace(res.Stdout + " " + res.Stderr), Missing: true, Err: err,
		})
	}

	s.logger.Info("pulled file",
		zap.String("device", deviceID),
		zap.String("remote", remotePath),
		zap.String("local", localPath),
		zap.Int64("bytes", info.Size()),
	)
	s.succeed(ctx, models.TransferRecord{
		DeviceID:   deviceID,
		Direction:  models.DirectionPull,
		RemotePath: remotePath,
		LocalPath:  localPath,
		SizeBytes:  info.Size(),
	})
	return Outcome{LocalPath: localPath, SizeBytes: info.Size()}, nil
}

// Push uploads localPath into remoteDir and returns the device path.
func (s *Service) Push(ctx context.Context, deviceID, localPath, remoteDir string) (string, error) {
	remote := bridge.NormalizeDir(remoteDir) + filepath.Base(localPath)
	if !path.IsAbs(remote) {
		return "", &Failure{Remote: remote, Local: localPath, Detail: "device directory must be absolute"}
	}

	info, err := os.Stat(localPath)
	if err != nil {
		return "", s.fail(ctx, deviceID, models.DirectionPush, &Failure{
			Remote: remote, Local: localPath, Detail: err.Error(), Err: err,
		})
	}

	if _, err := s.runner.Run(ctx, bridge.Command{
		Device:  deviceID,
		Args:    []string{"push", localPath, remote},
		Timeout: s.pullTimeout,
	}); err != nil {
		return "", s.fail(ctx, deviceID, models.DirectionPush, &Failure{
			Remote: remote, Local: localPath, Detail: diagnostic(err), Err: err,
		})
	}

	s.logger.Info("pushed file", zap.String("device", deviceID), zap.String("remote", remote), zap.Int64("bytes", info.Size()))
	s.succeed(ctx, models.TransferRecord{
		DeviceID:   deviceID,
		Direction:  models.DirectionPush,
		RemotePath: remote,
		LocalPath:  localPath,
		SizeBytes:  info.Size(),
	})
	return remote, nil
}

// Record writes rec to the ledger, if any. Ledger errors are logged only.
func (s *Service) Record(ctx context.Context, rec models.TransferRecord) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	metrics.RecordTransfer(string(rec.Direction), string(rec.Status), rec.SizeBytes)
	if s.ledger == nil {
		return
	}
	if err := s.ledger.RecordTransfer(ctx, rec); err != nil {
		s.logger.Warn("could not record transfer", zap.String("remote", rec.RemotePath), zap.Error(err))
	}
}

func (s *Service) succeed(ctx context.Context, rec models.TransferRecord) {
	rec.Status = models.StatusOK
	s.Record(ctx, rec)
}

func (s *Service) fail(ctx context.Context, deviceID string, dir models.TransferDirection, f *Failure) error {
	s.logger.Warn("transfer failed",
		zap.String("device", deviceID),
		zap.String("direction", string(dir)),
		zap.String("remote", f.Remote),
		zap.String("local", f.Local),
		zap.String("detail", f.Detail),
	)
	s.Record(ctx, models.TransferRecord{
		DeviceID:   deviceID,
		Direction:  dir,
		RemotePath: f.Remote,
		LocalPath:  f.Local,
		Status:     models.StatusFailed,
		Detail:     f.Detail,
	})
	return f
}

func diagnostic(err error) string {
	var perr *bridge.ProcessError
	if errors.As(err, &perr) {
		if d := perr.Diagnostic(); d != "" {
			return d
		}
	}
	return err.Error()
}
