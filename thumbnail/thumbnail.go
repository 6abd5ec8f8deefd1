// Package thumbnail renders preview images for pulled media files.
package thumbnail

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/nrtkbb/adbfm/bridge"
	"github.com/nrtkbb/adbfm/metrics"
	"github.com/rwcarlsen/goexif/exif"
	"go.uber.org/zap"
)

const (
	MaxSize = 960
	Quality = 80
)

type Generator struct {
	ffmpeg   bridge.Runner
	cacheDir string
	logger   *zap.Logger
}

// NewGenerator uses ffmpeg (a runner for the ffmpeg binary) and stores
// thumbnails in cacheDir.
func NewGenerator(ffmpeg bridge.Runner, cacheDir string, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{ffmpeg: ffmpeg, cacheDir: cacheDir, logger: logger}
}

// Path is where the thumbnail for mediaPath lives. The short path hash keeps
// "a.jpg" and "a.mp4", or the same name from two devices, apart.
func (g *Generator) Path(mediaPath string) string {
	abs, err := filepath.Abs(mediaPath)
	if err != nil {
		abs = mediaPath
	}
	sum := sha256.Sum256([]byte(abs))
	base := filepath.Base(mediaPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(g.cacheDir, stem+"-"+hex.EncodeToString(sum[:4])+"_thumb.jpg")
}

// Thumbnail returns the path of a JPEG preview of mediaPath no larger than
// MaxSize on either side, generating it on first use.
func (g *Generator) Thumbnail(ctx context.Context, mediaPath string) (string, error) {
	thumb := g.Path(mediaPath)
	if _, err := os.Stat(thumb); err == nil {
		metrics.RecordThumbnail("cache", true)
		return thumb, nil
	}
	if err := os.MkdirAll(g.cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("thumbnail dir: %w", err)
	}

	_, runErr := g.ffmpeg.Run(ctx, bridge.Command{Args: FFmpegArgs(mediaPath, thumb)})
	if runErr == nil {
		if _, err := os.Stat(thumb); err == nil {
			metrics.RecordThumbnail("ffmpeg", true)
			return thumb, nil
		}
		runErr = errors.New("ffmpeg wrote no output")
	}
	metrics.RecordThumbnail("ffmpeg", false)

	if !strings.HasPrefix(bridge.MimeType(mediaPath), "image/") {
		return "", fmt.Errorf("thumbnail %s: %w", filepath.Base(mediaPath), runErr)
	}

	g.logger.Info("ffmpeg failed, resizing in process", zap.String("file", mediaPath), zap.Error(runErr))
	if err := resizeImage(mediaPath, thumb); err != nil {
		metrics.RecordThumbnail("imaging", false)
		return "", fmt.Errorf("thumbnail %s: %w", filepath.Base(mediaPath), errors.Join(runErr, err))
	}
	metrics.RecordThumbnail("imaging", true)
	return thumb, nil
}

// FFmpegArgs grabs one frame scaled to fit MaxSize x MaxSize.
func FFmpegArgs(in, out string) []string {
	return []string{
		"-i", in,
		"-vf", fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease", MaxSize, MaxSize),
		"-vframes", "1",
		"-y",
		"-loglevel", "error",
		out,
	}
}

func resizeImage(src, dst string) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()

	orientation := readOrientation(f)
	if _, err := f.Seek(0, 0); err != nil {
		return err
	}
	img, err := imaging.Decode(f)
	if err != nil {
		return err
	}
	img = applyOrientation(img, orientation)
	thumb := imaging.Fit(img, MaxSize, MaxSize, imaging.Lanczos)

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".thumb-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if err := imaging.Encode(tmp, thumb, imaging.JPEG, imaging.JPEGQuality(Quality)); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dst)
}

// readOrientation returns the EXIF orientation tag, 1 when absent.
func readOrientation(f *os.File) int {
	x, err := exif.Decode(f)
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	v, err := tag.Int(0)
	if err != nil || v < 1 || v > 8 {
		return 1
	}
	return v
}

func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
