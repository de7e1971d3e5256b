// Package camera defines [Source], the capture side of the scan pipeline, and file-backed implementations of it.
//
// A terminal has no camera session, so captures read snapshots from disk:
//   - [FileSource] : re-reads one image file on every capture
//   - [DirSource] : picks the most recently modified image in a directory
//
// Each capture returns a fresh [models.Frame] carrying the configured rotation.
package camera

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/desertthunder/barcod/internal/models"
	"github.com/desertthunder/barcod/internal/shared"
)

// Source produces captured frames.
type Source interface {
	// Capture takes one picture. Errors wrap [shared.ErrCaptureFailed].
	Capture(ctx context.Context) (*models.Frame, error)

	// Name identifies the source in logs and history records.
	Name() string
}

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".bmp": true, ".tif": true, ".tiff": true,
}

// IsImagePath reports whether path has a supported image extension.
func IsImagePath(path string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(path))]
}

// NewSource builds the [Source] described by cfg.
func NewSource(cfg shared.CameraConfig) (Source, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("%w: camera.path is empty", shared.ErrInvalidConfig)
	}

	switch cfg.Source {
	case shared.CameraSourceFile, "":
		return NewFileSource(cfg.Path, cfg.Rotation), nil
	case shared.CameraSourceDir:
		return NewDirSource(cfg.Path, cfg.Rotation), nil
	default:
		return nil, fmt.Errorf("%w: unknown camera source %q", shared.ErrInvalidConfig, cfg.Source)
	}
}

// FileSource captures by reading a single image file.
type FileSource struct {
	path     string
	rotation float64
}

// NewFileSource creates a [FileSource] for path whose frames carry rotation degrees.
func NewFileSource(path string, rotation float64) *FileSource {
	return &FileSource{path: path, rotation: rotation}
}

// Capture reads the file as it exists right now.
func (s *FileSource) Capture(ctx context.Context) (*models.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrCaptureFailed, err)
	}
	return readFrame(s.path, s.rotation, s.Name())
}

func (s *FileSource) Name() string { return "file:" + s.path }

// DirSource captures the newest image file in a directory, e.g. a phone's synced camera roll.
type DirSource struct {
	dir      string
	rotation float64
}

// NewDirSource creates a [DirSource] watching dir.
func NewDirSource(dir string, rotation float64) *DirSource {
	return &DirSource{dir: dir, rotation: rotation}
}

// Capture reads the most recently modified image in the directory.
func (s *DirSource) Capture(ctx context.Context) (*models.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrCaptureFailed, err)
	}

	path, err := s.Latest()
	if err != nil {
		return nil, err
	}
	return readFrame(path, s.rotation, s.Name())
}

// Latest returns the path of the newest image in the directory.
//
// Ties on modification time go to the lexically greater name.
func (s *DirSource) Latest() (string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return "", fmt.Errorf("%w: %w", shared.ErrCaptureFailed, err)
	}

	var (
		newest    string
		newestMod time.Time
	)
	for _, entry := range entries {
		if entry.IsDir() || !IsImagePath(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		mod := info.ModTime()
		if newest == "" || mod.After(newestMod) || (mod.Equal(newestMod) && entry.Name() > filepath.Base(newest)) {
			newest = filepath.Join(s.dir, entry.Name())
			newestMod = mod
		}
	}

	if newest == "" {
		return "", fmt.Errorf("%w: %w in %s", shared.ErrCaptureFailed, shared.ErrNoFrame, s.dir)
	}
	return newest, nil
}

func (s *DirSource) Name() string { return "dir:" + s.dir }

func readFrame(path string, rotation float64, source string) (*models.Frame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrCaptureFailed, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %w: %s is empty", shared.ErrCaptureFailed, shared.ErrNoFrame, path)
	}

	return &models.Frame{
		Data:       data,
		Rotation:   rotation,
		CapturedAt: time.Now(),
		Source:     source,
	}, nil
}
