package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"daycaresync/pkg/errors"
	"daycaresync/pkg/logger"
	"daycaresync/pkg/procare"
)

// Downloader fetches raw media bytes
type Downloader interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// Writer downloads media items and persists them with embedded title and
// keyword metadata. Both kinds are written to a private temp file in the
// destination directory and atomically renamed into place: nothing ever
// exists at the final path unless the full write+tag sequence succeeded.
type Writer struct {
	downloader Downloader
	dir        string
	tags       []string
	tagger     VideoTagger
	logger     logger.Logger
}

// NewWriter creates a media writer rooted at dir, creating it if needed
func NewWriter(downloader Downloader, dir string, tags []string, log logger.Logger) (*Writer, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}
	if len(tags) == 0 {
		tags = []string{"daycare"}
	}
	if log == nil {
		log = logger.GetLogger()
	}

	return &Writer{
		downloader: downloader,
		dir:        dir,
		tags:       tags,
		tagger:     NewMP4Tagger(),
		logger:     log,
	}, nil
}

// SetVideoTagger replaces the MP4 tagger, primarily for tests
func (w *Writer) SetVideoTagger(t VideoTagger) {
	w.tagger = t
}

// Write downloads one media item and persists it, returning the final path.
// The caption becomes the embedded title; the writer's configured keywords
// become the tag list.
func (w *Writer) Write(ctx context.Context, item procare.Media) (string, error) {
	name, err := Filename(item.Date, item.IsVideo)
	if err != nil {
		return "", err
	}
	dest := w.uniquePath(filepath.Join(w.dir, name))

	data, err := w.downloader.Download(ctx, item.SourceURL())
	if err != nil {
		return "", err
	}

	if item.IsVideo {
		err = w.writeVideo(data, dest, item.Caption)
	} else {
		err = w.writePhoto(data, dest, item.Caption)
	}
	if err != nil {
		return "", err
	}

	w.logger.DebugWithFields("media written", map[string]interface{}{
		"path":  dest,
		"video": item.IsVideo,
		"size":  len(data),
	})

	return dest, nil
}

// uniquePath disambiguates timestamp collisions with a numeric suffix
// instead of silently overwriting an earlier item. Any Stat error, not just
// NotExist, means the path is free to try: the write itself will surface the
// real failure.
func (w *Writer) uniquePath(dest string) string {
	if _, err := os.Stat(dest); err != nil {
		return dest
	}

	ext := filepath.Ext(dest)
	stem := strings.TrimSuffix(dest, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s-%d%s", stem, i, ext)
		if _, err := os.Stat(candidate); err != nil {
			return candidate
		}
	}
}

// writeVideo persists a video: temp write, container tag, atomic rename
func (w *Writer) writeVideo(data []byte, dest, title string) error {
	tmp, err := os.CreateTemp(w.dir, ".daycare-*.mp4")
	if err != nil {
		return errors.New(errors.ErrorTypeMediaWrite, "failed to create temp file: %v", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.New(errors.ErrorTypeMediaWrite, "failed to write video data: %v", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.New(errors.ErrorTypeMediaWrite, "failed to close temp file: %v", err)
	}

	if err := w.tagger.Tag(tmpPath, title, w.tags); err != nil {
		os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return errors.New(errors.ErrorTypeMediaWrite, "failed to move video into place: %v", err)
	}
	return nil
}

// writePhoto persists a photo: EXIF embed, temp write, atomic rename
func (w *Writer) writePhoto(data []byte, dest, title string) error {
	tagged, err := embedPhotoMetadata(data, title, w.tags)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(w.dir, ".daycare-*.jpg")
	if err != nil {
		return errors.New(errors.ErrorTypeMediaWrite, "failed to create temp file: %v", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(tagged); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.New(errors.ErrorTypeMediaWrite, "failed to write photo data: %v", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.New(errors.ErrorTypeMediaWrite, "failed to close temp file: %v", err)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return errors.New(errors.ErrorTypeMediaWrite, "failed to move photo into place: %v", err)
	}
	return nil
}
