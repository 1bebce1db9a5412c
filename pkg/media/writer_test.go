package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"daycaresync/pkg/logger"
	"daycaresync/pkg/procare"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubDownloader returns canned bytes keyed by URL
type stubDownloader struct {
	payloads map[string][]byte
	calls    int
}

func (d *stubDownloader) Download(_ context.Context, url string) ([]byte, error) {
	d.calls++
	data, ok := d.payloads[url]
	if !ok {
		return nil, fmt.Errorf("no payload for %s", url)
	}
	return data, nil
}

// recordingTagger skips real MP4 tagging and records what it was asked to do
type recordingTagger struct {
	path     string
	title    string
	keywords []string
	err      error
}

func (r *recordingTagger) Tag(path, title string, keywords []string) error {
	r.path = path
	r.title = title
	r.keywords = keywords
	return r.err
}

func testJPEG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 30), G: uint8(y * 30), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func newTestWriter(t *testing.T, payloads map[string][]byte) (*Writer, string) {
	t.Helper()
	dir := t.TempDir()
	w, err := NewWriter(&stubDownloader{payloads: payloads}, dir, []string{"daycare", "outdoor"}, logger.NewTestLogger())
	require.NoError(t, err)
	return w, dir
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestWritePhotoEmbedsMetadata(t *testing.T) {
	w, dir := newTestWriter(t, map[string][]byte{
		"https://cdn/1.jpg": testJPEG(t),
	})

	path, err := w.Write(context.Background(), procare.Media{
		Caption: "Field Trip",
		Date:    "2023-05-01T10:00:00.000000+0000",
		MainURL: "https://cdn/1.jpg",
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "daycare-2023-05-01T10-00-00.jpg"), path)

	written, err := os.ReadFile(path)
	require.NoError(t, err)

	title, keywords, err := ReadPhotoMetadata(written)
	require.NoError(t, err)
	assert.Equal(t, "Field Trip", title)
	assert.Equal(t, []string{"daycare", "outdoor"}, keywords)

	// No stray temp files
	assert.Equal(t, []string{"daycare-2023-05-01T10-00-00.jpg"}, listDir(t, dir))
}

func TestWriteVideoTagsAndRenames(t *testing.T) {
	w, dir := newTestWriter(t, map[string][]byte{
		"https://cdn/1.mp4": []byte("mp4-bytes"),
	})
	tagger := &recordingTagger{}
	w.SetVideoTagger(tagger)

	path, err := w.Write(context.Background(), procare.Media{
		Caption:      "First Steps",
		Date:         "2023-05-01T10:00:00.000000+0000",
		IsVideo:      true,
		VideoFileURL: "https://cdn/1.mp4",
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "daycare-2023-05-01T10-00-00.mp4"), path)

	// The tagger ran against the temp file, before the rename
	assert.NotEqual(t, path, tagger.path)
	assert.Equal(t, "First Steps", tagger.title)
	assert.Equal(t, []string{"daycare", "outdoor"}, tagger.keywords)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("mp4-bytes"), data)
}

func TestWriteVideoTaggingFailureLeavesNothing(t *testing.T) {
	w, dir := newTestWriter(t, map[string][]byte{
		"https://cdn/1.mp4": []byte("mp4-bytes"),
	})
	w.SetVideoTagger(&recordingTagger{err: fmt.Errorf("not an MP4 container")})

	_, err := w.Write(context.Background(), procare.Media{
		Date:         "2023-05-01T10:00:00.000000+0000",
		IsVideo:      true,
		VideoFileURL: "https://cdn/1.mp4",
	})
	require.Error(t, err)

	// Neither the final file nor the temp file survives a failed tag
	assert.Empty(t, listDir(t, dir))
}

func TestWriteCollisionGetsNumericSuffix(t *testing.T) {
	jpg := testJPEG(t)
	w, dir := newTestWriter(t, map[string][]byte{
		"https://cdn/1.jpg": jpg,
		"https://cdn/2.jpg": jpg,
		"https://cdn/3.jpg": jpg,
	})

	item := procare.Media{Date: "2023-05-01T10:00:00.000000+0000"}

	item.MainURL = "https://cdn/1.jpg"
	first, err := w.Write(context.Background(), item)
	require.NoError(t, err)

	item.MainURL = "https://cdn/2.jpg"
	second, err := w.Write(context.Background(), item)
	require.NoError(t, err)

	item.MainURL = "https://cdn/3.jpg"
	third, err := w.Write(context.Background(), item)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "daycare-2023-05-01T10-00-00.jpg"), first)
	assert.Equal(t, filepath.Join(dir, "daycare-2023-05-01T10-00-00-1.jpg"), second)
	assert.Equal(t, filepath.Join(dir, "daycare-2023-05-01T10-00-00-2.jpg"), third)
}

func TestUniquePathUnstatablePath(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(&stubDownloader{}, dir, nil, logger.NewTestLogger())
	require.NoError(t, err)

	// A path whose parent is a regular file cannot be stat'ed with
	// NotExist; uniquePath must still terminate and hand it back.
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	dest := filepath.Join(blocker, "daycare-2023-05-01T10-00-00.jpg")
	assert.Equal(t, dest, w.uniquePath(dest))
}

func TestWriteBadTimestampNoDownload(t *testing.T) {
	downloader := &stubDownloader{payloads: map[string][]byte{}}
	w, err := NewWriter(downloader, t.TempDir(), nil, logger.NewTestLogger())
	require.NoError(t, err)

	_, err = w.Write(context.Background(), procare.Media{
		Date:    "not-a-timestamp",
		MainURL: "https://cdn/1.jpg",
	})
	require.Error(t, err)
	assert.Zero(t, downloader.calls)
}
