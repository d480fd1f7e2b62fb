package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyboard/internal/shot"
	"storyboard/internal/storage"
)

var fixedTime = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func testShots(t *testing.T) []shot.RenderedShot {
	list := shot.NewList([]shot.Shot{
		{ShotNumber: 1, ImagePrompt: "a"},
		{ShotNumber: 2, ImagePrompt: "b"},
		{ShotNumber: 3, ImagePrompt: "c"},
	})
	list = list.With(0, list.At(0).Succeeded(shot.PNGDataURL(testPNG(t))))
	list = list.With(1, list.At(1).Failed("no image generated"))
	list = list.With(2, list.At(2).Succeeded(shot.PNGDataURL(testPNG(t))))
	return list.Shots()
}

func newTestExporter(store storage.Store, format string) *Exporter {
	e := NewExporter(store, format, 80)
	e.now = func() time.Time { return fixedTime }
	return e
}

func TestExportPNG(t *testing.T) {
	root := t.TempDir()
	e := newTestExporter(storage.NewLocalStorage(root), FormatPNG)

	result, err := e.Export(context.Background(), "Coffee Ad!", testShots(t))
	require.NoError(t, err)

	assert.Equal(t, "20250314_092653_coffee_ad", result.Session)
	assert.Len(t, result.Images, 2)
	assert.Equal(t, 1, result.Skipped)

	dir := filepath.Join(root, result.Session)
	for _, name := range []string{"shot_01.png", "shot_03.png", "shots.json"} {
		assert.FileExists(t, filepath.Join(dir, name))
	}
	assert.NoFileExists(t, filepath.Join(dir, "shot_02.png"))

	saved, err := os.ReadFile(filepath.Join(dir, "shot_01.png"))
	require.NoError(t, err)
	assert.Equal(t, testPNG(t), saved)

	data, err := os.ReadFile(filepath.Join(dir, "shots.json"))
	require.NoError(t, err)
	var manifest Manifest
	require.NoError(t, json.Unmarshal(data, &manifest))

	require.Len(t, manifest.Shots, 3)
	assert.Equal(t, "shot_01.png", manifest.Shots[0].ImageFile)
	assert.Equal(t, shot.StatusRendered, manifest.Shots[0].Status)
	assert.Empty(t, manifest.Shots[1].ImageFile)
	assert.Equal(t, shot.StatusFailed, manifest.Shots[1].Status)
	assert.Equal(t, "no image generated", manifest.Shots[1].Error)
	assert.Equal(t, 3, manifest.Shots[2].ShotNumber)
}

func TestExportJPEG(t *testing.T) {
	root := t.TempDir()
	e := newTestExporter(storage.NewLocalStorage(root), FormatJPEG)

	result, err := e.Export(context.Background(), "", testShots(t))
	require.NoError(t, err)

	assert.Equal(t, "20250314_092653_storyboard", result.Session)
	data, err := os.ReadFile(filepath.Join(root, result.Session, "shot_01.jpg"))
	require.NoError(t, err)

	_, format, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
}

func TestExportEmptyBoard(t *testing.T) {
	root := t.TempDir()
	e := newTestExporter(storage.NewLocalStorage(root), FormatPNG)

	result, err := e.Export(context.Background(), "empty", nil)
	require.NoError(t, err)

	assert.Empty(t, result.Images)
	assert.FileExists(t, filepath.Join(root, result.Session, "shots.json"))
}

type failingStore struct{}

func (failingStore) Save(context.Context, string, []byte, string) (string, error) {
	return "", errors.New("bucket unavailable")
}

func (failingStore) List(context.Context, string) ([]string, error) { return nil, nil }

func TestExportStoreFailure(t *testing.T) {
	e := newTestExporter(failingStore{}, FormatPNG)

	_, err := e.Export(context.Background(), "x", testShots(t))
	assert.ErrorContains(t, err, "bucket unavailable")
}

func TestSessions(t *testing.T) {
	root := t.TempDir()
	e := newTestExporter(storage.NewLocalStorage(root), FormatPNG)
	_, err := e.Export(context.Background(), "film", testShots(t))
	require.NoError(t, err)

	paths, err := e.Sessions(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, paths, 3)
}

func TestSessionName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "simple", input: "Coffee Ad", want: "20250314_092653_coffee_ad"},
		{name: "symbolsOnly", input: "!!!", want: "20250314_092653_storyboard"},
		{name: "empty", input: "", want: "20250314_092653_storyboard"},
		{name: "keepsDashes", input: "spot-30s", want: "20250314_092653_spot-30s"},
		{
			name:  "truncated",
			input: "a very long commercial title that keeps going well past fifty characters",
			want:  "20250314_092653_a_very_long_commercial_title_that_keeps_going_well",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sessionName(fixedTime, tt.input))
		})
	}
}
