package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"time"

	"storyboard/internal/imgutil"
	"storyboard/internal/shot"
	"storyboard/internal/storage"
)

const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"

	manifestFile = "shots.json"
)

type Exporter struct {
	store   storage.Store
	format  string
	quality int
	now     func() time.Time
}

func NewExporter(store storage.Store, format string, jpegQuality int) *Exporter {
	if format == "" {
		format = FormatPNG
	}
	return &Exporter{store: store, format: format, quality: jpegQuality, now: time.Now}
}

type Result struct {
	Session  string   `json:"session"`
	Manifest string   `json:"manifest"`
	Images   []string `json:"images"`
	Skipped  int      `json:"skipped"`
}

type Manifest struct {
	Session   string          `json:"session"`
	CreatedAt time.Time       `json:"createdAt"`
	Shots     []ManifestEntry `json:"shots"`
}

type ManifestEntry struct {
	shot.Shot
	Status    shot.Status `json:"status"`
	Error     string      `json:"error,omitempty"`
	ImageFile string      `json:"imageFile,omitempty"`
}

// Export writes every rendered shot's image and a manifest of all shots
// into a new session directory of the store.
func (e *Exporter) Export(ctx context.Context, name string, shots []shot.RenderedShot) (*Result, error) {
	createdAt := e.now()
	session := sessionName(createdAt, name)

	result := &Result{Session: session}
	manifest := Manifest{Session: session, CreatedAt: createdAt, Shots: make([]ManifestEntry, 0, len(shots))}

	for i, rs := range shots {
		entry := ManifestEntry{Shot: rs.Shot, Status: rs.Status(), Error: rs.Error}

		if rs.ImageURL == "" {
			result.Skipped++
			manifest.Shots = append(manifest.Shots, entry)
			continue
		}

		data, contentType, ext, err := e.encode(rs.ImageURL)
		if err != nil {
			return nil, fmt.Errorf("encode shot %d: %w", rs.ShotNumber, err)
		}

		file := fmt.Sprintf("shot_%02d.%s", i+1, ext)
		location, err := e.store.Save(ctx, path.Join(session, file), data, contentType)
		if err != nil {
			return nil, fmt.Errorf("save shot %d: %w", rs.ShotNumber, err)
		}

		entry.ImageFile = file
		result.Images = append(result.Images, location)
		manifest.Shots = append(manifest.Shots, entry)
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	result.Manifest, err = e.store.Save(ctx, path.Join(session, manifestFile), data, "application/json")
	if err != nil {
		return nil, fmt.Errorf("save manifest: %w", err)
	}

	slog.Info("Exported storyboard", "session", session, "images", len(result.Images), "skipped", result.Skipped)
	return result, nil
}

func (e *Exporter) encode(imageURL string) (data []byte, contentType, ext string, err error) {
	mimeType, data, err := shot.DecodeDataURL(imageURL)
	if err != nil {
		return nil, "", "", err
	}

	if e.format == FormatJPEG {
		data, err = imgutil.CompressToJPEG(data, e.quality)
		if err != nil {
			return nil, "", "", err
		}
		return data, "image/jpeg", "jpg", nil
	}
	return data, mimeType, "png", nil
}

// Sessions lists the stored artifacts, optionally narrowed to a prefix.
func (e *Exporter) Sessions(ctx context.Context, prefix string) ([]string, error) {
	return e.store.List(ctx, prefix)
}
