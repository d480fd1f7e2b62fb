package shot

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

const (
	StatusPending    Status = "pending"
	StatusGenerating Status = "generating"
	StatusRendered   Status = "rendered"
	StatusFailed     Status = "failed"
)

type Status string

// Shot is one unit of cinematography metadata as returned by the analyzer.
type Shot struct {
	ShotNumber       int    `json:"shotNumber"`
	SceneDescription string `json:"sceneDescription"`
	CameraAngle      string `json:"cameraAngle"`
	CameraMovement   string `json:"cameraMovement"`
	Lens             string `json:"lens"`
	Lighting         string `json:"lighting"`
	ImagePrompt      string `json:"imagePrompt"`
}

// RenderedShot is a Shot plus its render view state. Values are never
// modified in place once they are part of a List; transitions return copies.
type RenderedShot struct {
	Shot
	ImageURL     string `json:"imageUrl,omitempty"`
	IsGenerating bool   `json:"isGenerating"`
	Error        string `json:"error,omitempty"`
}

func (rs RenderedShot) Status() Status {
	switch {
	case rs.IsGenerating:
		return StatusGenerating
	case rs.Error != "":
		return StatusFailed
	case rs.ImageURL != "":
		return StatusRendered
	default:
		return StatusPending
	}
}

// Pending reports whether a sweep should render this shot.
func (rs RenderedShot) Pending() bool {
	return rs.ImageURL == "" && !rs.IsGenerating
}

// Started marks a new attempt. The previous error is cleared so a
// generating shot never also reports a stale failure.
func (rs RenderedShot) Started() RenderedShot {
	rs.IsGenerating = true
	rs.Error = ""
	return rs
}

func (rs RenderedShot) Succeeded(imageURL string) RenderedShot {
	rs.ImageURL = imageURL
	rs.IsGenerating = false
	rs.Error = ""
	return rs
}

func (rs RenderedShot) Failed(message string) RenderedShot {
	if message == "" {
		message = "image generation failed"
	}
	rs.IsGenerating = false
	rs.Error = message
	return rs
}

const pngDataURLPrefix = "data:image/png;base64,"

var ErrInvalidDataURL = errors.New("invalid data url")

func PNGDataURL(data []byte) string {
	return pngDataURLPrefix + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURL splits a base64 data URL into its MIME type and payload.
func DecodeDataURL(url string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(url, "data:")
	if !ok {
		return "", nil, ErrInvalidDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrInvalidDataURL
	}
	mimeType, ok := strings.CutSuffix(meta, ";base64")
	if !ok || mimeType == "" {
		return "", nil, fmt.Errorf("%w: only base64 payloads are supported", ErrInvalidDataURL)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decode data url: %w", err)
	}
	return mimeType, data, nil
}
