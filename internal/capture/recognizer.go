// Package capture turns a photograph of some media into a tracked record:
// recognize → best search → save.
package capture

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrUnidentified means the recognizer could not name the media.
	ErrUnidentified = errors.New("could not identify media in this image")
	// ErrNotFound means the title was recognized but no catalog matched it.
	ErrNotFound = errors.New("identified media not found in any catalog")
	// ErrInvalidImage is a client error: missing or undecodable image data.
	ErrInvalidImage = errors.New("invalid image data")
	// ErrNotConfigured means no recognizer credential is set.
	ErrNotConfigured = errors.New("image recognition not configured")
)

// Identification is what a Recognizer reports about an image.
type Identification struct {
	Title          string `json:"title"`
	AlternateTitle string `json:"alternateTitle,omitempty"`
	Type           string `json:"type"`
	// Confidence is high, medium, low or none.
	Confidence string `json:"confidence"`
}

// Identified reports whether id names something worth searching for.
func (id Identification) Identified() bool {
	return strings.TrimSpace(id.Title) != "" && !strings.EqualFold(id.Confidence, "none")
}

// Recognizer names the media shown in an image.
type Recognizer interface {
	Identify(ctx context.Context, img Image) (Identification, error)
}

// Image is base64 image data and its MIME type.
type Image struct {
	MediaType string
	Data      string
}

var dataURL = regexp.MustCompile(`^data:([^;]+);base64,(.+)$`)

// ParseImage accepts a data URL or bare base64 (assumed JPEG).
func ParseImage(raw string) (Image, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Image{}, fmt.Errorf("%w: image is required", ErrInvalidImage)
	}
	img := Image{MediaType: "image/jpeg", Data: raw}
	if strings.HasPrefix(raw, "data:") {
		m := dataURL.FindStringSubmatch(raw)
		if m == nil {
			return Image{}, fmt.Errorf("%w: malformed data url", ErrInvalidImage)
		}
		img.MediaType, img.Data = m[1], m[2]
	}
	if !strings.HasPrefix(img.MediaType, "image/") {
		return Image{}, fmt.Errorf("%w: unsupported media type %q", ErrInvalidImage, img.MediaType)
	}
	if _, err := base64.StdEncoding.DecodeString(img.Data); err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return img, nil
}
