package models

import "encoding/json"

// Candidate is the normalized, source-agnostic search result every catalog
// adapter produces. Candidates are values: adapters build them once and the
// search engine only reads and reorders them.
//
// Score is a per-source popularity proxy and is not comparable across sources.
type Candidate struct {
	MediaType          MediaType          `json:"mediaType"`
	Title              string             `json:"title"`
	Year               string             `json:"year"`
	Overview           string             `json:"overview"`
	ImageURL           string             `json:"imageUrl,omitempty"`
	Platform           Platform           `json:"platform,omitempty"`
	PlatformConfidence PlatformConfidence `json:"platformConfidence,omitempty"`
	Genres             []string           `json:"genres"`
	Author             string             `json:"author,omitempty"`
	ExternalURL        string             `json:"externalUrl"`
	Score              float64            `json:"score"`

	Source   string `json:"source"`             // catalog name, e.g. "tmdb"
	SourceID string `json:"sourceId,omitempty"` // id usable with the details lookup
}

// Valid reports whether c carries the two mandatory fields.
func (c Candidate) Valid() bool {
	return c.MediaType.Valid() && c.Title != ""
}

// WithMediaType returns a copy of c relabeled as t. The genre slice is copied
// so the original stays untouched.
func (c Candidate) WithMediaType(t MediaType) Candidate {
	out := c
	out.MediaType = t
	out.Genres = append([]string(nil), c.Genres...)
	return out
}

// MarshalJSON always writes imageUrl, platform and genres. Unresolved values
// come out as null, and a nil genre slice as [].
func (c Candidate) MarshalJSON() ([]byte, error) {
	type plain Candidate
	out := struct {
		plain
		ImageURL           *string             `json:"imageUrl"`
		Platform           *Platform           `json:"platform"`
		PlatformConfidence *PlatformConfidence `json:"platformConfidence"`
		Genres             []string            `json:"genres"`
	}{plain: plain(c), Genres: c.Genres}

	if c.ImageURL != "" {
		out.ImageURL = &c.ImageURL
	}
	if c.Platform != "" {
		out.Platform = &c.Platform
		if c.PlatformConfidence != "" {
			out.PlatformConfidence = &c.PlatformConfidence
		}
	}
	if out.Genres == nil {
		out.Genres = []string{}
	}
	return json.Marshal(out)
}
