package models

import "time"

// Record statuses.
const (
	StatusWant       = "want"
	StatusInProgress = "in_progress"
	StatusDone       = "done"
)

// TrackedRecord is a Candidate after it has been written into the personal
// tracking store.
type TrackedRecord struct {
	ID                 string             `json:"id"`
	MediaType          MediaType          `json:"mediaType"`
	Title              string             `json:"title"`
	Year               string             `json:"year,omitempty"`
	Overview           string             `json:"overview,omitempty"`
	ImageURL           string             `json:"imageUrl,omitempty"`
	Platform           Platform           `json:"platform,omitempty"`
	PlatformConfidence PlatformConfidence `json:"platformConfidence,omitempty"`
	Genres             []string           `json:"genres"`
	Author             string             `json:"author,omitempty"`
	ExternalURL        string             `json:"externalUrl,omitempty"`
	Source             string             `json:"source,omitempty"`
	Status             string             `json:"status"`
	AddedAt            time.Time          `json:"addedAt"`
}
