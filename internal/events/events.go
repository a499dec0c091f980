// Package events fans tracking-store changes out to live subscribers over
// websocket and raw TCP (newline-delimited JSON).
package events

import (
	"time"

	"mediatracker/pkg/models"
)

// Event types.
const (
	TypeRecordAdded   = "record_added"
	TypeRecordUpdated = "record_updated"
	TypeRecordRemoved = "record_removed"

	TypeWelcome = "welcome"
	TypeError   = "error"
)

// RecordEvent describes one change to the tracking store. Seq increases by
// one per published event, so a subscriber can detect gaps and resume.
type RecordEvent struct {
	Seq       uint64           `json:"seq"`
	Type      string           `json:"type"`
	RecordID  string           `json:"recordId"`
	MediaType models.MediaType `json:"mediaType,omitempty"`
	Title     string           `json:"title,omitempty"`
	Platform  models.Platform  `json:"platform,omitempty"`
	Status    string           `json:"status,omitempty"`
	At        time.Time        `json:"at"`
}

// Welcome is the first line every subscriber receives. Seq is the last
// event published before the subscription started.
type Welcome struct {
	Type      string `json:"type"`
	Transport string `json:"transport"`
	Seq       uint64 `json:"seq"`
}

// Hello is the first line a TCP subscriber sends. Since asks for a replay of
// retained events after that sequence number.
type Hello struct {
	Token string  `json:"token,omitempty"`
	Since *uint64 `json:"since,omitempty"`
}

type errorLine struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

func newRecordEvent(seq uint64, typ string, rec models.TrackedRecord) RecordEvent {
	return RecordEvent{
		Seq:       seq,
		Type:      typ,
		RecordID:  rec.ID,
		MediaType: rec.MediaType,
		Title:     rec.Title,
		Platform:  rec.Platform,
		Status:    rec.Status,
		At:        time.Now().UTC(),
	}
}
