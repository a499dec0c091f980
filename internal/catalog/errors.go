package catalog

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

var (
	// ErrMissingCredential is returned by details lookups on catalogs whose
	// API key is not configured. Searches just come back empty.
	ErrMissingCredential = errors.New("catalog credential not configured")
	// ErrUnsupportedDetails means no catalog serves details for the type.
	ErrUnsupportedDetails = errors.New("details not supported for media type")
	// ErrNotFound is returned when a details lookup matched nothing.
	ErrNotFound = errors.New("item not found")
)

// ErrorKind classifies a contained adapter failure.
type ErrorKind string

const (
	KindSourceUnavailable ErrorKind = "source_unavailable"
	KindMalformedUpstream ErrorKind = "malformed_upstream"
)

// StatusError is a non-2xx answer from a catalog.
type StatusError struct {
	Source     string
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: HTTP %d", e.Source, e.StatusCode)
}

// SourceError wraps anything that went wrong talking to one catalog.
type SourceError struct {
	Source string
	Kind   ErrorKind
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Source, e.Kind, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

func logFailure(source string, err error) {
	kind := KindSourceUnavailable
	var se *SourceError
	if errors.As(err, &se) {
		kind = se.Kind
	}
	log.Warn().
		Str("component", "catalog").
		Str("source", source).
		Str("kind", string(kind)).
		Err(err).
		Msg("catalog search contained")
}

func logMissingKey(source string) {
	log.Debug().
		Str("component", "catalog").
		Str("source", source).
		Msg("no credential configured, skipping")
}
