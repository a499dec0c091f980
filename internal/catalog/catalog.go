// Package catalog holds one adapter per external media catalog. Each adapter
// issues its own HTTP queries and maps the raw response into
// models.Candidate. Adapters never fail a search: an unreachable catalog, a
// non-2xx status, an undecodable body or a missing credential all produce an
// empty result, so one broken source cannot take down an aggregation.
package catalog

import (
	"context"
	"strings"

	"mediatracker/pkg/models"
)

// DefaultLimit is the per-source top-N.
const DefaultLimit = 5

// Variant selects a sub-mode of an adapter. VariantAuto lets the adapter
// decide (e.g. the screen adapter searches movies and tv together).
type Variant string

const (
	VariantAuto      Variant = ""
	VariantMulti     Variant = "multi"
	VariantMovie     Variant = "movie"
	VariantTV        Variant = "tv"
	VariantBook      Variant = "book"
	VariantAudiobook Variant = "audiobook"
)

// Request is one adapter invocation.
type Request struct {
	Query   string
	Variant Variant
	// Limit caps the number of candidates; 0 means DefaultLimit. The
	// single-best search path passes 1.
	Limit int
}

func (r Request) limit() int {
	if r.Limit <= 0 || r.Limit > DefaultLimit {
		return DefaultLimit
	}
	return r.Limit
}

func (r Request) query() string {
	return strings.TrimSpace(r.Query)
}

// Adapter is implemented by every catalog.
type Adapter interface {
	Name() string
	Search(ctx context.Context, req Request) []models.Candidate
}

// DetailsProvider returns the raw upstream record for an item id.
type DetailsProvider interface {
	Details(ctx context.Context, id string, mediaType models.MediaType) (map[string]any, error)
}

// keepValid drops candidates without the mandatory fields.
func keepValid(in []models.Candidate) []models.Candidate {
	out := in[:0]
	for _, c := range in {
		if c.Valid() {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
