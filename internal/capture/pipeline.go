package capture

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"mediatracker/internal/search"
	"mediatracker/pkg/models"
)

// Searcher finds the single best candidate for a query.
type Searcher interface {
	Best(ctx context.Context, q search.Query) (*models.Candidate, error)
}

// Sink persists a candidate.
type Sink interface {
	Save(ctx context.Context, c models.Candidate) (models.TrackedRecord, bool, error)
}

type Pipeline struct {
	Recognizer Recognizer
	Search     Searcher
	Sink       Sink
}

// Result is a successful capture.
type Result struct {
	Identification Identification
	Candidate      models.Candidate
	Record         models.TrackedRecord
	Created        bool
}

// Identify runs only the recognition step.
func (p *Pipeline) Identify(ctx context.Context, img Image) (Identification, error) {
	id, err := p.Recognizer.Identify(ctx, img)
	if err != nil {
		return Identification{}, err
	}
	if !id.Identified() {
		return id, ErrUnidentified
	}
	return id, nil
}

// Capture recognizes img, searches for the best match and saves it. An
// unknown or missing recognized type searches every catalog.
func (p *Pipeline) Capture(ctx context.Context, img Image) (Result, error) {
	id, err := p.Identify(ctx, img)
	if err != nil {
		return Result{Identification: id}, err
	}
	logger := log.With().Str("component", "capture").Str("title", id.Title).Str("type", id.Type).Logger()

	typ := search.TypeAuto
	if t, ok := models.ParseMediaType(id.Type); ok {
		typ = string(t)
	}

	best, err := p.Search.Best(ctx, search.Query{Text: id.Title, Type: typ})
	if err != nil {
		return Result{Identification: id}, fmt.Errorf("search %q: %w", id.Title, err)
	}
	if best == nil && id.AlternateTitle != "" && id.AlternateTitle != id.Title {
		logger.Debug().Str("alternate", id.AlternateTitle).Msg("no match, trying alternate title")
		best, err = p.Search.Best(ctx, search.Query{Text: id.AlternateTitle, Type: typ})
		if err != nil {
			return Result{Identification: id}, fmt.Errorf("search %q: %w", id.AlternateTitle, err)
		}
	}
	if best == nil {
		return Result{Identification: id}, ErrNotFound
	}

	rec, created, err := p.Sink.Save(ctx, *best)
	if err != nil {
		return Result{Identification: id, Candidate: *best}, fmt.Errorf("save %q: %w", best.Title, err)
	}
	logger.Info().Str("record", rec.ID).Bool("created", created).Msg("captured")
	return Result{Identification: id, Candidate: *best, Record: rec, Created: created}, nil
}
