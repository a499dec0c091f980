// Package search is the aggregation engine: it routes a query to one catalog
// (directed mode) or fans it out to every catalog and ranks the pooled
// candidates (auto mode).
package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"mediatracker/internal/catalog"
	"mediatracker/pkg/models"
)

// AutoLimit is how many candidates auto mode returns.
const AutoLimit = 10

// TypeAuto asks for cross-catalog ranking.
const TypeAuto = "auto"

// ErrInvalidRequest is returned before any catalog is contacted.
var ErrInvalidRequest = errors.New("invalid request")

// Query is one search call. Type is a media type, "auto" or empty.
type Query struct {
	Text string `json:"query"`
	Type string `json:"type"`
}

// Engine holds one adapter per catalog. A nil adapter is treated as a
// catalog that never matches.
type Engine struct {
	Screen   catalog.Adapter
	Books    catalog.Adapter
	Games    catalog.Adapter
	Anime    catalog.Adapter
	Manga    catalog.Adapter
	Podcasts catalog.Adapter
}

// parse validates q. auto is true when no media type was given.
func parse(q Query) (text string, t models.MediaType, auto bool, err error) {
	text = strings.TrimSpace(q.Text)
	if text == "" {
		return "", "", false, fmt.Errorf("%w: query is required", ErrInvalidRequest)
	}
	raw := strings.ToLower(strings.TrimSpace(q.Type))
	if raw == "" || raw == TypeAuto {
		return text, "", true, nil
	}
	t, ok := models.ParseMediaType(raw)
	if !ok {
		return "", "", false, fmt.Errorf("%w: unknown type %q", ErrInvalidRequest, q.Type)
	}
	return text, t, false, nil
}

// Search returns the directed adapter's candidates, or the top AutoLimit
// candidates across catalogs in auto mode. No match is an empty slice, not
// an error.
func (e *Engine) Search(ctx context.Context, q Query) ([]models.Candidate, error) {
	text, t, auto, err := parse(q)
	if err != nil {
		return nil, err
	}
	if auto {
		return e.auto(ctx, text, 0), nil
	}
	return e.directed(ctx, text, t, 0), nil
}

// Best returns the single best candidate, or nil when nothing matched.
// Adapters are asked for one item each.
func (e *Engine) Best(ctx context.Context, q Query) (*models.Candidate, error) {
	text, t, auto, err := parse(q)
	if err != nil {
		return nil, err
	}
	var pool []models.Candidate
	if auto {
		pool = e.auto(ctx, text, 1)
	} else {
		pool = e.directed(ctx, text, t, 1)
	}
	if len(pool) == 0 {
		return nil, nil
	}
	best := pool[0]
	return &best, nil
}

type route struct {
	adapter catalog.Adapter
	variant catalog.Variant
}

func (e *Engine) routeFor(t models.MediaType) route {
	switch t {
	case models.MediaMovie:
		return route{e.Screen, catalog.VariantMovie}
	case models.MediaTV:
		return route{e.Screen, catalog.VariantTV}
	case models.MediaAnime:
		return route{e.Anime, catalog.VariantAuto}
	case models.MediaBook:
		return route{e.Books, catalog.VariantBook}
	case models.MediaAudiobook:
		return route{e.Books, catalog.VariantAudiobook}
	case models.MediaPodcast:
		return route{e.Podcasts, catalog.VariantAuto}
	case models.MediaGame:
		return route{e.Games, catalog.VariantAuto}
	case models.MediaManga:
		return route{e.Manga, catalog.VariantAuto}
	}
	return route{}
}

// directed runs exactly one adapter. Anime falls back to the screen catalog's
// tv search when the anime catalog has nothing, relabeling the results.
func (e *Engine) directed(ctx context.Context, text string, t models.MediaType, limit int) []models.Candidate {
	r := e.routeFor(t)
	out := e.run(ctx, r.adapter, catalog.Request{Query: text, Variant: r.variant, Limit: limit})

	if len(out) == 0 && t == models.MediaAnime && e.Screen != nil {
		log.Debug().Str("component", "search").Str("query", text).Msg("anime catalog empty, trying screen tv")
		tv := e.run(ctx, e.Screen, catalog.Request{Query: text, Variant: catalog.VariantTV, Limit: limit})
		out = make([]models.Candidate, 0, len(tv))
		for _, c := range tv {
			out = append(out, c.WithMediaType(models.MediaAnime))
		}
	}

	kept := out[:0]
	for _, c := range out {
		if c.MediaType == t {
			kept = append(kept, c)
		}
	}
	return kept
}

// autoRoutes are the catalogs consulted without a type hint. Manga is left
// out: its titles overlap the anime catalog.
func (e *Engine) autoRoutes() []route {
	return []route{
		{e.Screen, catalog.VariantMulti},
		{e.Books, catalog.VariantAuto},
		{e.Games, catalog.VariantAuto},
		{e.Anime, catalog.VariantAuto},
		{e.Podcasts, catalog.VariantAuto},
	}
}

// auto fans out to every auto route, waits for all of them to settle, pools
// the candidates and ranks them by raw score. Scores from different catalogs
// are compared as-is.
func (e *Engine) auto(ctx context.Context, text string, limit int) []models.Candidate {
	routes := e.autoRoutes()
	results := make([][]models.Candidate, len(routes))

	var wg sync.WaitGroup
	for i, r := range routes {
		i, r := i, r
		if r.adapter == nil {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = e.run(ctx, r.adapter, catalog.Request{Query: text, Variant: r.variant, Limit: limit})
		}()
	}
	wg.Wait()

	var pool []models.Candidate
	for _, rs := range results {
		pool = append(pool, rs...)
	}
	return rank(pool, AutoLimit)
}

// run calls one adapter and contains anything it does wrong, panics included.
func (e *Engine) run(ctx context.Context, a catalog.Adapter, req catalog.Request) (out []models.Candidate) {
	if a == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("component", "search").Str("source", a.Name()).Interface("panic", r).Msg("adapter panicked")
			out = nil
		}
	}()
	return a.Search(ctx, req)
}

// rank sorts by score, highest first, keeping catalog order among ties, and
// truncates to n.
func rank(pool []models.Candidate, n int) []models.Candidate {
	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].Score > pool[j].Score
	})
	if len(pool) > n {
		pool = pool[:n]
	}
	return pool
}
