package search

import (
	"context"
	"fmt"
	"strings"

	"mediatracker/internal/catalog"
	"mediatracker/pkg/models"
)

// DetailsQuery identifies one catalog item. Source is the candidate's source
// name; it only matters for anime found through the screen catalog.
type DetailsQuery struct {
	ID     string
	Type   string
	Source string
}

// Details returns the raw upstream record for an item.
func (e *Engine) Details(ctx context.Context, q DetailsQuery) (map[string]any, error) {
	id := strings.TrimSpace(q.ID)
	if id == "" {
		return nil, fmt.Errorf("%w: id is required", ErrInvalidRequest)
	}
	t, ok := models.ParseMediaType(q.Type)
	if !ok {
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidRequest, q.Type)
	}

	a := e.routeFor(t).adapter
	if t == models.MediaAnime && e.Screen != nil && q.Source == e.Screen.Name() {
		a = e.Screen
	}
	p, ok := a.(catalog.DetailsProvider)
	if a == nil || !ok {
		return nil, fmt.Errorf("%s: %w", t, catalog.ErrUnsupportedDetails)
	}
	return p.Details(ctx, id, t)
}
