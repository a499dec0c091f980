// Package taxonomy owns the fixed destination vocabularies (platforms and
// genres) and the per-catalog synonym tables that map source strings into
// them. The tables are configuration data: they are embedded as JSON,
// validated once, and shared read-only by every adapter.
package taxonomy

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"mediatracker/pkg/models"
)

//go:embed tables.json
var embeddedTables []byte

// Source tags which per-catalog synonym table to use.
type Source string

const (
	SourceTMDB  Source = "tmdb"
	SourceJikan Source = "jikan"
	SourceRAWG  Source = "rawg"
)

// Tables is a loaded, validated mapping set. It is never mutated after
// Parse returns.
type Tables struct {
	Version        string
	genres         []string
	genreMap       map[string]string
	screenGenreIDs map[int]string
	platforms      map[Source]map[string]models.Platform
}

type rawTables struct {
	Version        string                       `json:"version"`
	Genres         []string                     `json:"genres"`
	GenreMap       map[string]string            `json:"genreMap"`
	ScreenGenreIDs map[int]string               `json:"screenGenreIds"`
	Platforms      map[string]map[string]string `json:"platforms"`
}

// Default returns the embedded tables.
var Default = sync.OnceValue(func() *Tables {
	t, err := Parse(embeddedTables)
	if err != nil {
		panic(fmt.Sprintf("taxonomy: embedded tables invalid: %v", err))
	}
	return t
})

// Load reads tables from path, or returns Default when path is empty.
func Load(path string) (*Tables, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy %s: %w", path, err)
	}
	return Parse(b)
}

// Parse decodes and validates a tables document. Every platform target must
// be a known models.Platform and every genre target a taxonomy member.
// Taxonomy members always map to themselves so Normalize is idempotent.
func Parse(b []byte) (*Tables, error) {
	var raw rawTables
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("decode taxonomy: %w", err)
	}
	if len(raw.Genres) == 0 {
		return nil, fmt.Errorf("taxonomy %q: empty genre list", raw.Version)
	}

	members := make(map[string]bool, len(raw.Genres))
	for _, g := range raw.Genres {
		members[g] = true
	}

	t := &Tables{
		Version:        raw.Version,
		genres:         append([]string(nil), raw.Genres...),
		genreMap:       make(map[string]string, len(raw.GenreMap)+len(raw.Genres)),
		screenGenreIDs: make(map[int]string, len(raw.ScreenGenreIDs)),
		platforms:      make(map[Source]map[string]models.Platform, len(raw.Platforms)),
	}
	for from, to := range raw.GenreMap {
		if !members[to] {
			return nil, fmt.Errorf("genre %q maps to %q which is not in the taxonomy", from, to)
		}
		t.genreMap[from] = to
	}
	for _, g := range raw.Genres {
		t.genreMap[g] = g
	}
	for id, name := range raw.ScreenGenreIDs {
		t.screenGenreIDs[id] = name
	}
	for src, table := range raw.Platforms {
		m := make(map[string]models.Platform, len(table))
		for from, to := range table {
			p := models.Platform(to)
			if !p.Valid() {
				return nil, fmt.Errorf("platform %q (%s) maps to unknown platform %q", from, src, to)
			}
			m[from] = p
		}
		t.platforms[Source(src)] = m
	}
	return t, nil
}

// Genres returns the taxonomy members in their configured order.
func (t *Tables) Genres() []string {
	return append([]string(nil), t.genres...)
}
