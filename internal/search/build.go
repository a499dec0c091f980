package search

import (
	"fmt"

	"mediatracker/internal/catalog"
	"mediatracker/internal/taxonomy"
	"mediatracker/pkg/utils"
)

// NewEngine wires all six catalogs from cfg. The loaded taxonomy is returned
// as well so the tracking store can share it.
func NewEngine(cfg utils.CatalogConfig) (*Engine, *taxonomy.Tables, error) {
	tables, err := taxonomy.Load(cfg.TaxonomyPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load taxonomy: %w", err)
	}
	httpc := catalog.NewHTTPClient(cfg.HTTPTimeout)

	e := &Engine{
		Screen:   catalog.NewTMDB(cfg.TMDBKey, cfg.Region, httpc, tables),
		Books:    catalog.NewGoogleBooks(cfg.GoogleBooksKey, httpc, tables),
		Games:    catalog.NewRAWG(cfg.RAWGKey, httpc, tables),
		Anime:    catalog.NewJikanAnime(httpc, tables),
		Manga:    catalog.NewJikanManga(httpc, tables),
		Podcasts: catalog.NewITunes(cfg.Region, httpc, tables),
	}
	return e, tables, nil
}
