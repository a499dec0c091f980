package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"mediatracker/internal/taxonomy"
	"mediatracker/pkg/models"
)

const (
	tmdbBase      = "https://api.themoviedb.org/3"
	tmdbImageBase = "https://image.tmdb.org/t/p/w500"
	tmdbSiteBase  = "https://www.themoviedb.org"
)

// TMDB is the screen-media adapter (movies and tv). Each matched item costs
// one extra availability lookup; those run concurrently and are best-effort.
type TMDB struct {
	BaseURL string
	APIKey  string
	// Region is the ISO 3166-1 country used for availability, e.g. "GB".
	Region string
	HTTP   *HTTPClient
	Tables *taxonomy.Tables
}

func NewTMDB(apiKey, region string, httpc *HTTPClient, tables *taxonomy.Tables) *TMDB {
	return &TMDB{BaseURL: tmdbBase, APIKey: apiKey, Region: region, HTTP: httpc, Tables: tables}
}

func (s *TMDB) Name() string { return "tmdb" }

type tmdbSearchResponse struct {
	Results []tmdbItem `json:"results"`
}

type tmdbItem struct {
	ID           int     `json:"id"`
	MediaType    string  `json:"media_type"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	Overview     string  `json:"overview"`
	PosterPath   string  `json:"poster_path"`
	GenreIDs     []int   `json:"genre_ids"`
	Popularity   float64 `json:"popularity"`
}

type tmdbProvidersResponse struct {
	Results map[string]struct {
		Flatrate []tmdbProvider `json:"flatrate"`
		Free     []tmdbProvider `json:"free"`
		Ads      []tmdbProvider `json:"ads"`
	} `json:"results"`
}

type tmdbProvider struct {
	ProviderName string `json:"provider_name"`
}

func (s *TMDB) Search(ctx context.Context, req Request) []models.Candidate {
	q := req.query()
	if q == "" {
		return nil
	}
	if s.APIKey == "" {
		logMissingKey(s.Name())
		return nil
	}

	endpoint := "multi"
	switch req.Variant {
	case VariantMovie:
		endpoint = "movie"
	case VariantTV:
		endpoint = "tv"
	}

	v := url.Values{}
	v.Set("api_key", s.APIKey)
	v.Set("query", q)
	v.Set("include_adult", "false")
	u := strings.TrimRight(s.BaseURL, "/") + "/search/" + endpoint + "?" + v.Encode()

	var resp tmdbSearchResponse
	if err := s.HTTP.getJSON(ctx, s.Name(), u, &resp); err != nil {
		logFailure(s.Name(), err)
		return nil
	}

	items := make([]tmdbItem, 0, len(resp.Results))
	for _, it := range resp.Results {
		kind := it.MediaType
		if endpoint != "multi" {
			kind = endpoint
		}
		if kind != "movie" && kind != "tv" {
			continue
		}
		it.MediaType = kind
		items = append(items, it)
		if len(items) == req.limit() {
			break
		}
	}
	if len(items) == 0 {
		return nil
	}

	out := make([]models.Candidate, len(items))
	var g errgroup.Group
	for i, it := range items {
		i, it := i, it
		g.Go(func() error {
			out[i] = s.candidate(ctx, it)
			return nil
		})
	}
	_ = g.Wait()

	return keepValid(out)
}

func (s *TMDB) candidate(ctx context.Context, it tmdbItem) models.Candidate {
	mediaType := models.MediaTV
	title, date := it.Name, it.FirstAirDate
	if it.MediaType == "movie" {
		mediaType = models.MediaMovie
		title, date = it.Title, it.ReleaseDate
	}

	c := models.Candidate{
		MediaType:   mediaType,
		Title:       strings.TrimSpace(title),
		Year:        yearOf(date),
		Overview:    plainText(it.Overview),
		Genres:      s.Tables.Normalize(s.Tables.ScreenGenreNames(it.GenreIDs)),
		ExternalURL: fmt.Sprintf("%s/%s/%d", tmdbSiteBase, it.MediaType, it.ID),
		Score:       nonNegative(it.Popularity),
		Source:      s.Name(),
		SourceID:    strconv.Itoa(it.ID),
	}
	if p := strings.TrimSpace(it.PosterPath); p != "" {
		c.ImageURL = tmdbImageBase + p
	}
	if platform, ok := s.resolvePlatform(ctx, it.MediaType, it.ID); ok {
		c.Platform = platform
		c.PlatformConfidence = models.ConfidenceConfirmed
	}
	return c
}

// resolvePlatform asks TMDB where the title streams in s.Region. Any failure
// leaves the platform unresolved.
func (s *TMDB) resolvePlatform(ctx context.Context, kind string, id int) (models.Platform, bool) {
	v := url.Values{}
	v.Set("api_key", s.APIKey)
	u := fmt.Sprintf("%s/%s/%d/watch/providers?%s", strings.TrimRight(s.BaseURL, "/"), kind, id, v.Encode())

	var resp tmdbProvidersResponse
	if err := s.HTTP.getJSON(ctx, s.Name(), u, &resp); err != nil {
		logFailure(s.Name()+"/providers", err)
		return "", false
	}
	region, ok := resp.Results[s.region()]
	if !ok {
		return "", false
	}

	names := make([]string, 0, len(region.Flatrate)+len(region.Free)+len(region.Ads))
	for _, group := range [][]tmdbProvider{region.Flatrate, region.Free, region.Ads} {
		for _, p := range group {
			names = append(names, p.ProviderName)
		}
	}
	return s.Tables.Resolve(taxonomy.SourceTMDB, names)
}

func (s *TMDB) region() string {
	r := strings.ToUpper(strings.TrimSpace(s.Region))
	if r == "" {
		return "GB"
	}
	return r
}

// Details returns TMDB's raw movie or tv record with a "type" field added.
func (s *TMDB) Details(ctx context.Context, id string, mediaType models.MediaType) (map[string]any, error) {
	if s.APIKey == "" {
		return nil, fmt.Errorf("%s: %w", s.Name(), ErrMissingCredential)
	}
	kind := string(mediaType)
	if mediaType != models.MediaMovie && mediaType != models.MediaTV {
		// anime that was found through the tv fallback lives under /tv
		kind = "tv"
	}
	v := url.Values{}
	v.Set("api_key", s.APIKey)
	u := fmt.Sprintf("%s/%s/%s?%s", strings.TrimRight(s.BaseURL, "/"), kind, url.PathEscape(id), v.Encode())

	out := map[string]any{}
	if err := s.HTTP.getJSON(ctx, s.Name(), u, &out); err != nil {
		return nil, err
	}
	out["type"] = kind
	return out, nil
}

func nonNegative(f float64) float64 {
	if f < 0 {
		return 0
	}
	return f
}
