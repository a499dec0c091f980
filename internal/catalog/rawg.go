package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"mediatracker/internal/taxonomy"
	"mediatracker/pkg/models"
)

const (
	rawgBase     = "https://api.rawg.io/api"
	rawgSiteBase = "https://rawg.io/games"
)

// RAWG is the video game adapter. The search payload lists storefronts per
// game; the first known store becomes the platform, Steam otherwise.
type RAWG struct {
	BaseURL string
	APIKey  string
	HTTP    *HTTPClient
	Tables  *taxonomy.Tables
}

func NewRAWG(apiKey string, httpc *HTTPClient, tables *taxonomy.Tables) *RAWG {
	return &RAWG{BaseURL: rawgBase, APIKey: apiKey, HTTP: httpc, Tables: tables}
}

func (s *RAWG) Name() string { return "rawg" }

type rawgResponse struct {
	Results []rawgGame `json:"results"`
}

type rawgGame struct {
	ID              int     `json:"id"`
	Slug            string  `json:"slug"`
	Name            string  `json:"name"`
	Released        string  `json:"released"`
	BackgroundImage string  `json:"background_image"`
	Rating          float64 `json:"rating"`
	RatingsCount    float64 `json:"ratings_count"`
	Genres          []struct {
		Name string `json:"name"`
	} `json:"genres"`
	Stores []struct {
		Store struct {
			Slug string `json:"slug"`
		} `json:"store"`
	} `json:"stores"`
}

func (s *RAWG) Search(ctx context.Context, req Request) []models.Candidate {
	q := req.query()
	if q == "" {
		return nil
	}
	if s.APIKey == "" {
		logMissingKey(s.Name())
		return nil
	}

	v := url.Values{}
	v.Set("key", s.APIKey)
	v.Set("search", q)
	v.Set("page_size", strconv.Itoa(req.limit()))
	u := strings.TrimRight(s.BaseURL, "/") + "/games?" + v.Encode()

	var resp rawgResponse
	if err := s.HTTP.getJSON(ctx, s.Name(), u, &resp); err != nil {
		logFailure(s.Name(), err)
		return nil
	}
	if len(resp.Results) > req.limit() {
		resp.Results = resp.Results[:req.limit()]
	}

	out := make([]models.Candidate, 0, len(resp.Results))
	for _, g := range resp.Results {
		out = append(out, s.candidate(g))
	}
	return keepValid(out)
}

func (s *RAWG) candidate(g rawgGame) models.Candidate {
	stores := make([]string, 0, len(g.Stores))
	for _, st := range g.Stores {
		stores = append(stores, st.Store.Slug)
	}
	platform, confidence := models.PlatformSteam, models.ConfidenceDefault
	if p, ok := s.Tables.Resolve(taxonomy.SourceRAWG, stores); ok {
		platform, confidence = p, models.ConfidenceConfirmed
	}

	genres := make([]string, 0, len(g.Genres))
	for _, gen := range g.Genres {
		genres = append(genres, gen.Name)
	}

	rating := g.Rating
	if rating <= 0 {
		rating = 3
	}

	c := models.Candidate{
		MediaType:          models.MediaGame,
		Title:              strings.TrimSpace(g.Name),
		Year:               yearOf(g.Released),
		ImageURL:           upgradeHTTPS(g.BackgroundImage),
		Platform:           platform,
		PlatformConfidence: confidence,
		Genres:             s.Tables.Normalize(genres),
		Score:              nonNegative(g.RatingsCount * rating),
		Source:             s.Name(),
		SourceID:           strconv.Itoa(g.ID),
	}
	if g.Slug != "" {
		c.ExternalURL = rawgSiteBase + "/" + g.Slug
	} else {
		c.ExternalURL = fmt.Sprintf("%s/%d", rawgSiteBase, g.ID)
	}
	return c
}

// Details returns RAWG's raw game record.
func (s *RAWG) Details(ctx context.Context, id string, _ models.MediaType) (map[string]any, error) {
	if s.APIKey == "" {
		return nil, fmt.Errorf("%s: %w", s.Name(), ErrMissingCredential)
	}
	v := url.Values{}
	v.Set("key", s.APIKey)
	u := fmt.Sprintf("%s/games/%s?%s", strings.TrimRight(s.BaseURL, "/"), url.PathEscape(id), v.Encode())

	out := map[string]any{}
	if err := s.HTTP.getJSON(ctx, s.Name(), u, &out); err != nil {
		return nil, err
	}
	return out, nil
}
