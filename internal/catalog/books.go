package catalog

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"mediatracker/internal/taxonomy"
	"mediatracker/pkg/models"
)

const googleBooksBase = "https://www.googleapis.com/books/v1"

// GoogleBooks is the book/audiobook adapter. Title search against a general
// bibliographic catalog is imprecise for translated titles, so it walks a
// fixed relaxation chain and stops at the first query that returns anything.
type GoogleBooks struct {
	BaseURL string
	APIKey  string
	HTTP    *HTTPClient
	Tables  *taxonomy.Tables
}

func NewGoogleBooks(apiKey string, httpc *HTTPClient, tables *taxonomy.Tables) *GoogleBooks {
	return &GoogleBooks{BaseURL: googleBooksBase, APIKey: apiKey, HTTP: httpc, Tables: tables}
}

func (s *GoogleBooks) Name() string { return "googlebooks" }

type booksResponse struct {
	Items []booksVolume `json:"items"`
}

type booksVolume struct {
	ID         string `json:"id"`
	VolumeInfo struct {
		Title         string   `json:"title"`
		Authors       []string `json:"authors"`
		PublishedDate string   `json:"publishedDate"`
		Description   string   `json:"description"`
		Categories    []string `json:"categories"`
		PrintType     string   `json:"printType"`
		InfoLink      string   `json:"infoLink"`
		RatingsCount  float64  `json:"ratingsCount"`
		AverageRating float64  `json:"averageRating"`
		ImageLinks    struct {
			Thumbnail string `json:"thumbnail"`
		} `json:"imageLinks"`
	} `json:"volumeInfo"`
}

// bookQuery is one step of the relaxation chain.
type bookQuery struct {
	step         string
	q            string
	langRestrict string
}

var leadingArticle = regexp.MustCompile(`(?i)^(the|a|an)\s+`)

// bookQueries builds the chain for query, in the order it is tried:
// exact English title, broad, +locale keyword, +genre keyword, without a
// leading article, first three words. The last two are only included when
// they differ from the broad query.
func bookQueries(query string) []bookQuery {
	chain := []bookQuery{
		{step: "intitle", q: "intitle:" + query, langRestrict: "en"},
		{step: "broad", q: query},
		{step: "locale", q: query + " japanese"},
		{step: "genre", q: query + " novel"},
	}
	if stripped := leadingArticle.ReplaceAllString(query, ""); stripped != query {
		chain = append(chain, bookQuery{step: "no-article", q: stripped})
	}
	if words := strings.Split(query, " "); len(words) > 3 {
		chain = append(chain, bookQuery{step: "first-words", q: strings.Join(words[:3], " ")})
	}
	return chain
}

func (s *GoogleBooks) Search(ctx context.Context, req Request) []models.Candidate {
	q := req.query()
	if q == "" {
		return nil
	}
	if s.APIKey == "" {
		logMissingKey(s.Name())
		return nil
	}

	for _, bq := range bookQueries(q) {
		items, err := s.fetch(ctx, bq, req.limit())
		if err != nil {
			logFailure(s.Name(), err)
		}
		if len(items) == 0 {
			if ctx.Err() != nil {
				return nil
			}
			continue
		}
		log.Debug().Str("component", "catalog").Str("source", s.Name()).Str("step", bq.step).Int("items", len(items)).Msg("book chain matched")

		out := make([]models.Candidate, 0, len(items))
		for _, it := range items {
			out = append(out, s.candidate(it, req.Variant))
		}
		return keepValid(out)
	}
	return nil
}

func (s *GoogleBooks) fetch(ctx context.Context, bq bookQuery, limit int) ([]booksVolume, error) {
	v := url.Values{}
	v.Set("q", bq.q)
	v.Set("key", s.APIKey)
	v.Set("maxResults", strconv.Itoa(limit))
	if bq.langRestrict != "" {
		v.Set("langRestrict", bq.langRestrict)
	}
	u := strings.TrimRight(s.BaseURL, "/") + "/volumes?" + v.Encode()

	var resp booksResponse
	if err := s.HTTP.getJSON(ctx, s.Name(), u, &resp); err != nil {
		return nil, err
	}
	if len(resp.Items) > limit {
		resp.Items = resp.Items[:limit]
	}
	return resp.Items, nil
}

func (s *GoogleBooks) candidate(it booksVolume, variant Variant) models.Candidate {
	info := it.VolumeInfo

	mediaType := models.MediaBook
	platform := models.PlatformKindle
	if isAudiobook(variant, info.Categories, info.PrintType) {
		mediaType = models.MediaAudiobook
		platform = models.PlatformAudible
	}

	rating := info.AverageRating
	if rating <= 0 {
		rating = 3
	}

	return models.Candidate{
		MediaType:          mediaType,
		Title:              strings.TrimSpace(info.Title),
		Year:               yearOf(info.PublishedDate),
		Overview:           plainText(info.Description),
		ImageURL:           upgradeHTTPS(info.ImageLinks.Thumbnail),
		Platform:           platform,
		PlatformConfidence: models.ConfidenceDefault,
		Genres:             s.Tables.Normalize(info.Categories),
		Author:             strings.Join(info.Authors, ", "),
		ExternalURL:        firstNonEmpty(info.InfoLink, "https://books.google.com/books?id="+url.QueryEscape(it.ID)),
		Score:              nonNegative(info.RatingsCount * rating),
		Source:             s.Name(),
		SourceID:           it.ID,
	}
}

// isAudiobook: an explicit audiobook request always wins and an explicit
// book request never relabels; only auto mode sniffs the volume metadata.
func isAudiobook(variant Variant, categories []string, printType string) bool {
	switch variant {
	case VariantAudiobook:
		return true
	case VariantBook:
		return false
	}
	if strings.EqualFold(printType, "AUDIOBOOK") {
		return true
	}
	for _, c := range categories {
		if strings.Contains(strings.ToLower(c), "audio") {
			return true
		}
	}
	return false
}

// Details returns the raw Google Books volume.
func (s *GoogleBooks) Details(ctx context.Context, id string, _ models.MediaType) (map[string]any, error) {
	if s.APIKey == "" {
		return nil, fmt.Errorf("%s: %w", s.Name(), ErrMissingCredential)
	}
	v := url.Values{}
	v.Set("key", s.APIKey)
	u := fmt.Sprintf("%s/volumes/%s?%s", strings.TrimRight(s.BaseURL, "/"), url.PathEscape(id), v.Encode())

	out := map[string]any{}
	if err := s.HTTP.getJSON(ctx, s.Name(), u, &out); err != nil {
		return nil, err
	}
	return out, nil
}
