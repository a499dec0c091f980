package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog/log"

	"mediatracker/internal/taxonomy"
	"mediatracker/pkg/models"
)

const (
	itunesBase      = "https://itunes.apple.com"
	maxFeedEpisodes = 10
)

// ITunes is the podcast adapter. Apple's directory has no popularity field
// so the episode count stands in for the score.
type ITunes struct {
	BaseURL string
	// Country is the storefront, e.g. "gb".
	Country string
	HTTP    *HTTPClient
	Tables  *taxonomy.Tables
}

func NewITunes(country string, httpc *HTTPClient, tables *taxonomy.Tables) *ITunes {
	return &ITunes{BaseURL: itunesBase, Country: country, HTTP: httpc, Tables: tables}
}

func (s *ITunes) Name() string { return "itunes" }

type itunesResponse struct {
	ResultCount int            `json:"resultCount"`
	Results     []itunesResult `json:"results"`
}

type itunesResult struct {
	CollectionID      int64    `json:"collectionId"`
	TrackID           int64    `json:"trackId"`
	CollectionName    string   `json:"collectionName"`
	TrackName         string   `json:"trackName"`
	ArtistName        string   `json:"artistName"`
	ReleaseDate       string   `json:"releaseDate"`
	Description       string   `json:"description"`
	ArtworkURL600     string   `json:"artworkUrl600"`
	ArtworkURL100     string   `json:"artworkUrl100"`
	Genres            []string `json:"genres"`
	CollectionViewURL string   `json:"collectionViewUrl"`
	TrackViewURL      string   `json:"trackViewUrl"`
	TrackCount        float64  `json:"trackCount"`
	FeedURL           string   `json:"feedUrl"`
}

func (s *ITunes) country() string {
	c := strings.ToLower(strings.TrimSpace(s.Country))
	if c == "" {
		return "gb"
	}
	return c
}

func (s *ITunes) Search(ctx context.Context, req Request) []models.Candidate {
	q := req.query()
	if q == "" {
		return nil
	}

	v := url.Values{}
	v.Set("term", q)
	v.Set("entity", "podcast")
	v.Set("limit", strconv.Itoa(req.limit()))
	v.Set("country", s.country())
	u := strings.TrimRight(s.BaseURL, "/") + "/search?" + v.Encode()

	var resp itunesResponse
	if err := s.HTTP.getJSON(ctx, s.Name(), u, &resp); err != nil {
		logFailure(s.Name(), err)
		return nil
	}
	if len(resp.Results) > req.limit() {
		resp.Results = resp.Results[:req.limit()]
	}

	out := make([]models.Candidate, 0, len(resp.Results))
	for _, r := range resp.Results {
		id := r.CollectionID
		if id == 0 {
			id = r.TrackID
		}
		out = append(out, models.Candidate{
			MediaType:          models.MediaPodcast,
			Title:              firstNonEmpty(r.CollectionName, r.TrackName),
			Year:               yearOf(r.ReleaseDate),
			Overview:           plainText(r.Description),
			ImageURL:           upgradeHTTPS(firstNonEmpty(r.ArtworkURL600, r.ArtworkURL100)),
			Platform:           models.PlatformApplePodcasts,
			PlatformConfidence: models.ConfidenceDefault,
			Genres:             s.Tables.Normalize(r.Genres),
			Author:             strings.TrimSpace(r.ArtistName),
			ExternalURL:        firstNonEmpty(r.CollectionViewURL, r.TrackViewURL),
			Score:              nonNegative(r.TrackCount),
			Source:             s.Name(),
			SourceID:           strconv.FormatInt(id, 10),
		})
	}
	return keepValid(out)
}

// Details looks the show up by id and, when it publishes an RSS feed,
// attaches the feed's summary and latest episodes under "feed". A broken
// feed only drops that section.
func (s *ITunes) Details(ctx context.Context, id string, _ models.MediaType) (map[string]any, error) {
	v := url.Values{}
	v.Set("id", id)
	v.Set("entity", "podcast")
	v.Set("country", s.country())
	u := strings.TrimRight(s.BaseURL, "/") + "/lookup?" + v.Encode()

	var resp struct {
		Results []map[string]any `json:"results"`
	}
	if err := s.HTTP.getJSON(ctx, s.Name(), u, &resp); err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, fmt.Errorf("%s %s: %w", s.Name(), id, ErrNotFound)
	}

	out := resp.Results[0]
	if feedURL, _ := out["feedUrl"].(string); strings.TrimSpace(feedURL) != "" {
		feed, err := s.fetchFeed(ctx, feedURL)
		if err != nil {
			log.Warn().Str("component", "catalog").Str("source", s.Name()).Err(err).Msg("podcast feed unavailable")
		} else {
			out["feed"] = feed
		}
	}
	return out, nil
}

func (s *ITunes) fetchFeed(ctx context.Context, feedURL string) (map[string]any, error) {
	fp := gofeed.NewParser()
	fp.Client = s.HTTP.client()
	fp.UserAgent = defaultUserAgent

	feed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	episodes := make([]map[string]any, 0, maxFeedEpisodes)
	for _, item := range feed.Items {
		if len(episodes) == maxFeedEpisodes {
			break
		}
		ep := map[string]any{
			"title": item.Title,
			"link":  item.Link,
		}
		if item.PublishedParsed != nil {
			ep["published"] = item.PublishedParsed.UTC()
		} else if item.Published != "" {
			ep["published"] = item.Published
		}
		episodes = append(episodes, ep)
	}

	return map[string]any{
		"title":       feed.Title,
		"description": plainText(feed.Description),
		"link":        feed.Link,
		"language":    feed.Language,
		"episodes":    episodes,
	}, nil
}
