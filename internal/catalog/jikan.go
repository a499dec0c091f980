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

const jikanBase = "https://api.jikan.moe/v4"

// Manga platform heuristic inputs. These are guesses about where a series is
// legally readable, not availability data.
var (
	jumpMagazines   = []string{"Shounen Jump", "Weekly Shounen Jump", "Jump SQ", "Shonen Jump"}
	majorPublishers = []string{"Shueisha", "Shogakukan", "Hakusensha"}
)

const highlyRatedManga = 8.0

// Jikan wraps the MyAnimeList mirror. Kind selects the anime or manga
// endpoint; both share the response shape.
type Jikan struct {
	BaseURL string
	Kind    models.MediaType // MediaAnime or MediaManga
	HTTP    *HTTPClient
	Tables  *taxonomy.Tables
}

func NewJikanAnime(httpc *HTTPClient, tables *taxonomy.Tables) *Jikan {
	return &Jikan{BaseURL: jikanBase, Kind: models.MediaAnime, HTTP: httpc, Tables: tables}
}

func NewJikanManga(httpc *HTTPClient, tables *taxonomy.Tables) *Jikan {
	return &Jikan{BaseURL: jikanBase, Kind: models.MediaManga, HTTP: httpc, Tables: tables}
}

func (s *Jikan) Name() string { return "jikan-" + string(s.Kind) }

type jikanResponse struct {
	Data []jikanItem `json:"data"`
}

type jikanNamed struct {
	Name string `json:"name"`
}

type jikanDates struct {
	Prop struct {
		From struct {
			Year *int `json:"year"`
		} `json:"from"`
	} `json:"prop"`
}

type jikanItem struct {
	MalID        int     `json:"mal_id"`
	URL          string  `json:"url"`
	Title        string  `json:"title"`
	TitleEnglish string  `json:"title_english"`
	Synopsis     string  `json:"synopsis"`
	Score        float64 `json:"score"`
	Members      float64 `json:"members"`
	Images       struct {
		JPG struct {
			ImageURL      string `json:"image_url"`
			LargeImageURL string `json:"large_image_url"`
		} `json:"jpg"`
	} `json:"images"`
	Genres         []jikanNamed `json:"genres"`
	Themes         []jikanNamed `json:"themes"`
	Demographics   []jikanNamed `json:"demographics"`
	Aired          jikanDates   `json:"aired"`
	Published      jikanDates   `json:"published"`
	Streaming      []jikanNamed `json:"streaming"`
	Serializations []jikanNamed `json:"serializations"`
}

func (s *Jikan) kind() models.MediaType {
	if s.Kind == models.MediaManga {
		return models.MediaManga
	}
	return models.MediaAnime
}

func (s *Jikan) Search(ctx context.Context, req Request) []models.Candidate {
	q := req.query()
	if q == "" {
		return nil
	}

	v := url.Values{}
	v.Set("q", q)
	v.Set("limit", strconv.Itoa(req.limit()))
	u := fmt.Sprintf("%s/%s?%s", strings.TrimRight(s.BaseURL, "/"), s.kind(), v.Encode())

	var resp jikanResponse
	if err := s.HTTP.getJSON(ctx, s.Name(), u, &resp); err != nil {
		logFailure(s.Name(), err)
		return nil
	}
	if len(resp.Data) > req.limit() {
		resp.Data = resp.Data[:req.limit()]
	}

	out := make([]models.Candidate, 0, len(resp.Data))
	for _, it := range resp.Data {
		out = append(out, s.candidate(it))
	}
	return keepValid(out)
}

func (s *Jikan) candidate(it jikanItem) models.Candidate {
	raw := make([]string, 0, len(it.Genres)+len(it.Themes)+len(it.Demographics))
	for _, group := range [][]jikanNamed{it.Genres, it.Themes, it.Demographics} {
		raw = append(raw, names(group)...)
	}

	c := models.Candidate{
		MediaType:   s.kind(),
		Title:       firstNonEmpty(it.TitleEnglish, it.Title),
		Overview:    plainText(it.Synopsis),
		ImageURL:    upgradeHTTPS(firstNonEmpty(it.Images.JPG.LargeImageURL, it.Images.JPG.ImageURL)),
		Genres:      s.Tables.Normalize(raw),
		ExternalURL: firstNonEmpty(it.URL, fmt.Sprintf("https://myanimelist.net/%s/%d", s.kind(), it.MalID)),
		Score:       nonNegative(it.Members / 1000),
		Source:      s.Name(),
		SourceID:    strconv.Itoa(it.MalID),
	}

	dates := it.Aired
	if s.kind() == models.MediaManga {
		dates = it.Published
	}
	if y := dates.Prop.From.Year; y != nil && *y > 0 {
		c.Year = yearOf(strconv.Itoa(*y))
	}

	if s.kind() == models.MediaManga {
		c.Platform, c.PlatformConfidence = inferMangaPlatform(names(it.Serializations), it.Score)
	} else if p, ok := s.Tables.Resolve(taxonomy.SourceJikan, names(it.Streaming)); ok {
		c.Platform, c.PlatformConfidence = p, models.ConfidenceConfirmed
	} else {
		c.Platform, c.PlatformConfidence = models.PlatformCrunchyroll, models.ConfidenceDefault
	}
	return c
}

// inferMangaPlatform guesses where a manga can be read. In priority order:
// a Jump-family magazine means Manga Plus, a big-three publisher or a
// community score above 8.0 means VIZ, otherwise Kindle.
func inferMangaPlatform(serializations []string, score float64) (models.Platform, models.PlatformConfidence) {
	if containsAny(serializations, jumpMagazines) {
		return models.PlatformMangaPlus, models.ConfidenceInferred
	}
	if containsAny(serializations, majorPublishers) {
		return models.PlatformVIZ, models.ConfidenceInferred
	}
	if score > highlyRatedManga {
		return models.PlatformVIZ, models.ConfidenceInferred
	}
	return models.PlatformKindle, models.ConfidenceDefault
}

func containsAny(haystack, needles []string) bool {
	for _, h := range haystack {
		for _, n := range needles {
			if strings.Contains(h, n) {
				return true
			}
		}
	}
	return false
}

func names(in []jikanNamed) []string {
	out := make([]string, 0, len(in))
	for _, n := range in {
		if s := strings.TrimSpace(n.Name); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Details returns the full Jikan record for an anime or manga id.
func (s *Jikan) Details(ctx context.Context, id string, _ models.MediaType) (map[string]any, error) {
	u := fmt.Sprintf("%s/%s/%s/full", strings.TrimRight(s.BaseURL, "/"), s.kind(), url.PathEscape(id))

	var resp struct {
		Data map[string]any `json:"data"`
	}
	if err := s.HTTP.getJSON(ctx, s.Name(), u, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("%s %s: %w", s.Name(), id, ErrNotFound)
	}
	return resp.Data, nil
}
