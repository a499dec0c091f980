package search

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"mediatracker/internal/catalog"
	"mediatracker/pkg/models"
)

// stubAdapter returns canned candidates and records the requests it saw.
type stubAdapter struct {
	name    string
	results []models.Candidate
	panics  bool

	mu   sync.Mutex
	reqs []catalog.Request
}

func (s *stubAdapter) Name() string { return s.name }

func (s *stubAdapter) Search(_ context.Context, req catalog.Request) []models.Candidate {
	s.mu.Lock()
	s.reqs = append(s.reqs, req)
	s.mu.Unlock()
	if s.panics {
		panic("catalog exploded")
	}
	out := s.results
	if req.Limit > 0 && len(out) > req.Limit {
		out = out[:req.Limit]
	}
	return append([]models.Candidate(nil), out...)
}

func (s *stubAdapter) calls() []catalog.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]catalog.Request(nil), s.reqs...)
}

func cand(t models.MediaType, title string, score float64) models.Candidate {
	return models.Candidate{MediaType: t, Title: title, Score: score, Genres: []string{}}
}

func scores(cs []models.Candidate) []float64 {
	out := make([]float64, len(cs))
	for i, c := range cs {
		out[i] = c.Score
	}
	return out
}

func TestAuto_RanksAcrossCatalogsDespiteFailures(t *testing.T) {
	e := &Engine{
		Screen:   &stubAdapter{name: "screen", results: []models.Candidate{cand(models.MediaMovie, "Film", 120)}},
		Books:    &stubAdapter{name: "books"},
		Games:    &stubAdapter{name: "games", results: []models.Candidate{cand(models.MediaGame, "Game", 45)}},
		Anime:    &stubAdapter{name: "anime", panics: true},
		Podcasts: &stubAdapter{name: "podcasts", results: []models.Candidate{cand(models.MediaPodcast, "Show", 300)}},
	}

	got, err := e.Search(context.Background(), Query{Text: "anything"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []float64{300, 120, 45}; !reflect.DeepEqual(scores(got), want) {
		t.Fatalf("got scores %v, want %v", scores(got), want)
	}
}

func TestAuto_OrderIsNonIncreasingAndCapped(t *testing.T) {
	mk := func(t models.MediaType, base float64) []models.Candidate {
		out := make([]models.Candidate, 5)
		for i := range out {
			out[i] = cand(t, "x", base+float64(i)*7)
		}
		return out
	}
	e := &Engine{
		Screen:   &stubAdapter{name: "screen", results: mk(models.MediaTV, 3)},
		Books:    &stubAdapter{name: "books", results: mk(models.MediaBook, 10)},
		Games:    &stubAdapter{name: "games", results: mk(models.MediaGame, 1)},
		Anime:    &stubAdapter{name: "anime", results: mk(models.MediaAnime, 20)},
		Podcasts: &stubAdapter{name: "podcasts", results: mk(models.MediaPodcast, 0)},
	}

	got, err := e.Search(context.Background(), Query{Text: "x", Type: "auto"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != AutoLimit {
		t.Fatalf("expected %d results, got %d", AutoLimit, len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].Score < got[i].Score {
			t.Fatalf("order broken at %d: %v", i, scores(got))
		}
	}
}

func TestAuto_FailedCatalogLeavesOthersIntact(t *testing.T) {
	b := []models.Candidate{cand(models.MediaBook, "B1", 2), cand(models.MediaBook, "B2", 1)}
	e := &Engine{
		Screen: &stubAdapter{name: "screen", panics: true},
		Books:  &stubAdapter{name: "books", results: b},
	}

	got, err := e.Search(context.Background(), Query{Text: "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, b) {
		t.Fatalf("expected exactly the book candidates, got %+v", got)
	}
}

func TestAuto_SkipsMangaAndUsesMultiVariant(t *testing.T) {
	screen := &stubAdapter{name: "screen"}
	manga := &stubAdapter{name: "manga", results: []models.Candidate{cand(models.MediaManga, "M", 99)}}
	e := &Engine{Screen: screen, Manga: manga}

	got, _ := e.Search(context.Background(), Query{Text: "x"})
	if len(got) != 0 {
		t.Fatalf("manga should not take part in auto mode, got %+v", got)
	}
	if len(manga.calls()) != 0 {
		t.Fatal("manga adapter should not be called in auto mode")
	}
	if calls := screen.calls(); len(calls) != 1 || calls[0].Variant != catalog.VariantMulti {
		t.Fatalf("expected one multi search on screen, got %+v", calls)
	}
}

func TestDirected_OnlyRunsMatchingAdapter(t *testing.T) {
	screen := &stubAdapter{name: "screen", results: []models.Candidate{cand(models.MediaMovie, "Film", 1)}}
	books := &stubAdapter{name: "books", results: []models.Candidate{cand(models.MediaBook, "Book", 1)}}
	e := &Engine{Screen: screen, Books: books}

	got, err := e.Search(context.Background(), Query{Text: "x", Type: "Book"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].MediaType != models.MediaBook {
		t.Fatalf("unexpected results %+v", got)
	}
	if len(screen.calls()) != 0 {
		t.Fatal("screen adapter should not run for a book search")
	}
	if calls := books.calls(); calls[0].Variant != catalog.VariantBook {
		t.Fatalf("expected book variant, got %q", calls[0].Variant)
	}
}

func TestDirected_DropsForeignTypes(t *testing.T) {
	screen := &stubAdapter{name: "screen", results: []models.Candidate{
		cand(models.MediaMovie, "Film", 1),
		cand(models.MediaTV, "Show", 2),
	}}
	e := &Engine{Screen: screen}

	for _, typ := range []models.MediaType{models.MediaMovie, models.MediaTV} {
		got, err := e.Search(context.Background(), Query{Text: "x", Type: string(typ)})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, c := range got {
			if c.MediaType != typ {
				t.Fatalf("directed %s search returned %s", typ, c.MediaType)
			}
		}
	}
}

func TestDirected_AnimeFallsBackToScreenTV(t *testing.T) {
	tv := cand(models.MediaTV, "Naruto", 50)
	tv.Genres = []string{"Animation"}
	screen := &stubAdapter{name: "tmdb", results: []models.Candidate{tv}}
	anime := &stubAdapter{name: "jikan-anime"}
	e := &Engine{Screen: screen, Anime: anime}

	got, err := e.Search(context.Background(), Query{Text: "Naruto", Type: "anime"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].MediaType != models.MediaAnime || got[0].Title != "Naruto" {
		t.Fatalf("expected relabeled anime, got %+v", got)
	}
	if calls := screen.calls(); len(calls) != 1 || calls[0].Variant != catalog.VariantTV {
		t.Fatalf("expected one tv search, got %+v", calls)
	}
	if tv.MediaType != models.MediaTV {
		t.Fatal("fallback must not mutate the source candidate")
	}
}

func TestDirected_AnimeHitSkipsFallback(t *testing.T) {
	screen := &stubAdapter{name: "tmdb", results: []models.Candidate{cand(models.MediaTV, "Naruto", 50)}}
	anime := &stubAdapter{name: "jikan-anime", results: []models.Candidate{cand(models.MediaAnime, "Naruto", 1)}}
	e := &Engine{Screen: screen, Anime: anime}

	if _, err := e.Search(context.Background(), Query{Text: "Naruto", Type: "anime"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(screen.calls()) != 0 {
		t.Fatal("screen should not be consulted when the anime catalog matched")
	}
}

func TestInvalidRequest(t *testing.T) {
	a := &stubAdapter{name: "screen"}
	e := &Engine{Screen: a}

	for _, q := range []Query{{Text: "  "}, {Text: "x", Type: "opera"}} {
		if _, err := e.Search(context.Background(), q); !errors.Is(err, ErrInvalidRequest) {
			t.Fatalf("query %+v: expected ErrInvalidRequest, got %v", q, err)
		}
	}
	if len(a.calls()) != 0 {
		t.Fatal("no adapter should run for an invalid request")
	}
}

func TestBest_AutoPicksTopScoreWithLimitOne(t *testing.T) {
	screen := &stubAdapter{name: "screen", results: []models.Candidate{cand(models.MediaMovie, "Film", 10), cand(models.MediaMovie, "Film 2", 900)}}
	games := &stubAdapter{name: "games", results: []models.Candidate{cand(models.MediaGame, "Game", 40)}}
	e := &Engine{Screen: screen, Games: games}

	got, err := e.Best(context.Background(), Query{Text: "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.Title != "Game" {
		t.Fatalf("expected the game (each adapter contributes its first item), got %+v", got)
	}
	for _, r := range screen.calls() {
		if r.Limit != 1 {
			t.Fatalf("expected limit 1, got %d", r.Limit)
		}
	}
}

func TestBest_NoMatchIsNil(t *testing.T) {
	e := &Engine{Books: &stubAdapter{name: "books"}}
	got, err := e.Best(context.Background(), Query{Text: "x", Type: "book"})
	if err != nil || got != nil {
		t.Fatalf("expected nil result and no error, got %+v %v", got, err)
	}
}
