package capture

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/gin-gonic/gin"

	"mediatracker/internal/search"
	"mediatracker/pkg/models"
)

const pixel = "iVBORw0KGgo="

type stubRecognizer struct {
	id  Identification
	err error
}

func (s stubRecognizer) Identify(context.Context, Image) (Identification, error) { return s.id, s.err }

type stubSearcher struct {
	byTitle map[string]models.Candidate
	queries []search.Query
}

func (s *stubSearcher) Best(_ context.Context, q search.Query) (*models.Candidate, error) {
	s.queries = append(s.queries, q)
	if c, ok := s.byTitle[q.Text]; ok {
		return &c, nil
	}
	return nil, nil
}

type stubSink struct {
	saved []models.Candidate
}

func (s *stubSink) Save(_ context.Context, c models.Candidate) (models.TrackedRecord, bool, error) {
	s.saved = append(s.saved, c)
	return models.TrackedRecord{ID: "rec-1", MediaType: c.MediaType, Title: c.Title, Status: models.StatusWant}, true, nil
}

func TestParseImage(t *testing.T) {
	img, err := ParseImage("data:image/png;base64," + pixel)
	if err != nil || img.MediaType != "image/png" || img.Data != pixel {
		t.Fatalf("data url: %+v %v", img, err)
	}
	img, err = ParseImage(pixel)
	if err != nil || img.MediaType != "image/jpeg" {
		t.Fatalf("bare base64: %+v %v", img, err)
	}
	for _, bad := range []string{"", "data:image/png,abc", "data:text/plain;base64," + pixel, "not base64!!"} {
		if _, err := ParseImage(bad); !errors.Is(err, ErrInvalidImage) {
			t.Fatalf("ParseImage(%q): expected ErrInvalidImage, got %v", bad, err)
		}
	}
}

func TestParseIdentification(t *testing.T) {
	id, err := parseIdentification("Sure!\n```json\n{\"title\": \"Attack on Titan\", \"alternateTitle\": \"Shingeki no Kyojin\", \"type\": \"anime\", \"confidence\": \"high\"}\n```")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id.Title != "Attack on Titan" || id.AlternateTitle != "Shingeki no Kyojin" || !id.Identified() {
		t.Fatalf("unexpected identification %+v", id)
	}

	id, err = parseIdentification(`{"title": null, "alternateTitle": null, "type": null, "confidence": "none"}`)
	if err != nil || id.Identified() {
		t.Fatalf("expected an unidentified result, got %+v %v", id, err)
	}

	if _, err := parseIdentification("I have no idea"); !errors.Is(err, ErrUnidentified) {
		t.Fatalf("expected ErrUnidentified, got %v", err)
	}
}

func messageReply(text string) map[string]any {
	return map[string]any{
		"id":          "msg_1",
		"type":        "message",
		"role":        "assistant",
		"model":       defaultModel,
		"stop_reason": "end_turn",
		"content":     []map[string]any{{"type": "text", "text": text}},
		"usage":       map[string]any{"input_tokens": 1, "output_tokens": 1},
	}
}

func TestVisionClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" || r.Header.Get("x-api-key") != "k" || r.Header.Get("anthropic-version") == "" {
			t.Errorf("unexpected request %s %v", r.URL.Path, r.Header)
		}
		var req struct {
			Model     string `json:"model"`
			MaxTokens int    `json:"max_tokens"`
			Messages  []struct {
				Role    string `json:"role"`
				Content []struct {
					Type   string `json:"type"`
					Source struct {
						Type      string `json:"type"`
						MediaType string `json:"media_type"`
						Data      string `json:"data"`
					} `json:"source"`
				} `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != defaultModel || req.MaxTokens != maxTokens {
			t.Errorf("model=%q max_tokens=%d", req.Model, req.MaxTokens)
		}
		if len(req.Messages) != 1 || len(req.Messages[0].Content) != 2 {
			t.Errorf("unexpected messages: %+v", req.Messages)
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		img := req.Messages[0].Content[0]
		if img.Type != "image" || img.Source.Type != "base64" || img.Source.MediaType != "image/png" || img.Source.Data != pixel {
			t.Errorf("image block missing: %+v", img)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(messageReply("Sure:\n```json\n" + `{"title":"Hades","type":"game","confidence":"medium"}` + "\n```"))
	}))
	defer srv.Close()

	v := NewVisionClient("k", "", 0, option.WithBaseURL(srv.URL))
	id, err := v.Identify(context.Background(), Image{MediaType: "image/png", Data: pixel})
	if err != nil {
		t.Fatalf("identify: %v", err)
	}
	if id.Title != "Hades" || id.Type != "game" || id.Confidence != "medium" {
		t.Fatalf("unexpected identification %+v", id)
	}
}

func TestVisionClientErrors(t *testing.T) {
	if _, err := NewVisionClient("", "", 0).Identify(context.Background(), Image{}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	}))
	defer srv.Close()
	v := NewVisionClient("bad", "", 0, option.WithBaseURL(srv.URL))
	_, err := v.Identify(context.Background(), Image{MediaType: "image/png", Data: pixel})
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected typed 401 error, got %v", err)
	}
	if !strings.Contains(err.Error(), "invalid x-api-key") {
		t.Fatalf("expected upstream message, got %v", err)
	}
}

func TestCapture(t *testing.T) {
	hades := models.Candidate{MediaType: models.MediaGame, Title: "Hades", Platform: models.PlatformSteam}
	searcher := &stubSearcher{byTitle: map[string]models.Candidate{"Hades": hades}}
	sink := &stubSink{}
	p := &Pipeline{
		Recognizer: stubRecognizer{id: Identification{Title: "Hades", Type: "game", Confidence: "high"}},
		Search:     searcher,
		Sink:       sink,
	}

	res, err := p.Capture(context.Background(), Image{MediaType: "image/png", Data: pixel})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if res.Record.ID != "rec-1" || len(sink.saved) != 1 || sink.saved[0].Title != "Hades" {
		t.Fatalf("unexpected result %+v saved=%+v", res, sink.saved)
	}
	if searcher.queries[0].Type != "game" {
		t.Fatalf("expected directed game search, got %+v", searcher.queries[0])
	}
}

func TestCaptureFallsBackToAlternateTitleAndAuto(t *testing.T) {
	aot := models.Candidate{MediaType: models.MediaAnime, Title: "Shingeki no Kyojin"}
	searcher := &stubSearcher{byTitle: map[string]models.Candidate{"Shingeki no Kyojin": aot}}
	p := &Pipeline{
		Recognizer: stubRecognizer{id: Identification{Title: "Attack on Titan", AlternateTitle: "Shingeki no Kyojin", Type: "cartoon", Confidence: "low"}},
		Search:     searcher,
		Sink:       &stubSink{},
	}

	if _, err := p.Capture(context.Background(), Image{}); err != nil {
		t.Fatalf("capture: %v", err)
	}
	if len(searcher.queries) != 2 || searcher.queries[1].Text != "Shingeki no Kyojin" {
		t.Fatalf("expected alternate title retry, got %+v", searcher.queries)
	}
	if searcher.queries[0].Type != search.TypeAuto {
		t.Fatalf("unknown recognized type should search auto, got %q", searcher.queries[0].Type)
	}
}

func TestCaptureFailures(t *testing.T) {
	sink := &stubSink{}
	unidentified := &Pipeline{
		Recognizer: stubRecognizer{id: Identification{Confidence: "none"}},
		Search:     &stubSearcher{},
		Sink:       sink,
	}
	if _, err := unidentified.Capture(context.Background(), Image{}); !errors.Is(err, ErrUnidentified) {
		t.Fatalf("expected ErrUnidentified, got %v", err)
	}

	missing := &Pipeline{
		Recognizer: stubRecognizer{id: Identification{Title: "Nowhere", Type: "book", Confidence: "high"}},
		Search:     &stubSearcher{},
		Sink:       sink,
	}
	res, err := missing.Capture(context.Background(), Image{})
	if !errors.Is(err, ErrNotFound) || res.Identification.Title != "Nowhere" {
		t.Fatalf("expected ErrNotFound with identification, got %+v %v", res, err)
	}
	if len(sink.saved) != 0 {
		t.Fatal("nothing should be saved on failure")
	}
}

func TestHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	p := &Pipeline{
		Recognizer: stubRecognizer{id: Identification{Title: "Nowhere", Type: "book", Confidence: "high"}},
		Search:     &stubSearcher{byTitle: map[string]models.Candidate{}},
		Sink:       &stubSink{},
	}
	r := gin.New()
	NewHandler(p, nil).RegisterRoutes(r.Group("/api"))

	post := func(path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	if w := post("/api/capture", `{"image":""}`); w.Code != http.StatusBadRequest {
		t.Fatalf("empty image: expected 400, got %d", w.Code)
	}

	w := post("/api/capture", `{"image":"data:image/png;base64,`+pixel+`"}`)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"success":false`) || !strings.Contains(w.Body.String(), "Nowhere") {
		t.Fatalf("expected not-found body, got %d %s", w.Code, w.Body.String())
	}

	w = post("/api/capture/identify", `{"image":"`+pixel+`"}`)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"identified":true`) {
		t.Fatalf("identify: %d %s", w.Code, w.Body.String())
	}

	p.Recognizer = stubRecognizer{err: ErrNotConfigured}
	if w := post("/api/capture", `{"image":"`+pixel+`"}`); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("unconfigured: expected 503, got %d", w.Code)
	}
}
