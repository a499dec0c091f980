package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

func testTokens() TokenService {
	return TokenService{Secret: []byte("test-secret"), Issuer: "mediatracker-test", Duration: time.Hour}
}

func TestSignAndParse(t *testing.T) {
	ts := testTokens()
	tok, exp, err := ts.Sign(OwnerSubject)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Fatalf("expiry in the past: %v", exp)
	}

	claims, err := ts.Parse(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != OwnerSubject || claims.ID == "" {
		t.Fatalf("unexpected claims %+v", claims)
	}

	other := ts
	other.Secret = []byte("different")
	if _, err := other.Parse(tok); err == nil {
		t.Fatal("expected signature mismatch")
	}
	other = ts
	other.Issuer = "someone-else"
	if _, err := other.Parse(tok); err == nil {
		t.Fatal("expected issuer mismatch")
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	ts := testTokens()
	ts.Duration = -time.Minute
	tok, _, err := ts.Sign(OwnerSubject)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ts.Parse(tok); err == nil {
		t.Fatal("expected expired token to fail")
	}
}

func newAuthRouter(t *testing.T) (*gin.Engine, TokenService) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	ts := testTokens()
	h, err := NewHandler(ts, string(hash))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	r := gin.New()
	h.RegisterRoutes(r.Group("/auth"))
	r.GET("/private", AuthMiddleware(ts), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"subject": MustGetClaims(c).Subject})
	})
	r.GET("/stream", StreamAuthMiddleware(ts), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"subject": MustGetClaims(c).Subject})
	})
	return r, ts
}

func post(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestTokenEndpoint(t *testing.T) {
	r, _ := newAuthRouter(t)

	if w := post(r, "/auth/token", `{"password":"wrong"}`); w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password: expected 401, got %d", w.Code)
	}
	if w := post(r, "/auth/token", `{}`); w.Code != http.StatusBadRequest {
		t.Fatalf("empty password: expected 400, got %d", w.Code)
	}

	w := post(r, "/auth/token", `{"password":"hunter22"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Token == "" {
		t.Fatalf("missing token: %s", w.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected token to open /private, got %d", rec.Code)
	}
}

func TestMiddlewareRejects(t *testing.T) {
	r, ts := newAuthRouter(t)
	guest, _, _ := ts.Sign("guest")

	for _, header := range []string{"", "Basic abc", "Bearer not-a-jwt", "Bearer " + guest} {
		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, w.Code)
		}
	}
}

func TestStreamMiddlewareAcceptsQueryToken(t *testing.T) {
	r, ts := newAuthRouter(t)
	owner, _, err := ts.Sign(OwnerSubject)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	guest, _, _ := ts.Sign("guest")

	cases := []struct {
		path string
		want int
	}{
		{"/stream", http.StatusUnauthorized},
		{"/stream?" + AccessTokenParam + "=" + owner, http.StatusOK},
		{"/stream?" + AccessTokenParam + "=" + guest, http.StatusUnauthorized},
		{"/private?" + AccessTokenParam + "=" + owner, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.path, nil))
		if w.Code != tc.want {
			t.Errorf("%s: expected %d, got %d", tc.path, tc.want, w.Code)
		}
	}
}

func TestVerify(t *testing.T) {
	ts := testTokens()
	owner, _, _ := ts.Sign(OwnerSubject)
	if _, err := ts.Verify(owner); err != nil {
		t.Fatalf("owner token rejected: %v", err)
	}
	guest, _, _ := ts.Sign("guest")
	if _, err := ts.Verify(guest); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
}
