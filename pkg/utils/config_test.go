package utils

import (
	"testing"
	"time"
)

func TestLoadAuthConfigDefaults(t *testing.T) {
	t.Setenv("MEDIATRACKER_JWT_SECRET", "")
	t.Setenv("MEDIATRACKER_JWT_ISSUER", "")
	t.Setenv("MEDIATRACKER_JWT_TTL_HOURS", "")

	cfg := LoadAuthConfig()
	if cfg.JWTSecret == "" || cfg.JWTIssuer != "mediatracker" || cfg.JWTDuration != 24*time.Hour {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadAuthConfigTTL(t *testing.T) {
	t.Setenv("MEDIATRACKER_JWT_TTL_HOURS", "6")
	if got := LoadAuthConfig().JWTDuration; got != 6*time.Hour {
		t.Fatalf("expected 6h, got %v", got)
	}
	t.Setenv("MEDIATRACKER_JWT_TTL_HOURS", "soon")
	if got := LoadAuthConfig().JWTDuration; got != 24*time.Hour {
		t.Fatalf("bad value should fall back to 24h, got %v", got)
	}
}

func TestLoadCatalogConfig(t *testing.T) {
	t.Setenv("TMDB_API_KEY", " abc ")
	t.Setenv("RAWG_API_KEY", "")
	t.Setenv("MEDIATRACKER_REGION", "")
	t.Setenv("MEDIATRACKER_HTTP_TIMEOUT", "3")

	cfg := LoadCatalogConfig()
	if cfg.TMDBKey != "abc" || cfg.RAWGKey != "" {
		t.Fatalf("unexpected keys %+v", cfg)
	}
	if cfg.Region != "GB" || cfg.HTTPTimeout != 3*time.Second {
		t.Fatalf("unexpected transport settings %+v", cfg)
	}
}

func TestLoadServerConfig(t *testing.T) {
	t.Setenv("MEDIATRACKER_HTTP_ADDR", "")
	t.Setenv("MEDIATRACKER_GRPC_ADDR", "127.0.0.1:1")
	cfg := LoadServerConfig()
	if cfg.HTTPAddr != ":8080" || cfg.GRPCAddr != "127.0.0.1:1" || cfg.TCPAddr == "" {
		t.Fatalf("unexpected server config %+v", cfg)
	}
}
