package utils

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type AuthConfig struct {
	JWTSecret   string
	JWTIssuer   string
	JWTDuration time.Duration
	// OwnerPasswordHash is a bcrypt hash; empty means the dev password.
	OwnerPasswordHash string
}

func LoadAuthConfig() AuthConfig {
	secret := os.Getenv("MEDIATRACKER_JWT_SECRET")
	if secret == "" {
		// dev default (change for production)
		secret = "dev-secret-change-me"
	}

	issuer := os.Getenv("MEDIATRACKER_JWT_ISSUER")
	if issuer == "" {
		issuer = "mediatracker"
	}

	return AuthConfig{
		JWTSecret:         secret,
		JWTIssuer:         issuer,
		JWTDuration:       time.Duration(envInt("MEDIATRACKER_JWT_TTL_HOURS", 24)) * time.Hour,
		OwnerPasswordHash: strings.TrimSpace(os.Getenv("MEDIATRACKER_OWNER_PASSWORD_HASH")),
	}
}

// CatalogConfig carries catalog credentials and transport settings. An empty
// key leaves that catalog permanently empty.
type CatalogConfig struct {
	TMDBKey        string
	GoogleBooksKey string
	RAWGKey        string
	Region         string
	HTTPTimeout    time.Duration
	TaxonomyPath   string
}

func LoadCatalogConfig() CatalogConfig {
	return CatalogConfig{
		TMDBKey:        strings.TrimSpace(os.Getenv("TMDB_API_KEY")),
		GoogleBooksKey: strings.TrimSpace(os.Getenv("GOOGLE_BOOKS_API_KEY")),
		RAWGKey:        strings.TrimSpace(os.Getenv("RAWG_API_KEY")),
		Region:         envString("MEDIATRACKER_REGION", "GB"),
		HTTPTimeout:    time.Duration(envInt("MEDIATRACKER_HTTP_TIMEOUT", 10)) * time.Second,
		TaxonomyPath:   os.Getenv("MEDIATRACKER_TAXONOMY_PATH"),
	}
}

type VisionConfig struct {
	APIKey string
	Model  string
}

func LoadVisionConfig() VisionConfig {
	return VisionConfig{
		APIKey: strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")),
		Model:  envString("MEDIATRACKER_VISION_MODEL", "claude-sonnet-4-20250514"),
	}
}

type ServerConfig struct {
	HTTPAddr string
	TCPAddr  string
	GRPCAddr string
	LogLevel string
}

func LoadServerConfig() ServerConfig {
	return ServerConfig{
		HTTPAddr: envString("MEDIATRACKER_HTTP_ADDR", ":8080"),
		TCPAddr:  envString("MEDIATRACKER_TCP_ADDR", ":7070"),
		GRPCAddr: envString("MEDIATRACKER_GRPC_ADDR", ":9090"),
		LogLevel: envString("MEDIATRACKER_LOG_LEVEL", "info"),
	}
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// envInt parses a positive integer, falling back to def when unset or bad.
func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
