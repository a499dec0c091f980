package database

import (
	"path/filepath"
	"testing"
)

func TestOpenAndMigrate(t *testing.T) {
	cfg := Config{Path: filepath.Join(t.TempDir(), "nested", "data.db")}
	db, err := Open(cfg)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	for i := 0; i < 2; i++ {
		if err := Migrate(db); err != nil {
			t.Fatalf("migrate run %d: %v", i+1, err)
		}
	}

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM records`).Scan(&n); err != nil {
		t.Fatalf("records table missing: %v", err)
	}
}

func TestDefaultConfigHonorsEnv(t *testing.T) {
	t.Setenv("MEDIATRACKER_DB_PATH", "/tmp/custom.db")
	if got := DefaultConfig().Path; got != "/tmp/custom.db" {
		t.Fatalf("expected env path, got %q", got)
	}
}
