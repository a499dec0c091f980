package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"mediatracker/internal/library"
	"mediatracker/pkg/database"
	"mediatracker/pkg/utils"
)

func main() {
	out := flag.String("out", "data/records.csv", "output CSV path for tracked records")
	flag.Parse()

	utils.SetupLogger(utils.LoadServerConfig().LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		log.Fatal().Err(err).Msg("create output dir failed")
	}
	f, err := os.Create(*out)
	if err != nil {
		log.Fatal().Err(err).Msg("create output failed")
	}
	defer f.Close()

	n, err := library.NewRepo(db, nil).ExportCSV(ctx, f)
	if err != nil {
		log.Fatal().Err(err).Msg("export failed")
	}
	log.Info().Int("records", n).Str("path", *out).Msg("export complete")
}
