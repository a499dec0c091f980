package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"mediatracker/internal/library"
	"mediatracker/internal/taxonomy"
	"mediatracker/pkg/database"
	"mediatracker/pkg/utils"
)

func main() {
	in := flag.String("in", "data/records.csv", "input CSV path (export-csv format)")
	flag.Parse()

	utils.SetupLogger(utils.LoadServerConfig().LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	tables, err := taxonomy.Load(utils.LoadCatalogConfig().TaxonomyPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load taxonomy failed")
	}

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	f, err := os.Open(*in)
	if err != nil {
		log.Fatal().Err(err).Msg("open input failed")
	}
	defer f.Close()

	imported, skipped, err := library.NewRepo(db, tables).ImportCSV(ctx, f)
	if err != nil {
		log.Fatal().Err(err).Int("imported", imported).Msg("import failed")
	}
	log.Info().Int("imported", imported).Int("skipped", skipped).Str("path", *in).Msg("import complete")
}
