package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"mediatracker/internal/library"
	"mediatracker/internal/search"
	"mediatracker/pkg/database"
	"mediatracker/pkg/models"
	"mediatracker/pkg/utils"
)

func main() {
	var (
		typ     = flag.String("type", "auto", "media type (movie, tv, anime, book, audiobook, podcast, game, manga) or auto")
		best    = flag.Bool("best", false, "return only the single best match")
		save    = flag.Bool("save", false, "save the best match into the tracking store")
		timeout = flag.Duration("timeout", 30*time.Second, "overall timeout")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: search [flags] <query>\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}
	query := flag.Arg(0)
	for _, a := range flag.Args()[1:] {
		query += " " + a
	}

	utils.SetupLogger(utils.LoadServerConfig().LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	engine, tables, err := search.NewEngine(utils.LoadCatalogConfig())
	if err != nil {
		log.Fatal().Err(err).Msg("engine setup failed")
	}
	q := search.Query{Text: query, Type: *typ}

	if !*best && !*save {
		results, err := engine.Search(ctx, q)
		if err != nil {
			log.Fatal().Err(err).Msg("search failed")
		}
		printJSON(map[string]any{"results": orEmpty(results)})
		return
	}

	top, err := engine.Best(ctx, q)
	if err != nil {
		log.Fatal().Err(err).Msg("search failed")
	}
	if top == nil || !*save {
		printJSON(map[string]any{"result": top})
		return
	}

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	rec, created, err := library.NewRepo(db, tables).Save(ctx, *top)
	if err != nil {
		log.Fatal().Err(err).Msg("save failed")
	}
	log.Info().Str("id", rec.ID).Bool("created", created).Str("title", rec.Title).Msg("saved to tracking store")
	printJSON(rec)
}

func orEmpty(in []models.Candidate) []models.Candidate {
	if in == nil {
		return []models.Candidate{}
	}
	return in
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
