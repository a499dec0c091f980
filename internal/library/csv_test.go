package library

import (
	"bytes"
	"context"
	"reflect"
	"strings"
	"testing"

	"mediatracker/pkg/models"
)

func TestCSVRoundTrip(t *testing.T) {
	src := newTestRepo(t)
	ctx := context.Background()

	rec, _, err := src.Save(ctx, dune())
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := src.SetStatus(ctx, rec.ID, "done"); err != nil {
		t.Fatalf("status: %v", err)
	}
	game := models.Candidate{MediaType: models.MediaGame, Title: "Hades, the game", Genres: []string{"Action", "Fantasy"}, ExternalURL: "https://rawg.io/games/hades"}
	if _, _, err := src.Save(ctx, game); err != nil {
		t.Fatalf("save game: %v", err)
	}

	var buf bytes.Buffer
	n, err := src.ExportCSV(ctx, &buf)
	if err != nil || n != 2 {
		t.Fatalf("export: n=%d err=%v", n, err)
	}

	dst := newTestRepo(t)
	imported, skipped, err := dst.ImportCSV(ctx, &buf)
	if err != nil || imported != 2 || skipped != 0 {
		t.Fatalf("import: imported=%d skipped=%d err=%v", imported, skipped, err)
	}

	items, _, err := dst.List(ctx, ListFilter{MediaType: models.MediaBook})
	if err != nil || len(items) != 1 {
		t.Fatalf("list: %+v %v", items, err)
	}
	if items[0].Status != models.StatusDone || items[0].Author != "Frank Herbert" {
		t.Fatalf("book not restored: %+v", items[0])
	}

	games, _, _ := dst.List(ctx, ListFilter{MediaType: models.MediaGame})
	if len(games) != 1 || games[0].Title != "Hades, the game" || !reflect.DeepEqual(games[0].Genres, []string{"Action", "Fantasy"}) {
		t.Fatalf("game not restored: %+v", games)
	}
}

func TestImportCSVSkipsInvalidRows(t *testing.T) {
	r := newTestRepo(t)
	in := "title,media_type\nDune,book\n,book\nSomething,opera\n"
	imported, skipped, err := r.ImportCSV(context.Background(), strings.NewReader(in))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if imported != 1 || skipped != 2 {
		t.Fatalf("expected 1 imported and 2 skipped, got %d/%d", imported, skipped)
	}
}
