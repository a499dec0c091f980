package library

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"mediatracker/pkg/models"
)

var csvHeader = []string{
	"id", "media_type", "title", "year", "platform", "platform_confidence", "genres",
	"author", "external_url", "source", "status", "added_at", "image_url", "overview",
}

const genreSep = "|"

// ExportCSV writes every record to w, oldest first.
func (r *Repo) ExportCSV(ctx context.Context, w io.Writer) (int, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return 0, err
	}

	n := 0
	err := r.Each(ctx, func(rec models.TrackedRecord) error {
		n++
		return cw.Write([]string{
			rec.ID,
			string(rec.MediaType),
			rec.Title,
			rec.Year,
			string(rec.Platform),
			string(rec.PlatformConfidence),
			strings.Join(rec.Genres, genreSep),
			rec.Author,
			rec.ExternalURL,
			rec.Source,
			rec.Status,
			rec.AddedAt.UTC().Format(time.RFC3339),
			rec.ImageURL,
			rec.Overview,
		})
	})
	if err != nil {
		return n, fmt.Errorf("export records: %w", err)
	}

	cw.Flush()
	return n, cw.Error()
}

// ImportCSV saves every row of an ExportCSV file through Save, so the usual
// acceptance rules and external-URL dedup apply. Rows that fail validation
// are skipped and counted. Ids and dates from the file are not reused.
func (r *Repo) ImportCSV(ctx context.Context, in io.Reader) (imported, skipped int, err error) {
	cr := csv.NewReader(in)
	cr.FieldsPerRecord = -1

	head, err := cr.Read()
	if err != nil {
		return 0, 0, fmt.Errorf("read header: %w", err)
	}
	header := make(map[string]int, len(head))
	for idx, name := range head {
		header[strings.TrimSpace(strings.ToLower(name))] = idx
	}

	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, skipped, fmt.Errorf("read row: %w", err)
		}
		get := func(key string) string { return valueAt(header, row, key) }

		c := models.Candidate{
			MediaType:          models.MediaType(strings.ToLower(get("media_type"))),
			Title:              get("title"),
			Year:               get("year"),
			Overview:           get("overview"),
			ImageURL:           get("image_url"),
			Platform:           models.Platform(get("platform")),
			PlatformConfidence: models.PlatformConfidence(get("platform_confidence")),
			Author:             get("author"),
			ExternalURL:        get("external_url"),
			Source:             get("source"),
		}
		if g := get("genres"); g != "" {
			c.Genres = strings.Split(g, genreSep)
		}

		rec, _, err := r.Save(ctx, c)
		if errors.Is(err, ErrInvalidCandidate) {
			skipped++
			continue
		}
		if err != nil {
			return imported, skipped, err
		}
		if st := NormalizeStatus(get("status")); st != "" && st != rec.Status {
			if _, err := r.SetStatus(ctx, rec.ID, st); err != nil {
				return imported, skipped, err
			}
		}
		imported++
	}
	return imported, skipped, nil
}

func valueAt(header map[string]int, row []string, key string) string {
	idx, ok := header[key]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
