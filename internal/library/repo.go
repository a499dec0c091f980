// Package library is the personal tracking store: the sink that search and
// capture results are written into.
package library

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"mediatracker/internal/taxonomy"
	"mediatracker/pkg/models"
)

// MaxOverview is the longest overview the store keeps, in characters.
const MaxOverview = 2000

var (
	ErrNotFound         = errors.New("record not found")
	ErrInvalidCandidate = errors.New("candidate needs a media type and a title")
	ErrInvalidStatus    = errors.New("status must be one of: want, in_progress, done")
)

type Repo struct {
	DB     *sql.DB
	Tables *taxonomy.Tables
	now    func() time.Time
}

func NewRepo(db *sql.DB, tables *taxonomy.Tables) *Repo {
	if tables == nil {
		tables = taxonomy.Default()
	}
	return &Repo{DB: db, Tables: tables, now: time.Now}
}

// ListFilter narrows List. Zero values mean "any".
type ListFilter struct {
	MediaType models.MediaType
	Status    string
	Limit     int
	Offset    int
}

const recordColumns = `id, media_type, title, year, overview, image_url, platform, platform_confidence,
	genres, author, external_url, source, status, added_at`

// Save writes c as a "want" record. A candidate whose external URL is already
// tracked updates that record in place and keeps its id, status and date.
// created reports whether a new record was inserted.
func (r *Repo) Save(ctx context.Context, c models.Candidate) (rec models.TrackedRecord, created bool, err error) {
	if !c.Valid() {
		return models.TrackedRecord{}, false, ErrInvalidCandidate
	}
	rec = r.toRecord(c)

	genresJSON, err := json.Marshal(rec.Genres)
	if err != nil {
		return models.TrackedRecord{}, false, fmt.Errorf("marshal genres: %w", err)
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return models.TrackedRecord{}, false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var existing *models.TrackedRecord
	if rec.ExternalURL != "" {
		row := tx.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM records WHERE external_url = ? LIMIT 1`, rec.ExternalURL)
		got, err := scanRecord(row)
		switch {
		case errors.Is(err, ErrNotFound):
		case err != nil:
			return models.TrackedRecord{}, false, err
		default:
			existing = &got
		}
	}

	if existing != nil {
		rec.ID, rec.Status, rec.AddedAt = existing.ID, existing.Status, existing.AddedAt
		_, err = tx.ExecContext(ctx, `
			UPDATE records SET
			  media_type = ?, title = ?, year = ?, overview = ?, image_url = ?, platform = ?,
			  platform_confidence = ?, genres = ?, author = ?, source = ?
			WHERE id = ?
		`, rec.MediaType, rec.Title, rec.Year, rec.Overview, rec.ImageURL, rec.Platform,
			rec.PlatformConfidence, string(genresJSON), rec.Author, rec.Source, rec.ID)
		if err != nil {
			return models.TrackedRecord{}, false, fmt.Errorf("update record: %w", err)
		}
	} else {
		created = true
		_, err = tx.ExecContext(ctx, `
			INSERT INTO records (`+recordColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, rec.ID, rec.MediaType, rec.Title, rec.Year, rec.Overview, rec.ImageURL, rec.Platform,
			rec.PlatformConfidence, string(genresJSON), rec.Author, rec.ExternalURL, rec.Source,
			rec.Status, rec.AddedAt)
		if err != nil {
			return models.TrackedRecord{}, false, fmt.Errorf("insert record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return models.TrackedRecord{}, false, fmt.Errorf("commit tx: %w", err)
	}
	return rec, created, nil
}

// toRecord applies the store's acceptance rules to a candidate.
func (r *Repo) toRecord(c models.Candidate) models.TrackedRecord {
	rec := models.TrackedRecord{
		ID:          uuid.NewString(),
		MediaType:   c.MediaType,
		Title:       strings.TrimSpace(c.Title),
		Year:        c.Year,
		Overview:    capRunes(strings.TrimSpace(c.Overview), MaxOverview),
		ImageURL:    c.ImageURL,
		Genres:      r.Tables.Normalize(c.Genres),
		Author:      c.Author,
		ExternalURL: strings.TrimSpace(c.ExternalURL),
		Source:      c.Source,
		Status:      models.StatusWant,
		AddedAt:     r.now().UTC().Truncate(time.Second),
	}
	if c.Platform.Valid() {
		rec.Platform = c.Platform
		rec.PlatformConfidence = c.PlatformConfidence
	}
	return rec
}

func capRunes(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n])
}

func (r *Repo) Get(ctx context.Context, id string) (models.TrackedRecord, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM records WHERE id = ?`, id)
	return scanRecord(row)
}

func (r *Repo) List(ctx context.Context, f ListFilter) ([]models.TrackedRecord, int, error) {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	where := []string{"1 = 1"}
	var args []any
	if f.MediaType != "" {
		where = append(where, "media_type = ?")
		args = append(args, f.MediaType)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM records WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count records: %w", err)
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+recordColumns+`
		FROM records
		WHERE `+cond+`
		ORDER BY added_at DESC, title ASC
		LIMIT ? OFFSET ?
	`, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	out := make([]models.TrackedRecord, 0, f.Limit)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate records: %w", err)
	}
	return out, total, nil
}

// SetStatus moves a record along want → in_progress → done (any order).
func (r *Repo) SetStatus(ctx context.Context, id, status string) (models.TrackedRecord, error) {
	status = NormalizeStatus(status)
	if status == "" {
		return models.TrackedRecord{}, ErrInvalidStatus
	}
	res, err := r.DB.ExecContext(ctx, `UPDATE records SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return models.TrackedRecord{}, fmt.Errorf("update status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.TrackedRecord{}, ErrNotFound
	}
	return r.Get(ctx, id)
}

func (r *Repo) Delete(ctx context.Context, id string) (models.TrackedRecord, error) {
	rec, err := r.Get(ctx, id)
	if err != nil {
		return models.TrackedRecord{}, err
	}
	if _, err := r.DB.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id); err != nil {
		return models.TrackedRecord{}, fmt.Errorf("delete record: %w", err)
	}
	return rec, nil
}

// Each returns every record, oldest first, to fn. Used by exports.
func (r *Repo) Each(ctx context.Context, fn func(models.TrackedRecord) error) error {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+recordColumns+` FROM records ORDER BY added_at ASC, id ASC`)
	if err != nil {
		return fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (models.TrackedRecord, error) {
	var (
		rec        models.TrackedRecord
		genresJSON string
	)
	err := s.Scan(&rec.ID, &rec.MediaType, &rec.Title, &rec.Year, &rec.Overview, &rec.ImageURL,
		&rec.Platform, &rec.PlatformConfidence, &genresJSON, &rec.Author, &rec.ExternalURL,
		&rec.Source, &rec.Status, &rec.AddedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.TrackedRecord{}, ErrNotFound
	}
	if err != nil {
		return models.TrackedRecord{}, fmt.Errorf("scan record: %w", err)
	}
	if err := json.Unmarshal([]byte(genresJSON), &rec.Genres); err != nil || rec.Genres == nil {
		rec.Genres = []string{}
	}
	return rec, nil
}

// NormalizeStatus accepts a few spellings of each status and returns "" for
// anything else.
func NormalizeStatus(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "want", "want to watch", "want to read", "want to play", "want_to_watch":
		return models.StatusWant
	case "in_progress", "in progress", "watching", "reading", "playing", "listening":
		return models.StatusInProgress
	case "done", "completed", "finished":
		return models.StatusDone
	default:
		return ""
	}
}
