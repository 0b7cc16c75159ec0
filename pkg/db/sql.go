package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	"podcast-transcripts/pkg/domain"
)

// DefaultTable is the table or collection transcripts are stored in.
const DefaultTable = "podcast_transcript"

var (
	ErrInvalidRecord = errors.New("transcript record must have a URL")
	ErrNotConnected  = errors.New("database not connected")
	ErrInvalidTable  = errors.New("invalid table name")
)

var tableNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func validTable(table string) (string, error) {
	if table == "" {
		return DefaultTable, nil
	}
	if !tableNamePattern.MatchString(table) {
		return "", fmt.Errorf("%w: %q", ErrInvalidTable, table)
	}
	return table, nil
}

// transcriptSchema keeps url as the primary key so saves can upsert on it.
// number is NULL when the URL carries no episode number.
func transcriptSchema(table string) string {
	return fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
  url TEXT PRIMARY KEY,
  number INTEGER,
  title TEXT NOT NULL DEFAULT '',
  transcript TEXT NOT NULL DEFAULT '',
  method TEXT NOT NULL DEFAULT '',
  run_id TEXT NOT NULL DEFAULT '',
  crawled_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`, table)
}

func upsertQuery(table string) string {
	return fmt.Sprintf(`
INSERT INTO %s (url, number, title, transcript, method, run_id, crawled_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (url) DO UPDATE SET
  number = EXCLUDED.number,
  title = EXCLUDED.title,
  transcript = EXCLUDED.transcript,
  method = EXCLUDED.method,
  run_id = EXCLUDED.run_id,
  crawled_at = EXCLUDED.crawled_at`, table)
}

func ensureTranscriptSchema(ctx context.Context, db *sql.DB, table string) error {
	if db == nil {
		return ErrNotConnected
	}
	if _, err := db.ExecContext(ctx, transcriptSchema(table)); err != nil {
		return fmt.Errorf("create %s table: %w", table, err)
	}
	return nil
}

func upsertTranscript(ctx context.Context, db *sql.DB, table string, record *domain.TranscriptRecord) error {
	if db == nil {
		return ErrNotConnected
	}
	if record == nil || record.URL == "" {
		return ErrInvalidRecord
	}

	var number sql.NullInt64
	if record.HasNumber {
		number = sql.NullInt64{Int64: int64(record.Number), Valid: true}
	}

	if _, err := db.ExecContext(ctx, upsertQuery(table),
		record.URL, number, record.Title, record.Text, record.Method, record.RunID, record.CrawledAt,
	); err != nil {
		return fmt.Errorf("upsert transcript url=%q: %w", record.URL, err)
	}
	return nil
}

// transcriptRow is the JSON shape of one table row, used by the REST API.
type transcriptRow struct {
	URL        string `json:"url"`
	Number     *int   `json:"number"`
	Title      string `json:"title"`
	Transcript string `json:"transcript"`
	Method     string `json:"method"`
	RunID      string `json:"run_id"`
	CrawledAt  string `json:"crawled_at"`
}
