package db

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"podcast-transcripts/pkg/domain"
)

func TestValidTable(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", DefaultTable, false},
		{"episodes_2024", "episodes_2024", false},
		{"bad; DROP TABLE x", "", true},
		{"1table", "", true},
	}
	for _, tt := range tests {
		got, err := validTable(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("validTable(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if tt.wantErr && !errors.Is(err, ErrInvalidTable) {
			t.Errorf("validTable(%q) error = %v, want %v", tt.in, err, ErrInvalidTable)
		}
		if got != tt.want {
			t.Errorf("validTable(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUpsertQuery(t *testing.T) {
	q := upsertQuery("podcast_transcript")
	for _, want := range []string{"INSERT INTO podcast_transcript", "ON CONFLICT (url) DO UPDATE", "transcript = EXCLUDED.transcript"} {
		if !strings.Contains(q, want) {
			t.Errorf("upsert query missing %q:\n%s", want, q)
		}
	}
}

func TestUpsertTranscript_Validation(t *testing.T) {
	if err := upsertTranscript(context.Background(), nil, DefaultTable, &domain.TranscriptRecord{URL: "u"}); !errors.Is(err, ErrNotConnected) {
		t.Errorf("nil db: got %v", err)
	}
}

func TestIntegration_PostgresSaveTranscript(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}
	dsn := os.Getenv("PODCAST_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("PODCAST_TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	client := NewPostgresClient(PostgresConfig{DSN: dsn, Table: "podcast_transcript_test"})
	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Failed to connect to postgres: %v", err)
	}
	defer client.Close()
	defer client.DB().ExecContext(ctx, "DROP TABLE IF EXISTS podcast_transcript_test")

	record := &domain.TranscriptRecord{
		URL:       "https://example.com/12-a/",
		Number:    12,
		HasNumber: true,
		Text:      "first",
		CrawledAt: time.Now().UTC(),
	}
	if err := client.SaveTranscript(ctx, record); err != nil {
		t.Fatalf("SaveTranscript() error = %v", err)
	}
	record.Text = "second"
	if err := client.SaveTranscript(ctx, record); err != nil {
		t.Fatalf("SaveTranscript() second error = %v", err)
	}

	var (
		count int
		text  string
	)
	row := client.DB().QueryRowContext(ctx, "SELECT count(*), max(transcript) FROM podcast_transcript_test")
	if err := row.Scan(&count, &text); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if count != 1 || text != "second" {
		t.Errorf("got count=%d text=%q, want 1 row with %q", count, text, "second")
	}
}
