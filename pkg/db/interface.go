package db

import (
	"context"
	"database/sql"

	"podcast-transcripts/pkg/domain"
)

// DBProvider is an interface for database clients that provide access to a sql.DB handle.
// This allows both PostgresClient and SupabaseClient to be used interchangeably.
type DBProvider interface {
	DB() *sql.DB
}

// TranscriptSaver stores a copy of each transcript record, keyed by URL.
// Saving the same URL twice replaces the earlier copy.
type TranscriptSaver interface {
	SaveTranscript(ctx context.Context, record *domain.TranscriptRecord) error
}

var (
	_ DBProvider      = (*PostgresClient)(nil)
	_ DBProvider      = (*SupabaseClient)(nil)
	_ TranscriptSaver = (*PostgresClient)(nil)
	_ TranscriptSaver = (*SupabaseClient)(nil)
	_ TranscriptSaver = (*MongoClient)(nil)
)
