// Package store talks to the persistent index: a column-oriented database
// reached over its native query protocol. It owns table lifecycle, stale-row
// deletion, streamed artifact inserts, tracking-state reads and writes, and
// parameterized match queries. It deliberately implements no retry logic;
// the pipeline's delete-before-insert / tracking-after-ingest ordering makes
// re-running a whole command the retry strategy.
package store

import (
	"context"

	"github.com/stelin41/super-fast-dumpster-diver/internal/progress"
	"github.com/stelin41/super-fast-dumpster-diver/internal/schema"
	"github.com/stelin41/super-fast-dumpster-diver/pkg/types"
)

// Store is the query/insert sink the indexing and search pipelines run
// against.
type Store interface {
	// EnsureTracking creates the tracking table if it does not exist.
	EnsureTracking(ctx context.Context) error
	// EnsureSchema creates a schema's artifact table if it does not exist.
	EnsureSchema(ctx context.Context, sch *schema.Schema) error
	// DropSchema drops the artifact table and wipes the schema's tracking
	// rows. Used by clean mode before a rebuild.
	DropSchema(ctx context.Context, sch *schema.Schema) error

	// IndexedState returns canonical path -> last indexed mtime for a
	// schema. Callers treat a failure as "nothing indexed yet".
	IndexedState(ctx context.Context, schemaID string) (map[string]float64, error)

	// DeleteArtifacts removes every artifact row for the given file paths.
	DeleteArtifacts(ctx context.Context, sch *schema.Schema, paths []string) error
	// InsertArtifacts streams records into the artifact table as they
	// arrive, flushing periodically so ingestion is pipelined against
	// extraction. Returns the number of rows appended.
	InsertArtifacts(ctx context.Context, sch *schema.Schema, records <-chan types.Record, rows progress.Reporter) (int64, error)

	// UpdateTracking replaces the tracking rows for a batch's files with
	// their newly observed modification times.
	UpdateTracking(ctx context.Context, schemaID string, files []types.FileDescriptor) error
	// DeleteTracking removes tracking rows for files no longer on disk.
	DeleteTracking(ctx context.Context, schemaID string, paths []string) error

	// QueryMatches runs a parameterized SELECT against the schema's table.
	// Result order is whatever the store returns; no ORDER BY is imposed.
	QueryMatches(ctx context.Context, sch *schema.Schema, pred schema.Predicate, limit int) ([]types.Match, error)

	Close() error
}
