package store

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/stelin41/super-fast-dumpster-diver/internal/config"
	"github.com/stelin41/super-fast-dumpster-diver/internal/progress"
	"github.com/stelin41/super-fast-dumpster-diver/internal/schema"
	"github.com/stelin41/super-fast-dumpster-diver/pkg/types"
)

// Tracking rows are last-write-wins by (schema, file_path): re-inserting a
// file's row on reindex supersedes the old one without an explicit update.
const trackingDDL = `
	CREATE TABLE IF NOT EXISTS indexed_files (
		file_path String,
		last_modified Float64,
		last_indexed DateTime DEFAULT now(),
		schema String
	) ENGINE = ReplacingMergeTree()
	ORDER BY (schema, file_path)`

// insertFlushRows is how many appended rows trigger an intermediate send, so
// a multi-gigabyte batch is never materialized client-side.
const insertFlushRows = 10000

// ClickHouse implements Store over the native protocol. The design assumes a
// single writer per run; concurrent runs against the same schema must be
// serialized by the operator.
type ClickHouse struct {
	conn driver.Conn
}

// Connect opens and pings a connection using the process configuration.
func Connect(ctx context.Context, cfg *config.Config) (*ClickHouse, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		DialTimeout: cfg.DialTimeout,
		Compression: &clickhouse.Compression{Method: clickhouse.CompressionLZ4},
	})
	if err != nil {
		return nil, fmt.Errorf("open clickhouse connection: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping clickhouse at %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	return &ClickHouse{conn: conn}, nil
}

func (s *ClickHouse) Close() error {
	return s.conn.Close()
}

func (s *ClickHouse) EnsureTracking(ctx context.Context) error {
	if err := s.conn.Exec(ctx, trackingDDL); err != nil {
		return fmt.Errorf("create tracking table: %w", err)
	}
	return nil
}

func (s *ClickHouse) EnsureSchema(ctx context.Context, sch *schema.Schema) error {
	if err := s.conn.Exec(ctx, sch.CreateSQL); err != nil {
		return fmt.Errorf("create table %s: %w", sch.Table, err)
	}
	return nil
}

func (s *ClickHouse) DropSchema(ctx context.Context, sch *schema.Schema) error {
	if err := s.conn.Exec(ctx, "DROP TABLE IF EXISTS "+sch.Table); err != nil {
		return fmt.Errorf("drop table %s: %w", sch.Table, err)
	}
	err := s.conn.Exec(ctx,
		"ALTER TABLE indexed_files DELETE WHERE schema = {schema:String}",
		clickhouse.Named("schema", sch.Table))
	if err != nil {
		return fmt.Errorf("wipe tracking rows for %s: %w", sch.Table, err)
	}
	return nil
}

func (s *ClickHouse) IndexedState(ctx context.Context, schemaID string) (map[string]float64, error) {
	rows, err := s.conn.Query(ctx,
		"SELECT file_path, last_modified FROM indexed_files WHERE schema = {schema:String}",
		clickhouse.Named("schema", schemaID))
	if err != nil {
		return nil, fmt.Errorf("read tracking state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	state := make(map[string]float64)
	for rows.Next() {
		var (
			path  string
			mtime float64
		)
		if err := rows.Scan(&path, &mtime); err != nil {
			return nil, fmt.Errorf("scan tracking row: %w", err)
		}
		state[path] = mtime
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read tracking state: %w", err)
	}
	return state, nil
}

func (s *ClickHouse) DeleteArtifacts(ctx context.Context, sch *schema.Schema, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	err := s.conn.Exec(ctx,
		fmt.Sprintf("ALTER TABLE %s DELETE WHERE file_path IN {paths:Array(String)}", sch.Table),
		clickhouse.Named("paths", paths))
	if err != nil {
		return fmt.Errorf("delete artifacts from %s: %w", sch.Table, err)
	}
	return nil
}

func (s *ClickHouse) InsertArtifacts(ctx context.Context, sch *schema.Schema, records <-chan types.Record, rows progress.Reporter) (int64, error) {
	stmt := insertStatement(sch)
	batch, err := s.conn.PrepareBatch(ctx, stmt)
	if err != nil {
		return 0, fmt.Errorf("prepare artifact insert: %w", err)
	}

	var total int64
	for rec := range records {
		if err := batch.Append(rec.Path, rec.Offset, rec.Value); err != nil {
			return total, fmt.Errorf("append artifact row: %w", err)
		}
		total++
		rows.Add(1)

		if total%insertFlushRows == 0 {
			if err := batch.Send(); err != nil {
				return total, fmt.Errorf("send artifact batch: %w", err)
			}
			if batch, err = s.conn.PrepareBatch(ctx, stmt); err != nil {
				return total, fmt.Errorf("prepare artifact insert: %w", err)
			}
		}
	}
	if err := batch.Send(); err != nil {
		return total, fmt.Errorf("send artifact batch: %w", err)
	}
	return total, nil
}

func (s *ClickHouse) UpdateTracking(ctx context.Context, schemaID string, files []types.FileDescriptor) error {
	if len(files) == 0 {
		return nil
	}
	batch, err := s.conn.PrepareBatch(ctx, "INSERT INTO indexed_files (file_path, last_modified, schema)")
	if err != nil {
		return fmt.Errorf("prepare tracking insert: %w", err)
	}
	for _, f := range files {
		if err := batch.Append(f.Path, f.ModTime, schemaID); err != nil {
			return fmt.Errorf("append tracking row: %w", err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("send tracking rows: %w", err)
	}
	return nil
}

func (s *ClickHouse) DeleteTracking(ctx context.Context, schemaID string, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	err := s.conn.Exec(ctx,
		"ALTER TABLE indexed_files DELETE WHERE schema = {schema:String} AND file_path IN {paths:Array(String)}",
		clickhouse.Named("schema", schemaID),
		clickhouse.Named("paths", paths))
	if err != nil {
		return fmt.Errorf("delete tracking rows: %w", err)
	}
	return nil
}

func (s *ClickHouse) QueryMatches(ctx context.Context, sch *schema.Schema, pred schema.Predicate, limit int) ([]types.Match, error) {
	args := make([]any, 0, len(pred.Params))
	for name, value := range pred.Params {
		args = append(args, clickhouse.Named(name, value))
	}

	rows, err := s.conn.Query(ctx, queryStatement(sch, pred, limit), args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", sch.Table, err)
	}
	defer func() { _ = rows.Close() }()

	var matches []types.Match
	for rows.Next() {
		var m types.Match
		if err := rows.Scan(&m.Path, &m.Offset, &m.Value); err != nil {
			return nil, fmt.Errorf("scan match row: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query %s: %w", sch.Table, err)
	}
	return matches, nil
}

// insertStatement builds the column-explicit INSERT head for a schema. For
// tables with an EPHEMERAL main column (emails), the server derives the
// stored sub-fields from the inserted value.
func insertStatement(sch *schema.Schema) string {
	return fmt.Sprintf("INSERT INTO %s (file_path, offset, %s)", sch.Table, sch.MainColumn)
}

// queryStatement builds the SELECT for a resolved predicate. Table name and
// result expression come from the static registry; user input only ever
// travels through bound parameters.
func queryStatement(sch *schema.Schema, pred schema.Predicate, limit int) string {
	return fmt.Sprintf("SELECT file_path, offset, %s AS match FROM %s WHERE %s LIMIT %d",
		sch.ResultExpr, sch.Table, pred.Expr, limit)
}
