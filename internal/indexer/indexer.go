// Package indexer coordinates the incremental indexing pipeline:
// scan -> reconcile tracking state -> plan batches -> extract -> ingest.
//
// Batches run strictly sequentially; within a batch the extractor child
// process produces records while the store sink consumes them. One batch's
// failure never aborts the run or corrupts another batch: its tracking rows
// are withheld, so the next run retries it.
package indexer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os/exec"
	"time"

	"github.com/stelin41/super-fast-dumpster-diver/internal/extract"
	"github.com/stelin41/super-fast-dumpster-diver/internal/progress"
	"github.com/stelin41/super-fast-dumpster-diver/internal/scanner"
	"github.com/stelin41/super-fast-dumpster-diver/internal/schema"
	"github.com/stelin41/super-fast-dumpster-diver/internal/store"
	"github.com/stelin41/super-fast-dumpster-diver/pkg/types"
)

const (
	// DefaultBatchFiles and DefaultBatchBytes bound a batch by file count
	// and cumulative source size, whichever is hit first.
	DefaultBatchFiles = 1000
	DefaultBatchBytes = 512 << 20

	// mtimeTolerance absorbs filesystem timestamp rounding between runs.
	mtimeTolerance = 0.001

	// removalChunkSize bounds the IN-list length of removal deletes.
	removalChunkSize = 512
)

// Options configures one indexing run.
type Options struct {
	Root string
	// Reindex forces re-extraction of every scanned file without dropping
	// stored data first.
	Reindex bool
	// Clean drops the schema's table and tracking rows before rebuilding.
	Clean bool

	BatchFiles int
	BatchBytes int64

	// Scan and Rows receive discovery and ingest progress; nil means no
	// reporting. Overall, if set, is called once the total byte count is
	// known and returns the reporter for extraction progress.
	Scan    progress.Reporter
	Rows    progress.Reporter
	Overall func(totalBytes int64) progress.Reporter
}

// Statistics summarizes an indexing run.
type Statistics struct {
	FilesScanned  int
	FilesQueued   int
	FilesRemoved  int
	Batches       int
	BatchesFailed int
	RowsIngested  int64
	Duration      time.Duration
}

// Indexer drives the pipeline for one schema against one store.
type Indexer struct {
	store store.Store
	sch   *schema.Schema
	log   *slog.Logger

	// newBridge is swapped out by tests.
	newBridge func(pattern string) *extract.Bridge
}

// New creates an Indexer.
func New(st store.Store, sch *schema.Schema, logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{
		store:     st,
		sch:       sch,
		log:       logger,
		newBridge: extract.New,
	}
}

// Run executes one full indexing pass. Errors local to one batch are logged
// and counted, not returned; returned errors are fatal to the run (store
// setup, scan failure, removal reconciliation).
func (ix *Indexer) Run(ctx context.Context, opts Options) (*Statistics, error) {
	start := time.Now()
	if opts.BatchFiles <= 0 {
		opts.BatchFiles = DefaultBatchFiles
	}
	if opts.BatchBytes <= 0 {
		opts.BatchBytes = DefaultBatchBytes
	}
	scanProg := opts.Scan
	if scanProg == nil {
		scanProg = progress.Nop{}
	}
	rowProg := opts.Rows
	if rowProg == nil {
		rowProg = progress.Nop{}
	}

	stats := &Statistics{}

	if err := ix.store.EnsureTracking(ctx); err != nil {
		return nil, err
	}
	if opts.Clean {
		ix.log.Info("cleaning all data for schema", "schema", ix.sch.ID)
		if err := ix.store.DropSchema(ctx, ix.sch); err != nil {
			return nil, err
		}
	}
	if err := ix.store.EnsureSchema(ctx, ix.sch); err != nil {
		return nil, err
	}

	// Reindex and clean rebuild from scratch: both change detection and
	// removal detection are suppressed.
	rebuild := opts.Reindex || opts.Clean

	state := map[string]float64{}
	if !rebuild {
		recorded, err := ix.store.IndexedState(ctx, ix.sch.Table)
		if err != nil {
			// First-run bootstrap: a cold store must not block indexing.
			ix.log.Warn("tracking state unavailable, assuming nothing indexed", "error", err)
		} else {
			state = recorded
		}
	}

	root, err := scanner.Canonical(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", opts.Root, err)
	}

	warmCache(root)

	var (
		candidates  []types.FileDescriptor
		queuedBytes int64
		seen        = make(map[string]struct{})
	)
	err = scanner.Scan(root, func(fd types.FileDescriptor) error {
		stats.FilesScanned++
		scanProg.Add(1)
		seen[fd.Path] = struct{}{}
		prev, ok := state[fd.Path]
		if rebuild || !ok || math.Abs(fd.ModTime-prev) > mtimeTolerance {
			candidates = append(candidates, fd)
			queuedBytes += fd.Size
		}
		return nil
	})
	scanProg.Done()
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	if !rebuild {
		removed := removedPaths(state, seen, root)
		if err := ix.reconcileRemoved(ctx, removed); err != nil {
			return nil, err
		}
		stats.FilesRemoved = len(removed)
	}

	stats.FilesQueued = len(candidates)
	if len(candidates) == 0 {
		stats.Duration = time.Since(start)
		return stats, nil
	}
	ix.log.Info("files to index", "count", len(candidates), "bytes", queuedBytes)

	overall := progress.Reporter(progress.Nop{})
	if opts.Overall != nil {
		overall = opts.Overall(queuedBytes)
	}

	for _, batch := range PlanBatches(candidates, opts.BatchFiles, opts.BatchBytes) {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Batches++
		rows, err := ix.processBatch(ctx, batch, rowProg, overall)
		stats.RowsIngested += rows
		if err != nil {
			stats.BatchesFailed++
			ix.log.Error("batch failed, will retry on next run",
				"files", len(batch.Files), "error", err)
		}
	}
	overall.Done()
	rowProg.Done()

	stats.Duration = time.Since(start)
	return stats, nil
}

// processBatch performs one delete -> streamed insert -> tracking update
// cycle. The tracking update happens only after ingestion succeeded, so an
// interrupted batch is re-attempted on the next run. Records already
// inserted before a mid-stream failure are left in place; the retry's
// delete-before-insert makes that harmless.
func (ix *Indexer) processBatch(ctx context.Context, batch Batch, rows, overall progress.Reporter) (int64, error) {
	paths := make([]string, len(batch.Files))
	for i, f := range batch.Files {
		paths[i] = f.Path
	}
	overall.Describe(fmt.Sprintf("batch: %d files (%.1f MB)",
		len(paths), float64(batch.Bytes)/(1<<20)))

	if err := ix.store.DeleteArtifacts(ctx, ix.sch, paths); err != nil {
		return 0, fmt.Errorf("delete stale artifacts: %w", err)
	}

	bctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, err := ix.newBridge(ix.sch.ExtractPattern).Run(bctx, paths)
	if err != nil {
		return 0, fmt.Errorf("start extractor: %w", err)
	}

	inserted, insErr := ix.store.InsertArtifacts(bctx, ix.sch, stream.Records(), rows)
	if insErr != nil {
		// Unblock the producer so the child is reaped before we return.
		cancel()
	}
	extErr := stream.Err()
	overall.Add(batch.Bytes)

	if insErr != nil {
		return inserted, fmt.Errorf("stream insert: %w", insErr)
	}
	if extErr != nil {
		return inserted, extErr
	}
	if n := stream.Dropped(); n > 0 {
		ix.log.Warn("dropped unparseable extractor lines", "count", n)
	}

	if err := ix.store.UpdateTracking(ctx, ix.sch.Table, batch.Files); err != nil {
		return inserted, fmt.Errorf("update tracking: %w", err)
	}
	return inserted, nil
}

// reconcileRemoved deletes artifact and tracking rows for files that were
// recorded under the scanned root but no longer exist there, in bounded
// chunks to keep the store's predicate lists practical.
func (ix *Indexer) reconcileRemoved(ctx context.Context, removed []string) error {
	for start := 0; start < len(removed); start += removalChunkSize {
		end := min(start+removalChunkSize, len(removed))
		chunk := removed[start:end]
		if err := ix.store.DeleteArtifacts(ctx, ix.sch, chunk); err != nil {
			return fmt.Errorf("delete artifacts of removed files: %w", err)
		}
		if err := ix.store.DeleteTracking(ctx, ix.sch.Table, chunk); err != nil {
			return fmt.Errorf("delete tracking of removed files: %w", err)
		}
	}
	if len(removed) > 0 {
		ix.log.Info("reconciled removed files", "count", len(removed))
	}
	return nil
}

// warmCache touches the tree's metadata ahead of the walk. On cold page
// caches this speeds up discovery considerably.
func warmCache(root string) {
	cmd := exec.Command("du", "-s", root)
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	_ = cmd.Run()
}
