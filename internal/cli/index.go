package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/stelin41/super-fast-dumpster-diver/internal/config"
	"github.com/stelin41/super-fast-dumpster-diver/internal/indexer"
	"github.com/stelin41/super-fast-dumpster-diver/internal/progress"
	"github.com/stelin41/super-fast-dumpster-diver/internal/schema"
	"github.com/stelin41/super-fast-dumpster-diver/internal/store"
)

var (
	indexSchemaID   string
	indexReindex    bool
	indexClean      bool
	indexBatchFiles int
	indexBatchBytes int64
)

var indexCmd = &cobra.Command{
	Use:   "index <path>",
	Short: "Scan a file tree and index extracted artifacts",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndex,
}

func init() {
	indexCmd.Flags().StringVar(&indexSchemaID, "schema", schema.DefaultID, "artifact schema to index")
	indexCmd.Flags().BoolVar(&indexReindex, "reindex", false, "force full re-extraction without dropping data")
	indexCmd.Flags().BoolVar(&indexClean, "clean", false, "drop the schema's table and tracking rows, then rebuild")
	indexCmd.Flags().IntVar(&indexBatchFiles, "batch-files", indexer.DefaultBatchFiles, "max files per extraction batch")
	indexCmd.Flags().Int64Var(&indexBatchBytes, "batch-bytes", indexer.DefaultBatchBytes, "max cumulative bytes per extraction batch")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := config.SetupLogger(cfg)

	sch, ok := schema.Lookup(indexSchemaID)
	if !ok {
		return fmt.Errorf("unknown schema %q", indexSchemaID)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	ix := indexer.New(st, sch, logger)
	stats, err := ix.Run(ctx, indexer.Options{
		Root:       args[0],
		Reindex:    indexReindex,
		Clean:      indexClean,
		BatchFiles: indexBatchFiles,
		BatchBytes: indexBatchBytes,
		Scan:       progress.NewCount("scanning", "files"),
		Rows:       progress.NewCount("ingesting", "rows"),
		Overall: func(total int64) progress.Reporter {
			return progress.NewBytes(total, "extracting")
		},
	})
	if err != nil {
		return err
	}

	if stats.FilesQueued == 0 && stats.FilesRemoved == 0 {
		fmt.Println("Everything is up to date.")
		return nil
	}

	logger.Info("indexing complete",
		"schema", sch.ID,
		"scanned", stats.FilesScanned,
		"queued", stats.FilesQueued,
		"removed", stats.FilesRemoved,
		"rows", stats.RowsIngested,
		"duration", stats.Duration,
	)
	if stats.BatchesFailed > 0 {
		return fmt.Errorf("%d of %d batches failed and will be retried on the next run",
			stats.BatchesFailed, stats.Batches)
	}
	return nil
}
