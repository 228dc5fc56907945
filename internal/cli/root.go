// Package cli wires the index and search commands around the pipeline.
package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "dumpster",
	Short: "Incremental forensic artifact indexer",
	Long: `dumpster incrementally indexes large file trees for forensic scanning:
it extracts structured artifacts (emails, domains, IPs, UUIDs) at exact byte
offsets into ClickHouse, then serves searches with raw byte context read back
from the original files.`,
	SilenceUsage: true,
}

// Execute runs the CLI. Errors are printed by cobra; the caller only needs
// the exit status.
func Execute() error {
	return rootCmd.Execute()
}
