package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/stelin41/super-fast-dumpster-diver/internal/config"
	"github.com/stelin41/super-fast-dumpster-diver/internal/excerpt"
	"github.com/stelin41/super-fast-dumpster-diver/internal/schema"
	"github.com/stelin41/super-fast-dumpster-diver/internal/searcher"
	"github.com/stelin41/super-fast-dumpster-diver/internal/store"
)

var (
	searchLimit int
	searchLeft  int
	searchRight int
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Query indexed artifacts and print them with surrounding context",
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", searcher.DefaultLimit, "max results to return")
	searchCmd.Flags().IntVar(&searchLeft, "left-offset", excerpt.DefaultLeft, "context bytes before the match")
	searchCmd.Flags().IntVar(&searchRight, "right-offset", excerpt.DefaultRight, "context bytes after the match")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "emit one JSON object per result")
	for _, sch := range schema.All() {
		for _, f := range sch.Filters {
			searchCmd.Flags().String(f.Flag, "", f.Help)
		}
	}
	rootCmd.AddCommand(searchCmd)
}

// searchResult is the JSON shape of one match.
type searchResult struct {
	Match       string `json:"match"`
	FilePath    string `json:"file_path"`
	Offset      uint64 `json:"offset"`
	Context     string `json:"context"`
	SearchType  string `json:"search_type"`
	SearchQuery string `json:"search_query"`
}

// selectFilter walks the schema registry in order and picks the first filter
// whose flag carries a non-empty value. Flags set later on the command line
// do not override an earlier registry entry.
func selectFilter(get func(flag string) string) (*schema.Schema, schema.Filter, string, bool) {
	for _, sch := range schema.All() {
		for _, f := range sch.Filters {
			if v := get(f.Flag); v != "" {
				return sch, f, v, true
			}
		}
	}
	return nil, schema.Filter{}, "", false
}

func runSearch(cmd *cobra.Command, _ []string) error {
	sch, filter, value, ok := selectFilter(func(flag string) string {
		v, _ := cmd.Flags().GetString(flag)
		return v
	})
	if !ok {
		return cmd.Help()
	}
	// Reject malformed input before any store contact.
	if _, err := filter.Resolve(value); err != nil {
		return fmt.Errorf("invalid value for --%s: %w", filter.Flag, err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	config.SetupLogger(cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	matches, err := searcher.New(st).Search(ctx, searcher.Request{
		Schema: sch,
		Filter: filter,
		Value:  value,
		Limit:  searchLimit,
	})
	if err != nil {
		return err
	}

	highlight, err := excerpt.CompileHighlight(sch.HighlightPattern)
	if err != nil {
		return fmt.Errorf("compile highlight pattern for schema %s: %w", sch.ID, err)
	}

	enc := json.NewEncoder(os.Stdout)
	for _, m := range matches {
		if searchJSON {
			res := searchResult{
				Match:       m.Value,
				FilePath:    m.Path,
				Offset:      m.Offset,
				SearchType:  sch.ID + "_" + filter.Name,
				SearchQuery: value,
			}
			w, rerr := excerpt.Read(m.Path, m.Offset, len(m.Value), searchLeft, searchRight)
			if rerr != nil {
				res.Context = fmt.Sprintf("[error: %v]", rerr)
			} else {
				res.Context = w.Text
			}
			if err := enc.Encode(res); err != nil {
				return err
			}
			continue
		}

		fmt.Printf("--- %s | offset %d ---\n", m.Path, m.Offset)
		w, rerr := excerpt.Read(m.Path, m.Offset, len(m.Value), searchLeft, searchRight)
		if rerr != nil {
			fmt.Printf("[error: %v]\n", rerr)
		} else {
			spans := excerpt.Classify(w, highlight, m.Offset, m.Value)
			fmt.Println(excerpt.Render(w, spans))
		}
		fmt.Println(strings.Repeat("-", 40))
	}

	if len(matches) == searchLimit && !searchJSON {
		fmt.Printf("Showing the first %d results; raise --limit to see more.\n", searchLimit)
	}
	return nil
}
