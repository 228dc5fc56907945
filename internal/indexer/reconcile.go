package indexer

import (
	"os"
	"sort"
	"strings"
)

// removedPaths computes recorded-but-unseen paths, restricted to the subtree
// rooted at root. A scan of a narrow root must never touch tracking state
// recorded for paths outside it.
func removedPaths(state map[string]float64, seen map[string]struct{}, root string) []string {
	prefix := root + string(os.PathSeparator)
	var removed []string
	for path := range state {
		if path != root && !strings.HasPrefix(path, prefix) {
			continue
		}
		if _, ok := seen[path]; !ok {
			removed = append(removed, path)
		}
	}
	sort.Strings(removed)
	return removed
}
