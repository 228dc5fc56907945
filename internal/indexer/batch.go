package indexer

import (
	"sort"

	"github.com/stelin41/super-fast-dumpster-diver/pkg/types"
)

// Batch is one bounded unit of extraction work.
type Batch struct {
	Files []types.FileDescriptor
	Bytes int64
}

// PlanBatches sorts the candidate set by inode and cuts it into batches
// bounded by maxFiles and maxBytes, whichever is reached first. Ascending
// inode order tends to follow on-disk block order on common filesystems,
// which keeps the extractor's reads closer to sequential. A final partial
// batch is emitted when the candidates are exhausted.
func PlanBatches(files []types.FileDescriptor, maxFiles int, maxBytes int64) []Batch {
	sort.Slice(files, func(i, j int) bool { return files[i].Inode < files[j].Inode })

	var (
		batches []Batch
		current Batch
	)
	for _, f := range files {
		current.Files = append(current.Files, f)
		current.Bytes += f.Size
		if len(current.Files) >= maxFiles || current.Bytes >= maxBytes {
			batches = append(batches, current)
			current = Batch{}
		}
	}
	if len(current.Files) > 0 {
		batches = append(batches, current)
	}
	return batches
}
