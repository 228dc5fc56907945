// Package types contains the shared data types passed between the scanner,
// the extraction bridge, the store, and the search pipeline.
package types

// FileDescriptor describes one file on disk at scan time. The path is
// canonical (absolute, symlinks resolved) so the same physical file always
// produces the same tracking key regardless of how it was reached.
type FileDescriptor struct {
	Path    string
	ModTime float64 // seconds since the Unix epoch, sub-second precision
	Size    int64
	Inode   uint64
}

// Record is one extracted occurrence of a schema's pattern: which file it
// was found in, the byte offset of the start of the match, and the raw
// matched text.
type Record struct {
	Path   string
	Offset uint64
	Value  string
}

// Match is one retrieval result: a stored record re-read from the artifact
// table, with Value already passed through the schema's result-format
// expression.
type Match struct {
	Path   string
	Offset uint64
	Value  string
}
