//go:build unix

package scanner

import (
	"io/fs"
	"syscall"
)

// inode is used only to sort extraction candidates into on-disk order.
func inode(fi fs.FileInfo) uint64 {
	if st, ok := fi.Sys().(*syscall.Stat_t); ok {
		return st.Ino
	}
	return 0
}
