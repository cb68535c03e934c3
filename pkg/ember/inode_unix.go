//go:build unix

package ember

import (
	"os"
	"syscall"
)

// fileInode returns the inode number backing fi, the first component of the
// strong ETag triple.
func fileInode(fi os.FileInfo) uint64 {
	if st, ok := fi.Sys().(*syscall.Stat_t); ok {
		return st.Ino
	}
	return 0
}
