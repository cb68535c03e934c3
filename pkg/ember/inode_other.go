//go:build !unix

package ember

import "os"

// fileInode has no inode to report on platforms without Stat_t; mtime and
// size still distinguish representations.
func fileInode(fi os.FileInfo) uint64 {
	return 0
}
