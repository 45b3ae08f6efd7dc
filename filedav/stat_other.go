//go:build !linux && !darwin

package filedav

import (
	"os"
	"time"
)

// 非unix平台拿不到inode/ctime
func statInode(abs string, fi os.FileInfo) uint64 {
	return 0
}

func statCtime(abs string, fi os.FileInfo) time.Time {
	return fi.ModTime()
}
