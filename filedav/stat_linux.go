//go:build linux

package filedav

import (
	"os"
	"time"

	"golang.org/x/sys/unix"
)

func lstat(abs string) (*unix.Stat_t, bool) {
	st := &unix.Stat_t{}
	if err := unix.Lstat(abs, st); err != nil {
		return nil, false
	}
	return st, true
}

func statInode(abs string, fi os.FileInfo) uint64 {
	if st, ok := lstat(abs); ok {
		return st.Ino
	}
	return 0
}

func statCtime(abs string, fi os.FileInfo) time.Time {
	if st, ok := lstat(abs); ok {
		return time.Unix(st.Ctim.Unix())
	}
	return fi.ModTime()
}
