//go:build darwin

package scanner

import (
	"io/fs"
	"syscall"
	"time"
)

// ufHidden is the BSD UF_HIDDEN file flag set by Finder
const ufHidden = 0x00008000

func birthTime(info fs.FileInfo) time.Time {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return time.Time{}
	}
	return time.Unix(st.Birthtimespec.Sec, st.Birthtimespec.Nsec)
}

func hasHiddenFlag(info fs.FileInfo) bool {
	st, ok := info.Sys().(*syscall.Stat_t)
	return ok && st.Flags&ufHidden != 0
}
