//go:build !darwin

package scanner

import (
	"io/fs"
	"time"
)

// Birth time is not exposed by syscall.Stat_t outside darwin.
func birthTime(fs.FileInfo) time.Time { return time.Time{} }

func hasHiddenFlag(fs.FileInfo) bool { return false }
