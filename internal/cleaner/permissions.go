package cleaner

import (
	"fmt"
	"os"
	"syscall"
)

// IsSpecialFile checks if a path is a special file (device, socket, pipe).
// Symlinks are not followed.
func IsSpecialFile(path string) (bool, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return false, err
	}

	mode := info.Mode()

	switch {
	case mode&os.ModeDevice != 0:
		return true, fmt.Errorf("is a device file")
	case mode&os.ModeCharDevice != 0:
		return true, fmt.Errorf("is a character device")
	case mode&os.ModeSocket != 0:
		return true, fmt.Errorf("is a socket")
	case mode&os.ModeNamedPipe != 0:
		return true, fmt.Errorf("is a named pipe (FIFO)")
	}

	return false, nil
}

// IsSafeToRemove checks that path is still a regular file immediately
// before it is moved. It returns the file's size.
func IsSafeToRemove(path string) (int64, error) {
	if isSpecial, err := IsSpecialFile(path); isSpecial {
		return 0, fmt.Errorf("refusing to move special file: %w", err)
	}

	// Lstat so a file swapped for a symlink since the scan is caught
	info, err := os.Lstat(path)
	if err != nil {
		return 0, err
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return 0, fmt.Errorf("path is a symlink")
	}
	if info.IsDir() {
		return 0, &os.PathError{Op: "remove", Path: path, Err: syscall.EISDIR}
	}

	return info.Size(), nil
}
