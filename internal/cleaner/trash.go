package cleaner

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fenilsonani/dupsweep/internal/platform"
)

const trashInfoExt = ".trashinfo"

// Trash moves files into a platform trash directory and back out again
type Trash struct {
	Dir    string
	Layout platform.TrashLayout
	now    func() time.Time
}

// NewTrash creates a Trash rooted at dir
func NewTrash(dir string, layout platform.TrashLayout) *Trash {
	return &Trash{Dir: dir, Layout: layout, now: time.Now}
}

// DefaultTrash returns the current user's trash
func DefaultTrash() (*Trash, error) {
	info, err := platform.GetInfo()
	if err != nil {
		return nil, err
	}
	return NewTrash(info.TrashDir, info.TrashLayout), nil
}

func (t *Trash) filesDir() string {
	if t.Layout == platform.TrashFreedesktop {
		return filepath.Join(t.Dir, "files")
	}
	return t.Dir
}

func (t *Trash) infoPath(trashPath string) string {
	return filepath.Join(t.Dir, "info", filepath.Base(trashPath)+trashInfoExt)
}

// Put moves path into the trash and returns where it landed
func (t *Trash) Put(path string) (string, error) {
	filesDir := t.filesDir()
	if err := os.MkdirAll(filesDir, 0700); err != nil {
		return "", fmt.Errorf("creating trash directory: %w", err)
	}

	if t.Layout != platform.TrashFreedesktop {
		dest := uniquePath(filesDir, filepath.Base(path), exists)
		if err := moveFile(path, dest); err != nil {
			return "", err
		}
		return dest, nil
	}

	infoDir := filepath.Join(t.Dir, "info")
	if err := os.MkdirAll(infoDir, 0700); err != nil {
		return "", fmt.Errorf("creating trash info directory: %w", err)
	}

	// The info file is written first and claims the name
	taken := func(p string) bool { return exists(p) || exists(t.infoPath(p)) }
	var dest string
	var info *os.File
	for {
		dest = uniquePath(filesDir, filepath.Base(path), taken)
		f, err := os.OpenFile(t.infoPath(dest), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
		if err == nil {
			info = f
			break
		}
		if !errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("writing trash info: %w", err)
		}
	}

	_, err := fmt.Fprintf(info, "[Trash Info]\nPath=%s\nDeletionDate=%s\n",
		(&url.URL{Path: path}).EscapedPath(),
		t.now().Format("2006-01-02T15:04:05"))
	if closeErr := info.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(t.infoPath(dest))
		return "", fmt.Errorf("writing trash info: %w", err)
	}

	if err := moveFile(path, dest); err != nil {
		os.Remove(t.infoPath(dest))
		return "", err
	}
	return dest, nil
}

// Restore moves a trashed file back to original. An existing file at
// original is never overwritten.
func (t *Trash) Restore(trashPath, original string) error {
	if exists(original) {
		return &os.PathError{Op: "restore", Path: original, Err: os.ErrExist}
	}
	if err := os.MkdirAll(filepath.Dir(original), 0755); err != nil {
		return err
	}
	if err := moveFile(trashPath, original); err != nil {
		return err
	}
	if t.Layout == platform.TrashFreedesktop {
		os.Remove(t.infoPath(trashPath))
	}
	return nil
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// uniquePath returns dir/name, or dir/base_N.ext with the first N >= 1 for
// which taken reports false.
func uniquePath(dir, name string, taken func(string) bool) string {
	dest := filepath.Join(dir, name)
	if !taken(dest) {
		return dest
	}

	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for counter := 1; ; counter++ {
		dest = filepath.Join(dir, base+"_"+strconv.Itoa(counter)+ext)
		if !taken(dest) {
			return dest
		}
	}
}

// moveFile renames src to dst, copying across filesystems when needed
func moveFile(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil || !errors.Is(err, syscall.EXDEV) {
		return err
	}

	if err := copyFile(src, dst); err != nil {
		return err
	}
	if err := os.Remove(src); err != nil {
		os.Remove(dst)
		return err
	}
	return nil
}

// copyFile copies src to a new file dst, keeping mode and modification time
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return err
	}

	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}
