// Package testutil provides test helpers and fixtures for dupsweep tests.
// All file operations use t.TempDir() for safe, isolated testing.
package testutil

import (
	"crypto/rand"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

// TestFixture holds paths to test directories and files
type TestFixture struct {
	T       *testing.T
	RootDir string // Root temp directory (auto-cleaned)

	// Standard test directories
	PhotosDir string
	DocsDir   string
	BackupDir string
	TrashDir  string
}

// NewFixture creates a new test fixture with standard directory structure
func NewFixture(t *testing.T) *TestFixture {
	t.Helper()

	root := t.TempDir()

	f := &TestFixture{
		T:         t,
		RootDir:   root,
		PhotosDir: filepath.Join(root, "photos"),
		DocsDir:   filepath.Join(root, "docs"),
		BackupDir: filepath.Join(root, "backup"),
		TrashDir:  filepath.Join(root, "trash"),
	}

	for _, dir := range []string{f.PhotosDir, f.DocsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("failed to create directory %s: %v", dir, err)
		}
	}

	return f
}

// =============================================================================
// File Creation Helpers
// =============================================================================

// CreateFile creates a file with specified content and returns its path
func (f *TestFixture) CreateFile(relPath string, content []byte) string {
	f.T.Helper()

	fullPath := filepath.Join(f.RootDir, relPath)
	dir := filepath.Dir(fullPath)

	if err := os.MkdirAll(dir, 0755); err != nil {
		f.T.Fatalf("failed to create directory %s: %v", dir, err)
	}

	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		f.T.Fatalf("failed to create file %s: %v", fullPath, err)
	}

	return fullPath
}

// CreateFileWithAge creates a file and sets its modification time to the past
func (f *TestFixture) CreateFileWithAge(relPath string, content []byte, age time.Duration) string {
	f.T.Helper()
	return f.CreateFileWithTime(relPath, content, time.Now().Add(-age))
}

// CreateFileWithTime creates a file with an exact modification time
func (f *TestFixture) CreateFileWithTime(relPath string, content []byte, modTime time.Time) string {
	f.T.Helper()

	fullPath := f.CreateFile(relPath, content)
	if err := os.Chtimes(fullPath, modTime, modTime); err != nil {
		f.T.Fatalf("failed to set file time for %s: %v", fullPath, err)
	}

	return fullPath
}

// CreateRandomFile creates a file with random content
func (f *TestFixture) CreateRandomFile(relPath string, size int) string {
	f.T.Helper()
	content := make([]byte, size)
	rand.Read(content)
	return f.CreateFile(relPath, content)
}

// CreateImage writes a PNG whose pixels come from shade(x, y)
func (f *TestFixture) CreateImage(relPath string, width, height int, shade func(x, y int) uint8) string {
	f.T.Helper()

	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetGray(x, y, color.Gray{Y: shade(x, y)})
		}
	}

	fullPath := filepath.Join(f.RootDir, relPath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		f.T.Fatalf("failed to create directory for %s: %v", fullPath, err)
	}
	out, err := os.Create(fullPath)
	if err != nil {
		f.T.Fatalf("failed to create image %s: %v", fullPath, err)
	}
	defer out.Close()

	if err := png.Encode(out, img); err != nil {
		f.T.Fatalf("failed to encode image %s: %v", fullPath, err)
	}

	return fullPath
}

// =============================================================================
// Directory and Symlink Helpers
// =============================================================================

// CreateDir creates a directory and returns its path
func (f *TestFixture) CreateDir(relPath string) string {
	f.T.Helper()

	fullPath := filepath.Join(f.RootDir, relPath)
	if err := os.MkdirAll(fullPath, 0755); err != nil {
		f.T.Fatalf("failed to create directory %s: %v", fullPath, err)
	}

	return fullPath
}

// CreateSymlink creates a symbolic link
func (f *TestFixture) CreateSymlink(target, linkPath string) string {
	f.T.Helper()

	fullLinkPath := filepath.Join(f.RootDir, linkPath)
	dir := filepath.Dir(fullLinkPath)

	if err := os.MkdirAll(dir, 0755); err != nil {
		f.T.Fatalf("failed to create directory %s: %v", dir, err)
	}

	if err := os.Symlink(target, fullLinkPath); err != nil {
		f.T.Fatalf("failed to create symlink %s -> %s: %v", fullLinkPath, target, err)
	}

	return fullLinkPath
}

// =============================================================================
// Permission Helpers
// =============================================================================

// CreateNoPermissionFile creates a file with no permissions (000)
func (f *TestFixture) CreateNoPermissionFile(relPath string, content []byte) string {
	f.T.Helper()

	fullPath := f.CreateFile(relPath, content)
	if err := os.Chmod(fullPath, 0000); err != nil {
		f.T.Fatalf("failed to chmod file %s: %v", fullPath, err)
	}
	f.T.Cleanup(func() {
		os.Chmod(fullPath, 0644)
	})

	return fullPath
}

// CreateReadOnlyDir creates a directory whose entries cannot be created or removed
func (f *TestFixture) CreateReadOnlyDir(relPath string) string {
	f.T.Helper()

	dirPath := f.CreateDir(relPath)
	if err := os.Chmod(dirPath, 0555); err != nil {
		f.T.Fatalf("failed to chmod directory %s: %v", dirPath, err)
	}

	// Restore permissions so TempDir cleanup works
	f.T.Cleanup(func() {
		os.Chmod(dirPath, 0755)
	})

	return dirPath
}

// =============================================================================
// Path Helpers
// =============================================================================

// Path returns the full path for a relative path within the fixture
func (f *TestFixture) Path(relPath string) string {
	return filepath.Join(f.RootDir, relPath)
}

// RelPath returns the relative path from the fixture root
func (f *TestFixture) RelPath(fullPath string) string {
	rel, _ := filepath.Rel(f.RootDir, fullPath)
	return rel
}

// =============================================================================
// Assertion Helpers
// =============================================================================

// FileExists checks if a file exists
func (f *TestFixture) FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// AssertFileExists fails the test if the file doesn't exist
func (f *TestFixture) AssertFileExists(path string) {
	f.T.Helper()
	if !f.FileExists(path) {
		f.T.Errorf("expected file to exist: %s", path)
	}
}

// AssertFileNotExists fails the test if the file exists
func (f *TestFixture) AssertFileNotExists(path string) {
	f.T.Helper()
	if f.FileExists(path) {
		f.T.Errorf("expected file to not exist: %s", path)
	}
}

// AssertFileContent fails if the file's bytes differ from want
func (f *TestFixture) AssertFileContent(path string, want []byte) {
	f.T.Helper()
	got, err := os.ReadFile(path)
	if err != nil {
		f.T.Errorf("failed to read %s: %v", path, err)
		return
	}
	if string(got) != string(want) {
		f.T.Errorf("file %s content = %q, want %q", path, got, want)
	}
}

// =============================================================================
// Utility Functions
// =============================================================================

// IsRoot returns true if running as root/admin
func IsRoot() bool {
	return os.Geteuid() == 0
}

// SkipIfRoot skips the test if running as root
func SkipIfRoot(t *testing.T) {
	t.Helper()
	if IsRoot() {
		t.Skip("skipping test when running as root")
	}
}

// IsMacOS returns true if running on macOS
func IsMacOS() bool {
	return runtime.GOOS == "darwin"
}

// IsLinux returns true if running on Linux
func IsLinux() bool {
	return runtime.GOOS == "linux"
}
