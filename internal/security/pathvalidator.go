package security

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// DefaultProtectedPaths are never enumerated, grouped for removal or moved,
// whatever roots the user configures.
var DefaultProtectedPaths = []string{
	"/System",
	"/Library",
	"/usr",
	"/bin",
	"/sbin",
	"/private/var",
}

// ErrProtectedPath is returned for paths under a protected prefix
var ErrProtectedPath = errors.New("path is protected")

// PathValidator guards file operations against protected system locations
type PathValidator struct {
	protectedPaths []string
}

// NewPathValidator creates a PathValidator with the default protected paths
// plus any extra prefixes supplied.
func NewPathValidator(extra ...string) *PathValidator {
	pv := &PathValidator{}
	for _, p := range DefaultProtectedPaths {
		pv.AddProtectedPath(p)
	}
	for _, p := range extra {
		pv.AddProtectedPath(p)
	}
	return pv
}

// AddProtectedPath adds a custom protected prefix. Duplicates are ignored.
func (pv *PathValidator) AddProtectedPath(path string) {
	if path == "" {
		return
	}
	cleanPath := filepath.Clean(path)
	for _, existing := range pv.protectedPaths {
		if existing == cleanPath {
			return
		}
	}
	pv.protectedPaths = append(pv.protectedPaths, cleanPath)
}

// ProtectedPaths returns a copy of the protected prefixes
func (pv *PathValidator) ProtectedPaths() []string {
	out := make([]string, len(pv.protectedPaths))
	copy(out, pv.protectedPaths)
	return out
}

// IsProtected reports whether the cleaned path starts with a protected
// prefix. Matching is on the raw string, so /usr also protects /usrdata.
func (pv *PathValidator) IsProtected(path string) bool {
	cleanPath := filepath.Clean(path)
	for _, protected := range pv.protectedPaths {
		if strings.HasPrefix(cleanPath, protected) {
			return true
		}
	}
	return false
}

// ValidatePathForRemoval checks a path before it is moved to the trash.
func (pv *PathValidator) ValidatePathForRemoval(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}
	if !filepath.IsAbs(path) {
		return fmt.Errorf("path must be absolute: %s", path)
	}
	if strings.ContainsRune(path, 0) {
		return fmt.Errorf("path contains null byte: %q", path)
	}
	if pv.IsProtected(path) {
		return fmt.Errorf("%w: %s", ErrProtectedPath, path)
	}
	return nil
}
