package scanner

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultExcludedComponents are path components skipped by default
var DefaultExcludedComponents = []string{
	".git",
	"node_modules",
	".Trash",
	".DS_Store",
	"Caches",
	"Application Support",
}

// ImageExtensions are the extensions considered by similarity scans
var ImageExtensions = []string{
	"jpg", "jpeg", "png", "gif", "heic", "heif", "bmp", "tiff", "tif", "webp",
}

// FileRecord is one file considered for deduplication.
// Only ContentHash and Kept change after enumeration.
type FileRecord struct {
	ID          string    `json:"id" yaml:"id"`
	Path        string    `json:"path" yaml:"path"`
	Size        int64     `json:"size" yaml:"size"`
	ModTime     time.Time `json:"mod_time" yaml:"mod_time"`
	CreatedTime time.Time `json:"created_time" yaml:"created_time"`
	ContentHash string    `json:"content_hash,omitempty" yaml:"content_hash,omitempty"`
	Kept        bool      `json:"kept" yaml:"kept"`
}

// NewFileRecord creates a record with a fresh identity
func NewFileRecord(path string, size int64, modTime, createdTime time.Time) *FileRecord {
	return &FileRecord{
		ID:          uuid.NewString(),
		Path:        path,
		Size:        size,
		ModTime:     modTime,
		CreatedTime: createdTime,
	}
}

// Extension returns the lowercase extension without the leading dot
func (r *FileRecord) Extension() string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(r.Path), "."))
}

// DuplicateGroup is a set of two or more files believed to hold the same content
type DuplicateGroup struct {
	ID          string        `json:"id" yaml:"id"`
	Files       []*FileRecord `json:"files" yaml:"files"`
	SizePerFile int64         `json:"size_per_file" yaml:"size_per_file"`
}

// NewDuplicateGroup creates a group; sizePerFile is taken from the first member
func NewDuplicateGroup(files []*FileRecord) *DuplicateGroup {
	g := &DuplicateGroup{
		ID:    uuid.NewString(),
		Files: files,
	}
	if len(files) > 0 {
		g.SizePerFile = files[0].Size
	}
	return g
}

// ReclaimableBytes is the space freed by removing every member but one
func (g *DuplicateGroup) ReclaimableBytes() int64 {
	if len(g.Files) < 2 {
		return 0
	}
	return g.SizePerFile * int64(len(g.Files)-1)
}

// Kept returns the member marked as kept, or nil
func (g *DuplicateGroup) Kept() *FileRecord {
	for _, f := range g.Files {
		if f.Kept {
			return f
		}
	}
	return nil
}

// FilesToRemove returns the members not marked as kept
func (g *DuplicateGroup) FilesToRemove() []*FileRecord {
	var out []*FileRecord
	for _, f := range g.Files {
		if !f.Kept {
			out = append(out, f)
		}
	}
	return out
}

// Clone returns a deep copy of the group
func (g *DuplicateGroup) Clone() *DuplicateGroup {
	c := &DuplicateGroup{
		ID:          g.ID,
		SizePerFile: g.SizePerFile,
		Files:       make([]*FileRecord, len(g.Files)),
	}
	for i, f := range g.Files {
		rec := *f
		c.Files[i] = &rec
	}
	return c
}

// CloneGroups deep-copies a group list
func CloneGroups(groups []*DuplicateGroup) []*DuplicateGroup {
	if groups == nil {
		return nil
	}
	out := make([]*DuplicateGroup, len(groups))
	for i, g := range groups {
		out[i] = g.Clone()
	}
	return out
}

// Config is the immutable input to a scan
type Config struct {
	Roots              []string
	ExcludedComponents []string
	// ProtectedPaths extends security.DefaultProtectedPaths; it never replaces them
	ProtectedPaths []string
	MinFileSize    int64
	// Extensions is an allow-list of lowercase extensions without dots; empty allows all
	Extensions []string
	SkipHidden bool
	Verify     bool
	// Threshold is the maximum embedding distance for similarity scans
	Threshold float64
	Workers   int
}

// DefaultConfig returns a Config with the default exclusions for roots
func DefaultConfig(roots ...string) Config {
	return Config{
		Roots:              roots,
		ExcludedComponents: append([]string(nil), DefaultExcludedComponents...),
		SkipHidden:         true,
		Threshold:          SensitivityMedium.Threshold(),
	}
}

// ParseExtensions parses a comma-separated allow-list such as "JPG, .png,heic".
// Entries are trimmed, lowercased and stripped of a leading dot; empties are dropped.
func ParseExtensions(list string) []string {
	var out []string
	for _, part := range strings.Split(list, ",") {
		ext := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(part), "."))
		if ext != "" {
			out = append(out, ext)
		}
	}
	return out
}

// ProgressCallback reports done out of total units of work
type ProgressCallback func(done, total int)
