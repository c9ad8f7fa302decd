package scanner

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fenilsonani/dupsweep/internal/logging"
	"github.com/fenilsonani/dupsweep/internal/security"
)

// Enumerator walks scan roots and yields candidate file records
type Enumerator struct {
	logger logging.Logger
	// OnFile, when set, is called after each accepted file
	OnFile func(found int, path string)
}

// NewEnumerator creates an Enumerator
func NewEnumerator(logger logging.Logger) *Enumerator {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Enumerator{logger: logger}
}

// filter holds the per-scan lookups derived from a Config
type filter struct {
	cfg       Config
	validator *security.PathValidator
	excluded  map[string]struct{}
	allowed   map[string]struct{}
}

func newFilter(cfg Config) *filter {
	f := &filter{
		cfg:       cfg,
		validator: security.NewPathValidator(cfg.ProtectedPaths...),
		excluded:  make(map[string]struct{}, len(cfg.ExcludedComponents)),
	}
	for _, name := range cfg.ExcludedComponents {
		f.excluded[name] = struct{}{}
	}
	if len(cfg.Extensions) > 0 {
		f.allowed = make(map[string]struct{}, len(cfg.Extensions))
		for _, ext := range cfg.Extensions {
			f.allowed[strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
		}
	}
	return f
}

// Enumerate returns the files under every root that pass all filters, in
// walk order. Unreadable entries are skipped. The only error returned is
// the context's, in which case no records are returned.
func (e *Enumerator) Enumerate(ctx context.Context, cfg Config) ([]*FileRecord, error) {
	flt := newFilter(cfg)
	seen := make(map[string]struct{})
	var records []*FileRecord

	for _, root := range cfg.Roots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		absRoot, err := filepath.Abs(root)
		if err != nil {
			e.logger.Warn("skipping root", "root", root, "error", err)
			continue
		}
		if info, err := os.Lstat(absRoot); err == nil && info.Mode()&os.ModeSymlink != 0 {
			if resolved, err := filepath.EvalSymlinks(absRoot); err == nil {
				absRoot = resolved
			}
		}
		if flt.validator.IsProtected(absRoot) {
			e.logger.Warn("skipping protected root", "root", absRoot)
			continue
		}

		walkErr := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if err != nil {
				e.logger.Debug("skipping unreadable entry", "path", path, "error", err)
				return nil
			}

			if d.IsDir() {
				if path == absRoot {
					return nil
				}
				if flt.skipDir(path, d) {
					return filepath.SkipDir
				}
				return nil
			}

			rec, ok := flt.accept(path, d)
			if !ok {
				return nil
			}

			identity := path
			if resolved, err := filepath.EvalSymlinks(path); err == nil {
				identity = resolved
			}
			if _, dup := seen[identity]; dup {
				return nil
			}
			seen[identity] = struct{}{}

			records = append(records, rec)
			if e.OnFile != nil {
				e.OnFile(len(records), path)
			}
			return nil
		})

		if walkErr != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			e.logger.Warn("walk aborted", "root", absRoot, "error", walkErr)
		}
	}

	e.logger.Debug("enumeration complete", "roots", len(cfg.Roots), "files", len(records))
	return records, nil
}

// skipDir prunes directories whose every descendant would be rejected.
// Hidden directories are still walked: only hidden entries themselves are
// skipped.
func (f *filter) skipDir(path string, d fs.DirEntry) bool {
	if _, ok := f.excluded[d.Name()]; ok {
		return true
	}
	return f.validator.IsProtected(path)
}

// accept applies the filters in order and builds a record for survivors
func (f *filter) accept(path string, d fs.DirEntry) (*FileRecord, bool) {
	// 1. regular files only
	if !d.Type().IsRegular() {
		return nil, false
	}

	// 2. hidden
	if f.cfg.SkipHidden && isHidden(d) {
		return nil, false
	}

	// 3. excluded components, anywhere in the path
	if len(f.excluded) > 0 {
		for _, component := range strings.Split(path, string(filepath.Separator)) {
			if _, ok := f.excluded[component]; ok {
				return nil, false
			}
		}
	}

	// 4. protected prefixes
	if f.validator.IsProtected(path) {
		return nil, false
	}

	// 5. size must be known and non-zero
	info, err := d.Info()
	if err != nil || info.Size() == 0 {
		return nil, false
	}

	// 6. minimum size
	if info.Size() < f.cfg.MinFileSize {
		return nil, false
	}

	// 7. extension allow-list
	if f.allowed != nil {
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
		if _, ok := f.allowed[ext]; !ok || ext == "" {
			return nil, false
		}
	}

	return NewFileRecord(path, info.Size(), info.ModTime(), birthTime(info)), true
}

func isHidden(d fs.DirEntry) bool {
	if strings.HasPrefix(d.Name(), ".") {
		return true
	}
	info, err := d.Info()
	return err == nil && hasHiddenFlag(info)
}
