package scanner

import (
	"context"
	"path/filepath"
	"sort"
	"testing"

	"github.com/fenilsonani/dupsweep/internal/logging"
	"github.com/fenilsonani/dupsweep/internal/testutil"
)

func enumerate(t *testing.T, cfg Config) []*FileRecord {
	t.Helper()
	records, err := NewEnumerator(logging.NewNopLogger()).Enumerate(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Enumerate error: %v", err)
	}
	return records
}

func relPaths(f *testutil.TestFixture, records []*FileRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = f.RelPath(r.Path)
	}
	sort.Strings(out)
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// =============================================================================
// Filter Tests
// =============================================================================

func TestEnumerateFilters(t *testing.T) {
	f := testutil.NewFixture(t)

	f.CreateFile("docs/report.txt", []byte("report"))
	f.CreateFile("docs/.hidden.txt", []byte("hidden"))
	f.CreateFile("docs/.config/app.txt", []byte("in hidden dir"))
	f.CreateFile("docs/node_modules/pkg/index.js", []byte("module"))
	f.CreateFile("docs/project/.git/HEAD", []byte("ref"))
	f.CreateFile("docs/empty.txt", nil)
	f.CreateFile("photos/a.JPG", []byte("jpeg bytes"))
	f.CreateFile("photos/noext", []byte("no extension"))

	tests := []struct {
		name   string
		mutate func(*Config)
		want   []string
	}{
		{
			name: "defaults",
			want: []string{"docs/.config/app.txt", "docs/report.txt", "photos/a.JPG", "photos/noext"},
		},
		{
			name:   "hidden allowed",
			mutate: func(c *Config) { c.SkipHidden = false },
			want:   []string{"docs/.config/app.txt", "docs/.hidden.txt", "docs/report.txt", "photos/a.JPG", "photos/noext"},
		},
		{
			name:   "no exclusions",
			mutate: func(c *Config) { c.ExcludedComponents = nil },
			want: []string{
				"docs/.config/app.txt", "docs/node_modules/pkg/index.js", "docs/project/.git/HEAD",
				"docs/report.txt", "photos/a.JPG", "photos/noext",
			},
		},
		{
			name:   "minimum size",
			mutate: func(c *Config) { c.MinFileSize = 10 },
			want:   []string{"docs/.config/app.txt", "photos/a.JPG", "photos/noext"},
		},
		{
			name:   "extension allow-list is case-insensitive and rejects no-extension files",
			mutate: func(c *Config) { c.Extensions = []string{"jpg"} },
			want:   []string{"photos/a.JPG"},
		},
		{
			name:   "protected prefix",
			mutate: func(c *Config) { c.ProtectedPaths = []string{f.Path("docs")} },
			want:   []string{"photos/a.JPG", "photos/noext"},
		},
		{
			name:   "protected prefix matches on the raw string",
			mutate: func(c *Config) { c.ProtectedPaths = []string{f.Path("doc")} },
			want:   []string{"photos/a.JPG", "photos/noext"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig(f.RootDir)
			if tt.mutate != nil {
				tt.mutate(&cfg)
			}
			got := relPaths(f, enumerate(t, cfg))
			want := append([]string(nil), tt.want...)
			sort.Strings(want)
			if !equalStrings(got, want) {
				t.Errorf("got %v, want %v", got, want)
			}
		})
	}
}

func TestEnumerateWalksHiddenDirectories(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateFile("docs/.backup/a.txt", []byte("same"))
	f.CreateFile("docs/.backup/.b.txt", []byte("same"))
	f.CreateFile("docs/b.txt", []byte("same"))

	got := relPaths(f, enumerate(t, DefaultConfig(f.RootDir)))
	want := []string{"docs/.backup/a.txt", "docs/b.txt"}
	if !equalStrings(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestEnumerateRejectsSymlinks(t *testing.T) {
	f := testutil.NewFixture(t)
	target := f.CreateFile("docs/real.txt", []byte("real"))
	f.CreateSymlink(target, "docs/link.txt")
	f.CreateSymlink(f.DocsDir, "photos/docs-link")

	got := relPaths(f, enumerate(t, DefaultConfig(f.RootDir)))
	if !equalStrings(got, []string{"docs/real.txt"}) {
		t.Errorf("got %v, want only docs/real.txt", got)
	}
}

func TestEnumerateOverlappingRootsDeduplicates(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateFile("docs/a.txt", []byte("a"))
	f.CreateFile("docs/sub/b.txt", []byte("b"))

	cfg := DefaultConfig(f.RootDir, f.DocsDir, filepath.Join(f.DocsDir, "sub"))
	records := enumerate(t, cfg)

	if len(records) != 2 {
		t.Fatalf("got %d records, want 2: %v", len(records), relPaths(f, records))
	}
}

func TestEnumerateRecordFields(t *testing.T) {
	f := testutil.NewFixture(t)
	path := f.CreateFile("docs/a.txt", []byte("hello"))

	records := enumerate(t, DefaultConfig(f.RootDir))
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	rec := records[0]
	if rec.Path != path {
		t.Errorf("Path = %q, want %q", rec.Path, path)
	}
	if rec.Size != 5 {
		t.Errorf("Size = %d, want 5", rec.Size)
	}
	if rec.ID == "" {
		t.Error("ID is empty")
	}
	if rec.ModTime.IsZero() {
		t.Error("ModTime is zero")
	}
	if rec.Kept || rec.ContentHash != "" {
		t.Error("new record should have no hash and not be kept")
	}
}

func TestEnumerateMissingRootIsSkipped(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateFile("docs/a.txt", []byte("a"))

	records := enumerate(t, DefaultConfig(f.Path("does-not-exist"), f.DocsDir))
	if len(records) != 1 {
		t.Errorf("got %d records, want 1", len(records))
	}
}

func TestEnumerateOnFileCallback(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateFile("docs/a.txt", []byte("a"))
	f.CreateFile("docs/b.txt", []byte("b"))

	e := NewEnumerator(nil)
	var last int
	e.OnFile = func(found int, _ string) { last = found }

	if _, err := e.Enumerate(context.Background(), DefaultConfig(f.RootDir)); err != nil {
		t.Fatal(err)
	}
	if last != 2 {
		t.Errorf("last found = %d, want 2", last)
	}
}

func TestEnumerateCancelled(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateFile("docs/a.txt", []byte("a"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	records, err := NewEnumerator(nil).Enumerate(ctx, DefaultConfig(f.RootDir))
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if records != nil {
		t.Errorf("expected no records on cancellation, got %d", len(records))
	}
}
