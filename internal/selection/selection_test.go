package selection

import (
	"testing"
	"time"

	"github.com/fenilsonani/dupsweep/internal/scanner"
)

var base = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func rec(path string, age time.Duration) *scanner.FileRecord {
	return scanner.NewFileRecord(path, 10, base.Add(-age), time.Time{})
}

func keptPath(t *testing.T, g *scanner.DuplicateGroup) string {
	t.Helper()
	kept := 0
	path := ""
	for _, f := range g.Files {
		if f.Kept {
			kept++
			path = f.Path
		}
	}
	if kept != 1 {
		t.Fatalf("group has %d kept members, want exactly 1", kept)
	}
	return path
}

// =============================================================================
// Strategy Tests
// =============================================================================

func TestApplyStrategies(t *testing.T) {
	tests := []struct {
		name     string
		files    []*scanner.FileRecord
		strategy Strategy
		folder   string
		want     string
	}{
		{
			name:     "newest",
			files:    []*scanner.FileRecord{rec("/a/old.txt", 48*time.Hour), rec("/a/new.txt", time.Hour), rec("/a/mid.txt", 24*time.Hour)},
			strategy: Newest,
			want:     "/a/new.txt",
		},
		{
			name:     "newest tie keeps first",
			files:    []*scanner.FileRecord{rec("/a/first.txt", time.Hour), rec("/a/second.txt", time.Hour)},
			strategy: Newest,
			want:     "/a/first.txt",
		},
		{
			name:     "oldest",
			files:    []*scanner.FileRecord{rec("/a/new.txt", time.Hour), rec("/a/old.txt", 48*time.Hour)},
			strategy: Oldest,
			want:     "/a/old.txt",
		},
		{
			name:     "oldest treats missing time as oldest",
			files:    []*scanner.FileRecord{rec("/a/new.txt", time.Hour), scanner.NewFileRecord("/a/unknown.txt", 10, time.Time{}, time.Time{})},
			strategy: Oldest,
			want:     "/a/unknown.txt",
		},
		{
			name:     "shortest path",
			files:    []*scanner.FileRecord{rec("/photos/2023/beach.jpg", 0), rec("/p/beach.jpg", 0), rec("/x/beach.jpg", 0)},
			strategy: ShortestPath,
			want:     "/p/beach.jpg",
		},
		{
			name:     "preferred folder match wins over length",
			files:    []*scanner.FileRecord{rec("/home/me/Downloads/deep/nested/a.jpg", 0), rec("/home/me/Photos/a.jpg", 0)},
			strategy: PreferredFolder,
			folder:   "photos",
			want:     "/home/me/Photos/a.jpg",
		},
		{
			name:     "preferred folder longest among matches",
			files:    []*scanner.FileRecord{rec("/Photos/a.jpg", 0), rec("/Photos/2024/a.jpg", 0)},
			strategy: PreferredFolder,
			folder:   "Photos",
			want:     "/Photos/2024/a.jpg",
		},
		{
			name:     "preferred folder without match keeps longest",
			files:    []*scanner.FileRecord{rec("/a/x.jpg", 0), rec("/a/b/c/x.jpg", 0), rec("/a/b/x.jpg", 0)},
			strategy: PreferredFolder,
			folder:   "photos",
			want:     "/a/b/c/x.jpg",
		},
		{
			name:     "preferred folder matches whole segment only",
			files:    []*scanner.FileRecord{rec("/photos-old/deeper/x.jpg", 0), rec("/photos/x.jpg", 0)},
			strategy: PreferredFolder,
			folder:   "photos",
			want:     "/photos/x.jpg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			groups := []*scanner.DuplicateGroup{scanner.NewDuplicateGroup(tt.files)}
			Apply(groups, tt.strategy, tt.folder)
			if got := keptPath(t, groups[0]); got != tt.want {
				t.Errorf("kept %s, want %s", got, tt.want)
			}
		})
	}
}

func TestApplyOverwritesPreviousSelection(t *testing.T) {
	g := scanner.NewDuplicateGroup([]*scanner.FileRecord{rec("/a/new.txt", 0), rec("/a/old.txt", time.Hour)})
	groups := []*scanner.DuplicateGroup{g}

	Apply(groups, Newest, "")
	Apply(groups, Oldest, "")

	if got := keptPath(t, g); got != "/a/old.txt" {
		t.Errorf("kept %s, want /a/old.txt", got)
	}
}

func TestApplyEmpty(t *testing.T) {
	Apply(nil, Newest, "")
	Apply([]*scanner.DuplicateGroup{{ID: "empty"}}, Oldest, "")
}

// =============================================================================
// Manual Selection Tests
// =============================================================================

func TestSetKept(t *testing.T) {
	a, b := rec("/a", 0), rec("/b", time.Hour)
	g := scanner.NewDuplicateGroup([]*scanner.FileRecord{a, b})
	groups := []*scanner.DuplicateGroup{g}
	Apply(groups, Newest, "")

	if !SetKept(groups, g.ID, b.ID) {
		t.Fatal("SetKept returned false")
	}
	if a.Kept || !b.Kept {
		t.Error("b should be the only kept member")
	}

	if SetKept(groups, g.ID, "missing") {
		t.Error("SetKept with unknown file should return false")
	}
	if SetKept(groups, "missing", a.ID) {
		t.Error("SetKept with unknown group should return false")
	}
	if a.Kept || !b.Kept {
		t.Error("failed SetKept must not change the selection")
	}
}

func TestFilesToRemove(t *testing.T) {
	g1 := scanner.NewDuplicateGroup([]*scanner.FileRecord{rec("/1a", 0), rec("/1b", time.Hour)})
	g2 := scanner.NewDuplicateGroup([]*scanner.FileRecord{rec("/2a", time.Hour), rec("/2b", 0), rec("/2c", 2*time.Hour)})
	groups := []*scanner.DuplicateGroup{g1, g2}
	Apply(groups, Newest, "")

	got := FilesToRemove(groups)
	want := []string{"/1b", "/2a", "/2c"}
	if len(got) != len(want) {
		t.Fatalf("got %d files, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Path != want[i] {
			t.Errorf("file %d = %s, want %s", i, got[i].Path, want[i])
		}
	}
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		input     string
		want      Strategy
		expectErr bool
	}{
		{"", Newest, false},
		{"Newest", Newest, false},
		{"oldest", Oldest, false},
		{"shortest-path", ShortestPath, false},
		{"preferred", PreferredFolder, false},
		{"largest", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseStrategy(tt.input)
			if (err != nil) != tt.expectErr {
				t.Fatalf("ParseStrategy(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseStrategy(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
