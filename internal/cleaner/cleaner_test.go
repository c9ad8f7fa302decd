package cleaner

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fenilsonani/dupsweep/internal/platform"
	"github.com/fenilsonani/dupsweep/internal/progress"
	"github.com/fenilsonani/dupsweep/internal/security"
	"github.com/fenilsonani/dupsweep/internal/testutil"
)

func newTestRemover(f *testutil.TestFixture, layout platform.TrashLayout, protected ...string) *Remover {
	return NewRemover(NewTrash(f.TrashDir, layout), security.NewPathValidator(protected...), nil)
}

// =============================================================================
// MoveToTrash Tests
// =============================================================================

func TestMoveToTrashWithBackupConflict(t *testing.T) {
	f := testutil.NewFixture(t)
	a := f.CreateFile("photos/beach.jpg", []byte("beach copy one"))
	b := f.CreateFile("docs/notes.txt", []byte("notes copy one"))
	f.CreateFile("backup/beach.jpg", []byte("older backup"))

	r := newTestRemover(f, platform.TrashFlat)
	result, err := r.MoveToTrash([]string{a, b}, f.BackupDir)
	if err != nil {
		t.Fatalf("MoveToTrash error: %v", err)
	}

	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Trashed) != 2 || len(result.Entries) != 2 {
		t.Fatalf("trashed %d, entries %d, want 2 and 2", len(result.Trashed), len(result.Entries))
	}

	// Existing backup untouched, new copy renamed with a numeric suffix
	f.AssertFileContent(filepath.Join(f.BackupDir, "beach.jpg"), []byte("older backup"))
	f.AssertFileContent(filepath.Join(f.BackupDir, "beach_1.jpg"), []byte("beach copy one"))
	f.AssertFileContent(filepath.Join(f.BackupDir, "notes.txt"), []byte("notes copy one"))
	if result.BackedUp[a] != filepath.Join(f.BackupDir, "beach_1.jpg") {
		t.Errorf("BackedUp[a] = %s", result.BackedUp[a])
	}

	f.AssertFileNotExists(a)
	f.AssertFileNotExists(b)
	for orig, trashPath := range result.Trashed {
		if !strings.HasPrefix(trashPath, f.TrashDir) {
			t.Errorf("%s trashed outside trash dir: %s", orig, trashPath)
		}
		f.AssertFileExists(trashPath)
	}
	if result.FreedBytes != int64(len("beach copy one")+len("notes copy one")) {
		t.Errorf("FreedBytes = %d", result.FreedBytes)
	}

	undo := r.Undo(result.Entries)
	if len(undo.Restored) != 2 || len(undo.Errors) != 0 {
		t.Fatalf("restored %d with errors %v", len(undo.Restored), undo.Errors)
	}
	f.AssertFileContent(a, []byte("beach copy one"))
	f.AssertFileContent(b, []byte("notes copy one"))
}

func TestMoveToTrashNameConflictInTrash(t *testing.T) {
	f := testutil.NewFixture(t)
	a := f.CreateFile("photos/a/img.png", []byte("one"))
	b := f.CreateFile("photos/b/img.png", []byte("two"))
	c := f.CreateFile("photos/c/img", []byte("three"))
	d := f.CreateFile("photos/d/img", []byte("four"))

	r := newTestRemover(f, platform.TrashFlat)
	result, err := r.MoveToTrash([]string{a, b, c, d}, "")
	if err != nil {
		t.Fatal(err)
	}

	want := map[string]string{
		a: filepath.Join(f.TrashDir, "img.png"),
		b: filepath.Join(f.TrashDir, "img_1.png"),
		c: filepath.Join(f.TrashDir, "img"),
		d: filepath.Join(f.TrashDir, "img_1"),
	}
	for orig, trashPath := range want {
		if result.Trashed[orig] != trashPath {
			t.Errorf("Trashed[%s] = %s, want %s", f.RelPath(orig), result.Trashed[orig], trashPath)
		}
	}
	if len(result.BackedUp) != 0 {
		t.Error("no backups expected without a backup directory")
	}
}

func TestMoveToTrashFreedesktopLayout(t *testing.T) {
	f := testutil.NewFixture(t)
	path := f.CreateFile("docs/report final.pdf", []byte("pdf"))

	r := newTestRemover(f, platform.TrashFreedesktop)
	r.trash.now = func() time.Time { return time.Date(2024, 3, 4, 5, 6, 7, 0, time.Local) }

	result, err := r.MoveToTrash([]string{path}, "")
	if err != nil {
		t.Fatal(err)
	}

	trashPath := result.Trashed[path]
	if trashPath != filepath.Join(f.TrashDir, "files", "report final.pdf") {
		t.Fatalf("trash path = %s", trashPath)
	}

	infoPath := filepath.Join(f.TrashDir, "info", "report final.pdf.trashinfo")
	data, err := os.ReadFile(infoPath)
	if err != nil {
		t.Fatalf("missing trashinfo: %v", err)
	}
	info := string(data)
	if !strings.HasPrefix(info, "[Trash Info]\n") {
		t.Errorf("trashinfo header missing: %q", info)
	}
	if !strings.Contains(info, "report%20final.pdf") {
		t.Errorf("trashinfo path not escaped: %q", info)
	}
	if !strings.Contains(info, "DeletionDate=2024-03-04T05:06:07") {
		t.Errorf("trashinfo date wrong: %q", info)
	}

	undo := r.Undo(result.Entries)
	if len(undo.Restored) != 1 {
		t.Fatalf("restored %d, want 1", len(undo.Restored))
	}
	f.AssertFileExists(path)
	f.AssertFileNotExists(infoPath)
}

func TestMoveToTrashSkipsProtected(t *testing.T) {
	f := testutil.NewFixture(t)
	keep := f.CreateFile("docs/system/config.txt", []byte("protected"))
	move := f.CreateFile("docs/user.txt", []byte("user"))

	r := newTestRemover(f, platform.TrashFlat, f.Path("docs/system"))
	result, err := r.MoveToTrash([]string{keep, move, "/usr/bin/true"}, "")
	if err != nil {
		t.Fatal(err)
	}

	if _, ok := result.Trashed[keep]; ok {
		t.Error("protected file appears in trash mapping")
	}
	f.AssertFileExists(keep)
	f.AssertFileNotExists(move)
	if len(result.Skipped) != 2 {
		t.Errorf("Skipped = %v, want 2 entries", result.Skipped)
	}
	if len(result.Errors) != 0 {
		t.Errorf("protected paths should not be errors: %v", result.Errors)
	}
}

func TestMoveToTrashPerFileFailures(t *testing.T) {
	f := testutil.NewFixture(t)
	good := f.CreateFile("docs/good.txt", []byte("good"))
	target := f.CreateFile("docs/target.txt", []byte("target"))
	link := f.CreateSymlink(target, "docs/link.txt")
	missing := f.Path("docs/missing.txt")

	r := newTestRemover(f, platform.TrashFlat)
	result, err := r.MoveToTrash([]string{missing, link, "relative.txt", good}, "")
	if err != nil {
		t.Fatal(err)
	}

	if len(result.Trashed) != 1 || result.Trashed[good] == "" {
		t.Errorf("Trashed = %v, want only good.txt", result.Trashed)
	}
	if len(result.Errors) != 3 {
		t.Fatalf("got %d errors, want 3", len(result.Errors))
	}
	reasons := map[string]ErrorReason{}
	for _, e := range result.Errors {
		reasons[e.Path] = e.Reason
	}
	if reasons[missing] != ErrorFileNotFound {
		t.Errorf("missing file reason = %v", reasons[missing])
	}
	if reasons[link] != ErrorInvalidPath {
		t.Errorf("symlink reason = %v", reasons[link])
	}
	if reasons["relative.txt"] != ErrorInvalidPath {
		t.Errorf("relative path reason = %v", reasons["relative.txt"])
	}
	f.AssertFileExists(link)
}

func TestMoveToTrashBackupDirFailureAbortsBatch(t *testing.T) {
	testutil.SkipIfRoot(t)
	f := testutil.NewFixture(t)
	path := f.CreateFile("docs/a.txt", []byte("a"))
	readOnly := f.CreateReadOnlyDir("locked")

	r := newTestRemover(f, platform.TrashFlat)
	result, err := r.MoveToTrash([]string{path}, filepath.Join(readOnly, "backup"))
	if err == nil {
		t.Fatal("expected error when backup directory cannot be created")
	}
	if result != nil {
		t.Error("no result expected on batch failure")
	}
	f.AssertFileExists(path)
}

func TestMoveToTrashReportsProgress(t *testing.T) {
	f := testutil.NewFixture(t)
	a := f.CreateFile("docs/a.txt", []byte("a"))
	b := f.CreateFile("docs/b.txt", []byte("bb"))

	pr := progress.NewProgressReporter()
	r := newTestRemover(f, platform.TrashFlat)
	r.SetProgressReporter(pr)

	if _, err := r.MoveToTrash([]string{a, b}, ""); err != nil {
		t.Fatal(err)
	}

	p := pr.GetRemovalProgress()
	if p == nil {
		t.Fatal("no removal progress reported")
	}
	if p.Phase != progress.PhaseDone || p.Trashed != 2 || p.FreedBytes != 3 {
		t.Errorf("final progress = %+v", p)
	}
}

// =============================================================================
// Undo Tests
// =============================================================================

func TestUndoSkipsMissingTrashFiles(t *testing.T) {
	f := testutil.NewFixture(t)
	a := f.CreateFile("docs/a.txt", []byte("a"))
	b := f.CreateFile("docs/b.txt", []byte("b"))

	r := newTestRemover(f, platform.TrashFlat)
	result, err := r.MoveToTrash([]string{a, b}, "")
	if err != nil {
		t.Fatal(err)
	}

	// Emptied from the trash externally
	if err := os.Remove(result.Trashed[b]); err != nil {
		t.Fatal(err)
	}

	undo := r.Undo(result.Entries)
	if len(undo.Restored) != 1 || undo.Restored[0] != a {
		t.Errorf("Restored = %v, want [%s]", undo.Restored, a)
	}
	if len(undo.Missing) != 1 {
		t.Errorf("Missing = %v, want 1 entry", undo.Missing)
	}
	if len(undo.Errors) != 0 {
		t.Errorf("unexpected errors: %v", undo.Errors)
	}
	f.AssertFileExists(a)
	f.AssertFileNotExists(b)
}

func TestUndoNeverOverwrites(t *testing.T) {
	f := testutil.NewFixture(t)
	a := f.CreateFile("docs/a.txt", []byte("original"))

	r := newTestRemover(f, platform.TrashFlat)
	result, err := r.MoveToTrash([]string{a}, "")
	if err != nil {
		t.Fatal(err)
	}
	f.CreateFile("docs/a.txt", []byte("replacement"))

	undo := r.Undo(result.Entries)
	if len(undo.Restored) != 0 || len(undo.Errors) != 1 {
		t.Fatalf("restored %v, errors %v", undo.Restored, undo.Errors)
	}
	f.AssertFileContent(a, []byte("replacement"))
	f.AssertFileExists(result.Trashed[a])
}

func TestUndoRecreatesParentDirectory(t *testing.T) {
	f := testutil.NewFixture(t)
	a := f.CreateFile("docs/nested/a.txt", []byte("a"))

	r := newTestRemover(f, platform.TrashFlat)
	result, err := r.MoveToTrash([]string{a}, "")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(filepath.Dir(a)); err != nil {
		t.Fatal(err)
	}

	if undo := r.Undo(result.Entries); len(undo.Restored) != 1 {
		t.Fatalf("restored %v, errors %v", undo.Restored, undo.Errors)
	}
	f.AssertFileExists(a)
}

// =============================================================================
// Helper Tests
// =============================================================================

func TestUniquePath(t *testing.T) {
	taken := map[string]bool{
		"/d/a.txt":    true,
		"/d/a_1.txt":  true,
		"/d/b":        true,
		"/d/c.tar.gz": true,
	}
	isTaken := func(p string) bool { return taken[p] }

	tests := []struct {
		name string
		want string
	}{
		{"free.txt", "/d/free.txt"},
		{"a.txt", "/d/a_2.txt"},
		{"b", "/d/b_1"},
		{"c.tar.gz", "/d/c.tar_1.gz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := uniquePath("/d", tt.name, isTaken); got != tt.want {
				t.Errorf("uniquePath(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestCopyFilePreservesModTime(t *testing.T) {
	f := testutil.NewFixture(t)
	mod := time.Date(2020, 5, 6, 7, 8, 9, 0, time.UTC)
	src := f.CreateFileWithTime("docs/src.txt", []byte("content"), mod)
	dst := f.Path("docs/dst.txt")

	if err := copyFile(src, dst); err != nil {
		t.Fatal(err)
	}
	f.AssertFileContent(dst, []byte("content"))
	info, err := os.Stat(dst)
	if err != nil {
		t.Fatal(err)
	}
	if !info.ModTime().Equal(mod) {
		t.Errorf("mod time = %v, want %v", info.ModTime(), mod)
	}

	if err := copyFile(src, dst); err == nil {
		t.Error("copyFile must not overwrite an existing file")
	}
}
