package models

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fenilsonani/dupsweep/internal/cleaner"
	"github.com/fenilsonani/dupsweep/internal/platform"
	"github.com/fenilsonani/dupsweep/internal/progress"
	"github.com/fenilsonani/dupsweep/internal/scanner"
	"github.com/fenilsonani/dupsweep/internal/session"
	"github.com/fenilsonani/dupsweep/internal/testutil"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEscape}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// scannedOrchestrator returns an orchestrator holding two duplicate groups:
// docs/{new,old}.txt and photos/{a,b}.jpg
func scannedOrchestrator(t *testing.T) (*session.Orchestrator, *testutil.TestFixture) {
	t.Helper()

	f := testutil.NewFixture(t)
	f.CreateFileWithAge("docs/new.txt", []byte("same text"), time.Hour)
	f.CreateFileWithAge("docs/old.txt", []byte("same text"), 2*time.Hour)
	f.CreateFileWithAge("photos/a.jpg", []byte("same picture bytes"), time.Hour)
	f.CreateFileWithAge("photos/b.jpg", []byte("same picture bytes"), 3*time.Hour)

	remover := cleaner.NewRemover(cleaner.NewTrash(f.TrashDir, platform.TrashFlat), nil, nil)
	orch := session.New(session.WithRemover(remover))
	orch.StartScan(scanner.DefaultConfig(f.RootDir))
	orch.Wait()

	if s := orch.Snapshot(); s.Phase != progress.PhaseDone || len(s.Groups) != 2 {
		t.Fatalf("scan: phase %s, %d groups", s.Phase, len(s.Groups))
	}
	return orch, f
}

func runCmd(cmd tea.Cmd) tea.Msg {
	if cmd == nil {
		return nil
	}
	return cmd()
}

// =============================================================================
// Review View Tests
// =============================================================================

func TestReviewCursorSkipsHeaders(t *testing.T) {
	orch, _ := scannedOrchestrator(t)
	m := NewReviewViewModel(orch, "", 100, 40)

	// rows: header, file, file, header, file, file
	steps := []struct {
		key  string
		want int
	}{
		{"", 1},
		{"down", 2},
		{"down", 4},
		{"down", 5},
		{"down", 5},
		{"up", 4},
		{"up", 2},
		{"up", 1},
		{"up", 1},
	}

	for _, s := range steps {
		if s.key != "" {
			m, _ = m.Update(key(s.key))
		}
		if m.cursor != s.want {
			t.Fatalf("after %q cursor = %d, want %d", s.key, m.cursor, s.want)
		}
	}
}

func TestReviewKeepAndStrategy(t *testing.T) {
	orch, f := scannedOrchestrator(t)
	m := NewReviewViewModel(orch, "", 100, 40)

	// Newest keeps docs/new.txt, the first file row
	m, _ = m.Update(key("down"))
	m, _ = m.Update(key(" "))
	if kept := orch.Snapshot().Groups[0].Kept(); kept.Path != f.Path("docs/old.txt") {
		t.Errorf("space kept %s, want docs/old.txt", kept.Path)
	}

	m, _ = m.Update(key("n"))
	if kept := orch.Snapshot().Groups[0].Kept(); kept.Path != f.Path("docs/new.txt") {
		t.Errorf("newest kept %s, want docs/new.txt", kept.Path)
	}
	if m.notice == "" {
		t.Error("applying a strategy should set a notice")
	}

	m, _ = m.Update(key("o"))
	if kept := orch.Snapshot().Groups[1].Kept(); kept.Path != f.Path("photos/b.jpg") {
		t.Errorf("oldest kept %s, want photos/b.jpg", kept.Path)
	}
}

func TestReviewPreferredWithoutFolder(t *testing.T) {
	orch, f := scannedOrchestrator(t)
	m := NewReviewViewModel(orch, "", 100, 40)

	m, _ = m.Update(key("p"))
	if m.notice == "" {
		t.Error("expected a notice when no preferred folder is set")
	}
	if kept := orch.Snapshot().Groups[0].Kept(); kept.Path != f.Path("docs/new.txt") {
		t.Errorf("selection changed to %s", kept.Path)
	}
}

func TestReviewRemoveSendsMarkedFiles(t *testing.T) {
	orch, f := scannedOrchestrator(t)
	m := NewReviewViewModel(orch, "", 100, 40)

	_, cmd := m.Update(key("d"))
	msg, ok := runCmd(cmd).(FilesSelectedMsg)
	if !ok {
		t.Fatalf("expected FilesSelectedMsg, got %T", runCmd(cmd))
	}
	if len(msg.Files) != 2 {
		t.Fatalf("expected 2 marked files, got %d", len(msg.Files))
	}
	want := map[string]bool{f.Path("docs/old.txt"): true, f.Path("photos/b.jpg"): true}
	for _, rec := range msg.Files {
		if !want[rec.Path] {
			t.Errorf("unexpected marked file %s", rec.Path)
		}
	}
}

func TestReviewUndoWithoutRemoval(t *testing.T) {
	orch, _ := scannedOrchestrator(t)
	m := NewReviewViewModel(orch, "", 100, 40)

	m, cmd := m.Update(key("u"))
	if cmd != nil {
		t.Error("undo without a removal should not send a command")
	}
	if m.notice == "" {
		t.Error("expected a notice")
	}
}

// =============================================================================
// Confirmation and Summary Tests
// =============================================================================

func TestCalculateRiskLevel(t *testing.T) {
	files := func(n int) []*scanner.FileRecord {
		out := make([]*scanner.FileRecord, n)
		for i := range out {
			out[i] = scanner.NewFileRecord("/tmp/f", 1, time.Now(), time.Time{})
		}
		return out
	}

	tests := []struct {
		name    string
		n       int
		similar bool
		backup  string
		want    RiskLevel
	}{
		{"few exact with backup", 3, false, "/backup", RiskLow},
		{"few exact without backup", 3, false, "", RiskMedium},
		{"many exact with backup", 60, false, "/backup", RiskMedium},
		{"huge batch", 501, false, "/backup", RiskHigh},
		{"similar with backup", 3, true, "/backup", RiskMedium},
		{"similar without backup", 3, true, "", RiskHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := calculateRiskLevel(files(tt.n), tt.similar, tt.backup); got != tt.want {
				t.Errorf("calculateRiskLevel() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestConfirmKeys(t *testing.T) {
	files := []*scanner.FileRecord{scanner.NewFileRecord("/tmp/a", 10, time.Now(), time.Time{})}

	m := NewConfirmViewModel(files, false, "", 80, 24)
	if _, cmd := m.Update(key("y")); runCmd(cmd) != (ConfirmedMsg{}) {
		t.Error("y should confirm")
	}
	if _, cmd := m.Update(key("n")); runCmd(cmd) != (ReviewSelectionMsg{}) {
		t.Error("n should go back to review")
	}

	// High risk defaults to Cancel
	high := NewConfirmViewModel(files, true, "", 80, 24)
	if _, cmd := high.Update(key("enter")); runCmd(cmd) != (ReviewSelectionMsg{}) {
		t.Error("enter on a high risk batch should not confirm")
	}
}

func TestSummaryUndoOnce(t *testing.T) {
	result := &cleaner.RemovalResult{
		Trashed: map[string]string{"/a": "/trash/a"},
		Entries: []cleaner.UndoEntry{{OriginalPath: "/a", TrashPath: "/trash/a"}},
	}
	m := NewSummaryViewModel(result)

	if _, cmd := m.Update(key("u")); runCmd(cmd) != (UndoRequestedMsg{}) {
		t.Fatal("u should request undo")
	}

	m.SetUndo(&cleaner.UndoResult{Restored: []string{"/a"}})
	if _, cmd := m.Update(key("u")); cmd != nil {
		t.Error("a batch can only be undone once")
	}
}

// =============================================================================
// App Flow Tests
// =============================================================================

func TestAppReviewConfirmFlow(t *testing.T) {
	orch, _ := scannedOrchestrator(t)
	app := NewAppModel(orch, Options{})
	defer app.Close()

	app.Update(ScanCompleteMsg{State: orch.Snapshot()})
	if app.state != ViewReview {
		t.Fatalf("state = %d, want review", app.state)
	}

	app.Update(FilesSelectedMsg{Files: orch.FilesToRemove()})
	if app.state != ViewConfirmation || len(app.confirmView.files) != 2 {
		t.Fatalf("state = %d, want confirmation with 2 files", app.state)
	}

	app.Update(key("esc"))
	if app.state != ViewReview {
		t.Errorf("esc should return to review, state = %d", app.state)
	}

	app.Update(key("?"))
	if app.state != ViewHelp {
		t.Fatalf("? should open help, state = %d", app.state)
	}
	app.Update(key("x"))
	if app.state != ViewReview {
		t.Errorf("any key should close help, state = %d", app.state)
	}
}

func TestAppScanCancelledQuits(t *testing.T) {
	orch, _ := scannedOrchestrator(t)
	app := NewAppModel(orch, Options{})
	defer app.Close()

	_, cmd := app.Update(ScanCompleteMsg{State: session.State{Phase: progress.PhaseCancelled}})
	if _, ok := runCmd(cmd).(tea.QuitMsg); !ok {
		t.Error("a cancelled scan should quit the program")
	}
}
