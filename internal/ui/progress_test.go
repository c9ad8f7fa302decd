package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fenilsonani/dupsweep/internal/progress"
)

func TestLiveProgressPlainOutput(t *testing.T) {
	var buf bytes.Buffer
	lp := newLiveProgress(&buf, false, 80)

	updates := make(chan interface{}, 10)
	updates <- &progress.ScanProgress{Phase: progress.PhaseEnumerating, Message: "Enumerating files…", FilesFound: 3, StartTime: time.Now()}
	updates <- &progress.ScanProgress{Phase: progress.PhaseEnumerating, Message: "Enumerating files…", FilesFound: 9, StartTime: time.Now()}
	updates <- &progress.ScanProgress{Phase: progress.PhaseGrouping, Message: "Hashing", Fraction: 0.5, StartTime: time.Now()}
	updates <- &progress.ScanProgress{Phase: progress.PhaseDone, FilesFound: 9, StartTime: time.Now()}
	updates <- "ignored"
	close(updates)

	lp.Run(updates)

	select {
	case <-lp.Done():
	default:
		t.Fatal("Done() should be closed after Run returns")
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected one line per phase (3), got %d: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "3 files found") {
		t.Errorf("first line = %q, want the first enumeration update", lines[0])
	}
	if !strings.Contains(lines[1], "50%") {
		t.Errorf("second line = %q, want grouping percentage", lines[1])
	}
	if !strings.HasPrefix(lines[2], "Scan complete: 9 files") {
		t.Errorf("third line = %q", lines[2])
	}
	if strings.Contains(buf.String(), "\033[K") {
		t.Error("plain output should not contain terminal escapes")
	}
}

func TestLiveProgressTerminalOutput(t *testing.T) {
	var buf bytes.Buffer
	lp := newLiveProgress(&buf, true, 40)

	if !lp.IsInteractive() {
		t.Fatal("expected interactive progress")
	}

	lp.Update(&progress.RemovalProgress{Phase: progress.PhaseRemoving, Done: 1, Total: 4, StartTime: time.Now()})
	lp.Update(&progress.RemovalProgress{Phase: progress.PhaseDone, Trashed: 4, FreedBytes: 2048, StartTime: time.Now()})
	lp.Finish()

	out := buf.String()
	if strings.Count(out, "\r\033[K") != 2 {
		t.Errorf("expected two redraws, got %q", out)
	}
	if !strings.HasSuffix(out, "\n") {
		t.Error("Finish should end the status line")
	}
	for _, line := range strings.Split(out, "\r\033[K") {
		if len(strings.TrimSuffix(line, "\n")) > 39 {
			t.Errorf("line exceeds terminal width: %q", line)
		}
	}
}
