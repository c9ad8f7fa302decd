package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/fenilsonani/dupsweep/internal/progress"
	uiutils "github.com/fenilsonani/dupsweep/internal/ui/utils"
)

// LiveProgress renders progress updates as a single refreshing status line.
// When the output is not a terminal it prints one plain line per phase
// change instead.
type LiveProgress struct {
	mu         sync.Mutex
	out        io.Writer
	tty        bool
	termWidth  int
	lastUpdate time.Time
	lastPhase  progress.Phase
	drawn      bool
	done       chan struct{}
}

// NewLiveProgress creates a live progress display writing to out
func NewLiveProgress(out *os.File) *LiveProgress {
	fd := int(out.Fd())
	tty := term.IsTerminal(fd)

	width := 80
	if tty {
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			width = w
		}
	}

	return newLiveProgress(out, tty, width)
}

func newLiveProgress(out io.Writer, tty bool, width int) *LiveProgress {
	return &LiveProgress{
		out:       out,
		tty:       tty,
		termWidth: width,
		done:      make(chan struct{}),
	}
}

// IsInteractive reports whether the output is a terminal
func (lp *LiveProgress) IsInteractive() bool {
	return lp.tty
}

// Run consumes *progress.ScanProgress and *progress.RemovalProgress updates
// until updates is closed
func (lp *LiveProgress) Run(updates <-chan interface{}) {
	defer close(lp.done)
	for update := range updates {
		lp.Update(update)
	}
	lp.Finish()
}

// Done is closed once Run returns
func (lp *LiveProgress) Done() <-chan struct{} {
	return lp.done
}

// Update renders a single progress update
func (lp *LiveProgress) Update(update interface{}) {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	var phase progress.Phase
	var line string

	switch u := update.(type) {
	case *progress.ScanProgress:
		phase = u.Phase
		line = progress.FormatScanProgress(u)
	case *progress.RemovalProgress:
		phase = u.Phase
		line = progress.FormatRemovalProgress(u)
	default:
		return
	}

	if !lp.tty {
		// Plain output: one line per phase
		if phase == lp.lastPhase {
			return
		}
		lp.lastPhase = phase
		fmt.Fprintln(lp.out, line)
		return
	}

	// Throttle redraws to avoid flickering (max 10 per second), but always
	// draw phase changes
	now := time.Now()
	if phase == lp.lastPhase && now.Sub(lp.lastUpdate) < 100*time.Millisecond {
		return
	}
	lp.lastUpdate = now
	lp.lastPhase = phase

	fmt.Fprintf(lp.out, "\r\033[K%s", uiutils.TruncateString(line, lp.termWidth-1))
	lp.drawn = true
}

// Finish ends the status line
func (lp *LiveProgress) Finish() {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	if lp.tty && lp.drawn {
		fmt.Fprintln(lp.out)
		lp.drawn = false
	}
}
