package progress

import (
	"fmt"
	"sync"
	"time"

	"github.com/fenilsonani/dupsweep/pkg/utils"
)

// Phase represents the current phase of a scan or removal
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseEnumerating Phase = "enumerating"
	PhaseGrouping    Phase = "grouping"
	PhaseDone        Phase = "done"
	PhaseCancelled   Phase = "cancelled"
	PhaseErrored     Phase = "errored"
	PhaseRemoving    Phase = "removing"
)

// Active reports whether a scan in this phase is still running
func (p Phase) Active() bool {
	return p == PhaseEnumerating || p == PhaseGrouping
}

// Terminal reports whether the phase ends a scan
func (p Phase) Terminal() bool {
	return p == PhaseDone || p == PhaseCancelled || p == PhaseErrored
}

// ScanProgress represents progress during scanning
type ScanProgress struct {
	Phase      Phase
	Fraction   float64
	Message    string
	FilesFound int
	StartTime  time.Time
	Error      error
}

// RemovalProgress represents progress while moving files to the trash
type RemovalProgress struct {
	Phase       Phase
	CurrentFile string
	Done        int
	Total       int
	Trashed     int
	BackedUp    int
	Failed      int
	FreedBytes  int64
	StartTime   time.Time
}

// ProgressReporter provides thread-safe progress reporting.
// Within one scan the reported fraction never decreases.
type ProgressReporter struct {
	scanProgress    *ScanProgress
	removalProgress *RemovalProgress
	mu              sync.RWMutex
	listeners       []chan interface{}
}

// NewProgressReporter creates a new progress reporter
func NewProgressReporter() *ProgressReporter {
	return &ProgressReporter{
		listeners: make([]chan interface{}, 0),
	}
}

// Subscribe returns a channel that receives *ScanProgress and
// *RemovalProgress updates. Slow listeners miss updates rather than block.
func (pr *ProgressReporter) Subscribe() <-chan interface{} {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	ch := make(chan interface{}, 10)
	pr.listeners = append(pr.listeners, ch)
	return ch
}

// Unsubscribe closes and removes a listener channel
func (pr *ProgressReporter) Unsubscribe(ch <-chan interface{}) {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	for i, listener := range pr.listeners {
		if listener == ch {
			close(listener)
			pr.listeners = append(pr.listeners[:i], pr.listeners[i+1:]...)
			return
		}
	}
}

// BeginScan starts a new scan's progress at zero
func (pr *ProgressReporter) BeginScan(message string) {
	pr.publishScan(&ScanProgress{
		Phase:     PhaseEnumerating,
		Message:   message,
		StartTime: time.Now(),
	}, true)
}

// UpdateScanProgress records an update for the running scan. A fraction
// lower than the last reported one is raised to it; fractions are clamped
// to [0, 1].
func (pr *ProgressReporter) UpdateScanProgress(update *ScanProgress) {
	pr.publishScan(update, false)
}

func (pr *ProgressReporter) publishScan(update *ScanProgress, reset bool) {
	p := *update
	if p.Fraction < 0 {
		p.Fraction = 0
	}
	if p.Fraction > 1 {
		p.Fraction = 1
	}

	pr.mu.Lock()
	if !reset && pr.scanProgress != nil {
		if p.Fraction < pr.scanProgress.Fraction {
			p.Fraction = pr.scanProgress.Fraction
		}
		if p.StartTime.IsZero() {
			p.StartTime = pr.scanProgress.StartTime
		}
	}
	pr.scanProgress = &p
	listeners := make([]chan interface{}, len(pr.listeners))
	copy(listeners, pr.listeners)
	pr.mu.Unlock()

	notify(listeners, &p)
}

// UpdateRemovalProgress updates removal progress and notifies listeners
func (pr *ProgressReporter) UpdateRemovalProgress(update *RemovalProgress) {
	p := *update

	pr.mu.Lock()
	pr.removalProgress = &p
	listeners := make([]chan interface{}, len(pr.listeners))
	copy(listeners, pr.listeners)
	pr.mu.Unlock()

	notify(listeners, &p)
}

func notify(listeners []chan interface{}, update interface{}) {
	// Notify all listeners (non-blocking)
	for _, listener := range listeners {
		select {
		case listener <- update:
		default:
			// Skip if channel is full
		}
	}
}

// GetScanProgress returns a copy of the current scan progress, or nil
func (pr *ProgressReporter) GetScanProgress() *ScanProgress {
	pr.mu.RLock()
	defer pr.mu.RUnlock()
	if pr.scanProgress == nil {
		return nil
	}
	p := *pr.scanProgress
	return &p
}

// GetRemovalProgress returns a copy of the current removal progress, or nil
func (pr *ProgressReporter) GetRemovalProgress() *RemovalProgress {
	pr.mu.RLock()
	defer pr.mu.RUnlock()
	if pr.removalProgress == nil {
		return nil
	}
	p := *pr.removalProgress
	return &p
}

// FormatScanProgress returns a human-readable scan progress string
func FormatScanProgress(p *ScanProgress) string {
	if p == nil {
		return "Idle"
	}

	elapsed := time.Since(p.StartTime)

	switch p.Phase {
	case PhaseEnumerating:
		return fmt.Sprintf("%s %d files found [%s]",
			p.Message,
			p.FilesFound,
			FormatDuration(elapsed))
	case PhaseGrouping:
		return fmt.Sprintf("%s %d%% [%s]",
			p.Message,
			int(p.Fraction*100),
			FormatDuration(elapsed))
	case PhaseDone:
		return fmt.Sprintf("Scan complete: %d files in %s",
			p.FilesFound,
			FormatDuration(elapsed))
	case PhaseCancelled:
		return "Scan cancelled"
	case PhaseErrored:
		return fmt.Sprintf("Scan error: %v", p.Error)
	default:
		return "Idle"
	}
}

// FormatRemovalProgress returns a human-readable removal progress string
func FormatRemovalProgress(p *RemovalProgress) string {
	if p == nil {
		return "Preparing..."
	}

	elapsed := time.Since(p.StartTime)

	switch p.Phase {
	case PhaseRemoving:
		percentage := 0
		if p.Total > 0 {
			percentage = (p.Done * 100) / p.Total
		}

		eta := ""
		if p.Done > 0 && p.Total > p.Done {
			avgTime := elapsed / time.Duration(p.Done)
			remaining := time.Duration(p.Total-p.Done) * avgTime
			eta = fmt.Sprintf(" ETA: %s", FormatDuration(remaining))
		}

		return fmt.Sprintf("Moving to trash... %d/%d files (%d%%) - %s freed%s",
			p.Done,
			p.Total,
			percentage,
			FormatBytes(p.FreedBytes),
			eta)
	case PhaseDone:
		return fmt.Sprintf("Removal complete: %d files trashed (%s) in %s",
			p.Trashed,
			FormatBytes(p.FreedBytes),
			FormatDuration(elapsed))
	default:
		return "Preparing removal..."
	}
}

// FormatBytes formats bytes in human-readable format
func FormatBytes(bytes int64) string {
	return utils.FormatBytes(bytes)
}

// FormatDuration formats duration in human-readable format
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)

	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%dm%ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
