// Package session owns the lifecycle of a duplicate scan: it runs one scan
// at a time, publishes progress, holds the resulting groups and their keep
// selection, and performs removal and undo against them.
//
// Readers only ever see complete states. Snapshot returns deep copies, and
// every mutation builds new group values before swapping them in under the
// lock.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/fenilsonani/dupsweep/internal/cleaner"
	"github.com/fenilsonani/dupsweep/internal/embedding"
	"github.com/fenilsonani/dupsweep/internal/hasher"
	"github.com/fenilsonani/dupsweep/internal/logging"
	"github.com/fenilsonani/dupsweep/internal/progress"
	"github.com/fenilsonani/dupsweep/internal/scanner"
	"github.com/fenilsonani/dupsweep/internal/selection"
)

// Progress messages
const (
	MsgEnumerating = "Enumerating files…"
	MsgHashing     = "Hashing files (grouped by size)…"
	MsgEmbedding   = "Computing image features…"
	MsgComparing   = "Comparing images…"
	MsgDone        = "Done"
	MsgCancelled   = "Cancelled"
)

// hashingShare is the part of the progress range used by hashing; the rest
// covers finalization
const hashingShare = 0.95

// enumerationReportInterval throttles file-count updates during the walk
const enumerationReportInterval = 50

var (
	ErrScanActive = errors.New("a scan is in progress")
	ErrNoRemover  = errors.New("no trash location available")
)

// State is a point-in-time view of the session
type State struct {
	Phase            progress.Phase
	Progress         float64
	Message          string
	Scanning         bool
	Groups           []*scanner.DuplicateGroup
	FilesScanned     int
	DuplicateFiles   int
	ReclaimableBytes int64
	UndoEntries      []cleaner.UndoEntry
	// SimilarResults is true when Groups came from a similarity scan
	SimilarResults bool
	Err            error
}

func (s State) clone() State {
	c := s
	c.Groups = scanner.CloneGroups(s.Groups)
	if s.UndoEntries != nil {
		c.UndoEntries = append([]cleaner.UndoEntry(nil), s.UndoEntries...)
	}
	return c
}

// Orchestrator runs scans and owns the session state
type Orchestrator struct {
	mu         sync.RWMutex
	state      State
	generation uint64
	cancel     context.CancelFunc
	done       chan struct{}

	// removeMu serializes removal and undo batches
	removeMu sync.Mutex

	hasher   *hasher.Hasher
	provider embedding.Provider
	distance scanner.DistanceFunc
	remover  *cleaner.Remover
	reporter *progress.ProgressReporter
	logger   logging.Logger
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithLogger sets the logger
func WithLogger(l logging.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithEmbeddingProvider sets the provider used by similarity scans
func WithEmbeddingProvider(p embedding.Provider) Option {
	return func(o *Orchestrator) { o.provider = p }
}

// WithDistance sets the embedding distance used by similarity scans. It
// should match the provider's embedding space.
func WithDistance(fn scanner.DistanceFunc) Option {
	return func(o *Orchestrator) { o.distance = fn }
}

// WithRemover sets the remover used by RemoveMarked and UndoLastRemoval
func WithRemover(r *cleaner.Remover) Option {
	return func(o *Orchestrator) { o.remover = r }
}

// WithProgressReporter sets the progress sink
func WithProgressReporter(pr *progress.ProgressReporter) Option {
	return func(o *Orchestrator) { o.reporter = pr }
}

// WithHasher sets the content hasher
func WithHasher(h *hasher.Hasher) Option {
	return func(o *Orchestrator) { o.hasher = h }
}

// New creates an idle Orchestrator. Without WithRemover, the current
// user's trash is used when it can be resolved.
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		state: State{Phase: progress.PhaseIdle},
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logging.NewNopLogger()
	}
	if o.hasher == nil {
		o.hasher = hasher.New()
	}
	if o.provider == nil {
		o.provider = embedding.NewGradientProvider()
	}
	if o.reporter == nil {
		o.reporter = progress.NewProgressReporter()
	}
	if o.remover == nil {
		if trash, err := cleaner.DefaultTrash(); err == nil {
			o.remover = cleaner.NewRemover(trash, nil, o.logger)
			o.remover.SetProgressReporter(o.reporter)
		} else {
			o.logger.Warn("trash unavailable, removal disabled", "error", err)
		}
	}
	return o
}

// Reporter returns the progress sink
func (o *Orchestrator) Reporter() *progress.ProgressReporter {
	return o.reporter
}

// Subscribe returns a channel of progress updates
func (o *Orchestrator) Subscribe() <-chan interface{} {
	return o.reporter.Subscribe()
}

// Unsubscribe closes a channel returned by Subscribe
func (o *Orchestrator) Unsubscribe(ch <-chan interface{}) {
	o.reporter.Unsubscribe(ch)
}

// Snapshot returns a deep copy of the current state
func (o *Orchestrator) Snapshot() State {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state.clone()
}

// StartScan starts an exact-duplicate scan, cancelling any active scan.
// With no roots it does nothing.
func (o *Orchestrator) StartScan(cfg scanner.Config) {
	o.start(cfg, false)
}

// StartSimilarityScan starts a near-duplicate image scan with the given
// distance threshold, cancelling any active scan. With no roots it does nothing.
func (o *Orchestrator) StartSimilarityScan(cfg scanner.Config, threshold float64) {
	cfg.Threshold = threshold
	o.start(cfg, true)
}

func (o *Orchestrator) start(cfg scanner.Config, similar bool) {
	if len(cfg.Roots) == 0 {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	o.mu.Lock()
	if o.cancel != nil {
		o.cancel()
	}
	prev := o.done
	o.generation++
	gen := o.generation
	o.cancel = cancel
	o.done = done
	o.state = State{
		Phase:          progress.PhaseEnumerating,
		Message:        MsgEnumerating,
		Scanning:       true,
		SimilarResults: similar,
	}
	o.reporter.BeginScan(MsgEnumerating)
	o.mu.Unlock()

	o.logger.Info("scan started", "roots", cfg.Roots, "similar", similar)
	go o.run(ctx, cancel, gen, cfg, similar, prev, done)
}

// Cancel requests cancellation of the active scan. It is a no-op when idle.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cancel != nil && o.state.Phase.Active() {
		o.cancel()
	}
}

// Wait blocks until the most recently started scan has finished
func (o *Orchestrator) Wait() {
	o.mu.RLock()
	done := o.done
	o.mu.RUnlock()
	if done != nil {
		<-done
	}
}

func (o *Orchestrator) run(ctx context.Context, cancel context.CancelFunc, gen uint64, cfg scanner.Config, similar bool, prev, done chan struct{}) {
	defer close(done)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			o.finish(ctx, gen, nil, fmt.Errorf("scan panicked: %v", r))
		}
	}()

	// At most one scan touches the disk at a time
	if prev != nil {
		<-prev
	}

	enumerator := scanner.NewEnumerator(o.logger)
	enumerator.OnFile = func(found int, _ string) {
		if found%enumerationReportInterval == 0 {
			o.update(gen, func(s *State) { s.FilesScanned = found })
		}
	}

	records, err := enumerator.Enumerate(ctx, cfg)
	if err != nil {
		o.finish(ctx, gen, nil, err)
		return
	}

	var groups []*scanner.DuplicateGroup
	if similar {
		o.update(gen, func(s *State) {
			s.Phase = progress.PhaseGrouping
			s.FilesScanned = len(records)
			s.Message = MsgEmbedding
		})
		detector := scanner.NewSimilarityDetector(o.provider, cfg.Workers, o.logger)
		if o.distance != nil {
			detector.WithDistance(o.distance)
		}
		groups, err = detector.Detect(ctx, records, cfg.Threshold,
			func(n, total int) { o.advance(gen, 0.5*float64(n)/float64(total), MsgEmbedding) },
			func(n, total int) { o.advance(gen, 0.5+0.5*float64(n)/float64(total), MsgComparing) })
	} else {
		o.update(gen, func(s *State) {
			s.Phase = progress.PhaseGrouping
			s.FilesScanned = len(records)
			s.Message = MsgHashing
		})
		detector := scanner.NewExactDetector(o.hasher, cfg.Workers, cfg.Verify, o.logger)
		groups, err = detector.Detect(ctx, records, func(n, total int) {
			o.advance(gen, hashingShare*float64(n)/float64(total), MsgHashing)
		})
	}
	if err != nil {
		o.finish(ctx, gen, nil, err)
		return
	}

	selection.Apply(groups, selection.Newest, "")
	o.finish(ctx, gen, groups, nil)
}

// update applies fn to the state if gen is still the current scan
func (o *Orchestrator) update(gen uint64, fn func(*State)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if gen != o.generation || !o.state.Phase.Active() {
		return
	}
	fn(&o.state)
	o.publish()
}

// advance raises the progress fraction; it never lowers it
func (o *Orchestrator) advance(gen uint64, fraction float64, message string) {
	o.update(gen, func(s *State) {
		if fraction > s.Progress {
			s.Progress = fraction
		}
		s.Message = message
	})
}

// finish moves the scan to its terminal phase
func (o *Orchestrator) finish(ctx context.Context, gen uint64, groups []*scanner.DuplicateGroup, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if gen != o.generation {
		return
	}

	s := &o.state
	s.Scanning = false
	o.cancel = nil

	switch {
	case err == nil && ctx.Err() == nil:
		s.Phase = progress.PhaseDone
		s.Progress = 1
		s.Message = MsgDone
		s.Groups = groups
		recount(s)
		o.logger.Info("scan complete", "files", s.FilesScanned, "groups", len(groups), "reclaimable", s.ReclaimableBytes)
	case err == nil || errors.Is(err, context.Canceled):
		s.Phase = progress.PhaseCancelled
		s.Message = MsgCancelled
		s.Groups = nil
		o.logger.Info("scan cancelled")
	default:
		s.Phase = progress.PhaseErrored
		s.Message = fmt.Sprintf("Error: %v", err)
		s.Groups = nil
		s.Err = err
		o.logger.Error("scan failed", "error", err)
	}
	o.publish()
}

// publish forwards the state to the progress reporter; o.mu must be held
func (o *Orchestrator) publish() {
	o.reporter.UpdateScanProgress(&progress.ScanProgress{
		Phase:      o.state.Phase,
		Fraction:   o.state.Progress,
		Message:    o.state.Message,
		FilesFound: o.state.FilesScanned,
		Error:      o.state.Err,
	})
}

// recount recomputes the aggregate counts from s.Groups
func recount(s *State) {
	s.DuplicateFiles = 0
	s.ReclaimableBytes = 0
	for _, g := range s.Groups {
		s.DuplicateFiles += len(g.Files)
		s.ReclaimableBytes += g.ReclaimableBytes()
	}
}

// replaceGroups applies fn to a copy of the groups and swaps it in
func (o *Orchestrator) replaceGroups(fn func([]*scanner.DuplicateGroup) bool) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state.Scanning {
		return false
	}
	groups := scanner.CloneGroups(o.state.Groups)
	if !fn(groups) {
		return false
	}
	o.state.Groups = groups
	return true
}

// SetKept marks one file as the kept member of its group. It reports
// whether the group and file were found.
func (o *Orchestrator) SetKept(groupID, fileID string) bool {
	return o.replaceGroups(func(groups []*scanner.DuplicateGroup) bool {
		return selection.SetKept(groups, groupID, fileID)
	})
}

// ApplyStrategy re-runs a keep strategy over every group
func (o *Orchestrator) ApplyStrategy(strategy selection.Strategy, folder string) {
	o.replaceGroups(func(groups []*scanner.DuplicateGroup) bool {
		selection.Apply(groups, strategy, folder)
		return true
	})
}

// FilesToRemove returns copies of every non-kept member, in group order
func (o *Orchestrator) FilesToRemove() []*scanner.FileRecord {
	o.mu.RLock()
	defer o.mu.RUnlock()
	var out []*scanner.FileRecord
	for _, f := range selection.FilesToRemove(o.state.Groups) {
		rec := *f
		out = append(out, &rec)
	}
	return out
}

// RemoveMarked moves every non-kept file to the trash, copying it to
// backupDir first when one is given. Trashed files leave their groups,
// groups left with fewer than two members are dropped and Newest is
// re-applied. The batch becomes the only undoable one.
func (o *Orchestrator) RemoveMarked(backupDir string) (*cleaner.RemovalResult, error) {
	o.removeMu.Lock()
	defer o.removeMu.Unlock()

	if o.remover == nil {
		return nil, ErrNoRemover
	}

	o.mu.RLock()
	if o.state.Scanning {
		o.mu.RUnlock()
		return nil, ErrScanActive
	}
	gen := o.generation
	var paths []string
	for _, f := range selection.FilesToRemove(o.state.Groups) {
		paths = append(paths, f.Path)
	}
	o.mu.RUnlock()

	result, err := o.remover.MoveToTrash(paths, backupDir)
	if err != nil {
		return nil, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.state.UndoEntries = append([]cleaner.UndoEntry(nil), result.Entries...)
	if gen == o.generation {
		o.state.Groups = regroup(o.state.Groups, result.Trashed)
		recount(&o.state)
	}
	o.logger.Info("removal complete", "trashed", len(result.Trashed), "failed", len(result.Errors), "skipped", len(result.Skipped))
	return result, nil
}

// regroup drops trashed members and groups left with fewer than two
func regroup(groups []*scanner.DuplicateGroup, trashed map[string]string) []*scanner.DuplicateGroup {
	var out []*scanner.DuplicateGroup
	for _, g := range groups {
		var remaining []*scanner.FileRecord
		for _, f := range g.Files {
			if _, gone := trashed[f.Path]; !gone {
				rec := *f
				remaining = append(remaining, &rec)
			}
		}
		if len(remaining) < 2 {
			continue
		}
		out = append(out, &scanner.DuplicateGroup{ID: g.ID, Files: remaining, SizePerFile: g.SizePerFile})
	}
	selection.Apply(out, selection.Newest, "")
	return out
}

// UndoLastRemoval restores the most recent removal batch. The undo log is
// cleared when every entry was restored or found missing. Restored files do
// not rejoin the groups.
func (o *Orchestrator) UndoLastRemoval() (*cleaner.UndoResult, error) {
	o.removeMu.Lock()
	defer o.removeMu.Unlock()

	if o.remover == nil {
		return nil, ErrNoRemover
	}

	o.mu.RLock()
	entries := append([]cleaner.UndoEntry(nil), o.state.UndoEntries...)
	o.mu.RUnlock()

	if len(entries) == 0 {
		return &cleaner.UndoResult{}, nil
	}

	result := o.remover.Undo(entries)
	if len(result.Errors) == 0 {
		o.mu.Lock()
		o.state.UndoEntries = nil
		o.mu.Unlock()
	}
	o.logger.Info("undo complete", "restored", len(result.Restored), "missing", len(result.Missing), "failed", len(result.Errors))
	return result, nil
}
