package scanner

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/fenilsonani/dupsweep/internal/hasher"
	"github.com/fenilsonani/dupsweep/internal/logging"
)

// DefaultWorkers returns the worker count used when none is configured
func DefaultWorkers() int {
	workers := runtime.NumCPU()
	if workers < 4 {
		workers = 4 // I/O bound, keep some parallelism on small machines
	}
	if workers > 16 {
		workers = 16
	}
	return workers
}

// ExactDetector groups byte-identical files: size buckets, then content
// hashes, then optional byte-for-byte verification.
type ExactDetector struct {
	hasher  *hasher.Hasher
	workers int
	verify  bool
	logger  logging.Logger
}

// NewExactDetector creates an ExactDetector. workers <= 0 selects DefaultWorkers.
func NewExactDetector(h *hasher.Hasher, workers int, verify bool, logger logging.Logger) *ExactDetector {
	if h == nil {
		h = hasher.New()
	}
	if workers <= 0 {
		workers = DefaultWorkers()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ExactDetector{hasher: h, workers: workers, verify: verify, logger: logger}
}

// sizeBucket keeps records of one byte size in enumeration order
type sizeBucket struct {
	size    int64
	records []*FileRecord
}

// bucketBySize buckets records by size, ordered by first appearance
func bucketBySize(records []*FileRecord) []*sizeBucket {
	index := make(map[int64]*sizeBucket)
	var buckets []*sizeBucket
	for _, rec := range records {
		b, ok := index[rec.Size]
		if !ok {
			b = &sizeBucket{size: rec.Size}
			index[rec.Size] = b
			buckets = append(buckets, b)
		}
		b.records = append(b.records, rec)
	}
	return buckets
}

// Detect returns the duplicate groups among records. onProgress, when set,
// is called after each file's hash completes. On cancellation no groups are
// returned and the context's error is.
func (d *ExactDetector) Detect(ctx context.Context, records []*FileRecord, onProgress ProgressCallback) ([]*DuplicateGroup, error) {
	var candidates []*sizeBucket
	total := 0
	for _, b := range bucketBySize(records) {
		if len(b.records) < 2 {
			continue
		}
		candidates = append(candidates, b)
		total += len(b.records)
	}

	jobs := make([]*FileRecord, 0, total)
	for _, b := range candidates {
		jobs = append(jobs, b.records...)
	}
	hashes := make([]string, len(jobs))

	var processed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)

	idx := 0
submit:
	for _, b := range candidates {
		if gctx.Err() != nil {
			break
		}
		for range b.records {
			if gctx.Err() != nil {
				break submit
			}
			i := idx
			idx++
			g.Go(func() (err error) {
				defer func() {
					if r := recover(); r != nil {
						err = fmt.Errorf("hashing %s panicked: %v", jobs[i].Path, r)
					}
				}()
				if err := gctx.Err(); err != nil {
					return err
				}
				sum, err := d.hasher.HashFile(jobs[i].Path)
				if err != nil {
					d.logger.Debug("skipping unhashable file", "path", jobs[i].Path, "error", err)
				} else {
					hashes[i] = sum
				}
				n := processed.Add(1)
				if onProgress != nil {
					onProgress(int(n), total)
				}
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for i, rec := range jobs {
		rec.ContentHash = hashes[i]
	}

	var groups []*DuplicateGroup
	for _, b := range candidates {
		for _, members := range groupByHash(b.records) {
			if len(members) >= 2 {
				groups = append(groups, NewDuplicateGroup(members))
			}
		}
	}

	if d.verify {
		verified, err := d.verifyGroups(ctx, groups)
		if err != nil {
			return nil, err
		}
		groups = verified
	}

	d.logger.Debug("exact detection complete", "candidates", total, "groups", len(groups))
	return groups, nil
}

// groupByHash splits a size bucket by content hash, dropping unhashed
// records and keeping first-appearance order.
func groupByHash(records []*FileRecord) [][]*FileRecord {
	index := make(map[string]int)
	var out [][]*FileRecord
	for _, rec := range records {
		if rec.ContentHash == "" {
			continue
		}
		i, ok := index[rec.ContentHash]
		if !ok {
			i = len(out)
			index[rec.ContentHash] = i
			out = append(out, nil)
		}
		out[i] = append(out[i], rec)
	}
	return out
}

// verifyGroups compares every member against the group's first member.
// Members that differ or cannot be read are dropped; groups left with a
// single member are discarded.
func (d *ExactDetector) verifyGroups(ctx context.Context, groups []*DuplicateGroup) ([]*DuplicateGroup, error) {
	survivors := make([][]*FileRecord, len(groups))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)
	for i, group := range groups {
		i, group := i, group
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			ref := group.Files[0]
			kept := []*FileRecord{ref}
			for _, other := range group.Files[1:] {
				if err := gctx.Err(); err != nil {
					return err
				}
				same, err := d.hasher.Equal(ref.Path, other.Path)
				if err != nil {
					d.logger.Debug("verification failed", "reference", ref.Path, "path", other.Path, "error", err)
					continue
				}
				if !same {
					d.logger.Warn("hash collision rejected by verification", "reference", ref.Path, "path", other.Path)
					continue
				}
				kept = append(kept, other)
			}
			survivors[i] = kept
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []*DuplicateGroup
	for i, group := range groups {
		if len(survivors[i]) < 2 {
			continue
		}
		group.Files = survivors[i]
		out = append(out, group)
	}
	return out, nil
}
