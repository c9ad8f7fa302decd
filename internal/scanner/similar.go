package scanner

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/fenilsonani/dupsweep/internal/embedding"
	"github.com/fenilsonani/dupsweep/internal/logging"
)

// compareReportInterval is how many anchors pass between comparison progress reports
const compareReportInterval = 10

// DistanceFunc measures how far apart two embeddings are; lower is more similar
type DistanceFunc func(a, b []float32) float64

// SimilarityDetector clusters images whose embeddings lie within a distance
// threshold of a group's anchor.
type SimilarityDetector struct {
	provider embedding.Provider
	distance DistanceFunc
	workers  int
	logger   logging.Logger
	readFile func(string) ([]byte, error)
}

// NewSimilarityDetector creates a SimilarityDetector using embedding.Distance.
// workers <= 0 selects DefaultWorkers.
func NewSimilarityDetector(provider embedding.Provider, workers int, logger logging.Logger) *SimilarityDetector {
	if workers <= 0 {
		workers = DefaultWorkers()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &SimilarityDetector{
		provider: provider,
		distance: embedding.Distance,
		workers:  workers,
		logger:   logger,
		readFile: os.ReadFile,
	}
}

// WithDistance replaces the distance function
func (d *SimilarityDetector) WithDistance(fn DistanceFunc) *SimilarityDetector {
	d.distance = fn
	return d
}

// FilterImages keeps records with a recognized image extension, in order
func FilterImages(records []*FileRecord) []*FileRecord {
	allowed := make(map[string]struct{}, len(ImageExtensions))
	for _, ext := range ImageExtensions {
		allowed[ext] = struct{}{}
	}
	var out []*FileRecord
	for _, rec := range records {
		if _, ok := allowed[rec.Extension()]; ok {
			out = append(out, rec)
		}
	}
	return out
}

// Detect embeds every image in records and clusters them. onEmbed is called
// as embeddings complete; onCompare every few anchors during clustering.
// On cancellation no groups are returned and the context's error is.
func (d *SimilarityDetector) Detect(ctx context.Context, records []*FileRecord, threshold float64, onEmbed, onCompare ProgressCallback) ([]*DuplicateGroup, error) {
	images := FilterImages(records)
	if len(images) <= 1 {
		return nil, ctx.Err()
	}

	vectors, err := d.embedAll(ctx, images, onEmbed)
	if err != nil {
		return nil, err
	}

	var items []*FileRecord
	var vecs [][]float32
	for i, v := range vectors {
		if v != nil {
			items = append(items, images[i])
			vecs = append(vecs, v)
		}
	}

	return d.cluster(ctx, items, vecs, threshold, onCompare)
}

func (d *SimilarityDetector) embedAll(ctx context.Context, images []*FileRecord, onEmbed ProgressCallback) ([][]float32, error) {
	vectors := make([][]float32, len(images))
	total := len(images)
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)
	for i, rec := range images {
		i, rec := i, rec
		if gctx.Err() != nil {
			break
		}
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("embedding %s panicked: %v", rec.Path, r)
				}
			}()
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := d.readFile(rec.Path)
			if err == nil {
				vectors[i], err = d.provider.Embed(gctx, data)
			}
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				d.logger.Debug("skipping image without embedding", "path", rec.Path, "error", err)
			}
			n := done.Add(1)
			if onEmbed != nil {
				onEmbed(int(n), total)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return vectors, nil
}

// cluster performs single-pass anchor clustering: each unassigned item in
// order seeds a group and absorbs every later unassigned item within
// threshold of the seed. Members are never compared with each other, so two
// members of one group may be farther apart than threshold.
func (d *SimilarityDetector) cluster(ctx context.Context, items []*FileRecord, vecs [][]float32, threshold float64, onCompare ProgressCallback) ([]*DuplicateGroup, error) {
	n := len(items)
	assigned := make([]bool, n)
	var groups []*DuplicateGroup

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if onCompare != nil && i%compareReportInterval == 0 {
			onCompare(i+1, n)
		}
		if assigned[i] {
			continue
		}
		assigned[i] = true

		members := []*FileRecord{items[i]}
		for j := i + 1; j < n; j++ {
			if assigned[j] {
				continue
			}
			if d.distance(vecs[i], vecs[j]) <= threshold {
				members = append(members, items[j])
				assigned[j] = true
			}
		}

		if len(members) >= 2 {
			groups = append(groups, NewDuplicateGroup(members))
		}
	}

	d.logger.Debug("similarity clustering complete", "images", n, "groups", len(groups))
	return groups, nil
}
