// Package embedding turns images into fixed-length feature vectors and
// measures the distance between them.
package embedding

import (
	"context"
	"math"
)

// Provider maps encoded image bytes to a fixed-length feature vector
type Provider interface {
	Embed(ctx context.Context, data []byte) ([]float32, error)
}

// Distance is the Euclidean distance divided by the square root of the
// dimension, so vectors with components in [-1, 1] yield values in [0, 2].
// Vectors of different length are infinitely far apart.
func Distance(a, b []float32) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	if len(a) == 0 {
		return 0
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum) / math.Sqrt(float64(len(a)))
}
