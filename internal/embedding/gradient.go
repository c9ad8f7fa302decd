package embedding

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	gridWidth  = 9
	gridHeight = 8

	// Dimension is the length of vectors produced by GradientProvider
	Dimension = (gridWidth - 1) * gridHeight
)

// GradientProvider embeds an image as the horizontal brightness gradients of
// a 9x8 grayscale thumbnail, scaled to [-1, 1]. It is the continuous form of
// a difference hash: resized, recompressed or lightly edited copies land close.
type GradientProvider struct{}

var _ Provider = (*GradientProvider)(nil)

// NewGradientProvider creates a GradientProvider
func NewGradientProvider() *GradientProvider {
	return &GradientProvider{}
}

// Embed decodes data and returns its Dimension-length gradient vector
func (p *GradientProvider) Embed(ctx context.Context, data []byte) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("empty %s image", format)
	}

	thumb := image.NewGray(image.Rect(0, 0, gridWidth, gridHeight))
	draw.ApproxBiLinear.Scale(thumb, thumb.Bounds(), img, bounds, draw.Src, nil)

	vec := make([]float32, 0, Dimension)
	for y := 0; y < gridHeight; y++ {
		for x := 0; x < gridWidth-1; x++ {
			left := float32(thumb.GrayAt(x, y).Y)
			right := float32(thumb.GrayAt(x+1, y).Y)
			vec = append(vec, (left-right)/255)
		}
	}
	return vec, nil
}
