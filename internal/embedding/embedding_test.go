package embedding

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"
)

func encodePNG(t *testing.T, width, height int, shade func(x, y int) uint8) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetGray(x, y, color.Gray{Y: shade(x, y)})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func ramp(width int) func(x, y int) uint8 {
	return func(x, _ int) uint8 { return uint8(x * 255 / (width - 1)) }
}

func stripes(x, _ int) uint8 {
	if (x/10)%2 == 0 {
		return 0
	}
	return 255
}

// =============================================================================
// Distance Tests
// =============================================================================

func TestDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{0.5, -0.5}, []float32{0.5, -0.5}, 0},
		{"empty", nil, nil, 0},
		{"opposite corners", []float32{1, 1, 1, 1}, []float32{-1, -1, -1, -1}, 2},
		{"one axis", []float32{1, 0, 0, 0}, []float32{0, 0, 0, 0}, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Distance = %v, want %v", got, tt.want)
			}
			if back := Distance(tt.b, tt.a); math.Abs(back-got) > 1e-12 {
				t.Errorf("Distance not symmetric: %v vs %v", got, back)
			}
		})
	}
}

func TestDistanceDimensionMismatch(t *testing.T) {
	if d := Distance([]float32{1}, []float32{1, 2}); !math.IsInf(d, 1) {
		t.Errorf("Distance with mismatched dims = %v, want +Inf", d)
	}
}

// =============================================================================
// GradientProvider Tests
// =============================================================================

func TestGradientProviderDimension(t *testing.T) {
	p := NewGradientProvider()
	vec, err := p.Embed(context.Background(), encodePNG(t, 90, 80, ramp(90)))
	if err != nil {
		t.Fatalf("Embed error: %v", err)
	}
	if len(vec) != Dimension {
		t.Fatalf("len(vec) = %d, want %d", len(vec), Dimension)
	}
	for i, v := range vec {
		if v < -1 || v > 1 {
			t.Errorf("vec[%d] = %v out of [-1, 1]", i, v)
		}
	}
}

func TestGradientProviderSimilarAndDifferent(t *testing.T) {
	p := NewGradientProvider()
	ctx := context.Background()

	small, err := p.Embed(ctx, encodePNG(t, 90, 80, ramp(90)))
	if err != nil {
		t.Fatal(err)
	}
	large, err := p.Embed(ctx, encodePNG(t, 180, 160, ramp(180)))
	if err != nil {
		t.Fatal(err)
	}
	striped, err := p.Embed(ctx, encodePNG(t, 90, 80, stripes))
	if err != nil {
		t.Fatal(err)
	}

	if d := Distance(small, large); d > 0.05 {
		t.Errorf("resized copy distance = %v, want <= 0.05", d)
	}
	if d := Distance(small, striped); d < 0.5 {
		t.Errorf("different image distance = %v, want >= 0.5", d)
	}
}

func TestGradientProviderRejectsNonImage(t *testing.T) {
	if _, err := NewGradientProvider().Embed(context.Background(), []byte("not an image")); err == nil {
		t.Error("expected decode error")
	}
}

func TestGradientProviderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewGradientProvider().Embed(ctx, encodePNG(t, 10, 10, ramp(10))); err == nil {
		t.Error("expected context error")
	}
}
