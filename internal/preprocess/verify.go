package preprocess

import (
	"fmt"
	"math"

	"github.com/5usu/depthgo/internal/backend/cpu"
	"github.com/5usu/depthgo/internal/tensor"
)

// Verify runs a golden-value self-check of the preprocessing kernels.
//
// The exporter calls this at startup: an artifact traced against a
// broken resize or broadcast kernel would bake the wrong math into
// every inference the deployed model ever performs, so a failure here
// must abort the export before any model is acquired.
func Verify() error {
	backend := cpu.New()

	// 2x2 ramp upscaled to 4x4. Expected values are the hand-computed
	// bilinear interpolation with half-pixel centers and edge clamping.
	input, err := tensor.FromSlice([]float32{0, 1, 2, 3}, tensor.Shape{1, 1, 2, 2}, backend)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}

	got := input.ResizeBilinear(4, 4)
	want := []float32{
		0, 0.25, 0.75, 1,
		0.5, 0.75, 1.25, 1.5,
		1.5, 1.75, 2.25, 2.5,
		2, 2.25, 2.75, 3,
	}
	for i, v := range got.Data() {
		if math.Abs(float64(v-want[i])) > 1e-5 {
			return fmt.Errorf("verify: bilinear resize mismatch at %d: got %g, want %g", i, v, want[i])
		}
	}

	// Channel-constant broadcast across spatial dimensions.
	img := tensor.Ones[float32](tensor.Shape{1, 3, 2, 2}, backend)
	shift, err := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{1, 3, 1, 1}, backend)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	diff := img.Sub(shift)
	wantCh := []float32{0, -1, -2}
	for c := 0; c < 3; c++ {
		if v := diff.At(0, c, 1, 1); math.Abs(float64(v-wantCh[c])) > 1e-6 {
			return fmt.Errorf("verify: broadcast subtract mismatch on channel %d: got %g, want %g", c, v, wantCh[c])
		}
	}

	return nil
}
