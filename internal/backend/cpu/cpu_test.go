package cpu

import (
	"math"
	"testing"

	"github.com/5usu/depthgo/internal/tensor"
)

func mustFromSlice(t *testing.T, data []float32, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Float32)
	if err != nil {
		t.Fatalf("NewRaw: %v", err)
	}
	copy(raw.AsFloat32(), data)
	return raw
}

func assertClose(t *testing.T, got, want []float32, tol float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range want {
		if math.Abs(float64(got[i]-want[i])) > tol {
			t.Fatalf("element %d: got %g, want %g", i, got[i], want[i])
		}
	}
}

// TestAdd_SameShape verifies simple element-wise addition.
func TestAdd_SameShape(t *testing.T) {
	b := New()
	a := mustFromSlice(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	c := mustFromSlice(t, []float32{10, 20, 30, 40}, tensor.Shape{2, 2})

	out := b.Add(a, c)
	assertClose(t, out.AsFloat32(), []float32{11, 22, 33, 44}, 0)
}

// TestSub_ChannelBroadcast verifies [1,C,1,1] constants broadcast over
// [1,C,H,W] images, the pattern used by standardization.
func TestSub_ChannelBroadcast(t *testing.T) {
	b := New()
	img := mustFromSlice(t, []float32{
		1, 1, 1, 1, // channel 0
		2, 2, 2, 2, // channel 1
		3, 3, 3, 3, // channel 2
	}, tensor.Shape{1, 3, 2, 2})
	mean := mustFromSlice(t, []float32{1, 2, 3}, tensor.Shape{1, 3, 1, 1})

	out := b.Sub(img, mean)
	assertClose(t, out.AsFloat32(), make([]float32, 12), 0)
}

// TestDiv_ChannelBroadcast verifies per-channel division.
func TestDiv_ChannelBroadcast(t *testing.T) {
	b := New()
	img := mustFromSlice(t, []float32{
		2, 4, 2, 4,
		9, 9, 9, 9,
		1, 2, 3, 4,
	}, tensor.Shape{1, 3, 2, 2})
	std := mustFromSlice(t, []float32{2, 3, 1}, tensor.Shape{1, 3, 1, 1})

	out := b.Div(img, std)
	assertClose(t, out.AsFloat32(), []float32{1, 2, 1, 2, 3, 3, 3, 3, 1, 2, 3, 4}, 1e-6)
}

// TestScalarOps verifies scalar arithmetic.
func TestScalarOps(t *testing.T) {
	b := New()
	x := mustFromSlice(t, []float32{0, 51, 102, 255}, tensor.Shape{4})

	div := b.DivScalar(x, 255)
	assertClose(t, div.AsFloat32(), []float32{0, 0.2, 0.4, 1}, 1e-6)

	mul := b.MulScalar(x, 2)
	assertClose(t, mul.AsFloat32(), []float32{0, 102, 204, 510}, 0)

	add := b.AddScalar(x, 1)
	assertClose(t, add.AsFloat32(), []float32{1, 52, 103, 256}, 0)
}

// TestReLU verifies negative clipping.
func TestReLU(t *testing.T) {
	b := New()
	x := mustFromSlice(t, []float32{-2, -0.5, 0, 0.5, 2}, tensor.Shape{5})
	out := b.ReLU(x)
	assertClose(t, out.AsFloat32(), []float32{0, 0, 0, 0.5, 2}, 0)
}

// TestConv2D_KnownValues checks a hand-computed convolution:
// summing 2x2 windows of a 3x3 ramp.
func TestConv2D_KnownValues(t *testing.T) {
	b := New()
	input := mustFromSlice(t, []float32{1, 2, 3, 4, 5, 6, 7, 8, 9}, tensor.Shape{1, 1, 3, 3})
	kernel := mustFromSlice(t, []float32{1, 1, 1, 1}, tensor.Shape{1, 1, 2, 2})

	out := b.Conv2D(input, kernel, 1, 0)
	if !out.Shape().Equal(tensor.Shape{1, 1, 2, 2}) {
		t.Fatalf("output shape = %v", out.Shape())
	}
	assertClose(t, out.AsFloat32(), []float32{12, 16, 24, 28}, 1e-5)
}

// TestConv2D_StridePadding verifies the output size formula and that
// padded positions contribute zeros.
func TestConv2D_StridePadding(t *testing.T) {
	b := New()
	input := mustFromSlice(t, []float32{1, 2, 3, 4}, tensor.Shape{1, 1, 2, 2})
	kernel := mustFromSlice(t, []float32{1, 1, 1, 1}, tensor.Shape{1, 1, 2, 2})

	// (2 + 2*1 - 2)/2 + 1 = 2
	out := b.Conv2D(input, kernel, 2, 1)
	if !out.Shape().Equal(tensor.Shape{1, 1, 2, 2}) {
		t.Fatalf("output shape = %v", out.Shape())
	}
	// Top-left window covers only element 1, etc.
	assertClose(t, out.AsFloat32(), []float32{1, 2, 3, 4}, 1e-5)
}

// TestConv2D_MultiChannel verifies channel summation.
func TestConv2D_MultiChannel(t *testing.T) {
	b := New()
	// Two channels, 1x1 image: [3] and [5].
	input := mustFromSlice(t, []float32{3, 5}, tensor.Shape{1, 2, 1, 1})
	// One output channel, 1x1 kernel with weights [2, 10].
	kernel := mustFromSlice(t, []float32{2, 10}, tensor.Shape{1, 2, 1, 1})

	out := b.Conv2D(input, kernel, 1, 0)
	assertClose(t, out.AsFloat32(), []float32{56}, 1e-5)
}

// TestResizeBilinear_Upscale checks the 2x2 -> 4x4 golden values for
// half-pixel sampling with edge clamping.
func TestResizeBilinear_Upscale(t *testing.T) {
	b := New()
	input := mustFromSlice(t, []float32{0, 1, 2, 3}, tensor.Shape{1, 1, 2, 2})

	out := b.ResizeBilinear(input, 4, 4)
	want := []float32{
		0, 0.25, 0.75, 1,
		0.5, 0.75, 1.25, 1.5,
		1.5, 1.75, 2.25, 2.5,
		2, 2.25, 2.75, 3,
	}
	assertClose(t, out.AsFloat32(), want, 1e-5)
}

// TestResizeBilinear_Downscale checks averaging on a 1x4 ramp.
func TestResizeBilinear_Downscale(t *testing.T) {
	b := New()
	input := mustFromSlice(t, []float32{0, 1, 2, 3}, tensor.Shape{1, 1, 1, 4})

	out := b.ResizeBilinear(input, 1, 2)
	// src = (dst+0.5)*2 - 0.5 -> 0.5 and 2.5
	assertClose(t, out.AsFloat32(), []float32{0.5, 2.5}, 1e-5)
}

// TestResizeBilinear_Identity verifies that resizing to the same
// resolution reproduces the input exactly.
func TestResizeBilinear_Identity(t *testing.T) {
	b := New()
	input := mustFromSlice(t, []float32{4, 8, 15, 16, 23, 42}, tensor.Shape{1, 1, 2, 3})

	out := b.ResizeBilinear(input, 2, 3)
	assertClose(t, out.AsFloat32(), input.AsFloat32(), 0)
}

// TestCast covers the conversions the pipeline performs.
func TestCast(t *testing.T) {
	b := New()

	u8, _ := tensor.NewRaw(tensor.Shape{3}, tensor.Uint8)
	copy(u8.AsUint8(), []uint8{0, 128, 255})
	f := b.Cast(u8, tensor.Float32)
	assertClose(t, f.AsFloat32(), []float32{0, 128, 255}, 0)

	f32 := mustFromSlice(t, []float32{-5, 10.7, 300}, tensor.Shape{3})
	back := b.Cast(f32, tensor.Uint8)
	got := back.AsUint8()
	if got[0] != 0 || got[1] != 10 || got[2] != 255 {
		t.Errorf("uint8 cast = %v, want [0 10 255]", got)
	}

	same := b.Cast(f32, tensor.Float32)
	same.AsFloat32()[0] = 99
	if f32.AsFloat32()[0] != -5 {
		t.Error("same-dtype cast must copy, not alias")
	}
}

// TestSqueezeUnsqueeze verifies rank manipulation round trips.
func TestSqueezeUnsqueeze(t *testing.T) {
	b := New()
	x := mustFromSlice(t, []float32{1, 2, 3, 4}, tensor.Shape{1, 2, 2})

	up := b.Unsqueeze(x, 1)
	if !up.Shape().Equal(tensor.Shape{1, 1, 2, 2}) {
		t.Fatalf("unsqueeze shape = %v", up.Shape())
	}

	down := b.Squeeze(up, 1)
	if !down.Shape().Equal(tensor.Shape{1, 2, 2}) {
		t.Fatalf("squeeze shape = %v", down.Shape())
	}

	neg := b.Unsqueeze(x, -1)
	if !neg.Shape().Equal(tensor.Shape{1, 2, 2, 1}) {
		t.Fatalf("unsqueeze(-1) shape = %v", neg.Shape())
	}
}

// TestMatMul verifies the gonum-backed multiply.
func TestMatMul(t *testing.T) {
	b := New()
	a := mustFromSlice(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	c := mustFromSlice(t, []float32{7, 8, 9, 10, 11, 12}, tensor.Shape{3, 2})

	out := b.MatMul(a, c)
	if !out.Shape().Equal(tensor.Shape{2, 2}) {
		t.Fatalf("matmul shape = %v", out.Shape())
	}
	assertClose(t, out.AsFloat32(), []float32{58, 64, 139, 154}, 1e-5)
}
