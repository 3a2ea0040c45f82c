package preprocess

import (
	"math"
	"testing"

	"github.com/5usu/depthgo/internal/backend/cpu"
	"github.com/5usu/depthgo/internal/nn"
	"github.com/5usu/depthgo/internal/tensor"
	"github.com/5usu/depthgo/internal/zoo"
)

// probeNet records the tensor it receives and returns it unchanged.
type probeNet struct {
	received *tensor.Tensor[float32]
}

func (p *probeNet) Forward(input *tensor.Tensor[float32]) *tensor.Tensor[float32] {
	p.received = input
	return input
}

func (p *probeNet) Parameters() []*nn.Parameter { return nil }
func (p *probeNet) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}
func (p *probeNet) LoadStateDict(map[string]*tensor.RawTensor) error { return nil }

func standardized(v float32, channel int) float32 {
	mean := []float32{0.485, 0.456, 0.406}
	std := []float32{0.229, 0.224, 0.225}
	return (v - mean[channel]) / std[channel]
}

func input2x2(t *testing.T, backend tensor.Backend, fill float32) *tensor.Tensor[float32] {
	t.Helper()
	x, err := tensor.FromSlice([]float32{
		fill, fill, fill, fill,
		fill, fill, fill, fill,
		fill, fill, fill, fill,
	}, tensor.Shape{1, 3, 2, 2}, backend)
	if err != nil {
		t.Fatal(err)
	}
	return x
}

// TestForward_UnitRangeUntouched: inputs already in [0,1] pass through
// without the 255 division.
func TestForward_UnitRangeUntouched(t *testing.T) {
	backend := cpu.New()
	probe := &probeNet{}
	w := NewWrapper(probe, 2, 2)

	w.Forward(input2x2(t, backend, 0.5))

	got := probe.received.At(0, 1, 0, 0)
	want := standardized(0.5, 1)
	if math.Abs(float64(got-want)) > 1e-5 {
		t.Errorf("channel 1 = %g, want %g (no rescale expected)", got, want)
	}
}

// TestForward_ByteRangeRescaled: inputs above 1 are treated as 0-255
// and divided by 255 before standardization.
func TestForward_ByteRangeRescaled(t *testing.T) {
	backend := cpu.New()
	probe := &probeNet{}
	w := NewWrapper(probe, 2, 2)

	w.Forward(input2x2(t, backend, 127.5))

	got := probe.received.At(0, 0, 0, 0)
	want := standardized(0.5, 0)
	if math.Abs(float64(got-want)) > 1e-5 {
		t.Errorf("channel 0 = %g, want %g (rescale expected)", got, want)
	}
}

// TestForward_NonFiniteSkipsRescale: any NaN or Inf element disables
// the range check, so even values far above 1 are not divided. This
// asymmetry is long-standing observable behavior; keep it.
func TestForward_NonFiniteSkipsRescale(t *testing.T) {
	backend := cpu.New()
	probe := &probeNet{}
	w := NewWrapper(probe, 2, 2)

	x := input2x2(t, backend, 255)
	x.Set(float32(math.NaN()), 0, 2, 1, 1)
	w.Forward(x)

	got := probe.received.At(0, 0, 0, 0)
	want := standardized(255, 0) // not 255/255
	if math.Abs(float64(got-want)) > 1e-3 {
		t.Errorf("channel 0 = %g, want %g (rescale must be skipped)", got, want)
	}
}

// TestForward_ResizesToTarget: arbitrary input resolutions reach the
// network at the wrapper's fixed size.
func TestForward_ResizesToTarget(t *testing.T) {
	backend := cpu.New()
	probe := &probeNet{}
	w := NewWrapper(probe, 8, 8)

	x := tensor.Zeros[float32](tensor.Shape{1, 3, 30, 17}, backend)
	w.Forward(x)

	want := tensor.Shape{1, 3, 8, 8}
	if !probe.received.Shape().Equal(want) {
		t.Errorf("network received %v, want %v", probe.received.Shape(), want)
	}

	h, wid := w.TargetSize()
	if h != 8 || wid != 8 {
		t.Errorf("TargetSize = (%d, %d), want (8, 8)", h, wid)
	}
}

// TestForward_OutputAlwaysRank4 normalizes both network output ranks
// to [1,1,h,w].
func TestForward_OutputAlwaysRank4(t *testing.T) {
	backend := cpu.New()

	for _, archID := range []string{zoo.ArchMiDaSSmall, zoo.ArchDPTSwin2Tiny256, zoo.ArchDPTLeViT224} {
		t.Run(archID, func(t *testing.T) {
			net, err := zoo.Acquire(archID, backend)
			if err != nil {
				t.Fatal(err)
			}
			w := NewWrapper(net, 16, 16)

			x := tensor.Zeros[float32](tensor.Shape{1, 3, 20, 20}, backend)
			y := w.Forward(x)

			shape := y.Shape()
			if len(shape) != 4 || shape[0] != 1 || shape[1] != 1 {
				t.Errorf("output shape %v, want [1, 1, h, w]", shape)
			}
		})
	}
}

// TestVerify passes on a healthy backend.
func TestVerify(t *testing.T) {
	if err := Verify(); err != nil {
		t.Errorf("Verify: %v", err)
	}
}
