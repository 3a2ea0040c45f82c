package zoo

import (
	"github.com/5usu/depthgo/internal/nn"
	"github.com/5usu/depthgo/internal/tensor"
)

// depthNet is a convolutional encoder-decoder producing a
// single-channel disparity map from a [1,3,H,W] image.
//
// MiDaS-style networks return their output rank-3 ([1,H,W], channel
// dimension dropped); DPT-style networks keep it rank-4 ([1,1,h,w]).
// Both shapes appear in the wild, so the preprocessing wrapper must
// normalize the output rank itself.
type depthNet struct {
	arch  string
	body  *nn.Sequential
	rank3 bool
}

// Forward runs the encoder-decoder.
func (d *depthNet) Forward(input *tensor.Tensor[float32]) *tensor.Tensor[float32] {
	output := d.body.Forward(input)
	if d.rank3 {
		output = output.Squeeze(1)
	}
	return output
}

// Parameters returns all network parameters.
func (d *depthNet) Parameters() []*nn.Parameter {
	return d.body.Parameters()
}

// StateDict returns the network's parameter map.
func (d *depthNet) StateDict() map[string]*tensor.RawTensor {
	return d.body.StateDict()
}

// LoadStateDict loads the network's parameters.
func (d *depthNet) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	return d.body.LoadStateDict(stateDict)
}

// newMiDaSSmall builds the MiDaS_small stand-in: two stride-2 encoder
// stages, a decoder that upsamples back to input resolution, rank-3
// output at full resolution.
func newMiDaSSmall(backend tensor.Backend) *depthNet {
	return &depthNet{
		arch: ArchMiDaSSmall,
		body: nn.NewSequential(
			nn.NewConv2D(3, 16, 3, 2, 1, true, backend),
			nn.NewReLU(),
			nn.NewConv2D(16, 32, 3, 2, 1, true, backend),
			nn.NewReLU(),
			nn.NewUpsample(2),
			nn.NewConv2D(32, 16, 3, 1, 1, true, backend),
			nn.NewReLU(),
			nn.NewUpsample(2),
			nn.NewConv2D(16, 1, 3, 1, 1, true, backend),
			nn.NewReLU(),
		),
		rank3: true,
	}
}

// newDPTSwin2Tiny256 builds the DPT_Swin2_Tiny_256 stand-in: wider
// encoder, rank-4 output at stride 2.
func newDPTSwin2Tiny256(backend tensor.Backend) *depthNet {
	return &depthNet{
		arch: ArchDPTSwin2Tiny256,
		body: nn.NewSequential(
			nn.NewConv2D(3, 24, 3, 2, 1, true, backend),
			nn.NewReLU(),
			nn.NewConv2D(24, 48, 3, 2, 1, true, backend),
			nn.NewReLU(),
			nn.NewUpsample(2),
			nn.NewConv2D(48, 24, 3, 1, 1, true, backend),
			nn.NewReLU(),
			nn.NewConv2D(24, 1, 3, 1, 1, true, backend),
			nn.NewReLU(),
		),
		rank3: false,
	}
}

// newDPTLeViT224 builds the DPT_LeViT_224 stand-in: narrower than the
// Swin variant, rank-4 output at stride 2.
func newDPTLeViT224(backend tensor.Backend) *depthNet {
	return &depthNet{
		arch: ArchDPTLeViT224,
		body: nn.NewSequential(
			nn.NewConv2D(3, 20, 3, 2, 1, true, backend),
			nn.NewReLU(),
			nn.NewConv2D(20, 40, 3, 2, 1, true, backend),
			nn.NewReLU(),
			nn.NewUpsample(2),
			nn.NewConv2D(40, 1, 3, 1, 1, true, backend),
			nn.NewReLU(),
		),
		rank3: false,
	}
}
