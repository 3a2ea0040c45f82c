package tensor

// Backend defines the interface that compute backends must implement.
// Backends handle the actual computation for tensor operations.
//
// There are two implementations:
//   - cpu: pure Go with gonum-backed matrix kernels
//   - trace: a decorator that executes on an inner backend while
//     recording every operation into a static graph
//
// Backend dispatch is dynamic (an interface value carried by each
// tensor) rather than a type parameter: tracing works by handing a
// module an input whose backend records, so the backend of a forward
// pass is decided by the caller at run time.
type Backend interface {
	// Element-wise binary operations with broadcasting
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// Scalar operations (element-wise with scalar)
	AddScalar(x *RawTensor, scalar float64) *RawTensor
	MulScalar(x *RawTensor, scalar float64) *RawTensor
	DivScalar(x *RawTensor, scalar float64) *RawTensor

	// Matrix operations
	MatMul(a, b *RawTensor) *RawTensor

	// Convolution: input [N,C,H,W], kernel [O,C,kH,kW]
	Conv2D(input, kernel *RawTensor, stride, padding int) *RawTensor

	// Activation
	ReLU(x *RawTensor) *RawTensor

	// Spatial resize with bilinear interpolation, half-pixel centers
	// (align_corners=false semantics).
	ResizeBilinear(x *RawTensor, outH, outW int) *RawTensor

	// Shape operations
	Reshape(x *RawTensor, newShape Shape) *RawTensor
	Unsqueeze(x *RawTensor, dim int) *RawTensor
	Squeeze(x *RawTensor, dim int) *RawTensor

	// Type conversion
	Cast(x *RawTensor, dtype DataType) *RawTensor

	// Metadata
	Name() string
}
