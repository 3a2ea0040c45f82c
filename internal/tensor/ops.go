package tensor

// Add performs element-wise addition with broadcasting.
func (t *Tensor[T]) Add(other *Tensor[T]) *Tensor[T] {
	result := t.backend.Add(t.raw, other.raw)
	return New[T](result, t.backend)
}

// Sub performs element-wise subtraction with broadcasting.
func (t *Tensor[T]) Sub(other *Tensor[T]) *Tensor[T] {
	result := t.backend.Sub(t.raw, other.raw)
	return New[T](result, t.backend)
}

// Mul performs element-wise multiplication with broadcasting.
func (t *Tensor[T]) Mul(other *Tensor[T]) *Tensor[T] {
	result := t.backend.Mul(t.raw, other.raw)
	return New[T](result, t.backend)
}

// Div performs element-wise division with broadcasting.
func (t *Tensor[T]) Div(other *Tensor[T]) *Tensor[T] {
	result := t.backend.Div(t.raw, other.raw)
	return New[T](result, t.backend)
}

// AddScalar adds a scalar to every element.
func (t *Tensor[T]) AddScalar(s float64) *Tensor[T] {
	result := t.backend.AddScalar(t.raw, s)
	return New[T](result, t.backend)
}

// MulScalar multiplies every element by a scalar.
func (t *Tensor[T]) MulScalar(s float64) *Tensor[T] {
	result := t.backend.MulScalar(t.raw, s)
	return New[T](result, t.backend)
}

// DivScalar divides every element by a scalar.
func (t *Tensor[T]) DivScalar(s float64) *Tensor[T] {
	result := t.backend.DivScalar(t.raw, s)
	return New[T](result, t.backend)
}

// MatMul performs matrix multiplication: (M, K) @ (K, N) -> (M, N).
func (t *Tensor[T]) MatMul(other *Tensor[T]) *Tensor[T] {
	result := t.backend.MatMul(t.raw, other.raw)
	return New[T](result, t.backend)
}

// ReLU applies the rectifier element-wise: f(x) = max(0, x).
func (t *Tensor[T]) ReLU() *Tensor[T] {
	result := t.backend.ReLU(t.raw)
	return New[T](result, t.backend)
}

// ResizeBilinear resizes the spatial dimensions of a [N,C,H,W] tensor
// to (outH, outW) using bilinear interpolation with half-pixel centers.
func (t *Tensor[T]) ResizeBilinear(outH, outW int) *Tensor[T] {
	result := t.backend.ResizeBilinear(t.raw, outH, outW)
	return New[T](result, t.backend)
}

// Cast converts a tensor to a different element type through the backend,
// so the conversion is visible to trace recording.
func Cast[To DType, From DType](t *Tensor[From]) *Tensor[To] {
	var dummy To
	result := t.backend.Cast(t.raw, inferDataType(dummy))
	return New[To](result, t.backend)
}
