package tensor

// Reshape returns a tensor with the same data but different shape.
// The new shape must have the same number of elements.
func (t *Tensor[T]) Reshape(newShape ...int) *Tensor[T] {
	result := t.backend.Reshape(t.raw, Shape(newShape))
	return New[T](result, t.backend)
}

// Unsqueeze adds a dimension of size 1 at the specified position.
//
// Supports negative dim indexing. This is how a rank-3 depth map
// [1,H,W] becomes the canonical rank-4 [1,1,H,W].
//
// Example:
//
//	y := x.Unsqueeze(1)  // [1, H, W] -> [1, 1, H, W]
func (t *Tensor[T]) Unsqueeze(dim int) *Tensor[T] {
	result := t.backend.Unsqueeze(t.raw, dim)
	return New[T](result, t.backend)
}

// Squeeze removes a dimension of size 1 at the specified position.
//
// Panics if the dimension size is not 1. Supports negative dim indexing.
func (t *Tensor[T]) Squeeze(dim int) *Tensor[T] {
	result := t.backend.Squeeze(t.raw, dim)
	return New[T](result, t.backend)
}
