package tensor

import "testing"

// TestShape_NumElements verifies element counting.
func TestShape_NumElements(t *testing.T) {
	tests := []struct {
		shape Shape
		want  int
	}{
		{Shape{}, 1},
		{Shape{4}, 4},
		{Shape{2, 3}, 6},
		{Shape{1, 3, 256, 256}, 196608},
	}
	for _, tt := range tests {
		if got := tt.shape.NumElements(); got != tt.want {
			t.Errorf("%v.NumElements() = %d, want %d", tt.shape, got, tt.want)
		}
	}
}

// TestShape_ComputeStrides verifies row-major stride computation.
func TestShape_ComputeStrides(t *testing.T) {
	strides := Shape{1, 3, 4, 4}.ComputeStrides()
	want := []int{48, 16, 4, 1}
	for i := range want {
		if strides[i] != want[i] {
			t.Fatalf("strides = %v, want %v", strides, want)
		}
	}
}

// TestBroadcastShapes verifies NumPy-style broadcasting rules.
func TestBroadcastShapes(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Shape
		want     Shape
		needs    bool
		wantsErr bool
	}{
		{"equal", Shape{2, 3}, Shape{2, 3}, Shape{2, 3}, false, false},
		{"channel vector", Shape{1, 3, 4, 4}, Shape{1, 3, 1, 1}, Shape{1, 3, 4, 4}, true, false},
		{"rank promotion", Shape{4, 4}, Shape{1, 1, 4, 4}, Shape{1, 1, 4, 4}, true, false},
		{"scalar-ish", Shape{1}, Shape{2, 3}, Shape{2, 3}, true, false},
		{"incompatible", Shape{2, 3}, Shape{2, 4}, nil, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, needs, err := BroadcastShapes(tt.a, tt.b)
			if tt.wantsErr {
				if err == nil {
					t.Fatalf("BroadcastShapes(%v, %v) expected error", tt.a, tt.b)
				}
				return
			}
			if err != nil {
				t.Fatalf("BroadcastShapes(%v, %v): %v", tt.a, tt.b, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("shape = %v, want %v", got, tt.want)
			}
			if needs != tt.needs {
				t.Errorf("needsBroadcast = %v, want %v", needs, tt.needs)
			}
		})
	}
}

// TestShape_Validate rejects non-positive dimensions.
func TestShape_Validate(t *testing.T) {
	if err := (Shape{2, 3}).Validate(); err != nil {
		t.Errorf("valid shape rejected: %v", err)
	}
	if err := (Shape{2, 0}).Validate(); err == nil {
		t.Error("zero dimension accepted")
	}
	if err := (Shape{-1, 3}).Validate(); err == nil {
		t.Error("negative dimension accepted")
	}
}
