package tensor

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Fill sets every element to value.
func (t *Tensor) Fill(value float64) {
	for i := range t.data {
		t.data[i] = value
	}
}

// CopyFrom overwrites the tensor's elements with those of src.
// Shapes must match exactly.
func (t *Tensor) CopyFrom(src *Tensor) error {
	if !t.shape.Equal(src.shape) {
		return fmt.Errorf("%w: copy from %v into %v", ErrShapeMismatch, src.shape, t.shape)
	}
	copy(t.data, src.data)
	return nil
}

// AddScaledInPlace performs t += alpha * other.
// Shapes must match exactly; this is the hot path of every optimizer step.
func (t *Tensor) AddScaledInPlace(alpha float64, other *Tensor) error {
	if !t.shape.Equal(other.shape) {
		return fmt.Errorf("%w: add scaled %v into %v", ErrShapeMismatch, other.shape, t.shape)
	}
	floats.AddScaled(t.data, alpha, other.data)
	return nil
}

// AddInPlace performs t += other. Shapes must match exactly.
func (t *Tensor) AddInPlace(other *Tensor) error {
	if !t.shape.Equal(other.shape) {
		return fmt.Errorf("%w: add %v into %v", ErrShapeMismatch, other.shape, t.shape)
	}
	floats.Add(t.data, other.data)
	return nil
}

// ScaleInPlace performs t *= c.
func (t *Tensor) ScaleInPlace(c float64) {
	floats.Scale(c, t.data)
}
