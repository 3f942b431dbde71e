// Package tensor provides the dense float64 tensor used by every layer,
// loss and optimizer of the nnfs framework.
//
// A Tensor owns a flat row-major buffer and a Shape. Every operation returns
// a new Tensor; the only mutating methods are the explicit *InPlace helpers,
// Set, Fill and CopyFrom, which the optimizers rely on to update parameters
// without reallocating them.
package tensor

import (
	"fmt"
	"strings"
)

// Tensor is a dense multi-dimensional array of float64 values.
//
// Invariant: len(data) == shape.NumElements().
//
// Example:
//
//	x := tensor.Zeros(tensor.Shape{3, 4})
//	y := tensor.Ones(tensor.Shape{1, 4})
//	z, err := x.Add(y) // broadcast over the first dimension
type Tensor struct {
	shape Shape
	data  []float64
}

// newTensor wraps data without copying it. Callers guarantee the invariant.
func newTensor(shape Shape, data []float64) *Tensor {
	return &Tensor{shape: shape, data: data}
}

// Shape returns a copy of the tensor's shape.
func (t *Tensor) Shape() Shape {
	return t.shape.Clone()
}

// Rank returns the number of dimensions.
func (t *Tensor) Rank() int {
	return len(t.shape)
}

// Dim returns the size of dimension i. Negative indices count from the end.
func (t *Tensor) Dim(i int) int {
	if i < 0 {
		i += len(t.shape)
	}
	return t.shape[i]
}

// Len returns the total number of elements.
func (t *Tensor) Len() int {
	return len(t.data)
}

// Data returns the underlying buffer (zero-copy).
//
// WARNING: Modifications to the returned slice will modify the tensor.
func (t *Tensor) Data() []float64 {
	return t.data
}

// Item returns the value of a single-element tensor.
// Panics if the tensor holds more than one element.
func (t *Tensor) Item() float64 {
	if len(t.data) != 1 {
		panic(fmt.Sprintf("Item() only works for single-element tensors, got shape %v", t.shape))
	}
	return t.data[0]
}

// offset computes the flat index for the given indices.
func (t *Tensor) offset(indices []int) int {
	if len(indices) != len(t.shape) {
		panic(fmt.Sprintf("expected %d indices, got %d", len(t.shape), len(indices)))
	}

	offset := 0
	stride := 1
	for i := len(indices) - 1; i >= 0; i-- {
		idx := indices[i]
		if idx < 0 || idx >= t.shape[i] {
			panic(fmt.Sprintf("index %d out of bounds for dimension %d (size %d)", idx, i, t.shape[i]))
		}
		offset += idx * stride
		stride *= t.shape[i]
	}
	return offset
}

// At returns the element at the given indices.
// Panics if indices are out of bounds.
//
// Example:
//
//	t := tensor.Zeros(tensor.Shape{3, 4})
//	value := t.At(1, 2) // Row 1, column 2
func (t *Tensor) At(indices ...int) float64 {
	return t.data[t.offset(indices)]
}

// Set sets the element at the given indices.
// Panics if indices are out of bounds.
func (t *Tensor) Set(value float64, indices ...int) {
	t.data[t.offset(indices)] = value
}

// Clone creates a deep copy of the tensor.
func (t *Tensor) Clone() *Tensor {
	data := make([]float64, len(t.data))
	copy(data, t.data)
	return newTensor(t.shape.Clone(), data)
}

// Row returns a copy of the i-th slice along the first dimension.
//
//	x.Shape() == [32, 1, 28, 28] → x.Row(3).Shape() == [1, 28, 28]
func (t *Tensor) Row(i int) *Tensor {
	if len(t.shape) == 0 || i < 0 || i >= t.shape[0] {
		panic(fmt.Sprintf("row %d out of bounds for shape %v", i, t.shape))
	}
	size := len(t.data) / t.shape[0]
	data := make([]float64, size)
	copy(data, t.data[i*size:(i+1)*size])
	return newTensor(t.shape[1:].Clone(), data)
}

// String returns a short human-readable representation of the tensor.
func (t *Tensor) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Tensor%v", []int(t.shape))
	if len(t.data) <= 8 {
		fmt.Fprintf(&b, "%v", t.data)
	}
	return b.String()
}
