package tensor

import (
	"fmt"
	"math/rand"
)

// Zeros creates a tensor filled with zeros.
//
// Panics if the shape has a non-positive dimension; shapes passed here come
// from layer configuration that has already been validated.
//
// Example:
//
//	t := tensor.Zeros(tensor.Shape{3, 4})
func Zeros(shape Shape) *Tensor {
	if err := shape.Validate(); err != nil {
		panic(err)
	}
	return newTensor(shape.Clone(), make([]float64, shape.NumElements()))
}

// Ones creates a tensor filled with ones.
func Ones(shape Shape) *Tensor {
	return Full(shape, 1)
}

// Full creates a tensor filled with a specific value.
//
// Example:
//
//	t := tensor.Full(tensor.Shape{3, 3}, 3.14)
func Full(shape Shape, value float64) *Tensor {
	t := Zeros(shape)
	t.Fill(value)
	return t
}

// FromSlice creates a tensor from a Go slice.
// The slice is copied into the tensor's memory.
func FromSlice(data []float64, shape Shape) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("%w: shape %v requires %d elements, but got %d",
			ErrElementCountMismatch, shape, shape.NumElements(), len(data))
	}

	buf := make([]float64, len(data))
	copy(buf, data)
	return newTensor(shape.Clone(), buf), nil
}

// FromFunc creates a tensor whose i-th element (row-major) is fn(i).
//
// Example:
//
//	// [[0, 1, 2], [3, 4, 5]]
//	t := tensor.FromFunc(tensor.Shape{2, 3}, func(i int) float64 { return float64(i) })
func FromFunc(shape Shape, fn func(i int) float64) *Tensor {
	t := Zeros(shape)
	for i := range t.data {
		t.data[i] = fn(i)
	}
	return t
}

// RandUniform creates a tensor with values drawn from U(low, high) using rng.
func RandUniform(shape Shape, low, high float64, rng *rand.Rand) *Tensor {
	return FromFunc(shape, func(int) float64 {
		return low + rng.Float64()*(high-low)
	})
}

// RandNormal creates a tensor with values drawn from N(mean, std²) using rng.
func RandNormal(shape Shape, mean, std float64, rng *rand.Rand) *Tensor {
	return FromFunc(shape, func(int) float64 {
		return mean + rng.NormFloat64()*std
	})
}
