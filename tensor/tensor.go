// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"math/rand"

	"github.com/born-ml/nnfs/internal/tensor"
)

// Type aliases for public API

// Tensor is a dense float64 tensor.
type Tensor = tensor.Tensor

// Shape represents tensor dimensions.
type Shape = tensor.Shape

// Errors

var (
	// ErrShapeMismatch is returned for incompatible shapes.
	ErrShapeMismatch = tensor.ErrShapeMismatch

	// ErrElementCountMismatch is returned by Reshape when sizes differ.
	ErrElementCountMismatch = tensor.ErrElementCountMismatch
)

// Creation functions

// Zeros creates a tensor filled with zeros.
//
// Example:
//
//	x := tensor.Zeros(tensor.Shape{2, 3})
func Zeros(shape Shape) *Tensor {
	return tensor.Zeros(shape)
}

// Ones creates a tensor filled with ones.
func Ones(shape Shape) *Tensor {
	return tensor.Ones(shape)
}

// Full creates a tensor filled with value.
func Full(shape Shape, value float64) *Tensor {
	return tensor.Full(shape, value)
}

// FromSlice creates a tensor from a copy of data.
//
// Returns ErrElementCountMismatch if len(data) does not match the shape.
//
// Example:
//
//	x, err := tensor.FromSlice([]float64{1, 2, 3, 4}, tensor.Shape{2, 2})
func FromSlice(data []float64, shape Shape) (*Tensor, error) {
	return tensor.FromSlice(data, shape)
}

// FromFunc creates a tensor whose i-th element (row-major) is fn(i).
func FromFunc(shape Shape, fn func(i int) float64) *Tensor {
	return tensor.FromFunc(shape, fn)
}

// RandUniform creates a tensor with values drawn uniformly from [low, high).
func RandUniform(shape Shape, low, high float64, rng *rand.Rand) *Tensor {
	return tensor.RandUniform(shape, low, high, rng)
}

// RandNormal creates a tensor with values drawn from N(mean, std²).
//
// Example:
//
//	rng := rand.New(rand.NewSource(42))
//	w := tensor.RandNormal(tensor.Shape{128, 784}, 0, 0.01, rng)
func RandNormal(shape Shape, mean, std float64, rng *rand.Rand) *Tensor {
	return tensor.RandNormal(shape, mean, std, rng)
}

// BroadcastShapes returns the shape two operands broadcast to, and whether
// any broadcasting is needed.
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	return tensor.BroadcastShapes(a, b)
}
