// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides dense float64 tensors for the nnfs library.
//
// # Overview
//
// A Tensor is a flat []float64 buffer with a Shape. This package provides:
//   - Creation: Zeros, Ones, Full, FromSlice, FromFunc, RandUniform, RandNormal
//   - NumPy-style broadcasting for Add, Sub, Mul and Div
//   - Matrix multiplication (2-D, N-D x 2-D and batched)
//   - Transpose, Reshape and reductions (Sum, Mean, ArgMax)
//   - Diagnostics: Checksum, HasNaNOrInf, AllClose
//
// # Basic Usage
//
//	import "github.com/born-ml/nnfs/tensor"
//
//	func main() {
//	    x, _ := tensor.FromSlice([]float64{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
//	    b, _ := tensor.FromSlice([]float64{10, 20, 30}, tensor.Shape{3})
//
//	    y, _ := x.Add(b)          // broadcast over rows
//	    w := tensor.Ones(tensor.Shape{3, 2})
//	    z, _ := x.MatMul(w)       // [2, 2]
//	    fmt.Println(y, z.ArgMax())
//	}
//
// # Broadcasting
//
// Shapes are aligned from the right; a dimension of size 1 stretches to match
// the other operand and missing leading dimensions count as 1:
//
//	[2, 3] + [3]    → [2, 3]
//	[4, 1] * [1, 5] → [4, 5]
//	[2, 3] - [2]    → ErrShapeMismatch
//
// # Mutation
//
// Every operation returns a new Tensor. Only the InPlace methods, CopyFrom
// and Fill modify their receiver; optimizers use them to update parameters.
//
// # Randomness
//
// Random constructors take an explicit *rand.Rand so runs are reproducible
// for a given seed.
package tensor
