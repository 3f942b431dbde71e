// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/born-ml/nnfs/internal/nn"
	"github.com/born-ml/nnfs/tensor"
)

// Layer is the interface implemented by every network layer.
//
// Methods:
//
//	Name() string
//	OutputShape(in tensor.Shape) (tensor.Shape, error)
//	Forward(input *tensor.Tensor) (*tensor.Tensor, Context, error)
//	Backward(ctx Context, gradOutput *tensor.Tensor) (*tensor.Tensor, error)
//	Parameters() []*Parameter
//
// Custom layers are not supported: Context is sealed.
type Layer = nn.Layer

// Context is the opaque record a Layer's Forward hands to its Backward.
type Context = nn.Context

// Sequential chains layers, validating shapes at construction.
type Sequential = nn.Sequential

// Pass holds the per-layer contexts of one Sequential.Forward call.
type Pass = nn.Pass

// NewSequential creates a Sequential for samples of inputShape.
//
// Returns an error wrapping ErrShapeMismatch naming the first layer that
// cannot accept its predecessor's output.
//
// Example:
//
//	model, err := nn.NewSequential(tensor.Shape{2},
//	    dense1, nn.NewActivation(nn.Sigmoid),
//	    dense2, nn.NewActivation(nn.Sigmoid),
//	)
func NewSequential(inputShape tensor.Shape, layers ...Layer) (*Sequential, error) {
	return nn.NewSequential(inputShape, layers...)
}
