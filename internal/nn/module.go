// Package nn implements the layers, losses and layer container of the nnfs
// framework.
//
// This package provides building blocks for constructing neural networks:
//   - Layer interface: Forward/Backward contract shared by every layer
//   - Parameter: Trainable tensor paired with its gradient
//   - Dense: Fully connected layer
//   - Activation: ReLU, Sigmoid, Tanh, Softmax
//   - Conv2D and Pool2D: Spatial layers over NCHW batches
//   - Flatten and Reshape: Shape adapters
//   - Loss functions: MSE, CrossEntropy, BinaryCrossEntropy
//   - Sequential: Ordered container with shape validation
//
// Layers never cache activations on themselves. Forward returns a Context
// holding whatever Backward needs, so one layer can serve several
// independent forward passes at the same time.
package nn

import (
	"github.com/born-ml/nnfs/internal/tensor"
)

// Layer is the interface implemented by every network layer.
//
// Shapes seen by Forward and Backward are batch-first; OutputShape reasons
// about per-sample shapes (without the batch dimension).
//
// Layers can be composed into a Sequential:
//
//	seq, err := nn.NewSequential(tensor.Shape{784},
//	    dense1, nn.NewActivation(nn.ReLU),
//	    dense2, nn.NewActivation(nn.Softmax),
//	)
type Layer interface {
	// Name returns a short human-readable identifier, e.g. "dense(784→256)".
	Name() string

	// OutputShape returns the per-sample output shape for a per-sample input
	// shape, or an error wrapping ErrShapeMismatch (or ErrInvalidConfiguration
	// for impossible geometry) if the layer cannot accept it.
	OutputShape(in tensor.Shape) (tensor.Shape, error)

	// Forward computes the layer output for a batch.
	//
	// The returned Context carries the intermediates needed by Backward and
	// must be passed back unchanged.
	Forward(input *tensor.Tensor) (*tensor.Tensor, Context, error)

	// Backward consumes the Context of a previous Forward call and the
	// gradient of the loss with respect to that call's output.
	//
	// It stores parameter gradients (averaged over the batch) on the layer's
	// Parameters and returns the gradient with respect to the input.
	// A Context produced by another layer type yields ErrInvalidContext.
	Backward(ctx Context, outputGrad *tensor.Tensor) (*tensor.Tensor, error)

	// Parameters returns the trainable parameters owned by this layer.
	// Returns an empty slice for layers without parameters.
	Parameters() []*Parameter
}

// Context is the per-call state produced by Layer.Forward.
//
// The concrete type is private to each layer; only this package can
// implement it.
type Context interface {
	layer() string
}
