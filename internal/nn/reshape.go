package nn

import (
	"fmt"

	"github.com/born-ml/nnfs/internal/tensor"
)

type reshapeContext struct {
	inputShape tensor.Shape
}

func (reshapeContext) layer() string { return "reshape" }

// Flatten collapses every per-sample dimension into one:
// [batch, C, H, W] → [batch, C*H*W].
type Flatten struct{}

// NewFlatten creates a new Flatten layer.
func NewFlatten() *Flatten {
	return &Flatten{}
}

// Name implements Layer.
func (f *Flatten) Name() string { return "flatten" }

// OutputShape implements Layer.
func (f *Flatten) OutputShape(in tensor.Shape) (tensor.Shape, error) {
	if len(in) == 0 {
		return nil, fmt.Errorf("%w: flatten needs a per-sample shape", ErrShapeMismatch)
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return tensor.Shape{in.NumElements()}, nil
}

// Forward implements Layer.
func (f *Flatten) Forward(input *tensor.Tensor) (*tensor.Tensor, Context, error) {
	if input.Rank() < 2 {
		return nil, nil, fmt.Errorf("%w: flatten expects [batch, ...], got %v", ErrShapeMismatch, input.Shape())
	}
	out, err := input.Reshape(input.Dim(0), -1)
	if err != nil {
		return nil, nil, err
	}
	return out, reshapeContext{inputShape: input.Shape()}, nil
}

// Backward reshapes the gradient back to the input shape.
func (f *Flatten) Backward(ctx Context, outputGrad *tensor.Tensor) (*tensor.Tensor, error) {
	return reshapeBack(f.Name(), ctx, outputGrad)
}

// Parameters returns an empty slice.
func (f *Flatten) Parameters() []*Parameter { return nil }

// Reshape changes the per-sample shape without touching values.
//
// Example:
//
//	// MNIST rows stored flat, fed to a convolution
//	r := nn.NewReshape(1, 28, 28) // [batch, 784] → [batch, 1, 28, 28]
type Reshape struct {
	dims tensor.Shape
}

// NewReshape creates a Reshape layer producing per-sample shape dims.
// The element count is checked when the layer joins a Sequential.
func NewReshape(dims ...int) *Reshape {
	return &Reshape{dims: tensor.Shape(dims).Clone()}
}

// Name implements Layer.
func (r *Reshape) Name() string { return fmt.Sprintf("reshape%v", []int(r.dims)) }

// OutputShape implements Layer. Returns ErrElementCountMismatch if in and
// the target hold a different number of elements.
func (r *Reshape) OutputShape(in tensor.Shape) (tensor.Shape, error) {
	if err := r.dims.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidConfiguration, err)
	}
	if in.NumElements() != r.dims.NumElements() {
		return nil, fmt.Errorf("%w: %s cannot take %v", ErrElementCountMismatch, r.Name(), in)
	}
	return r.dims.Clone(), nil
}

// Forward implements Layer.
func (r *Reshape) Forward(input *tensor.Tensor) (*tensor.Tensor, Context, error) {
	if input.Rank() < 1 {
		return nil, nil, fmt.Errorf("%w: reshape expects [batch, ...], got %v", ErrShapeMismatch, input.Shape())
	}
	out, err := input.Reshape(r.dims.WithBatch(input.Dim(0))...)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", r.Name(), err)
	}
	return out, reshapeContext{inputShape: input.Shape()}, nil
}

// Backward reshapes the gradient back to the input shape.
func (r *Reshape) Backward(ctx Context, outputGrad *tensor.Tensor) (*tensor.Tensor, error) {
	return reshapeBack(r.Name(), ctx, outputGrad)
}

// Parameters returns an empty slice.
func (r *Reshape) Parameters() []*Parameter { return nil }

func reshapeBack(name string, ctx Context, outputGrad *tensor.Tensor) (*tensor.Tensor, error) {
	c, ok := ctx.(reshapeContext)
	if !ok {
		return nil, fmt.Errorf("%w: %s received %T", ErrInvalidContext, name, ctx)
	}
	return outputGrad.Reshape(c.inputShape...)
}
