package nn

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/nnfs/internal/tensor"
)

// Dense implements a fully connected layer.
//
// Performs the transformation: y = x @ W.T + b
// where:
//   - x is the input tensor with shape [batch_size, in_features]
//   - W is the weight matrix with shape [out_features, in_features]
//   - b is the bias vector with shape [out_features]
//   - y is the output tensor with shape [batch_size, out_features]
//
// Biases are initialized to zeros.
//
// Example:
//
//	rng := rand.New(rand.NewSource(42))
//	layer, err := nn.NewDense(784, 128, nn.XavierUniform, rng)
//
//	output, ctx, err := layer.Forward(input) // [32, 784] → [32, 128]
//	dInput, err := layer.Backward(ctx, dOutput)
type Dense struct {
	inFeatures  int
	outFeatures int
	weight      *Parameter // [out_features, in_features]
	bias        *Parameter // [out_features]
}

type denseContext struct {
	input *tensor.Tensor
}

func (denseContext) layer() string { return "dense" }

// NewDense creates a new Dense layer.
//
// Parameters:
//   - inFeatures: Number of input features
//   - outFeatures: Number of output features
//   - init: Weight initializer (nil selects XavierUniform)
//   - rng: Source of randomness for the initializer
//
// Returns ErrInvalidConfiguration for non-positive sizes or a nil rng.
func NewDense(inFeatures, outFeatures int, init Initializer, rng *rand.Rand) (*Dense, error) {
	if inFeatures <= 0 || outFeatures <= 0 {
		return nil, fmt.Errorf("%w: dense layer needs positive sizes, got %d→%d",
			ErrInvalidConfiguration, inFeatures, outFeatures)
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: dense layer needs a random source", ErrInvalidConfiguration)
	}
	if init == nil {
		init = XavierUniform
	}

	weight := init(tensor.Shape{outFeatures, inFeatures}, inFeatures, outFeatures, rng)
	bias := tensor.Zeros(tensor.Shape{outFeatures})

	return &Dense{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      NewParameter("dense.weight", weight),
		bias:        NewParameter("dense.bias", bias),
	}, nil
}

// Name implements Layer.
func (d *Dense) Name() string {
	return fmt.Sprintf("dense(%d→%d)", d.inFeatures, d.outFeatures)
}

// OutputShape implements Layer. The input must be [in_features].
func (d *Dense) OutputShape(in tensor.Shape) (tensor.Shape, error) {
	if len(in) != 1 || in[0] != d.inFeatures {
		return nil, fmt.Errorf("%w: %s expects [%d], got %v", ErrShapeMismatch, d.Name(), d.inFeatures, in)
	}
	return tensor.Shape{d.outFeatures}, nil
}

// Forward computes y = x @ W.T + b for input [batch_size, in_features].
func (d *Dense) Forward(input *tensor.Tensor) (*tensor.Tensor, Context, error) {
	if input.Rank() != 2 || input.Dim(1) != d.inFeatures {
		return nil, nil, fmt.Errorf("%w: %s expects [batch, %d], got %v",
			ErrShapeMismatch, d.Name(), d.inFeatures, input.Shape())
	}

	wT, err := d.weight.Tensor().Transpose()
	if err != nil {
		return nil, nil, err
	}
	out, err := input.MatMul(wT)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", d.Name(), err)
	}
	out, err = out.Add(d.bias.Tensor())
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", d.Name(), err)
	}

	return out, denseContext{input: input}, nil
}

// Backward computes:
//   - dX = dY @ W
//   - dW = dY.T @ X / batch_size
//   - db = mean(dY, axis=0)
func (d *Dense) Backward(ctx Context, outputGrad *tensor.Tensor) (*tensor.Tensor, error) {
	c, ok := ctx.(denseContext)
	if !ok {
		return nil, fmt.Errorf("%w: %s received %T", ErrInvalidContext, d.Name(), ctx)
	}
	batch := c.input.Dim(0)
	if !outputGrad.Shape().Equal(tensor.Shape{batch, d.outFeatures}) {
		return nil, fmt.Errorf("%w: %s gradient %v, want [%d, %d]",
			ErrShapeMismatch, d.Name(), outputGrad.Shape(), batch, d.outFeatures)
	}

	dyT, err := outputGrad.Transpose()
	if err != nil {
		return nil, err
	}
	dW, err := dyT.MatMul(c.input)
	if err != nil {
		return nil, err
	}
	dW.ScaleInPlace(1 / float64(batch))

	db, err := outputGrad.Mean(0)
	if err != nil {
		return nil, err
	}

	dX, err := outputGrad.MatMul(d.weight.Tensor())
	if err != nil {
		return nil, err
	}

	d.weight.SetGrad(dW)
	d.bias.SetGrad(db)
	return dX, nil
}

// Parameters returns [weight, bias].
func (d *Dense) Parameters() []*Parameter {
	return []*Parameter{d.weight, d.bias}
}

// Weight returns the weight parameter [out_features, in_features].
func (d *Dense) Weight() *Parameter {
	return d.weight
}

// Bias returns the bias parameter [out_features].
func (d *Dense) Bias() *Parameter {
	return d.bias
}

// InFeatures returns the number of input features.
func (d *Dense) InFeatures() int {
	return d.inFeatures
}

// OutFeatures returns the number of output features.
func (d *Dense) OutFeatures() int {
	return d.outFeatures
}
