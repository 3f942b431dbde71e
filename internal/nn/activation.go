package nn

import (
	"fmt"
	"math"

	"github.com/born-ml/nnfs/internal/tensor"
)

// ActivationKind selects the function applied by an Activation layer.
type ActivationKind int

// Supported activation functions.
const (
	// ReLU applies f(x) = max(0, x).
	ReLU ActivationKind = iota
	// Sigmoid applies σ(x) = 1 / (1 + exp(-x)), squashing values to (0, 1).
	Sigmoid
	// Tanh applies the hyperbolic tangent, squashing values to (-1, 1).
	Tanh
	// Softmax normalizes the last axis into a probability distribution.
	Softmax
)

// String returns the lowercase activation name.
func (k ActivationKind) String() string {
	switch k {
	case ReLU:
		return "relu"
	case Sigmoid:
		return "sigmoid"
	case Tanh:
		return "tanh"
	case Softmax:
		return "softmax"
	default:
		return fmt.Sprintf("activation(%d)", int(k))
	}
}

// ParseActivation resolves a lowercase activation name.
func ParseActivation(name string) (ActivationKind, error) {
	for _, k := range []ActivationKind{ReLU, Sigmoid, Tanh, Softmax} {
		if k.String() == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown activation %q", ErrInvalidConfiguration, name)
}

// Activation is a parameter-free layer applying a non-linearity.
//
// ReLU, Sigmoid and Tanh are element-wise. Softmax is applied row-wise over
// the last axis with max-shift for stability:
//
//	softmax(x)_i = exp(x_i - max(x)) / Σ_j exp(x_j - max(x))
//
// Example:
//
//	act := nn.NewActivation(nn.ReLU)
//	output, ctx, err := act.Forward(input) // negative values become 0
type Activation struct {
	kind ActivationKind
}

type activationContext struct {
	kind   ActivationKind
	input  *tensor.Tensor // kept for ReLU
	output *tensor.Tensor // kept for Sigmoid, Tanh and Softmax
}

func (activationContext) layer() string { return "activation" }

// NewActivation creates a new Activation layer.
func NewActivation(kind ActivationKind) *Activation {
	return &Activation{kind: kind}
}

// Kind returns the activation function.
func (a *Activation) Kind() ActivationKind {
	return a.kind
}

// Name implements Layer.
func (a *Activation) Name() string {
	return a.kind.String()
}

// OutputShape implements Layer. Activations preserve shape.
func (a *Activation) OutputShape(in tensor.Shape) (tensor.Shape, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return in.Clone(), nil
}

// Forward applies the activation.
func (a *Activation) Forward(input *tensor.Tensor) (*tensor.Tensor, Context, error) {
	ctx := activationContext{kind: a.kind}

	var out *tensor.Tensor
	switch a.kind {
	case ReLU:
		out = input.Map(func(v float64) float64 { return math.Max(0, v) })
		ctx.input = input
	case Sigmoid:
		out = input.Map(sigmoid)
		ctx.output = out
	case Tanh:
		out = input.Map(math.Tanh)
		ctx.output = out
	case Softmax:
		if input.Rank() == 0 {
			return nil, nil, fmt.Errorf("%w: softmax needs at least one axis", ErrShapeMismatch)
		}
		out = softmax(input)
		ctx.output = out
	default:
		return nil, nil, fmt.Errorf("%w: unknown activation %d", ErrInvalidConfiguration, int(a.kind))
	}

	return out, ctx, nil
}

// Backward multiplies the output gradient by the local derivative.
//
// Softmax uses the exact Jacobian-vector product dx = y ⊙ (g − Σ g⊙y).
// When Softmax feeds a CrossEntropy loss, Sequential skips this step and the
// loss supplies the gradient with respect to the logits directly.
func (a *Activation) Backward(ctx Context, outputGrad *tensor.Tensor) (*tensor.Tensor, error) {
	c, ok := ctx.(activationContext)
	if !ok || c.kind != a.kind {
		return nil, fmt.Errorf("%w: %s received %T", ErrInvalidContext, a.Name(), ctx)
	}

	ref := c.output
	if ref == nil {
		ref = c.input
	}
	if !outputGrad.Shape().Equal(ref.Shape()) {
		return nil, fmt.Errorf("%w: %s gradient %v, want %v",
			ErrShapeMismatch, a.Name(), outputGrad.Shape(), ref.Shape())
	}

	g := outputGrad.Data()
	dx := make([]float64, len(g))

	switch a.kind {
	case ReLU:
		for i, x := range c.input.Data() {
			if x > 0 {
				dx[i] = g[i]
			}
		}
	case Sigmoid:
		for i, y := range c.output.Data() {
			dx[i] = g[i] * y * (1 - y)
		}
	case Tanh:
		for i, y := range c.output.Data() {
			dx[i] = g[i] * (1 - y*y)
		}
	case Softmax:
		y := c.output.Data()
		n := c.output.Dim(-1)
		for r := 0; r < len(y)/n; r++ {
			row := y[r*n : (r+1)*n]
			grow := g[r*n : (r+1)*n]
			dot := 0.0
			for j := range row {
				dot += grow[j] * row[j]
			}
			for j := range row {
				dx[r*n+j] = row[j] * (grow[j] - dot)
			}
		}
	}

	return tensor.FromSlice(dx, ref.Shape())
}

// Parameters returns an empty slice (activations have no trainable parameters).
func (a *Activation) Parameters() []*Parameter {
	return nil
}

func sigmoid(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}

func softmax(input *tensor.Tensor) *tensor.Tensor {
	x := input.Data()
	n := input.Dim(-1)
	out := make([]float64, len(x))

	for r := 0; r < len(x)/n; r++ {
		row := x[r*n : (r+1)*n]
		maxVal := math.Inf(-1)
		for _, v := range row {
			maxVal = math.Max(maxVal, v)
		}
		sum := 0.0
		for j, v := range row {
			e := math.Exp(v - maxVal)
			out[r*n+j] = e
			sum += e
		}
		for j := range row {
			out[r*n+j] /= sum
		}
	}

	t, _ := tensor.FromSlice(out, input.Shape())
	return t
}
