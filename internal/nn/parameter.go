package nn

import (
	"github.com/born-ml/nnfs/internal/tensor"
)

// Parameter represents a trainable parameter in a neural network.
//
// Parameters are tensors updated in place by an optimizer. They represent
// weights and biases of layers and are owned by exactly one layer.
//
// Example:
//
//	weight := nn.NewParameter("dense.weight", weightTensor)
//
//	// After a backward pass
//	grad := weight.Grad()
type Parameter struct {
	name   string         // Parameter name (e.g., "dense.weight")
	tensor *tensor.Tensor // The parameter value
	grad   *tensor.Tensor // Gradient from the latest backward pass
}

// NewParameter creates a new trainable parameter.
//
// The gradient stays nil until the first backward pass.
func NewParameter(name string, t *tensor.Tensor) *Parameter {
	return &Parameter{
		name:   name,
		tensor: t,
	}
}

// Name returns the parameter name.
func (p *Parameter) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter) Tensor() *tensor.Tensor {
	return p.tensor
}

// Grad returns the gradient tensor.
//
// Returns nil if no gradient has been computed yet or after ZeroGrad.
func (p *Parameter) Grad() *tensor.Tensor {
	return p.grad
}

// SetGrad sets the gradient tensor. Backward overwrites it on every call.
func (p *Parameter) SetGrad(grad *tensor.Tensor) {
	p.grad = grad
}

// ZeroGrad clears the gradient tensor.
func (p *Parameter) ZeroGrad() {
	p.grad = nil
}
