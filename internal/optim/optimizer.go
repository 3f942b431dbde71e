// Package optim implements optimization algorithms for training neural networks.
//
// This package provides:
//   - Optimizer interface: Base interface for all optimizers
//   - SGD: Stochastic Gradient Descent with optional momentum
//   - Adam: Adaptive Moment Estimation
//
// Optimizers are bound to a parameter list at construction and keep their
// auxiliary state (velocities, moments) in slices parallel to it: state i
// belongs to parameter i.
//
// Example usage:
//
//	optimizer, err := optim.NewSGD(model.Parameters(), optim.SGDConfig{LR: 0.04})
//
//	for epoch := range epochs {
//	    out, pass, _ := model.Forward(x)
//	    _, grad, _ := loss.Compute(out, y)
//	    _, _ = model.Backward(pass, grad, true)
//
//	    if err := optimizer.Step(); err != nil {
//	        return err
//	    }
//	    optimizer.ZeroGrad()
//	}
package optim

import (
	"fmt"
	"math"

	"github.com/born-ml/nnfs/internal/nn"
	"github.com/born-ml/nnfs/internal/tensor"
)

// Optimizer is the base interface for all optimization algorithms.
//
// Optimizers update model parameters in place based on the gradients stored
// on them by the last backward pass.
type Optimizer interface {
	// Name returns "sgd" or "adam".
	Name() string

	// Step applies one update to every parameter that has a gradient.
	// Parameters whose gradient is nil are skipped.
	Step() error

	// ZeroGrad clears all parameter gradients.
	ZeroGrad()

	// LR returns the current learning rate.
	LR() float64

	// SetLR updates the learning rate (for scheduling). Values that are not
	// positive are rejected with ErrInvalidConfiguration.
	SetLR(lr float64) error
}

// Config is the base configuration for all optimizers.
type Config struct {
	LR float64 // Learning rate
}

// New creates an optimizer by name ("sgd" or "adam") with a learning rate
// and, for SGD, a momentum factor. The learning rate must be positive for
// every optimizer; Adam's 0.001 default applies only to NewAdam.
func New(name string, params []*nn.Parameter, lr, momentum float64) (Optimizer, error) {
	if err := checkLR(name, lr); err != nil {
		return nil, err
	}
	switch name {
	case "sgd":
		return NewSGD(params, SGDConfig{LR: lr, Momentum: momentum})
	case "adam":
		return NewAdam(params, AdamConfig{LR: lr})
	default:
		return nil, fmt.Errorf("%w: unknown optimizer %q", nn.ErrInvalidConfiguration, name)
	}
}

// stateFor returns the i-th auxiliary tensor, allocating it on first use.
// A parameter whose shape changed since allocation is reported as a mismatch.
func stateFor(state []*tensor.Tensor, i int, param *nn.Parameter) (*tensor.Tensor, error) {
	shape := param.Tensor().Shape()
	if state[i] == nil {
		state[i] = tensor.Zeros(shape)
		return state[i], nil
	}
	if !state[i].Shape().Equal(shape) {
		return nil, fmt.Errorf("%w: parameter %d (%s) changed from %v to %v",
			nn.ErrShapeMismatch, i, param.Name(), state[i].Shape(), shape)
	}
	return state[i], nil
}

// checkGrad validates a gradient against its parameter.
func checkGrad(i int, param *nn.Parameter) error {
	if !param.Grad().Shape().Equal(param.Tensor().Shape()) {
		return fmt.Errorf("%w: gradient of parameter %d (%s) is %v, want %v",
			nn.ErrShapeMismatch, i, param.Name(), param.Grad().Shape(), param.Tensor().Shape())
	}
	return nil
}

func zeroGrad(params []*nn.Parameter) {
	for _, p := range params {
		p.ZeroGrad()
	}
}

func checkLR(name string, lr float64) error {
	if !(lr > 0) || math.IsInf(lr, 1) {
		return fmt.Errorf("%w: %s learning rate must be positive and finite, got %g", nn.ErrInvalidConfiguration, name, lr)
	}
	return nil
}
