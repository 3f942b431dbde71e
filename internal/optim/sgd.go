package optim

import (
	"fmt"

	"github.com/born-ml/nnfs/internal/nn"
	"github.com/born-ml/nnfs/internal/tensor"
)

// SGD implements Stochastic Gradient Descent optimizer with optional momentum.
//
// Update rule without momentum:
//
//	param = param - lr * gradient
//
// Update rule with momentum:
//
//	velocity = momentum * velocity + gradient
//	param = param - lr * velocity
//
// Momentum helps accelerate SGD in relevant directions and dampens oscillations.
//
// Example:
//
//	optimizer, err := optim.NewSGD(model.Parameters(), optim.SGDConfig{
//	    LR:       0.01,
//	    Momentum: 0.9,
//	})
type SGD struct {
	params     []*nn.Parameter
	lr         float64
	momentum   float64
	velocities []*tensor.Tensor // parallel to params, allocated on first Step
}

// SGDConfig holds configuration for SGD optimizer.
type SGDConfig struct {
	LR       float64 // Learning rate (must be > 0)
	Momentum float64 // Momentum factor (default: 0.0, range: [0, 1))
}

// Validate returns ErrInvalidConfiguration for a non-positive learning rate
// or a momentum outside [0, 1).
func (c SGDConfig) Validate() error {
	if c.LR <= 0 {
		return fmt.Errorf("%w: sgd learning rate must be positive, got %g", nn.ErrInvalidConfiguration, c.LR)
	}
	if c.Momentum < 0 || c.Momentum >= 1 {
		return fmt.Errorf("%w: sgd momentum must be in [0, 1), got %g", nn.ErrInvalidConfiguration, c.Momentum)
	}
	return nil
}

// NewSGD creates a new SGD optimizer.
//
// Parameters:
//   - params: Model parameters to optimize
//   - config: SGD configuration (LR, Momentum)
//
// Returns an error wrapping ErrInvalidConfiguration if config is invalid.
func NewSGD(params []*nn.Parameter, config SGDConfig) (*SGD, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &SGD{
		params:   params,
		lr:       config.LR,
		momentum: config.Momentum,
	}, nil
}

// Name implements Optimizer.
func (s *SGD) Name() string { return "sgd" }

// Step performs a single optimization step.
func (s *SGD) Step() error {
	if s.momentum > 0 && s.velocities == nil {
		s.velocities = make([]*tensor.Tensor, len(s.params))
	}

	for i, param := range s.params {
		if param.Grad() == nil {
			continue
		}
		if err := checkGrad(i, param); err != nil {
			return err
		}

		if s.momentum == 0 {
			if err := param.Tensor().AddScaledInPlace(-s.lr, param.Grad()); err != nil {
				return err
			}
			continue
		}

		v, err := stateFor(s.velocities, i, param)
		if err != nil {
			return err
		}
		// v = momentum * v + grad
		v.ScaleInPlace(s.momentum)
		if err := v.AddInPlace(param.Grad()); err != nil {
			return err
		}
		// param = param - lr * v
		if err := param.Tensor().AddScaledInPlace(-s.lr, v); err != nil {
			return err
		}
	}
	return nil
}

// ZeroGrad clears gradients for all parameters.
func (s *SGD) ZeroGrad() {
	zeroGrad(s.params)
}

// LR returns the current learning rate.
func (s *SGD) LR() float64 {
	return s.lr
}

// SetLR updates the learning rate.
func (s *SGD) SetLR(lr float64) error {
	if err := checkLR(s.Name(), lr); err != nil {
		return err
	}
	s.lr = lr
	return nil
}

// Momentum returns the momentum factor.
func (s *SGD) Momentum() float64 {
	return s.momentum
}
