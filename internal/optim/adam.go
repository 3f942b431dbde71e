package optim

import (
	"fmt"
	"math"

	"github.com/born-ml/nnfs/internal/nn"
	"github.com/born-ml/nnfs/internal/tensor"
)

// Adam implements the Adam (Adaptive Moment Estimation) optimizer.
//
// Adam combines ideas from RMSprop and momentum:
//   - Maintains exponential moving averages of gradients (first moment)
//   - Maintains exponential moving averages of squared gradients (second moment)
//   - Applies bias correction to compensate for initialization at zero
//
// Update rule:
//
//	m_t = beta1 * m_{t-1} + (1-beta1) * gradient       // First moment
//	v_t = beta2 * v_{t-1} + (1-beta2) * gradient²      // Second moment
//	m_hat = m_t / (1 - beta1^t)                        // Bias correction
//	v_hat = v_t / (1 - beta2^t)                        // Bias correction
//	param = param - lr * m_hat / (sqrt(v_hat) + eps)  // Parameter update
//
// Reference: "Adam: A Method for Stochastic Optimization" (Kingma & Ba, 2014)
//
// Example:
//
//	optimizer, err := optim.NewAdam(model.Parameters(), optim.AdamConfig{
//	    LR:    0.001,
//	    Betas: [2]float64{0.9, 0.999},
//	    Eps:   1e-8,
//	})
type Adam struct {
	params []*nn.Parameter
	lr     float64
	beta1  float64
	beta2  float64
	eps    float64
	t      int              // Timestep for bias correction
	m      []*tensor.Tensor // First moment estimates, parallel to params
	v      []*tensor.Tensor // Second moment estimates, parallel to params
}

// AdamConfig holds configuration for Adam optimizer.
type AdamConfig struct {
	LR    float64    // Learning rate (default: 0.001)
	Betas [2]float64 // Coefficients for computing running averages (default: [0.9, 0.999])
	Eps   float64    // Term for numerical stability (default: 1e-8)
}

// NewAdam creates a new Adam optimizer.
//
// Zero-valued fields take the defaults:
//   - LR: 0.001
//   - Beta1: 0.9
//   - Beta2: 0.999
//   - Eps: 1e-8
//
// Negative values, or betas outside [0, 1), yield ErrInvalidConfiguration.
func NewAdam(params []*nn.Parameter, config AdamConfig) (*Adam, error) {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Betas[0] == 0 {
		config.Betas[0] = 0.9
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = 0.999
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}

	switch {
	case config.LR < 0:
		return nil, fmt.Errorf("%w: adam learning rate must be positive, got %g", nn.ErrInvalidConfiguration, config.LR)
	case config.Betas[0] < 0 || config.Betas[0] >= 1 || config.Betas[1] < 0 || config.Betas[1] >= 1:
		return nil, fmt.Errorf("%w: adam betas must be in [0, 1), got %v", nn.ErrInvalidConfiguration, config.Betas)
	case config.Eps < 0:
		return nil, fmt.Errorf("%w: adam eps must be positive, got %g", nn.ErrInvalidConfiguration, config.Eps)
	}

	return &Adam{
		params: params,
		lr:     config.LR,
		beta1:  config.Betas[0],
		beta2:  config.Betas[1],
		eps:    config.Eps,
	}, nil
}

// Name implements Optimizer.
func (a *Adam) Name() string { return "adam" }

// Step performs a single optimization step using Adam algorithm.
//
// Applies Adam update to all parameters:
//  1. Update biased first moment estimate
//  2. Update biased second moment estimate
//  3. Compute bias-corrected moment estimates
//  4. Update parameters
//
// Parameters with no gradient are skipped.
func (a *Adam) Step() error {
	if a.m == nil {
		a.m = make([]*tensor.Tensor, len(a.params))
		a.v = make([]*tensor.Tensor, len(a.params))
	}
	a.t++

	biasCorrection1 := 1.0 - math.Pow(a.beta1, float64(a.t))
	biasCorrection2 := 1.0 - math.Pow(a.beta2, float64(a.t))

	for i, param := range a.params {
		if param.Grad() == nil {
			continue
		}
		if err := checkGrad(i, param); err != nil {
			return err
		}
		m, err := stateFor(a.m, i, param)
		if err != nil {
			return err
		}
		v, err := stateFor(a.v, i, param)
		if err != nil {
			return err
		}

		gradData := param.Grad().Data()
		mData := m.Data()
		vData := v.Data()
		paramData := param.Tensor().Data()

		for j := range paramData {
			g := gradData[j]
			mData[j] = a.beta1*mData[j] + (1.0-a.beta1)*g
			vData[j] = a.beta2*vData[j] + (1.0-a.beta2)*g*g

			mHat := mData[j] / biasCorrection1
			vHat := vData[j] / biasCorrection2
			paramData[j] -= a.lr * mHat / (math.Sqrt(vHat) + a.eps)
		}
	}
	return nil
}

// ZeroGrad clears gradients for all parameters.
func (a *Adam) ZeroGrad() {
	zeroGrad(a.params)
}

// LR returns the current learning rate.
func (a *Adam) LR() float64 {
	return a.lr
}

// SetLR updates the learning rate.
func (a *Adam) SetLR(lr float64) error {
	if err := checkLR(a.Name(), lr); err != nil {
		return err
	}
	a.lr = lr
	return nil
}

// Timestep returns the number of steps taken.
func (a *Adam) Timestep() int {
	return a.t
}
