package nn

import (
	"math"

	"github.com/born-ml/nnfs/internal/tensor"
)

// CrossEntropy is the categorical cross-entropy loss over softmax outputs.
//
// Loss = mean_b(−Σ_k t_k · log(p_k + ε))
//
// It must follow a Softmax activation. Compute returns the gradient with
// respect to the softmax input (the logits), which collapses to p − t:
//
//	∂L/∂logit_i = Σ_k (∂L/∂p_k)(∂p_k/∂logit_i) = p_i − t_i
//
// given that each target row sums to one. The network therefore skips the
// Softmax layer during backward.
//
// Example:
//
//	ce := nn.NewCrossEntropy()
//	loss, dLogits, err := ce.Compute(probs, oneHot)
type CrossEntropy struct{}

// NewCrossEntropy creates a new cross-entropy loss.
func NewCrossEntropy() *CrossEntropy {
	return &CrossEntropy{}
}

// Name implements Loss.
func (c *CrossEntropy) Name() string { return "crossentropy" }

// CoupledActivation implements CoupledLoss.
func (c *CrossEntropy) CoupledActivation() ActivationKind { return Softmax }

// Compute implements Loss.
func (c *CrossEntropy) Compute(predictions, targets *tensor.Tensor) (float64, *tensor.Tensor, error) {
	batch, _, err := checkLossShapes(c.Name(), predictions, targets)
	if err != nil {
		return 0, nil, err
	}

	sum := 0.0
	t := targets.Data()
	for i, p := range predictions.Data() {
		if t[i] != 0 {
			sum -= t[i] * math.Log(p+Epsilon)
		}
	}

	grad, err := predictions.Sub(targets)
	if err != nil {
		return 0, nil, err
	}
	return sum / float64(batch), grad, nil
}

// ProbabilityGradient returns ∂L/∂p = −t / (p + ε), the gradient with
// respect to the probabilities rather than the logits. Chaining it through
// Softmax.Backward reproduces the coupled p − t gradient.
func (c *CrossEntropy) ProbabilityGradient(predictions, targets *tensor.Tensor) (*tensor.Tensor, error) {
	if _, _, err := checkLossShapes(c.Name(), predictions, targets); err != nil {
		return nil, err
	}
	p := predictions.Data()
	t := targets.Data()
	out := make([]float64, len(p))
	for i := range p {
		out[i] = -t[i] / (p[i] + Epsilon)
	}
	return tensor.FromSlice(out, predictions.Shape())
}
