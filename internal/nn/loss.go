package nn

import (
	"fmt"
	"math"

	"github.com/born-ml/nnfs/internal/tensor"
)

// Epsilon guards logarithms in the cross-entropy losses.
const Epsilon = 1e-7

// Loss maps a batch of predictions and targets to a scalar and a gradient.
//
// The scalar is the mean over the batch of the per-sample loss. The gradient
// has the shape of predictions and holds the per-sample derivative; layers
// average parameter gradients over the batch themselves.
type Loss interface {
	Name() string
	Compute(predictions, targets *tensor.Tensor) (float64, *tensor.Tensor, error)
}

// CoupledLoss is a loss whose gradient is expressed with respect to the
// logits feeding a specific output activation. A network using it must end
// with that activation, and skips the activation during backward.
type CoupledLoss interface {
	Loss
	CoupledActivation() ActivationKind
}

// ParseLoss resolves "mse", "crossentropy" or "bce".
func ParseLoss(name string) (Loss, error) {
	switch name {
	case "mse":
		return NewMSE(), nil
	case "crossentropy", "ce":
		return NewCrossEntropy(), nil
	case "bce", "binarycrossentropy":
		return NewBinaryCrossEntropy(), nil
	default:
		return nil, fmt.Errorf("%w: unknown loss %q", ErrInvalidConfiguration, name)
	}
}

// checkLossShapes returns the batch size and per-sample feature count.
func checkLossShapes(name string, predictions, targets *tensor.Tensor) (int, int, error) {
	if !predictions.Shape().Equal(targets.Shape()) {
		return 0, 0, fmt.Errorf("%w: %s predictions %v vs targets %v",
			ErrShapeMismatch, name, predictions.Shape(), targets.Shape())
	}
	if predictions.Rank() < 1 {
		return 0, 0, fmt.Errorf("%w: %s expects [batch, ...], got scalar", ErrShapeMismatch, name)
	}
	batch := predictions.Dim(0)
	return batch, predictions.Len() / batch, nil
}

// MSE computes Mean Squared Error loss.
//
// Loss = mean((predictions - targets)²)
//
// MSE is commonly used for regression tasks and small toy problems like XOR.
//
// Example:
//
//	mse := nn.NewMSE()
//	loss, grad, err := mse.Compute(predictions, targets)
type MSE struct{}

// NewMSE creates a new MSE loss function.
func NewMSE() *MSE {
	return &MSE{}
}

// Name implements Loss.
func (m *MSE) Name() string { return "mse" }

// Compute returns mean((p − t)²) and the per-sample gradient 2·(p − t)/K,
// where K is the number of output features.
func (m *MSE) Compute(predictions, targets *tensor.Tensor) (float64, *tensor.Tensor, error) {
	batch, features, err := checkLossShapes(m.Name(), predictions, targets)
	if err != nil {
		return 0, nil, err
	}

	diff, err := predictions.Sub(targets)
	if err != nil {
		return 0, nil, err
	}

	sum := 0.0
	for _, d := range diff.Data() {
		sum += d * d
	}
	loss := sum / float64(batch*features)

	return loss, diff.Scale(2 / float64(features)), nil
}

// BinaryCrossEntropy is the log loss for independent sigmoid outputs.
//
// Loss = −mean(t·log(p) + (1 − t)·log(1 − p)) with p clipped to [ε, 1 − ε].
//
// It must follow a Sigmoid activation; the returned gradient (p − t)/K is
// taken with respect to the sigmoid's input.
type BinaryCrossEntropy struct{}

// NewBinaryCrossEntropy creates a new binary cross-entropy loss.
func NewBinaryCrossEntropy() *BinaryCrossEntropy {
	return &BinaryCrossEntropy{}
}

// Name implements Loss.
func (b *BinaryCrossEntropy) Name() string { return "bce" }

// CoupledActivation implements CoupledLoss.
func (b *BinaryCrossEntropy) CoupledActivation() ActivationKind { return Sigmoid }

// Compute implements Loss.
func (b *BinaryCrossEntropy) Compute(predictions, targets *tensor.Tensor) (float64, *tensor.Tensor, error) {
	batch, features, err := checkLossShapes(b.Name(), predictions, targets)
	if err != nil {
		return 0, nil, err
	}

	p := predictions.Data()
	t := targets.Data()
	grad := make([]float64, len(p))
	sum := 0.0
	for i := range p {
		pc := math.Min(math.Max(p[i], Epsilon), 1-Epsilon)
		sum -= t[i]*math.Log(pc) + (1-t[i])*math.Log(1-pc)
		grad[i] = (p[i] - t[i]) / float64(features)
	}

	g, err := tensor.FromSlice(grad, predictions.Shape())
	if err != nil {
		return 0, nil, err
	}
	return sum / float64(batch*features), g, nil
}
