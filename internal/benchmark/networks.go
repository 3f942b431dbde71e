package benchmark

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/nnfs/internal/nn"
	"github.com/born-ml/nnfs/internal/tensor"
)

// MNIST geometry.
const (
	imageSide  = 28
	imagePixel = imageSide * imageSide
	numDigits  = 10
)

// Architecture pairs a layer stack with the loss it is trained with.
type Architecture struct {
	Model *nn.Sequential
	Loss  nn.Loss
}

// BuildXOR returns 2 → Dense(4) → Sigmoid → Dense(1) → Sigmoid with MSE.
func BuildXOR(rng *rand.Rand) (Architecture, error) {
	d1, err := nn.NewDense(2, 4, nn.XavierUniform, rng)
	if err != nil {
		return Architecture{}, err
	}
	d2, err := nn.NewDense(4, 1, nn.XavierUniform, rng)
	if err != nil {
		return Architecture{}, err
	}
	model, err := nn.NewSequential(tensor.Shape{2},
		d1, nn.NewActivation(nn.Sigmoid),
		d2, nn.NewActivation(nn.Sigmoid),
	)
	if err != nil {
		return Architecture{}, err
	}
	return Architecture{Model: model, Loss: nn.NewMSE()}, nil
}

// BuildMLP returns 784 → Dense(256) → ReLU → Dense(256) → ReLU → Dense(10)
// → Softmax with cross-entropy.
func BuildMLP(rng *rand.Rand) (Architecture, error) {
	sizes := []int{imagePixel, 256, 256, numDigits}
	var layers []nn.Layer
	for i := 0; i+1 < len(sizes); i++ {
		d, err := nn.NewDense(sizes[i], sizes[i+1], nn.XavierUniform, rng)
		if err != nil {
			return Architecture{}, err
		}
		layers = append(layers, d)
		if i+2 < len(sizes) {
			layers = append(layers, nn.NewActivation(nn.ReLU))
		}
	}
	layers = append(layers, nn.NewActivation(nn.Softmax))

	model, err := nn.NewSequential(tensor.Shape{imagePixel}, layers...)
	if err != nil {
		return Architecture{}, err
	}
	return Architecture{Model: model, Loss: nn.NewCrossEntropy()}, nil
}

// BuildConv returns Reshape(1,28,28) → Conv2D(5 kernels 3x3, He) → Sigmoid
// → Flatten → Dense(100) → ReLU → Dense(10) → Softmax with cross-entropy.
func BuildConv(rng *rand.Rand) (Architecture, error) {
	const kernels, hidden = 5, 100
	conv, err := nn.NewConv2D(nn.Conv2DConfig{
		InChannels:  1,
		OutChannels: kernels,
		KernelSize:  3,
	}, nn.HeNormal, rng)
	if err != nil {
		return Architecture{}, err
	}
	side, err := nn.ConvOutputSize(imageSide, 3, 1, 0)
	if err != nil {
		return Architecture{}, err
	}
	d1, err := nn.NewDense(kernels*side*side, hidden, nn.XavierUniform, rng)
	if err != nil {
		return Architecture{}, err
	}
	d2, err := nn.NewDense(hidden, numDigits, nn.XavierUniform, rng)
	if err != nil {
		return Architecture{}, err
	}

	model, err := nn.NewSequential(tensor.Shape{imagePixel},
		nn.NewReshape(1, imageSide, imageSide),
		conv, nn.NewActivation(nn.Sigmoid),
		nn.NewFlatten(),
		d1, nn.NewActivation(nn.ReLU),
		d2, nn.NewActivation(nn.Softmax),
	)
	if err != nil {
		return Architecture{}, err
	}
	return Architecture{Model: model, Loss: nn.NewCrossEntropy()}, nil
}

// Build selects the architecture for cfg.
func Build(cfg Config, rng *rand.Rand) (Architecture, error) {
	switch {
	case cfg.Run == RunXOR:
		return BuildXOR(rng)
	case cfg.NetType == NetConv:
		return BuildConv(rng)
	case cfg.NetType == NetMLP:
		return BuildMLP(rng)
	default:
		return Architecture{}, fmt.Errorf("%w: unknown network type %q", nn.ErrInvalidConfiguration, cfg.NetType)
	}
}
