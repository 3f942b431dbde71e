package nn

import (
	"math"
	"math/rand"

	"github.com/born-ml/nnfs/internal/tensor"
)

// Initializer creates a weight tensor of the given shape.
//
// fanIn and fanOut are the number of inputs and outputs of one unit; for a
// convolution they include the kernel area.
type Initializer func(shape tensor.Shape, fanIn, fanOut int, rng *rand.Rand) *tensor.Tensor

// XavierUniform is Xavier (Glorot) initialization.
//
// Initializes weights with values drawn from a uniform distribution:
// U(-sqrt(6/(fan_in + fan_out)), sqrt(6/(fan_in + fan_out)))
//
// This initialization helps maintain variance of activations across layers
// and suits sigmoid and tanh networks.
func XavierUniform(shape tensor.Shape, fanIn, fanOut int, rng *rand.Rand) *tensor.Tensor {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))
	return tensor.RandUniform(shape, -bound, bound, rng)
}

// HeNormal is He (Kaiming) initialization: N(0, 2/fan_in).
// Preferred in front of ReLU.
func HeNormal(shape tensor.Shape, fanIn, _ int, rng *rand.Rand) *tensor.Tensor {
	return tensor.RandNormal(shape, 0, math.Sqrt(2.0/float64(fanIn)), rng)
}

// Normal returns an Initializer drawing from N(mean, std²).
func Normal(mean, std float64) Initializer {
	return func(shape tensor.Shape, _, _ int, rng *rand.Rand) *tensor.Tensor {
		return tensor.RandNormal(shape, mean, std, rng)
	}
}

// InitializerByName resolves "xavier", "he" or "normal" (N(0, 0.1²)).
func InitializerByName(name string) (Initializer, bool) {
	switch name {
	case "xavier", "glorot":
		return XavierUniform, true
	case "he", "kaiming":
		return HeNormal, true
	case "normal":
		return Normal(0, 0.1), true
	default:
		return nil, false
	}
}
