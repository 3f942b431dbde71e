package train

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/born-ml/nnfs/internal/nn"
	"github.com/born-ml/nnfs/internal/optim"
	"github.com/born-ml/nnfs/internal/tensor"
)

func dense(t *testing.T, in, out int, rng *rand.Rand) *nn.Dense {
	t.Helper()
	d, err := nn.NewDense(in, out, nil, rng)
	require.NoError(t, err)
	return d
}

func sequential(t *testing.T, in tensor.Shape, layers ...nn.Layer) *nn.Sequential {
	t.Helper()
	model, err := nn.NewSequential(in, layers...)
	require.NoError(t, err)
	return model
}

func network(t *testing.T, model *nn.Sequential, loss nn.Loss, lr, momentum float64) *Network {
	t.Helper()
	opt, err := optim.NewSGD(model.Parameters(), optim.SGDConfig{LR: lr, Momentum: momentum})
	require.NoError(t, err)
	net, err := NewNetwork(model, loss, opt)
	require.NoError(t, err)
	return net
}

// xorNetwork is the 2-4-1 sigmoid network trained with MSE and plain SGD.
func xorNetwork(t *testing.T, seed int64) *Network {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	model := sequential(t, tensor.Shape{2},
		dense(t, 2, 4, rng), nn.NewActivation(nn.Sigmoid),
		dense(t, 4, 1, rng), nn.NewActivation(nn.Sigmoid),
	)
	return network(t, model, nn.NewMSE(), 1.0, 0)
}

// mlpNetwork is a small 784-32-10 softmax classifier.
func mlpNetwork(t *testing.T, seed int64) *Network {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	model := sequential(t, tensor.Shape{784},
		dense(t, 784, 32, rng), nn.NewActivation(nn.ReLU),
		dense(t, 32, 10, rng), nn.NewActivation(nn.Softmax),
	)
	return network(t, model, nn.NewCrossEntropy(), 0.1, 0)
}

// convNetwork classifies flat 28x28 images with one conv block.
func convNetwork(t *testing.T, seed int64) *Network {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	conv, err := nn.NewConv2D(nn.Conv2DConfig{InChannels: 1, OutChannels: 2, KernelSize: 3}, nil, rng)
	require.NoError(t, err)
	pool, err := nn.NewPool2D(nn.Pool2DConfig{Kind: nn.MaxPool, Size: 2})
	require.NoError(t, err)
	model := sequential(t, tensor.Shape{784},
		nn.NewReshape(1, 28, 28), conv, nn.NewActivation(nn.ReLU), pool,
		nn.NewFlatten(), dense(t, 2*13*13, 10, rng), nn.NewActivation(nn.Softmax),
	)
	return network(t, model, nn.NewCrossEntropy(), 0.1, 0)
}
