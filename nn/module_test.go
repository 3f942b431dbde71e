// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/nnfs/nn"
	"github.com/born-ml/nnfs/tensor"
)

// TestLayerInterface verifies that concrete types implement Layer.
func TestLayerInterface(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	dense, err := nn.NewDense(10, 5, nn.XavierUniform, rng)
	require.NoError(t, err)
	conv, err := nn.NewConv2D(nn.Conv2DConfig{InChannels: 1, OutChannels: 2, KernelSize: 3}, nn.HeNormal, rng)
	require.NoError(t, err)
	pool, err := nn.NewPool2D(nn.Pool2DConfig{Kind: nn.MaxPool, Size: 2})
	require.NoError(t, err)

	tests := []struct {
		name   string
		layer  nn.Layer
		in     tensor.Shape
		out    tensor.Shape
		params int
	}{
		{"Dense", dense, tensor.Shape{10}, tensor.Shape{5}, 2},
		{"Activation", nn.NewActivation(nn.Tanh), tensor.Shape{7}, tensor.Shape{7}, 0},
		{"Conv2D", conv, tensor.Shape{1, 6, 6}, tensor.Shape{2, 4, 4}, 2},
		{"Pool2D", pool, tensor.Shape{2, 4, 4}, tensor.Shape{2, 2, 2}, 0},
		{"Flatten", nn.NewFlatten(), tensor.Shape{2, 2, 2}, tensor.Shape{8}, 0},
		{"Reshape", nn.NewReshape(2, 4), tensor.Shape{8}, tensor.Shape{2, 4}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.layer.OutputShape(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.out, got)
			assert.Len(t, tt.layer.Parameters(), tt.params)

			x := tensor.RandNormal(tt.in.WithBatch(3), 0, 1, rng)
			y, ctx, err := tt.layer.Forward(x)
			require.NoError(t, err)
			assert.Equal(t, tt.out.WithBatch(3), y.Shape())

			gx, err := tt.layer.Backward(ctx, tensor.Ones(y.Shape()))
			require.NoError(t, err)
			assert.Equal(t, x.Shape(), gx.Shape())
		})
	}
}

// TestParameter verifies gradient bookkeeping on Parameter.
func TestParameter(t *testing.T) {
	data := tensor.Ones(tensor.Shape{3, 3})
	param := nn.NewParameter("test.weight", data)

	assert.Equal(t, "test.weight", param.Name())
	assert.Same(t, data, param.Tensor())
	assert.Nil(t, param.Grad(), "no gradient before backward")

	grad := tensor.Zeros(tensor.Shape{3, 3})
	param.SetGrad(grad)
	assert.Same(t, grad, param.Grad())

	param.ZeroGrad()
	assert.Nil(t, param.Grad())
}

// TestSequentialComposition trains one step by hand through the public API.
func TestSequentialComposition(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	hidden, err := nn.NewDense(784, 32, nil, rng)
	require.NoError(t, err)
	output, err := nn.NewDense(32, 10, nil, rng)
	require.NoError(t, err)

	model, err := nn.NewSequential(tensor.Shape{784},
		hidden, nn.NewActivation(nn.ReLU),
		output, nn.NewActivation(nn.Softmax),
	)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{10}, model.OutputShape())
	assert.Len(t, model.Parameters(), 4)

	x := tensor.RandUniform(tensor.Shape{2, 784}, 0, 1, rng)
	y, err := tensor.FromSlice(make([]float64, 20), tensor.Shape{2, 10})
	require.NoError(t, err)
	y.Set(1, 0, 3)
	y.Set(1, 1, 7)

	out, pass, err := model.Forward(x)
	require.NoError(t, err)
	loss, grad, err := nn.NewCrossEntropy().Compute(out, y)
	require.NoError(t, err)
	assert.Greater(t, loss, 0.0)

	_, err = model.Backward(pass, grad, true)
	require.NoError(t, err)
	for _, p := range model.Parameters() {
		require.NotNil(t, p.Grad(), p.Name())
		assert.Equal(t, p.Tensor().Shape(), p.Grad().Shape())
	}
	model.ZeroGrad()
	assert.Nil(t, model.Parameters()[0].Grad())
}

func TestSequentialRejectsMismatch(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	a, err := nn.NewDense(4, 3, nil, rng)
	require.NoError(t, err)
	b, err := nn.NewDense(5, 2, nil, rng)
	require.NoError(t, err)

	_, err = nn.NewSequential(tensor.Shape{4}, a, b)
	require.ErrorIs(t, err, nn.ErrShapeMismatch)

	_, err = nn.ConvOutputSize(28, 3, 2, 0)
	require.ErrorIs(t, err, nn.ErrInvalidConfiguration)

	_, err = nn.ParseLoss("hinge")
	require.ErrorIs(t, err, nn.ErrInvalidConfiguration)
}
