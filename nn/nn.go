// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"math/rand"

	"github.com/born-ml/nnfs/internal/nn"
)

// Errors

var (
	// ErrShapeMismatch is returned for incompatible tensor or layer shapes.
	ErrShapeMismatch = nn.ErrShapeMismatch

	// ErrElementCountMismatch is returned by Reshape when sizes differ.
	ErrElementCountMismatch = nn.ErrElementCountMismatch

	// ErrInvalidConfiguration reports impossible hyper-parameters or geometry.
	ErrInvalidConfiguration = nn.ErrInvalidConfiguration

	// ErrNumericalInstability reports a NaN or infinite loss or gradient.
	ErrNumericalInstability = nn.ErrNumericalInstability

	// ErrInvalidContext is returned when Backward receives a foreign Context.
	ErrInvalidContext = nn.ErrInvalidContext
)

// Initialization

// Initializer creates a weight tensor of the given shape.
type Initializer = nn.Initializer

var (
	// XavierUniform draws from U(-sqrt(6/(fan_in+fan_out)), +sqrt(...)).
	XavierUniform Initializer = nn.XavierUniform

	// HeNormal draws from N(0, 2/fan_in).
	HeNormal Initializer = nn.HeNormal
)

// Normal returns an Initializer drawing from N(mean, std²).
func Normal(mean, std float64) Initializer {
	return nn.Normal(mean, std)
}

// InitializerByName resolves "xavier", "he" or "normal".
func InitializerByName(name string) (Initializer, bool) {
	return nn.InitializerByName(name)
}

// Dense

// Dense is a fully connected layer: output = input @ weightᵀ + bias.
type Dense = nn.Dense

// NewDense creates a Dense layer with weights from init (XavierUniform when
// nil) and zero bias.
//
// Example:
//
//	layer, err := nn.NewDense(784, 128, nn.XavierUniform, rng)
func NewDense(inFeatures, outFeatures int, init Initializer, rng *rand.Rand) (*Dense, error) {
	return nn.NewDense(inFeatures, outFeatures, init, rng)
}

// Activations

// ActivationKind selects the function applied by an Activation layer.
type ActivationKind = nn.ActivationKind

// Supported activation functions.
const (
	ReLU    = nn.ReLU
	Sigmoid = nn.Sigmoid
	Tanh    = nn.Tanh
	Softmax = nn.Softmax
)

// Activation is an element-wise (or, for Softmax, row-wise) activation layer.
type Activation = nn.Activation

// NewActivation creates an activation layer.
func NewActivation(kind ActivationKind) *Activation {
	return nn.NewActivation(kind)
}

// ParseActivation resolves "relu", "sigmoid", "tanh" or "softmax".
func ParseActivation(name string) (ActivationKind, error) {
	return nn.ParseActivation(name)
}

// Convolution and pooling

// Conv2D is a 2D convolutional layer over [batch, channels, height, width].
type Conv2D = nn.Conv2D

// Conv2DConfig describes a square-kernel convolution.
type Conv2DConfig = nn.Conv2DConfig

// NewConv2D creates a convolution. A nil init selects XavierUniform.
//
// Example:
//
//	conv, err := nn.NewConv2D(nn.Conv2DConfig{InChannels: 1, OutChannels: 8, KernelSize: 3}, nil, rng)
func NewConv2D(cfg Conv2DConfig, init Initializer, rng *rand.Rand) (*Conv2D, error) {
	return nn.NewConv2D(cfg, init, rng)
}

// ConvOutputSize returns (in + 2*padding - kernel)/stride + 1, or an error
// wrapping ErrInvalidConfiguration if the division is not exact.
func ConvOutputSize(in, kernel, stride, padding int) (int, error) {
	return nn.ConvOutputSize(in, kernel, stride, padding)
}

// PoolKind selects the reduction applied by Pool2D.
type PoolKind = nn.PoolKind

// Supported pooling reductions.
const (
	MaxPool = nn.MaxPool
	AvgPool = nn.AvgPool
)

// Pool2D is a 2D pooling layer.
type Pool2D = nn.Pool2D

// Pool2DConfig describes a square pooling window.
type Pool2DConfig = nn.Pool2DConfig

// NewPool2D creates a pooling layer.
func NewPool2D(cfg Pool2DConfig) (*Pool2D, error) {
	return nn.NewPool2D(cfg)
}

// Shape layers

// Flatten collapses every per-sample dimension into one.
type Flatten = nn.Flatten

// NewFlatten creates a Flatten layer.
func NewFlatten() *Flatten {
	return nn.NewFlatten()
}

// Reshape reshapes each sample to fixed dimensions.
type Reshape = nn.Reshape

// NewReshape creates a Reshape layer producing per-sample shape dims.
//
// Example:
//
//	nn.NewReshape(1, 28, 28) // [batch, 784] → [batch, 1, 28, 28]
func NewReshape(dims ...int) *Reshape {
	return nn.NewReshape(dims...)
}

// Losses

// Loss maps a batch of predictions and targets to a scalar and a gradient.
type Loss = nn.Loss

// CoupledLoss is a loss whose gradient is taken with respect to the logits of
// a specific output activation.
type CoupledLoss = nn.CoupledLoss

// MSE is mean squared error.
type MSE = nn.MSE

// CrossEntropy is categorical cross-entropy, coupled with Softmax.
type CrossEntropy = nn.CrossEntropy

// BinaryCrossEntropy is binary cross-entropy, coupled with Sigmoid.
type BinaryCrossEntropy = nn.BinaryCrossEntropy

// Epsilon guards logarithms in the cross-entropy losses.
const Epsilon = nn.Epsilon

// NewMSE creates an MSE loss.
func NewMSE() *MSE {
	return nn.NewMSE()
}

// NewCrossEntropy creates a categorical cross-entropy loss.
func NewCrossEntropy() *CrossEntropy {
	return nn.NewCrossEntropy()
}

// NewBinaryCrossEntropy creates a binary cross-entropy loss.
func NewBinaryCrossEntropy() *BinaryCrossEntropy {
	return nn.NewBinaryCrossEntropy()
}

// ParseLoss resolves "mse", "crossentropy" or "bce".
func ParseLoss(name string) (Loss, error) {
	return nn.ParseLoss(name)
}
