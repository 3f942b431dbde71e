// Package benchmark builds and trains the reference networks: a 2-4-1 XOR
// network and the MNIST multi-layer perceptron and convolutional network.
package benchmark

import (
	"fmt"
	"log/slog"

	"github.com/born-ml/nnfs/internal/nn"
)

// Benchmarks.
const (
	RunXOR   = "xor"
	RunMNIST = "mnist"
)

// Network types.
const (
	NetMLP  = "mlp"
	NetConv = "conv"
)

// Config describes one benchmark run. Zero fields are filled from
// DefaultConfig for the selected run and network type.
type Config struct {
	Run       string  // "xor" or "mnist"
	NetType   string  // "mlp" or "conv" (mnist only)
	Optimizer string  // "sgd" or "adam"
	Epochs    int     // number of passes over the training set
	BatchSize int     // samples per optimizer step
	LR        float64 // learning rate
	Momentum  float64 // SGD momentum in [0, 1)
	Seed      int64   // seeds initialization, shuffling and augmentation

	// MNIST only.
	DataDir         string  // IDX files; empty selects synthetic digits
	Samples         int     // cap on loaded samples per split, 0 for all
	ValidationRatio float64 // tail of the training set held out
	NoValidation    bool    // train on the whole set, ignoring ValidationRatio
	Augment         bool    // rotate and shift training images

	SavePath string       // export trained parameters here when set
	Logger   *slog.Logger // nil discards
}

// syntheticSamples is the training set size used without DataDir.
const syntheticSamples = 1000

// DefaultConfig returns the reference settings of a benchmark.
func DefaultConfig(run, netType string) Config {
	cfg := Config{Run: run, NetType: netType, Optimizer: "sgd", Seed: 1}
	switch {
	case run == RunXOR:
		cfg.NetType = NetMLP
		cfg.Epochs = 2000
		cfg.BatchSize = 1
		cfg.LR = 1.0
	case netType == NetConv:
		cfg.Epochs = 5
		cfg.BatchSize = 32
		cfg.LR = 0.01
		cfg.ValidationRatio = 0.2
	default:
		cfg.Epochs = 10
		cfg.BatchSize = 32
		cfg.LR = 0.04
		cfg.ValidationRatio = 0.2
	}
	return cfg
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	if c.Run == "" {
		c.Run = RunXOR
	}
	if c.NetType == "" {
		c.NetType = NetMLP
	}
	def := DefaultConfig(c.Run, c.NetType)
	if c.Optimizer == "" {
		c.Optimizer = def.Optimizer
	}
	if c.Epochs == 0 {
		c.Epochs = def.Epochs
	}
	if c.BatchSize == 0 {
		c.BatchSize = def.BatchSize
	}
	if c.LR == 0 {
		c.LR = def.LR
	}
	if c.Seed == 0 {
		c.Seed = def.Seed
	}
	switch {
	case c.NoValidation:
		c.ValidationRatio = 0
	case c.ValidationRatio == 0:
		c.ValidationRatio = def.ValidationRatio
	}
	return c
}

// Validate reports the first invalid field, wrapping
// nn.ErrInvalidConfiguration.
func (c Config) Validate() error {
	switch c.Run {
	case RunXOR, RunMNIST:
	default:
		return fmt.Errorf("%w: unknown benchmark %q (want xor or mnist)", nn.ErrInvalidConfiguration, c.Run)
	}
	switch c.NetType {
	case NetMLP, NetConv:
	default:
		return fmt.Errorf("%w: unknown network type %q (want mlp or conv)", nn.ErrInvalidConfiguration, c.NetType)
	}
	if c.Run == RunXOR && c.NetType == NetConv {
		return fmt.Errorf("%w: xor has no convolutional network", nn.ErrInvalidConfiguration)
	}
	if c.Optimizer != "sgd" && c.Optimizer != "adam" {
		return fmt.Errorf("%w: unknown optimizer %q (want sgd or adam)", nn.ErrInvalidConfiguration, c.Optimizer)
	}
	if c.Epochs < 1 {
		return fmt.Errorf("%w: epochs must be at least 1, got %d", nn.ErrInvalidConfiguration, c.Epochs)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("%w: batch size must be at least 1, got %d", nn.ErrInvalidConfiguration, c.BatchSize)
	}
	if c.LR <= 0 {
		return fmt.Errorf("%w: learning rate must be positive, got %g", nn.ErrInvalidConfiguration, c.LR)
	}
	if c.Momentum < 0 || c.Momentum >= 1 {
		return fmt.Errorf("%w: momentum must be in [0, 1), got %g", nn.ErrInvalidConfiguration, c.Momentum)
	}
	if c.Samples < 0 {
		return fmt.Errorf("%w: samples must not be negative, got %d", nn.ErrInvalidConfiguration, c.Samples)
	}
	if c.ValidationRatio < 0 || c.ValidationRatio >= 1 {
		return fmt.Errorf("%w: validation ratio must be in [0, 1), got %g", nn.ErrInvalidConfiguration, c.ValidationRatio)
	}
	return nil
}
