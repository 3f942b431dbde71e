// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package train

import (
	"github.com/born-ml/nnfs/internal/train"
	"github.com/born-ml/nnfs/nn"
	"github.com/born-ml/nnfs/optim"
	"github.com/born-ml/nnfs/tensor"
)

// Network

// Network owns a model, its loss and the optimizer bound to its parameters.
type Network = train.Network

// NewNetwork creates a Network.
//
// A coupled loss (CrossEntropy, BinaryCrossEntropy) requires the model to end
// with the matching activation. Returns nn.ErrInvalidConfiguration otherwise.
func NewNetwork(model *nn.Sequential, loss nn.Loss, opt optim.Optimizer) (*Network, error) {
	return train.NewNetwork(model, loss, opt)
}

// Classes returns the class of each row of predictions: argmax, or a 0.5
// threshold for single-unit outputs.
func Classes(predictions *tensor.Tensor) []int {
	return train.Classes(predictions)
}

// ModelType is recorded in exported parameter files.
const ModelType = train.ModelType

// Trainer

// Trainer runs the epoch loop for one Network.
type Trainer = train.Trainer

// Config configures a training run.
type Config = train.Config

// State is the lifecycle position of a Trainer.
type State = train.State

// Trainer states.
const (
	Idle          = train.Idle
	EpochRunning  = train.EpochRunning
	EpochComplete = train.EpochComplete
	Finished      = train.Finished
	Failed        = train.Failed
)

// NewTrainer creates a Trainer in the Idle state.
//
// Example:
//
//	trainer, err := train.NewTrainer(net, train.Config{Epochs: 10, BatchSize: 32, Shuffle: true},
//	    train.ReporterFunc(func(m train.EpochMetrics) {
//	        fmt.Printf("epoch %d loss %.4f\n", m.Epoch, m.Loss)
//	    }))
func NewTrainer(net *Network, cfg Config, reporters ...Reporter) (*Trainer, error) {
	return train.NewTrainer(net, cfg, reporters...)
}

// Reporter receives epoch metrics as they are produced.
type Reporter = train.Reporter

// ReporterFunc adapts a function to Reporter.
type ReporterFunc = train.ReporterFunc

// Metrics

// EpochMetrics is reported after every completed epoch.
type EpochMetrics = train.EpochMetrics

// History keeps the per-epoch metrics of a run. It is itself a Reporter.
type History = train.History

// Metrics summarises a forward-only pass over a dataset.
type Metrics = train.Metrics

// Errors

// InstabilityError reports a NaN or infinite value during training.
// It matches nn.ErrNumericalInstability.
type InstabilityError = train.InstabilityError

// Stages at which an InstabilityError can be detected.
const (
	StageLoss       = train.StageLoss
	StageGradient   = train.StageGradient
	StageParameters = train.StageParameters
)
