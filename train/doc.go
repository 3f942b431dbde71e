// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package train runs the training loop and provides the datasets it
// consumes.
//
// # Overview
//
// This package contains:
//   - Network: a Sequential model bound to a loss and an optimizer
//   - Trainer: the epoch loop with shuffling, validation and reporting
//   - Metrics: loss, accuracy and macro precision/recall
//   - Datasets: XOR, MNIST IDX files, synthetic digits and augmentation
//   - NNFS parameter files: SaveParameters and LoadParameters
//
// # Basic Usage
//
//	rng := rand.New(rand.NewSource(42))
//	hidden, _ := nn.NewDense(2, 4, nn.XavierUniform, rng)
//	output, _ := nn.NewDense(4, 1, nn.XavierUniform, rng)
//	model, _ := nn.NewSequential(tensor.Shape{2},
//	    hidden, nn.NewActivation(nn.Sigmoid),
//	    output, nn.NewActivation(nn.Sigmoid),
//	)
//
//	opt, _ := optim.NewSGD(model.Parameters(), optim.SGDConfig{LR: 1.0})
//	net, _ := train.NewNetwork(model, nn.NewMSE(), opt)
//
//	xor, _ := train.XOR(train.WithRand(rng))
//	trainer, _ := train.NewTrainer(net, train.Config{Epochs: 2000, BatchSize: 1, Shuffle: true})
//	history, err := trainer.Fit(ctx, xor)
//
// # Lifecycle
//
// A Trainer moves Idle → EpochRunning → EpochComplete for every epoch and
// ends in Finished. A NaN or infinite loss, gradient or parameter stops the
// run in Failed with an *InstabilityError; so does cancelling ctx, which is
// checked between epochs.
//
// # Reproducibility
//
// Every source of randomness (initialization, shuffling, augmentation) takes
// an explicit *rand.Rand. The same seed gives bit-identical parameters; use
// Checksum on tensors and datasets to compare runs.
package train
