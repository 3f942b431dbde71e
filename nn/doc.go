// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides neural network layers, losses and the Sequential
// container.
//
// # Overview
//
// This package contains:
//   - Layers: Dense, Conv2D, Pool2D, Flatten, Reshape
//   - Activations: ReLU, Sigmoid, Tanh, Softmax
//   - Loss functions: MSE, CrossEntropy, BinaryCrossEntropy
//   - Utilities: Sequential, Layer interface, Parameter
//   - Initialization: XavierUniform, HeNormal, Normal
//
// # Basic Usage
//
//	import (
//	    "math/rand"
//
//	    "github.com/born-ml/nnfs/nn"
//	    "github.com/born-ml/nnfs/tensor"
//	)
//
//	func main() {
//	    rng := rand.New(rand.NewSource(42))
//
//	    hidden, _ := nn.NewDense(784, 128, nn.XavierUniform, rng)
//	    output, _ := nn.NewDense(128, 10, nn.XavierUniform, rng)
//
//	    model, err := nn.NewSequential(tensor.Shape{784},
//	        hidden, nn.NewActivation(nn.ReLU),
//	        output, nn.NewActivation(nn.Softmax),
//	    )
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    probs, _ := model.Predict(input) // [batch, 10]
//	}
//
// # Forward and Backward
//
// Layers are stateless between calls. Forward returns a Context holding the
// intermediates Backward needs; Sequential collects them in a Pass:
//
//	out, pass, err := model.Forward(x)
//	loss, grad, err := nn.NewMSE().Compute(out, y)
//	_, err = model.Backward(pass, grad, false)
//
// Backward stores parameter gradients, averaged over the batch, in each
// Parameter; ZeroGrad clears them.
//
// # Losses
//
// MSE pairs with any output layer. CrossEntropy must follow a Softmax and
// BinaryCrossEntropy a Sigmoid: their gradients are taken with respect to the
// logits, so the final activation is skipped during Backward (skipLast).
//
// # Serialization
//
// StateDict and LoadStateDict expose parameters keyed as "<layer>.<name>",
// for example "0.dense.weight". The train package writes them to NNFS files.
package nn
