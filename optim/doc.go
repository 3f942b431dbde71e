// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides optimization algorithms for training neural networks.
//
// # Overview
//
// This package contains:
//   - SGD: Stochastic Gradient Descent with momentum
//   - Adam: Adaptive Moment Estimation with bias correction
//   - Optimizer interface and New, which selects one by name
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/nnfs/nn"
//	    "github.com/born-ml/nnfs/optim"
//	)
//
//	func main() {
//	    model, _ := nn.NewSequential(...)
//
//	    optimizer, err := optim.NewSGD(model.Parameters(), optim.SGDConfig{
//	        LR:       0.01,
//	        Momentum: 0.9,
//	    })
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    batches, _ := ds.Batches(32, true)
//	    for batch := range batches {
//	        out, pass, _ := model.Forward(batch.Inputs)
//	        _, grad, _ := loss.Compute(out, batch.Targets)
//	        _, _ = model.Backward(pass, grad, true)
//
//	        _ = optimizer.Step()
//	        optimizer.ZeroGrad()
//	    }
//	}
//
// # Update Rules
//
// SGD with momentum μ keeps one velocity per parameter:
//
//	v = μ·v + grad
//	θ = θ - lr·v
//
// With μ = 0 this is plain gradient descent. Velocities start at zero and are
// allocated on the first Step.
//
// Parameters without a gradient are left untouched by Step.
package optim
