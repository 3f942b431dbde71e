// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/born-ml/nnfs/internal/nn"
	"github.com/born-ml/nnfs/tensor"
)

// Parameter represents a trainable tensor and its accumulated gradient.
//
// Example:
//
//	for _, p := range model.Parameters() {
//	    fmt.Println(p.Name(), p.Tensor().Shape(), p.Grad() != nil)
//	}
//
// Grad is nil until the first Backward call and after ZeroGrad.
type Parameter = nn.Parameter

// NewParameter wraps t as a trainable parameter.
func NewParameter(name string, t *tensor.Tensor) *Parameter {
	return nn.NewParameter(name, t)
}
