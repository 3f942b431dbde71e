package nn

import (
	"errors"

	"github.com/born-ml/nnfs/internal/tensor"
)

// Errors reported by layers, losses and the training loop.
var (
	// ErrShapeMismatch is the tensor package's shape error, re-exported so
	// callers need a single import.
	ErrShapeMismatch = tensor.ErrShapeMismatch

	// ErrElementCountMismatch is returned by Reshape when sizes differ.
	ErrElementCountMismatch = tensor.ErrElementCountMismatch

	// ErrInvalidConfiguration reports impossible hyper-parameters or geometry.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrNumericalInstability reports a NaN or infinite loss or gradient.
	ErrNumericalInstability = errors.New("numerical instability")

	// ErrInvalidContext is returned when Backward receives a Context that was
	// not produced by the same layer type.
	ErrInvalidContext = errors.New("invalid backward context")
)
