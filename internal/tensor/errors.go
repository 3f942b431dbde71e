package tensor

import "errors"

// Tensor errors. Operations wrap them with the offending shapes, so callers
// should match with errors.Is.
var (
	ErrShapeMismatch        = errors.New("shape mismatch")
	ErrElementCountMismatch = errors.New("element count mismatch")
)
