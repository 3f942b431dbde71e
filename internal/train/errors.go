package train

import (
	"fmt"

	"github.com/born-ml/nnfs/internal/nn"
)

// Stages at which an InstabilityError can be detected.
const (
	StageLoss       = "loss"
	StageGradient   = "gradient"
	StageParameters = "parameters"
)

// InstabilityError reports a NaN or infinite value during training.
// It matches nn.ErrNumericalInstability.
type InstabilityError struct {
	Epoch int    // 1-based epoch, 0 outside a Trainer run
	Batch int    // batch index within the epoch
	Stage string // StageLoss, StageGradient or StageParameters
	Param string // parameter name for gradient and parameter stages
}

func (e *InstabilityError) Error() string {
	where := fmt.Sprintf("epoch %d, batch %d", e.Epoch, e.Batch)
	if e.Param != "" {
		return fmt.Sprintf("%s: non-finite %s of %s at %s", nn.ErrNumericalInstability, e.Stage, e.Param, where)
	}
	return fmt.Sprintf("%s: non-finite %s at %s", nn.ErrNumericalInstability, e.Stage, where)
}

// Unwrap lets errors.Is match nn.ErrNumericalInstability.
func (e *InstabilityError) Unwrap() error {
	return nn.ErrNumericalInstability
}
