// Package train wires layers, a loss and an optimizer into a trainable
// network and runs the epoch loop over a dataset.
//
// Example usage:
//
//	model, _ := nn.NewSequential(tensor.Shape{2}, dense1, sigmoid1, dense2, sigmoid2)
//	opt, _ := optim.NewSGD(model.Parameters(), optim.SGDConfig{LR: 1.0})
//	net, _ := train.NewNetwork(model, nn.NewMSE(), opt)
//
//	trainer, _ := train.NewTrainer(net, train.Config{Epochs: 2000, BatchSize: 1, Shuffle: true})
//	history, err := trainer.Fit(ctx, xor)
package train

import (
	"fmt"
	"io"
	"maps"
	"strconv"
	"strings"

	"github.com/born-ml/nnfs/internal/dataset"
	"github.com/born-ml/nnfs/internal/nn"
	"github.com/born-ml/nnfs/internal/optim"
	"github.com/born-ml/nnfs/internal/parallel"
	"github.com/born-ml/nnfs/internal/serialization"
	"github.com/born-ml/nnfs/internal/tensor"
)

// ModelType is recorded in exported parameter files.
const ModelType = "Sequential"

// Network owns a model, its loss and the optimizer bound to its parameters.
type Network struct {
	model    *nn.Sequential
	loss     nn.Loss
	opt      optim.Optimizer
	coupled  bool
	parallel parallel.Config
}

// NewNetwork creates a Network.
//
// A coupled loss (CrossEntropy, BinaryCrossEntropy) requires the model to end
// with the matching activation; that activation is then skipped during
// backward because the loss gradient is already taken with respect to its
// input. Returns ErrInvalidConfiguration otherwise.
func NewNetwork(model *nn.Sequential, loss nn.Loss, opt optim.Optimizer) (*Network, error) {
	if model == nil || loss == nil || opt == nil {
		return nil, fmt.Errorf("%w: network needs a model, a loss and an optimizer", nn.ErrInvalidConfiguration)
	}

	n := &Network{model: model, loss: loss, opt: opt, parallel: parallel.DefaultConfig()}
	if cl, ok := loss.(nn.CoupledLoss); ok {
		want := cl.CoupledActivation()
		act, isAct := model.Layer(model.Len() - 1).(*nn.Activation)
		if !isAct || act.Kind() != want {
			return nil, fmt.Errorf("%w: loss %s requires the last layer to be %s, got %s",
				nn.ErrInvalidConfiguration, loss.Name(), want, model.Layer(model.Len()-1).Name())
		}
		n.coupled = true
	}
	return n, nil
}

// WithParallel sets the parallelism used by Evaluate.
func (n *Network) WithParallel(cfg parallel.Config) *Network {
	n.parallel = cfg
	return n
}

// Model returns the underlying layer stack.
func (n *Network) Model() *nn.Sequential { return n.model }

// Loss returns the loss function.
func (n *Network) Loss() nn.Loss { return n.loss }

// Optimizer returns the optimizer.
func (n *Network) Optimizer() optim.Optimizer { return n.opt }

// Forward runs the model on a batch and returns the predictions together
// with the pass needed by Backward.
func (n *Network) Forward(input *tensor.Tensor) (*tensor.Tensor, *nn.Pass, error) {
	return n.model.Forward(input)
}

// Backward propagates a loss gradient through the model in reverse order,
// leaving parameter gradients on the parameters.
func (n *Network) Backward(pass *nn.Pass, lossGrad *tensor.Tensor) error {
	_, err := n.model.Backward(pass, lossGrad, n.coupled)
	return err
}

// TrainStep runs forward, loss, backward and one optimizer step on a batch
// and returns the batch loss.
//
// A non-finite loss, gradient or updated parameter stops the step with an
// *InstabilityError; parameters are left as they were when the loss or a
// gradient is non-finite.
func (n *Network) TrainStep(batch dataset.Batch) (float64, error) {
	loss, _, err := n.step(batch)
	return loss, err
}

// step is TrainStep that also returns the predictions for accuracy tracking.
func (n *Network) step(batch dataset.Batch) (float64, *tensor.Tensor, error) {
	n.opt.ZeroGrad()

	predictions, pass, err := n.model.Forward(batch.Inputs)
	if err != nil {
		return 0, nil, err
	}
	loss, grad, err := n.loss.Compute(predictions, batch.Targets)
	if err != nil {
		return 0, nil, err
	}
	if !isFinite(loss) || grad.HasNaNOrInf() {
		return loss, nil, &InstabilityError{Batch: batch.Index, Stage: StageLoss}
	}

	if err := n.Backward(pass, grad); err != nil {
		return 0, nil, err
	}
	for _, p := range n.model.Parameters() {
		if g := p.Grad(); g != nil && g.HasNaNOrInf() {
			return loss, nil, &InstabilityError{Batch: batch.Index, Stage: StageGradient, Param: p.Name()}
		}
	}

	if err := n.opt.Step(); err != nil {
		return 0, nil, err
	}
	for _, p := range n.model.Parameters() {
		if p.Tensor().HasNaNOrInf() {
			return loss, nil, &InstabilityError{Batch: batch.Index, Stage: StageParameters, Param: p.Name()}
		}
	}
	return loss, predictions, nil
}

// Predict returns the model output for a batch.
func (n *Network) Predict(input *tensor.Tensor) (*tensor.Tensor, error) {
	return n.model.Predict(input)
}

// Classify returns the predicted class of every row in a batch.
func (n *Network) Classify(input *tensor.Tensor) ([]int, error) {
	out, err := n.model.Predict(input)
	if err != nil {
		return nil, err
	}
	return Classes(out), nil
}

// Classes converts a [batch, k] output to class indices: arg-max for k > 1,
// a 0.5 threshold for a single output unit.
func Classes(predictions *tensor.Tensor) []int {
	if predictions.Dim(-1) == 1 {
		classes := make([]int, predictions.Dim(0))
		for i, v := range predictions.Data() {
			if v >= 0.5 {
				classes[i] = 1
			}
		}
		return classes
	}
	return predictions.ArgMax()
}

// ExportParameters writes every parameter in layer order, tagged with its
// name, layer index and shape.
func (n *Network) ExportParameters(w io.Writer, metadata map[string]string) error {
	entries, err := n.entries()
	if err != nil {
		return err
	}
	if err := serialization.NewWriter(w).WriteTensors(entries, ModelType, n.metadata(metadata)); err != nil {
		return fmt.Errorf("failed to export parameters: %w", err)
	}
	return nil
}

// SaveParameters is ExportParameters to a file.
func (n *Network) SaveParameters(path string, metadata map[string]string) error {
	entries, err := n.entries()
	if err != nil {
		return err
	}
	return serialization.SaveFile(path, entries, ModelType, n.metadata(metadata))
}

// ImportParameters replaces all parameter values with those read from r.
// The stored names and shapes must match the model exactly.
func (n *Network) ImportParameters(r io.Reader) error {
	reader, err := serialization.NewReader(r)
	if err != nil {
		return fmt.Errorf("failed to import parameters: %w", err)
	}
	return n.model.LoadStateDict(reader.StateDict())
}

// LoadParameters is ImportParameters from a file.
func (n *Network) LoadParameters(path string) error {
	reader, err := serialization.LoadFile(path)
	if err != nil {
		return err
	}
	return n.model.LoadStateDict(reader.StateDict())
}

func (n *Network) entries() ([]serialization.Entry, error) {
	stateDict := n.model.StateDict()
	keys := n.model.StateKeys()
	entries := make([]serialization.Entry, 0, len(keys))
	for _, key := range keys {
		prefix, _, _ := strings.Cut(key, ".")
		layer, err := strconv.Atoi(prefix)
		if err != nil {
			return nil, fmt.Errorf("parameter key %q has no layer index: %w", key, err)
		}
		entries = append(entries, serialization.Entry{Name: key, Layer: layer, Tensor: stateDict[key]})
	}
	return entries, nil
}

func (n *Network) metadata(extra map[string]string) map[string]string {
	layers := make([]string, 0, n.model.Len())
	for _, l := range n.model.Layers() {
		layers = append(layers, l.Name())
	}
	md := map[string]string{
		"layers":      strings.Join(layers, ","),
		"input_shape": fmt.Sprint([]int(n.model.InputShape())),
		"loss":        n.loss.Name(),
		"optimizer":   n.opt.Name(),
	}
	maps.Copy(md, extra)
	return md
}
