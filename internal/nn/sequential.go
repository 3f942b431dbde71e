package nn

import (
	"fmt"
	"sort"

	"github.com/born-ml/nnfs/internal/tensor"
)

// Sequential is a container that chains layers together.
//
// Each layer's output becomes the next layer's input. The chain is checked
// once at construction: the output shape of layer i must be accepted by
// layer i+1, starting from the declared per-sample input shape.
//
// Example:
//
//	model, err := nn.NewSequential(tensor.Shape{784},
//	    dense1, nn.NewActivation(nn.ReLU),
//	    dense2, nn.NewActivation(nn.Softmax),
//	)
//
//	output, pass, err := model.Forward(input)
//	_, err = model.Backward(pass, dLogits, true)
//
// This is equivalent to:
//
//	h1, c1, _ := dense1.Forward(input)
//	h2, c2, _ := relu.Forward(h1)
//	...
type Sequential struct {
	layers      []Layer
	inputShape  tensor.Shape
	outputShape tensor.Shape
}

// Pass holds the per-layer contexts of one Sequential.Forward call.
type Pass struct {
	contexts []Context
}

// NewSequential creates a new Sequential container.
//
// Returns an error wrapping ErrShapeMismatch (or ErrInvalidConfiguration for
// impossible convolution geometry) naming the first layer that cannot accept
// its predecessor's output.
func NewSequential(inputShape tensor.Shape, layers ...Layer) (*Sequential, error) {
	if len(layers) == 0 {
		return nil, fmt.Errorf("%w: sequential needs at least one layer", ErrInvalidConfiguration)
	}
	if len(inputShape) == 0 {
		return nil, fmt.Errorf("%w: sequential needs a per-sample input shape", ErrShapeMismatch)
	}
	if err := inputShape.Validate(); err != nil {
		return nil, err
	}

	shape := inputShape.Clone()
	for i, layer := range layers {
		next, err := layer.OutputShape(shape)
		if err != nil {
			return nil, fmt.Errorf("layer %d (%s) with input %v: %w", i, layer.Name(), shape, err)
		}
		shape = next
	}

	return &Sequential{
		layers:      layers,
		inputShape:  inputShape.Clone(),
		outputShape: shape,
	}, nil
}

// InputShape returns the declared per-sample input shape.
func (s *Sequential) InputShape() tensor.Shape {
	return s.inputShape.Clone()
}

// OutputShape returns the per-sample output shape of the last layer.
func (s *Sequential) OutputShape() tensor.Shape {
	return s.outputShape.Clone()
}

// Forward applies all layers in sequence.
//
// input must be [batch, inputShape...]. The returned Pass is needed by Backward.
func (s *Sequential) Forward(input *tensor.Tensor) (*tensor.Tensor, *Pass, error) {
	shape := input.Shape()
	if len(shape) != len(s.inputShape)+1 || !shape[1:].Equal(s.inputShape) {
		return nil, nil, fmt.Errorf("%w: network expects [batch %v], got %v",
			ErrShapeMismatch, []int(s.inputShape), shape)
	}

	pass := &Pass{contexts: make([]Context, len(s.layers))}
	output := input
	for i, layer := range s.layers {
		out, ctx, err := layer.Forward(output)
		if err != nil {
			return nil, nil, fmt.Errorf("layer %d (%s): %w", i, layer.Name(), err)
		}
		pass.contexts[i] = ctx
		output = out
	}

	return output, pass, nil
}

// Predict is Forward without keeping the pass.
func (s *Sequential) Predict(input *tensor.Tensor) (*tensor.Tensor, error) {
	out, _, err := s.Forward(input)
	return out, err
}

// Backward propagates grad through the layers in reverse order and returns
// the gradient with respect to the network input.
//
// With skipLast set the last layer is bypassed and grad is handed directly
// to the layer before it; this is how a coupled loss (Softmax+CrossEntropy)
// delivers its gradient with respect to the logits.
func (s *Sequential) Backward(pass *Pass, grad *tensor.Tensor, skipLast bool) (*tensor.Tensor, error) {
	if pass == nil || len(pass.contexts) != len(s.layers) {
		return nil, fmt.Errorf("%w: pass does not belong to this network", ErrInvalidContext)
	}

	last := len(s.layers) - 1
	if skipLast {
		last--
	}
	for i := last; i >= 0; i-- {
		g, err := s.layers[i].Backward(pass.contexts[i], grad)
		if err != nil {
			return nil, fmt.Errorf("layer %d (%s): %w", i, s.layers[i].Name(), err)
		}
		grad = g
	}
	return grad, nil
}

// Parameters returns all trainable parameters in layer order.
func (s *Sequential) Parameters() []*Parameter {
	var params []*Parameter
	for _, layer := range s.layers {
		params = append(params, layer.Parameters()...)
	}
	return params
}

// ZeroGrad clears every parameter gradient.
func (s *Sequential) ZeroGrad() {
	for _, p := range s.Parameters() {
		p.ZeroGrad()
	}
}

// Len returns the number of layers.
func (s *Sequential) Len() int {
	return len(s.layers)
}

// Layer returns the layer at the given index.
//
// Panics if index is out of bounds.
func (s *Sequential) Layer(index int) Layer {
	if index < 0 || index >= len(s.layers) {
		panic("Sequential.Layer: index out of bounds")
	}
	return s.layers[index]
}

// Layers returns the layers in order.
func (s *Sequential) Layers() []Layer {
	return append([]Layer(nil), s.layers...)
}

// StateDict returns a map of parameter names to tensors.
//
// Parameters are prefixed with their layer index (e.g., "0.dense.weight",
// "3.conv2d.bias") to avoid name collisions.
func (s *Sequential) StateDict() map[string]*tensor.Tensor {
	stateDict := make(map[string]*tensor.Tensor)
	for i, layer := range s.layers {
		for _, p := range layer.Parameters() {
			stateDict[fmt.Sprintf("%d.%s", i, p.Name())] = p.Tensor()
		}
	}
	return stateDict
}

// StateKeys returns the StateDict keys in layer order.
func (s *Sequential) StateKeys() []string {
	var keys []string
	for i, layer := range s.layers {
		for _, p := range layer.Parameters() {
			keys = append(keys, fmt.Sprintf("%d.%s", i, p.Name()))
		}
	}
	return keys
}

// LoadStateDict copies values from a state dictionary into the parameters.
//
// Every parameter must be present with an identical shape; unknown keys are
// rejected so a mismatched architecture is never half-loaded.
func (s *Sequential) LoadStateDict(stateDict map[string]*tensor.Tensor) error {
	own := s.StateDict()

	var unknown []string
	for key := range stateDict {
		if _, ok := own[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("%w: unknown parameters %v", ErrShapeMismatch, unknown)
	}

	for _, key := range s.StateKeys() {
		src, ok := stateDict[key]
		if !ok {
			return fmt.Errorf("%w: missing parameter %q", ErrShapeMismatch, key)
		}
		if !src.Shape().Equal(own[key].Shape()) {
			return fmt.Errorf("%w: parameter %q has shape %v, want %v",
				ErrShapeMismatch, key, src.Shape(), own[key].Shape())
		}
	}

	for _, key := range s.StateKeys() {
		if err := own[key].CopyFrom(stateDict[key]); err != nil {
			return fmt.Errorf("failed to load %q: %w", key, err)
		}
	}
	return nil
}
