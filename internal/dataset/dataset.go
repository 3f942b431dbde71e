// Package dataset holds labelled samples and turns them into training
// batches.
//
// A Dataset is an ordered, immutable list of samples sharing one input
// shape. Batches are produced lazily by an iterator that can be restarted
// every epoch; when shuffling or augmentation is enabled each restart draws
// from the dataset's random source, so a fixed seed reproduces a run.
package dataset

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/born-ml/nnfs/internal/nn"
	"github.com/born-ml/nnfs/internal/tensor"
)

// ErrDataFormat is matched by every *FormatError.
var ErrDataFormat = errors.New("data format error")

// FormatError reports a malformed or inconsistent data source.
type FormatError struct {
	Path   string // File or source name ("" for in-memory data)
	Reason string
}

func (e *FormatError) Error() string {
	if e.Path == "" {
		return "dataset: " + e.Reason
	}
	return fmt.Sprintf("dataset: %s: %s", e.Path, e.Reason)
}

// Unwrap makes errors.Is(err, ErrDataFormat) succeed.
func (e *FormatError) Unwrap() error { return ErrDataFormat }

func formatErrorf(path, format string, args ...any) error {
	return &FormatError{Path: path, Reason: fmt.Sprintf(format, args...)}
}

// Sample is one labelled input.
type Sample struct {
	Input *tensor.Tensor // per-sample shape, e.g. [784] or [2]
	Label int            // class index in [0, NumClasses)
}

// Encoding selects how labels become target tensors.
type Encoding int

const (
	// OneHot targets are [batch, num_classes] with a single 1 per row.
	OneHot Encoding = iota
	// Scalar targets are [batch, 1] holding the label as a float (XOR).
	Scalar
)

// Option configures a Dataset.
type Option func(*Dataset)

// WithEncoding sets the target encoding (default OneHot).
func WithEncoding(e Encoding) Option {
	return func(d *Dataset) { d.encoding = e }
}

// WithAugmenter applies a to a copy of every sampled input, once per epoch.
func WithAugmenter(a Augmenter) Option {
	return func(d *Dataset) { d.augmenter = a }
}

// WithRand sets the random source used for shuffling and augmentation.
func WithRand(rng *rand.Rand) Option {
	return func(d *Dataset) { d.rng = rng }
}

// Dataset is an ordered collection of samples with identical input shapes.
type Dataset struct {
	samples    []Sample
	numClasses int
	shape      tensor.Shape
	encoding   Encoding
	augmenter  Augmenter
	rng        *rand.Rand
}

// New validates samples and builds a Dataset.
//
// Returns a *FormatError if the list is empty, input shapes differ or a
// label falls outside [0, numClasses). Without WithRand the dataset uses a
// source seeded with 1.
func New(samples []Sample, numClasses int, opts ...Option) (*Dataset, error) {
	if numClasses < 1 {
		return nil, fmt.Errorf("%w: dataset needs at least one class, got %d", nn.ErrInvalidConfiguration, numClasses)
	}
	if len(samples) == 0 {
		return nil, formatErrorf("", "no samples")
	}

	shape := samples[0].Input.Shape()
	for i, s := range samples {
		if !s.Input.Shape().Equal(shape) {
			return nil, formatErrorf("", "sample %d has shape %v, want %v", i, s.Input.Shape(), shape)
		}
		if s.Label < 0 || s.Label >= numClasses {
			return nil, formatErrorf("", "sample %d has label %d outside [0, %d)", i, s.Label, numClasses)
		}
	}

	d := &Dataset{
		samples:    samples,
		numClasses: numClasses,
		shape:      shape,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.rng == nil {
		d.rng = rand.New(rand.NewSource(1))
	}
	if d.encoding == Scalar && numClasses > 2 {
		return nil, fmt.Errorf("%w: scalar targets need at most 2 classes, got %d", nn.ErrInvalidConfiguration, numClasses)
	}
	if d.augmenter != nil {
		if err := d.augmenter.Check(shape); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// derive returns a dataset over samples sharing d's settings.
func (d *Dataset) derive(samples []Sample, augmenter Augmenter) *Dataset {
	return &Dataset{
		samples:    samples,
		numClasses: d.numClasses,
		shape:      d.shape,
		encoding:   d.encoding,
		augmenter:  augmenter,
		rng:        d.rng,
	}
}

// Len returns the number of samples.
func (d *Dataset) Len() int { return len(d.samples) }

// Shape returns the per-sample input shape.
func (d *Dataset) Shape() tensor.Shape { return d.shape.Clone() }

// NumClasses returns the number of label classes.
func (d *Dataset) NumClasses() int { return d.numClasses }

// Encoding returns the target encoding.
func (d *Dataset) Encoding() Encoding { return d.encoding }

// TargetShape returns the per-sample target shape.
func (d *Dataset) TargetShape() tensor.Shape {
	if d.encoding == Scalar {
		return tensor.Shape{1}
	}
	return tensor.Shape{d.numClasses}
}

// Sample returns the i-th stored sample. The input must not be modified.
func (d *Dataset) Sample(i int) Sample { return d.samples[i] }

// Augmenter returns the configured augmenter or nil.
func (d *Dataset) Augmenter() Augmenter { return d.augmenter }

// Split keeps the first (1 − validationRatio) of the samples for training
// and returns the rest as a validation set without augmentation.
//
//	60,000 MNIST samples, ratio 0.2 → 48,000 train, 12,000 validation
func (d *Dataset) Split(validationRatio float64) (*Dataset, *Dataset, error) {
	if validationRatio <= 0 || validationRatio >= 1 {
		return nil, nil, fmt.Errorf("%w: validation ratio must be in (0, 1), got %g", nn.ErrInvalidConfiguration, validationRatio)
	}
	splitIdx := int(float64(len(d.samples)) * (1.0 - validationRatio))
	if splitIdx == 0 || splitIdx == len(d.samples) {
		return nil, nil, fmt.Errorf("%w: %d samples cannot be split with ratio %g",
			nn.ErrInvalidConfiguration, len(d.samples), validationRatio)
	}
	return d.derive(d.samples[:splitIdx], d.augmenter), d.derive(d.samples[splitIdx:], nil), nil
}

// Subset returns the first n samples (all of them if n <= 0 or n >= Len).
func (d *Dataset) Subset(n int) *Dataset {
	if n <= 0 || n >= len(d.samples) {
		return d
	}
	return d.derive(d.samples[:n], d.augmenter)
}

// WithoutAugmentation returns a view of the same samples that is never augmented.
func (d *Dataset) WithoutAugmentation() *Dataset {
	return d.derive(d.samples, nil)
}

// Checksum returns a digest over every stored input and label, in order.
// It changes if any stored sample is mutated.
func (d *Dataset) Checksum() string {
	inputs := make([]float64, 0, len(d.samples)*d.shape.NumElements())
	labels := make([]float64, len(d.samples))
	for i, s := range d.samples {
		inputs = append(inputs, s.Input.Data()...)
		labels[i] = float64(s.Label)
	}
	in, _ := tensor.FromSlice(inputs, d.shape.WithBatch(len(d.samples)))
	lb, _ := tensor.FromSlice(labels, tensor.Shape{len(d.samples)})
	return in.Checksum() + lb.Checksum()
}
