package dataset

import (
	"fmt"
	"iter"

	"github.com/samber/lo"

	"github.com/born-ml/nnfs/internal/nn"
	"github.com/born-ml/nnfs/internal/tensor"
)

// Batch is a mini-batch ready for the network.
type Batch struct {
	Index   int            // position within the epoch
	Inputs  *tensor.Tensor // [batch, shape...]
	Targets *tensor.Tensor // [batch, num_classes] or [batch, 1]
	Labels  []int          // class index per row
}

// Size returns the number of samples in the batch.
func (b Batch) Size() int { return len(b.Labels) }

// NumBatches returns ceil(Len / batchSize).
func (d *Dataset) NumBatches(batchSize int) int {
	if batchSize <= 0 {
		return 0
	}
	return (len(d.samples) + batchSize - 1) / batchSize
}

// Batches returns a lazy iterator over mini-batches.
//
// The order is partitioned into groups of batchSize; the last batch may be
// smaller. Ranging over the iterator again starts a new epoch: with shuffle
// the order is redrawn from the dataset's random source, and the augmenter,
// if any, is applied to fresh copies of the inputs.
//
// Example:
//
//	batches, err := ds.Batches(64, true)
//	for epoch := 0; epoch < epochs; epoch++ {
//	    for batch := range batches {
//	        loss, err := network.TrainStep(batch)
//	    }
//	}
func (d *Dataset) Batches(batchSize int, shuffle bool) (iter.Seq[Batch], error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("%w: batch size must be positive, got %d", nn.ErrInvalidConfiguration, batchSize)
	}

	return func(yield func(Batch) bool) {
		order := lo.Range(len(d.samples))
		if shuffle {
			d.rng.Shuffle(len(order), func(i, j int) {
				order[i], order[j] = order[j], order[i]
			})
		}

		for i, chunk := range lo.Chunk(order, batchSize) {
			if !yield(d.assemble(i, chunk)) {
				return
			}
		}
	}, nil
}

// assemble stacks the samples at indices into one Batch.
func (d *Dataset) assemble(index int, indices []int) Batch {
	n := len(indices)
	size := d.shape.NumElements()
	targetWidth := d.TargetShape()[0]

	inputs := make([]float64, n*size)
	targets := make([]float64, n*targetWidth)
	labels := make([]int, n)

	for row, idx := range indices {
		s := d.samples[idx]
		in := s.Input
		if d.augmenter != nil {
			in = d.augmenter.Augment(in, d.rng)
		}
		copy(inputs[row*size:(row+1)*size], in.Data())

		labels[row] = s.Label
		if d.encoding == Scalar {
			targets[row] = float64(s.Label)
		} else {
			targets[row*targetWidth+s.Label] = 1
		}
	}

	// Shapes are valid by construction.
	x, _ := tensor.FromSlice(inputs, d.shape.WithBatch(n))
	y, _ := tensor.FromSlice(targets, tensor.Shape{n, targetWidth})
	return Batch{Index: index, Inputs: x, Targets: y, Labels: labels}
}
