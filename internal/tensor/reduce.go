package tensor

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// SumAll returns the sum of all elements.
func (t *Tensor) SumAll() float64 {
	return floats.Sum(t.data)
}

// MeanAll returns the mean of all elements.
func (t *Tensor) MeanAll() float64 {
	return floats.Sum(t.data) / float64(len(t.data))
}

// Sum reduces the tensor along axis, removing that dimension.
// Negative axes count from the end.
//
// Example:
//
//	x := tensor.Ones(tensor.Shape{4, 3})
//	s, _ := x.Sum(0) // Shape{3}, every element 4
func (t *Tensor) Sum(axis int) (*Tensor, error) {
	rank := len(t.shape)
	if axis < 0 {
		axis += rank
	}
	if axis < 0 || axis >= rank {
		return nil, fmt.Errorf("%w: axis %d out of range for shape %v", ErrShapeMismatch, axis, t.shape)
	}

	outer := t.shape[:axis].NumElements()
	size := t.shape[axis]
	inner := t.shape[axis+1:].NumElements()

	out := make([]float64, outer*inner)
	for o := 0; o < outer; o++ {
		dst := out[o*inner : (o+1)*inner]
		for k := 0; k < size; k++ {
			start := (o*size + k) * inner
			floats.Add(dst, t.data[start:start+inner])
		}
	}

	shape := make(Shape, 0, rank-1)
	shape = append(shape, t.shape[:axis]...)
	shape = append(shape, t.shape[axis+1:]...)
	return newTensor(shape, out), nil
}

// Mean reduces the tensor along axis by averaging, removing that dimension.
func (t *Tensor) Mean(axis int) (*Tensor, error) {
	s, err := t.Sum(axis)
	if err != nil {
		return nil, err
	}
	if axis < 0 {
		axis += len(t.shape)
	}
	floats.Scale(1/float64(t.shape[axis]), s.data)
	return s, nil
}

// ArgMax returns the index of the largest element along the last dimension
// for every leading position. Ties resolve to the lowest index.
//
//	x.Shape() == [32, 10] → len(x.ArgMax()) == 32
func (t *Tensor) ArgMax() []int {
	if len(t.shape) == 0 {
		return []int{0}
	}
	n := t.shape[len(t.shape)-1]
	rows := len(t.data) / n
	out := make([]int, rows)
	for r := 0; r < rows; r++ {
		out[r] = floats.MaxIdx(t.data[r*n : (r+1)*n])
	}
	return out
}
