package tensor

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Add performs element-wise addition with broadcasting.
func (t *Tensor) Add(other *Tensor) (*Tensor, error) {
	return t.binary(other, "add", floats.AddTo, func(a, b float64) float64 { return a + b })
}

// Sub performs element-wise subtraction with broadcasting.
func (t *Tensor) Sub(other *Tensor) (*Tensor, error) {
	return t.binary(other, "sub", floats.SubTo, func(a, b float64) float64 { return a - b })
}

// Mul performs element-wise multiplication with broadcasting.
func (t *Tensor) Mul(other *Tensor) (*Tensor, error) {
	return t.binary(other, "mul", floats.MulTo, func(a, b float64) float64 { return a * b })
}

// Div performs element-wise division with broadcasting.
func (t *Tensor) Div(other *Tensor) (*Tensor, error) {
	return t.binary(other, "div", floats.DivTo, func(a, b float64) float64 { return a / b })
}

// binary applies fn element-wise. Equal shapes take the gonum fast path,
// anything else goes through the broadcasting walk.
func (t *Tensor) binary(
	other *Tensor,
	op string,
	fast func(dst, s, u []float64) []float64,
	fn func(a, b float64) float64,
) (*Tensor, error) {
	if t.shape.Equal(other.shape) {
		out := make([]float64, len(t.data))
		fast(out, t.data, other.data)
		return newTensor(t.shape.Clone(), out), nil
	}

	shape, _, err := BroadcastShapes(t.shape, other.shape)
	if err != nil {
		return nil, fmt.Errorf("tensor.%s: %w", op, err)
	}

	out := make([]float64, shape.NumElements())
	aStrides := broadcastStrides(t.shape, shape)
	bStrides := broadcastStrides(other.shape, shape)
	index := make([]int, len(shape))
	ai, bi := 0, 0

	for i := range out {
		out[i] = fn(t.data[ai], other.data[bi])

		// Advance the multi-index, carrying into outer dimensions.
		for d := len(shape) - 1; d >= 0; d-- {
			index[d]++
			ai += aStrides[d]
			bi += bStrides[d]
			if index[d] < shape[d] {
				break
			}
			ai -= aStrides[d] * shape[d]
			bi -= bStrides[d] * shape[d]
			index[d] = 0
		}
	}

	return newTensor(shape, out), nil
}

// MatMul performs matrix multiplication.
//
// Supported layouts:
//   - [M, K] @ [K, N] → [M, N]
//   - [..., M, K] @ [K, N] → [..., M, N] (leading dims folded into rows)
//   - [..., M, K] @ [..., K, N] → [..., M, N] (equal leading dims, batched)
//
// The last dimension of t must equal the second-to-last dimension of other,
// otherwise an error wrapping ErrShapeMismatch is returned.
func (t *Tensor) MatMul(other *Tensor) (*Tensor, error) {
	ra, rb := len(t.shape), len(other.shape)
	if ra < 2 || rb < 2 {
		return nil, fmt.Errorf("%w: matmul requires rank >= 2, got %v @ %v", ErrShapeMismatch, t.shape, other.shape)
	}

	m, k := t.shape[ra-2], t.shape[ra-1]
	k2, n := other.shape[rb-2], other.shape[rb-1]
	if k != k2 {
		return nil, fmt.Errorf("%w: matmul inner dimensions differ: %v @ %v", ErrShapeMismatch, t.shape, other.shape)
	}

	outShape := append(t.shape[:ra-1].Clone(), n)

	switch {
	case rb == 2:
		rows := len(t.data) / k
		out := make([]float64, rows*n)
		matmul2D(out, t.data, other.data, rows, k, n)
		return newTensor(outShape, out), nil

	case ra == rb && t.shape[:ra-2].Equal(other.shape[:rb-2]):
		batch := t.shape[:ra-2].NumElements()
		out := make([]float64, batch*m*n)
		for b := 0; b < batch; b++ {
			matmul2D(out[b*m*n:(b+1)*m*n], t.data[b*m*k:(b+1)*m*k], other.data[b*k*n:(b+1)*k*n], m, k, n)
		}
		return newTensor(outShape, out), nil

	default:
		return nil, fmt.Errorf("%w: matmul batch dimensions differ: %v @ %v", ErrShapeMismatch, t.shape, other.shape)
	}
}

// matmul2D computes dst = a @ b for row-major buffers using gonum.
func matmul2D(dst, a, b []float64, m, k, n int) {
	c := mat.NewDense(m, n, dst)
	c.Mul(mat.NewDense(m, k, a), mat.NewDense(k, n, b))
}

// Transpose permutes the tensor dimensions.
//
// Without arguments the last two dimensions are swapped (matrix transpose);
// tensors of rank < 2 are returned as a copy. With arguments, axes must be a
// permutation of [0, rank).
//
// Example:
//
//	x := tensor.Zeros(tensor.Shape{2, 3, 4})
//	y, _ := x.Transpose()        // [2, 4, 3]
//	z, _ := x.Transpose(2, 0, 1) // [4, 2, 3]
func (t *Tensor) Transpose(axes ...int) (*Tensor, error) {
	rank := len(t.shape)
	if len(axes) == 0 {
		if rank < 2 {
			return t.Clone(), nil
		}
		axes = make([]int, rank)
		for i := range axes {
			axes[i] = i
		}
		axes[rank-1], axes[rank-2] = axes[rank-2], axes[rank-1]
	}

	if len(axes) != rank {
		return nil, fmt.Errorf("%w: transpose expects %d axes, got %v", ErrShapeMismatch, rank, axes)
	}
	seen := make([]bool, rank)
	for _, a := range axes {
		if a < 0 || a >= rank || seen[a] {
			return nil, fmt.Errorf("%w: invalid transpose permutation %v for shape %v", ErrShapeMismatch, axes, t.shape)
		}
		seen[a] = true
	}

	srcStrides := t.shape.ComputeStrides()
	outShape := make(Shape, rank)
	strides := make([]int, rank)
	for i, a := range axes {
		outShape[i] = t.shape[a]
		strides[i] = srcStrides[a]
	}

	out := make([]float64, len(t.data))
	index := make([]int, rank)
	src := 0
	for i := range out {
		out[i] = t.data[src]
		for d := rank - 1; d >= 0; d-- {
			index[d]++
			src += strides[d]
			if index[d] < outShape[d] {
				break
			}
			src -= strides[d] * outShape[d]
			index[d] = 0
		}
	}

	return newTensor(outShape, out), nil
}

// Reshape returns a copy of the tensor with a new shape.
//
// One dimension may be -1, in which case it is inferred from the element
// count. Returns an error wrapping ErrElementCountMismatch if the total size
// differs.
func (t *Tensor) Reshape(dims ...int) (*Tensor, error) {
	shape := Shape(dims).Clone()
	infer := -1
	known := 1
	for i, d := range shape {
		switch {
		case d == -1 && infer == -1:
			infer = i
		case d <= 0:
			return nil, fmt.Errorf("%w: invalid reshape dimensions %v", ErrElementCountMismatch, dims)
		default:
			known *= d
		}
	}
	if infer >= 0 {
		if known == 0 || len(t.data)%known != 0 {
			return nil, fmt.Errorf("%w: cannot infer dimension for %v from %d elements", ErrElementCountMismatch, dims, len(t.data))
		}
		shape[infer] = len(t.data) / known
	}

	if shape.NumElements() != len(t.data) {
		return nil, fmt.Errorf("%w: cannot reshape %v (%d elements) to %v (%d elements)",
			ErrElementCountMismatch, t.shape, len(t.data), shape, shape.NumElements())
	}

	out := make([]float64, len(t.data))
	copy(out, t.data)
	return newTensor(shape, out), nil
}

// Map returns a new tensor with fn applied to every element.
//
// Example:
//
//	relu := x.Map(func(v float64) float64 { return math.Max(0, v) })
func (t *Tensor) Map(fn func(float64) float64) *Tensor {
	out := make([]float64, len(t.data))
	for i, v := range t.data {
		out[i] = fn(v)
	}
	return newTensor(t.shape.Clone(), out)
}

// Scale returns a new tensor with every element multiplied by c.
func (t *Tensor) Scale(c float64) *Tensor {
	out := make([]float64, len(t.data))
	floats.ScaleTo(out, c, t.data)
	return newTensor(t.shape.Clone(), out)
}
