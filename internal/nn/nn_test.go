package nn_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/nnfs/internal/nn"
	"github.com/born-ml/nnfs/internal/parallel"
	"github.com/born-ml/nnfs/internal/tensor"
)

func mustTensor(t *testing.T, data []float64, shape tensor.Shape) *tensor.Tensor {
	t.Helper()
	x, err := tensor.FromSlice(data, shape)
	require.NoError(t, err)
	return x
}

func TestParameter(t *testing.T) {
	data := tensor.Ones(tensor.Shape{3})
	param := nn.NewParameter("test_param", data)

	assert.Equal(t, "test_param", param.Name())
	assert.Same(t, data, param.Tensor())
	assert.Nil(t, param.Grad())

	grad := tensor.Full(tensor.Shape{3}, 0.1)
	param.SetGrad(grad)
	assert.Same(t, grad, param.Grad())

	param.ZeroGrad()
	assert.Nil(t, param.Grad())
}

func TestDense_Forward(t *testing.T) {
	d, err := nn.NewDense(2, 2, nn.XavierUniform, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	copy(d.Weight().Tensor().Data(), []float64{1, 2, 3, 4}) // rows are output units
	copy(d.Bias().Tensor().Data(), []float64{0.5, -0.5})

	out, _, err := d.Forward(mustTensor(t, []float64{1, 1, 2, 0}, tensor.Shape{2, 2}))
	require.NoError(t, err)
	assert.Equal(t, []float64{3.5, 6.5, 2.5, 5.5}, out.Data())

	_, _, err = d.Forward(tensor.Zeros(tensor.Shape{2, 3}))
	require.ErrorIs(t, err, nn.ErrShapeMismatch)
}

func TestNewDense_InvalidConfiguration(t *testing.T) {
	_, err := nn.NewDense(0, 3, nil, rand.New(rand.NewSource(1)))
	require.ErrorIs(t, err, nn.ErrInvalidConfiguration)

	_, err = nn.NewDense(3, 3, nil, nil)
	require.ErrorIs(t, err, nn.ErrInvalidConfiguration)
}

func TestInitializers(t *testing.T) {
	rng := rand.New(rand.NewSource(9))

	x := nn.XavierUniform(tensor.Shape{100, 50}, 50, 100, rng)
	bound := math.Sqrt(6.0 / 150)
	for _, v := range x.Data() {
		require.LessOrEqual(t, math.Abs(v), bound)
	}

	h := nn.HeNormal(tensor.Shape{200, 200}, 200, 200, rng)
	var sq float64
	for _, v := range h.Data() {
		sq += v * v
	}
	assert.InDelta(t, 2.0/200, sq/float64(h.Len()), 1e-3)

	n := nn.Normal(1, 0.01)(tensor.Shape{1000}, 0, 0, rng)
	assert.InDelta(t, 1, n.MeanAll(), 1e-2)

	_, ok := nn.InitializerByName("he")
	assert.True(t, ok)
	_, ok = nn.InitializerByName("orthogonal")
	assert.False(t, ok)
}

func TestActivation_Values(t *testing.T) {
	x := mustTensor(t, []float64{-2, 0, 3}, tensor.Shape{1, 3})
	approx := cmpopts.EquateApprox(0, 1e-12)

	tests := []struct {
		kind nn.ActivationKind
		want []float64
	}{
		{nn.ReLU, []float64{0, 0, 3}},
		{nn.Sigmoid, []float64{1 / (1 + math.Exp(2)), 0.5, 1 / (1 + math.Exp(-3))}},
		{nn.Tanh, []float64{math.Tanh(-2), 0, math.Tanh(3)}},
	}
	for _, tt := range tests {
		out, _, err := nn.NewActivation(tt.kind).Forward(x)
		require.NoError(t, err)
		assert.Empty(t, cmp.Diff(tt.want, out.Data(), approx), tt.kind.String())
	}
}

func TestSoftmax_RowsSumToOne(t *testing.T) {
	// Large logits must not overflow thanks to the max shift.
	x := mustTensor(t, []float64{1000, 1001, 1002, -5, 0, 5}, tensor.Shape{2, 3})
	out, _, err := nn.NewActivation(nn.Softmax).Forward(x)
	require.NoError(t, err)
	assert.False(t, out.HasNaNOrInf())

	sums, err := out.Sum(1)
	require.NoError(t, err)
	for _, s := range sums.Data() {
		assert.InDelta(t, 1, s, 1e-12)
	}
	assert.Greater(t, out.At(0, 2), out.At(0, 1))
}

func TestParseActivation(t *testing.T) {
	k, err := nn.ParseActivation("tanh")
	require.NoError(t, err)
	assert.Equal(t, nn.Tanh, k)

	_, err = nn.ParseActivation("gelu")
	require.ErrorIs(t, err, nn.ErrInvalidConfiguration)
}

func TestConvOutputSize(t *testing.T) {
	tests := []struct {
		in, kernel, stride, padding int
		want                        int
		wantErr                     bool
	}{
		{28, 3, 1, 0, 26, false},
		{28, 5, 1, 2, 28, false},
		{28, 2, 2, 0, 14, false},
		{7, 3, 2, 0, 3, false},
		{4, 2, 2, 1, 3, false},
		{2, 3, 1, 0, 0, true},  // kernel larger than input
		{8, 3, 2, 0, 0, true},  // stride does not tile
		{5, 3, 0, 0, 0, true},  // zero stride
		{5, 3, 1, -1, 0, true}, // negative padding
	}

	for _, tt := range tests {
		got, err := nn.ConvOutputSize(tt.in, tt.kernel, tt.stride, tt.padding)
		if tt.wantErr {
			assert.ErrorIs(t, err, nn.ErrInvalidConfiguration, "%+v", tt)
			continue
		}
		require.NoError(t, err, "%+v", tt)
		assert.Equal(t, tt.want, got, "%+v", tt)
	}
}

func TestConv2D_OutputShapeLaw(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	conv, err := nn.NewConv2D(nn.Conv2DConfig{InChannels: 3, OutChannels: 4, KernelSize: 3, Stride: 2, Padding: 1}, nil, rng)
	require.NoError(t, err)

	shape, err := conv.OutputShape(tensor.Shape{3, 9, 7})
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{4, 5, 4}, shape)

	out, _, err := conv.Forward(tensor.Zeros(tensor.Shape{2, 3, 9, 7}))
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 4, 5, 4}, out.Shape())

	_, err = conv.OutputShape(tensor.Shape{3, 8, 7})
	require.ErrorIs(t, err, nn.ErrInvalidConfiguration)

	_, err = conv.OutputShape(tensor.Shape{2, 9, 7})
	require.ErrorIs(t, err, nn.ErrShapeMismatch)

	_, err = nn.NewConv2D(nn.Conv2DConfig{InChannels: 1, OutChannels: 1, KernelSize: 0}, nil, rng)
	require.ErrorIs(t, err, nn.ErrInvalidConfiguration)
}

func TestConv2D_Forward(t *testing.T) {
	conv, err := nn.NewConv2D(nn.Conv2DConfig{InChannels: 1, OutChannels: 1, KernelSize: 2}, nil, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	copy(conv.Weight().Tensor().Data(), []float64{1, 0, 0, -1})
	conv.Bias().Tensor().Fill(10)

	x := tensor.FromFunc(tensor.Shape{1, 1, 3, 3}, func(i int) float64 { return float64(i) })
	out, _, err := conv.Forward(x)
	require.NoError(t, err)
	// x[i,j] - x[i+1,j+1] = -4 everywhere.
	assert.Equal(t, []float64{6, 6, 6, 6}, out.Data())
}

func TestConv2D_ParallelMatchesSequential(t *testing.T) {
	cfg := nn.Conv2DConfig{InChannels: 2, OutChannels: 4, KernelSize: 3, Padding: 1}
	seq, err := nn.NewConv2D(cfg, nil, rand.New(rand.NewSource(6)))
	require.NoError(t, err)
	par, err := nn.NewConv2D(cfg, nil, rand.New(rand.NewSource(6)))
	require.NoError(t, err)
	seq.WithParallel(parallel.Sequential())
	par.WithParallel(parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 1})

	rng := rand.New(rand.NewSource(7))
	x := tensor.RandNormal(tensor.Shape{3, 2, 6, 6}, 0, 1, rng)
	g := tensor.RandNormal(tensor.Shape{3, 4, 6, 6}, 0, 1, rng)

	outS, ctxS, err := seq.Forward(x)
	require.NoError(t, err)
	outP, ctxP, err := par.Forward(x)
	require.NoError(t, err)
	assert.Equal(t, outS.Checksum(), outP.Checksum())

	dxS, err := seq.Backward(ctxS, g)
	require.NoError(t, err)
	dxP, err := par.Backward(ctxP, g)
	require.NoError(t, err)
	assert.Equal(t, dxS.Checksum(), dxP.Checksum())
	assert.Equal(t, seq.Weight().Grad().Checksum(), par.Weight().Grad().Checksum())
}

func TestPool2D_Forward(t *testing.T) {
	x := mustTensor(t, []float64{
		1, 2, 5, 6,
		3, 4, 7, 8,
		0, 0, -1, -2,
		0, 9, -3, -4,
	}, tensor.Shape{1, 1, 4, 4})

	maxPool, err := nn.NewPool2D(nn.Pool2DConfig{Kind: nn.MaxPool, Size: 2})
	require.NoError(t, err)
	out, ctx, err := maxPool.Forward(x)
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 8, 9, -1}, out.Data())

	dx, err := maxPool.Backward(ctx, tensor.Ones(tensor.Shape{1, 1, 2, 2}))
	require.NoError(t, err)
	assert.Equal(t, 4.0, dx.SumAll())
	assert.Equal(t, 1.0, dx.At(0, 0, 3, 1))
	assert.Equal(t, 0.0, dx.At(0, 0, 0, 0))

	avgPool, err := nn.NewPool2D(nn.Pool2DConfig{Kind: nn.AvgPool, Size: 2})
	require.NoError(t, err)
	out, _, err = avgPool.Forward(x)
	require.NoError(t, err)
	assert.Equal(t, []float64{2.5, 6.5, 2.25, -2.5}, out.Data())

	_, err = nn.NewPool2D(nn.Pool2DConfig{Kind: nn.MaxPool, Size: 0})
	require.ErrorIs(t, err, nn.ErrInvalidConfiguration)

	_, err = avgPool.OutputShape(tensor.Shape{1, 5, 4})
	require.ErrorIs(t, err, nn.ErrInvalidConfiguration)
}

func TestBackward_InvalidContext(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	dense, err := nn.NewDense(4, 4, nil, rng)
	require.NoError(t, err)
	relu := nn.NewActivation(nn.ReLU)
	sig := nn.NewActivation(nn.Sigmoid)
	pool, err := nn.NewPool2D(nn.Pool2DConfig{Kind: nn.MaxPool, Size: 2})
	require.NoError(t, err)

	x := tensor.Ones(tensor.Shape{1, 4})
	_, reluCtx, err := relu.Forward(x)
	require.NoError(t, err)
	_, denseCtx, err := dense.Forward(x)
	require.NoError(t, err)

	_, err = dense.Backward(reluCtx, x)
	require.ErrorIs(t, err, nn.ErrInvalidContext)

	_, err = sig.Backward(reluCtx, x)
	require.ErrorIs(t, err, nn.ErrInvalidContext, "activation kinds must match")

	_, err = pool.Backward(denseCtx, x)
	require.ErrorIs(t, err, nn.ErrInvalidContext)

	_, err = nn.NewFlatten().Backward(denseCtx, x)
	require.ErrorIs(t, err, nn.ErrInvalidContext)
}

func TestForward_Idempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	conv, err := nn.NewConv2D(nn.Conv2DConfig{InChannels: 1, OutChannels: 3, KernelSize: 3}, nil, rng)
	require.NoError(t, err)
	pool, err := nn.NewPool2D(nn.Pool2DConfig{Kind: nn.MaxPool, Size: 2})
	require.NoError(t, err)
	dense, err := nn.NewDense(27, 10, nil, rng)
	require.NoError(t, err)

	seq, err := nn.NewSequential(tensor.Shape{64},
		nn.NewReshape(1, 8, 8), conv, nn.NewActivation(nn.Sigmoid), pool,
		nn.NewFlatten(), dense, nn.NewActivation(nn.Softmax),
	)
	require.NoError(t, err)

	x := tensor.RandUniform(tensor.Shape{5, 64}, 0, 1, rng)
	before := x.Checksum()

	first, err := seq.Predict(x)
	require.NoError(t, err)
	second, err := seq.Predict(x)
	require.NoError(t, err)

	assert.Equal(t, first.Checksum(), second.Checksum())
	assert.Equal(t, before, x.Checksum(), "forward must not mutate its input")
}
