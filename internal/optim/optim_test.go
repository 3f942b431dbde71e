package optim_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/nnfs/internal/nn"
	"github.com/born-ml/nnfs/internal/optim"
	"github.com/born-ml/nnfs/internal/tensor"
)

func scalarParam(t *testing.T, name string, v float64) *nn.Parameter {
	t.Helper()
	x, err := tensor.FromSlice([]float64{v}, tensor.Shape{1})
	require.NoError(t, err)
	return nn.NewParameter(name, x)
}

func setGrad(t *testing.T, p *nn.Parameter, g ...float64) {
	t.Helper()
	grad, err := tensor.FromSlice(g, p.Tensor().Shape())
	require.NoError(t, err)
	p.SetGrad(grad)
}

// TestSGD_SimpleUpdate tests SGD without momentum.
func TestSGD_SimpleUpdate(t *testing.T) {
	param := scalarParam(t, "x", 2.0)
	optimizer, err := optim.NewSGD([]*nn.Parameter{param}, optim.SGDConfig{LR: 0.1})
	require.NoError(t, err)

	setGrad(t, param, 1.0)
	require.NoError(t, optimizer.Step())

	// x_new = x_old - lr * grad = 2.0 - 0.1 * 1.0 = 1.9
	assert.InDelta(t, 1.9, param.Tensor().Item(), 1e-12)
}

// TestSGD_WithMomentum tests SGD with momentum.
func TestSGD_WithMomentum(t *testing.T) {
	param := scalarParam(t, "x", 1.0)
	optimizer, err := optim.NewSGD([]*nn.Parameter{param}, optim.SGDConfig{LR: 0.1, Momentum: 0.9})
	require.NoError(t, err)

	// Step 1: v = 1, x = 1 - 0.1 = 0.9
	setGrad(t, param, 1.0)
	require.NoError(t, optimizer.Step())
	assert.InDelta(t, 0.9, param.Tensor().Item(), 1e-12)

	// Step 2: v = 0.9 + 1 = 1.9, x = 0.9 - 0.19 = 0.71
	setGrad(t, param, 1.0)
	require.NoError(t, optimizer.Step())
	assert.InDelta(t, 0.71, param.Tensor().Item(), 1e-12)
}

func TestSGD_InvalidConfig(t *testing.T) {
	tests := []optim.SGDConfig{
		{LR: 0},
		{LR: -0.1},
		{LR: 0.1, Momentum: 1},
		{LR: 0.1, Momentum: -0.5},
	}
	for _, cfg := range tests {
		_, err := optim.NewSGD(nil, cfg)
		assert.ErrorIs(t, err, nn.ErrInvalidConfiguration, "%+v", cfg)
	}
}

// A parameter without gradient is left untouched and does not disturb the
// state of the parameters around it.
func TestSGD_SkipsMissingGradient(t *testing.T) {
	a := scalarParam(t, "a", 1)
	b := scalarParam(t, "b", 1)
	optimizer, err := optim.NewSGD([]*nn.Parameter{a, b}, optim.SGDConfig{LR: 0.5, Momentum: 0.5})
	require.NoError(t, err)

	setGrad(t, b, 1)
	require.NoError(t, optimizer.Step())
	assert.Equal(t, 1.0, a.Tensor().Item())
	assert.InDelta(t, 0.5, b.Tensor().Item(), 1e-12)

	setGrad(t, a, 1)
	require.NoError(t, optimizer.Step())
	assert.InDelta(t, 0.5, a.Tensor().Item(), 1e-12)
	// b: v = 0.5*1 + 1 = 1.5, b = 0.5 - 0.75
	assert.InDelta(t, -0.25, b.Tensor().Item(), 1e-12)
}

func TestStep_ShapeMismatch(t *testing.T) {
	param := scalarParam(t, "x", 1)
	optimizer, err := optim.NewSGD([]*nn.Parameter{param}, optim.SGDConfig{LR: 0.1, Momentum: 0.9})
	require.NoError(t, err)

	param.SetGrad(tensor.Ones(tensor.Shape{2}))
	require.ErrorIs(t, optimizer.Step(), nn.ErrShapeMismatch)
}

func TestSGD_ZeroGrad(t *testing.T) {
	param := scalarParam(t, "x", 1)
	optimizer, err := optim.NewSGD([]*nn.Parameter{param}, optim.SGDConfig{LR: 0.1})
	require.NoError(t, err)

	setGrad(t, param, 1)
	optimizer.ZeroGrad()
	assert.Nil(t, param.Grad())
}

func TestSGD_GetSetLR(t *testing.T) {
	optimizer, err := optim.NewSGD(nil, optim.SGDConfig{LR: 0.1})
	require.NoError(t, err)
	assert.Equal(t, 0.1, optimizer.LR())

	require.NoError(t, optimizer.SetLR(0.01))
	assert.Equal(t, 0.01, optimizer.LR())

	for _, lr := range []float64{0, -0.5, math.NaN()} {
		require.ErrorIs(t, optimizer.SetLR(lr), nn.ErrInvalidConfiguration)
	}
	assert.Equal(t, 0.01, optimizer.LR())
}

func TestNew_RejectsNonPositiveLR(t *testing.T) {
	param := scalarParam(t, "x", 1)
	for _, name := range []string{"sgd", "adam"} {
		for _, lr := range []float64{0, -0.01, math.NaN(), math.Inf(1)} {
			_, err := optim.New(name, []*nn.Parameter{param}, lr, 0)
			assert.ErrorIs(t, err, nn.ErrInvalidConfiguration, "%s lr=%g", name, lr)
		}
	}

	adam, err := optim.New("adam", []*nn.Parameter{param}, 0.01, 0)
	require.NoError(t, err)
	require.ErrorIs(t, adam.SetLR(0), nn.ErrInvalidConfiguration)
	assert.Equal(t, 0.01, adam.LR())
}

// TestAdam_SimpleUpdate tests that the first Adam step moves by lr in the
// direction opposite to the gradient (bias correction makes m_hat/sqrt(v_hat) = ±1).
func TestAdam_SimpleUpdate(t *testing.T) {
	param := scalarParam(t, "x", 1.0)
	optimizer, err := optim.NewAdam([]*nn.Parameter{param}, optim.AdamConfig{LR: 0.1})
	require.NoError(t, err)

	setGrad(t, param, 0.5)
	require.NoError(t, optimizer.Step())

	assert.InDelta(t, 0.9, param.Tensor().Item(), 1e-6)
	assert.Equal(t, 1, optimizer.Timestep())
}

func TestAdam_InvalidConfig(t *testing.T) {
	_, err := optim.NewAdam(nil, optim.AdamConfig{LR: -1})
	require.ErrorIs(t, err, nn.ErrInvalidConfiguration)

	_, err = optim.NewAdam(nil, optim.AdamConfig{Betas: [2]float64{1.5, 0.9}})
	require.ErrorIs(t, err, nn.ErrInvalidConfiguration)
}

func TestConvergence_SimpleQuadratic(t *testing.T) {
	run := func(t *testing.T, name string, lr, momentum float64) {
		t.Helper()
		param := scalarParam(t, "x", 3.0)
		optimizer, err := optim.New(name, []*nn.Parameter{param}, lr, momentum)
		require.NoError(t, err)

		// f(x) = x², df/dx = 2x
		for i := 0; i < 100; i++ {
			setGrad(t, param, 2*param.Tensor().Item())
			require.NoError(t, optimizer.Step())
		}

		final := param.Tensor().Item()
		assert.Less(t, math.Abs(final), 0.1, "%s: x = %f, expected close to 0", name, final)
	}

	t.Run("SGD", func(t *testing.T) { run(t, "sgd", 0.1, 0.9) })
	t.Run("Adam", func(t *testing.T) { run(t, "adam", 0.1, 0) })
}

// TestMultipleParameters tests that state is tracked per parameter index.
func TestMultipleParameters(t *testing.T) {
	w, err := tensor.FromSlice([]float64{1, 2, 3, 4}, tensor.Shape{2, 2})
	require.NoError(t, err)
	weight := nn.NewParameter("w", w)
	bias := scalarParam(t, "b", 0)

	optimizer, err := optim.NewSGD([]*nn.Parameter{weight, bias}, optim.SGDConfig{LR: 0.5})
	require.NoError(t, err)

	setGrad(t, weight, 1, 1, 1, 1)
	setGrad(t, bias, -2)
	require.NoError(t, optimizer.Step())

	assert.Equal(t, []float64{0.5, 1.5, 2.5, 3.5}, weight.Tensor().Data())
	assert.Equal(t, 1.0, bias.Tensor().Item())

	_, err = optim.New("rmsprop", nil, 0.1, 0)
	require.ErrorIs(t, err, nn.ErrInvalidConfiguration)
}
