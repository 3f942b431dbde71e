package inference

import (
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/nnfs/internal/benchmark"
	"github.com/born-ml/nnfs/internal/nn"
	"github.com/born-ml/nnfs/internal/optim"
	"github.com/born-ml/nnfs/internal/tensor"
	"github.com/born-ml/nnfs/internal/train"
)

// drawing returns a w×h image with a background and a filled square digit.
func drawing(w, h int, bg, fg uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := bg
			if x > w/3 && x < 2*w/3 && y > h/4 && y < 3*h/4 {
				v = fg
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return img
}

func mlpPredictor(t *testing.T) (*Predictor, *nn.Sequential) {
	t.Helper()
	arch, err := benchmark.BuildMLP(rand.New(rand.NewSource(3)))
	require.NoError(t, err)
	p, err := New(arch.Model)
	require.NoError(t, err)
	return p, arch.Model
}

func TestImageTensor(t *testing.T) {
	dark := ImageTensor(drawing(280, 280, 0, 255), InvertAuto)
	light := ImageTensor(drawing(280, 280, 255, 0), InvertAuto)

	assert.Equal(t, tensor.Shape{Side * Side}, dark.Shape())
	// A dark digit on a light canvas is inverted to MNIST polarity.
	assert.True(t, dark.AllClose(light, 1.0/255+1e-9))
	assert.InDelta(t, 0.0, dark.At(0), 1e-2)
	assert.InDelta(t, 1.0, dark.At(14*Side+14), 1e-2)

	never := ImageTensor(drawing(280, 280, 255, 0), InvertNever)
	assert.InDelta(t, 1.0, never.At(0), 1e-2)
	always := ImageTensor(drawing(280, 280, 0, 255), InvertAlways)
	assert.InDelta(t, 1.0, always.At(0), 1e-2)

	for _, v := range dark.Data() {
		require.GreaterOrEqual(t, v, 0.0)
		require.LessOrEqual(t, v, 1.0)
	}
	assert.Equal(t, image.Rect(0, 0, Side, Side), Digit(dark).Bounds())
}

func TestPredict(t *testing.T) {
	p, model := mlpPredictor(t)
	x := ImageTensor(drawing(56, 56, 0, 255), InvertNever)

	pred, err := p.Predict(x)
	require.NoError(t, err)
	require.Len(t, pred.Confidences, 10)
	assert.InDelta(t, 1.0, floats.Sum(pred.Confidences), 1e-9)
	assert.Equal(t, floats.MaxIdx(pred.Confidences), pred.Digit)
	assert.Equal(t, pred.Confidences[pred.Digit], pred.Confidence)

	batch, err := x.Reshape(1, -1)
	require.NoError(t, err)
	out, err := model.Predict(batch)
	require.NoError(t, err)
	assert.Equal(t, out.Data(), pred.Confidences)

	_, err = p.Predict(tensor.Zeros(tensor.Shape{10}))
	require.ErrorIs(t, err, nn.ErrShapeMismatch)
}

func TestNew_RejectsWrongInput(t *testing.T) {
	arch, err := benchmark.BuildXOR(rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	_, err = New(arch.Model)
	require.ErrorIs(t, err, nn.ErrShapeMismatch)
}

func saveNetwork(t *testing.T, arch benchmark.Architecture, md map[string]string) string {
	t.Helper()
	opt, err := optim.NewSGD(arch.Model.Parameters(), optim.SGDConfig{LR: 0.1})
	require.NoError(t, err)
	net, err := train.NewNetwork(arch.Model, arch.Loss, opt)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "model.nnfs")
	require.NoError(t, net.SaveParameters(path, md))
	return path
}

func TestLoadAndPredictFile(t *testing.T) {
	arch, err := benchmark.BuildMLP(rand.New(rand.NewSource(8)))
	require.NoError(t, err)
	model := saveNetwork(t, arch, map[string]string{"run": "mnist", "net_type": "mlp"})

	p, err := Load(model)
	require.NoError(t, err)

	img := filepath.Join(t.TempDir(), "digit.png")
	f, err := os.Create(img)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, drawing(200, 200, 255, 0)))
	require.NoError(t, f.Close())

	got, err := p.PredictFile(img)
	require.NoError(t, err)

	// Loaded parameters reproduce the original network.
	want, err := New(arch.Model)
	require.NoError(t, err)
	expected, err := want.PredictImage(drawing(200, 200, 255, 0))
	require.NoError(t, err)
	assert.Equal(t, expected, got)

	_, err = p.PredictFile(filepath.Join(t.TempDir(), "missing.png"))
	require.Error(t, err)
}

func TestLoad_RejectsXOR(t *testing.T) {
	arch, err := benchmark.BuildXOR(rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	path := saveNetwork(t, arch, map[string]string{"run": "xor"})

	_, err = Load(path)
	require.ErrorIs(t, err, nn.ErrInvalidConfiguration)
}
