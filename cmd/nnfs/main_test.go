package main

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "nnfs "+version+"\n", out)
}

func TestBenchmarkXOR(t *testing.T) {
	out, err := execute(t, "benchmark", "--run", "xor", "--epochs", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "epoch    1")
	assert.Contains(t, out, "epoch    3")
	assert.Contains(t, out, "benchmark:  xor (mlp, 17 parameters)")
}

func TestBenchmarkValidationFlag(t *testing.T) {
	out, err := execute(t, "benchmark", "--run", "mnist", "--epochs", "1", "--samples", "40")
	require.NoError(t, err)
	assert.Contains(t, out, "val_loss=")

	out, err = execute(t, "benchmark", "--run", "mnist", "--epochs", "1", "--samples", "40", "--validation", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "epoch    1")
	assert.NotContains(t, out, "val_loss=")
}

func TestBenchmarkInvalid(t *testing.T) {
	_, err := execute(t, "benchmark", "--run", "cifar")
	require.Error(t, err)

	_, err = execute(t, "benchmark", "--momentum", "1.5")
	require.Error(t, err)
}

func TestPredictRequiresModel(t *testing.T) {
	_, err := execute(t, "predict", "digit.png")
	require.Error(t, err)

	_, err = execute(t, "predict", "--model", filepath.Join(t.TempDir(), "missing.nnfs"), "digit.png")
	require.Error(t, err)

	_, err = execute(t, "predict", "--model", "m.nnfs", "--invert", "sideways", "digit.png")
	require.ErrorContains(t, err, "invert")

	_, err = execute(t, "predict", "--model", "m.nnfs")
	require.ErrorContains(t, err, "no image")
}

func TestBenchmarkSaveThenPredict(t *testing.T) {
	if testing.Short() {
		t.Skip("trains an MNIST network")
	}
	dir := t.TempDir()
	model := filepath.Join(dir, "mlp.nnfs")
	_, err := execute(t, "benchmark", "--run", "mnist", "--epochs", "1", "--samples", "100", "--save", model)
	require.NoError(t, err)

	img := filepath.Join(dir, "digit.png")
	f, err := os.Create(img)
	require.NoError(t, err)
	canvas := image.NewGray(image.Rect(0, 0, 64, 64))
	for y := 16; y < 48; y++ {
		for x := 28; x < 36; x++ {
			canvas.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	require.NoError(t, png.Encode(f, canvas))
	require.NoError(t, f.Close())

	out, err := execute(t, "predict", "--model", model, "--image", img)
	require.NoError(t, err)
	assert.Regexp(t, `digit\.png: \d \(\d+\.\d%\)`, out)
}
