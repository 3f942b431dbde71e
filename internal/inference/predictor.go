// Package inference classifies hand-drawn digits with a trained MNIST
// network.
//
// Images of any size are converted to the 28x28 grayscale layout the network
// was trained on: scaled with bilinear interpolation, optionally inverted so
// the digit is bright on a dark background, and normalized to [0, 1].
package inference

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // decoder registration
	_ "image/png"  // decoder registration
	"math/rand"
	"os"
	"slices"

	"golang.org/x/image/draw"

	"github.com/born-ml/nnfs/internal/benchmark"
	"github.com/born-ml/nnfs/internal/nn"
	"github.com/born-ml/nnfs/internal/serialization"
	"github.com/born-ml/nnfs/internal/tensor"
)

// Side is the width and height of network input images.
const Side = 28

// Prediction is the classification of one image.
type Prediction struct {
	Digit       int       // most likely class
	Confidence  float64   // probability of Digit
	Confidences []float64 // probability per class
}

// Invert selects how image polarity is handled.
type Invert int

// Polarity modes.
const (
	InvertAuto   Invert = iota // invert when the image is mostly bright
	InvertNever                // image already has a light digit on dark
	InvertAlways               // image has a dark digit on light
)

// Predictor wraps a trained model with a [784] input and a probability
// output.
type Predictor struct {
	model  *nn.Sequential
	invert Invert
}

// New creates a Predictor for a model taking flat 28x28 images.
func New(model *nn.Sequential) (*Predictor, error) {
	if !model.InputShape().Equal(tensor.Shape{Side * Side}) {
		return nil, fmt.Errorf("%w: model input is %v, want [%d]", nn.ErrShapeMismatch, model.InputShape(), Side*Side)
	}
	return &Predictor{model: model, invert: InvertAuto}, nil
}

// Load rebuilds the network recorded in a parameter file written by a MNIST
// benchmark run and restores its parameters.
func Load(path string) (*Predictor, error) {
	r, err := serialization.LoadFile(path)
	if err != nil {
		return nil, err
	}
	md := r.Metadata()
	if md["run"] != benchmark.RunMNIST {
		return nil, fmt.Errorf("%w: %s holds a %q network, want %q",
			nn.ErrInvalidConfiguration, path, md["run"], benchmark.RunMNIST)
	}

	// Initial values are overwritten by the stored parameters.
	arch, err := benchmark.Build(benchmark.Config{Run: benchmark.RunMNIST, NetType: md["net_type"]}, rand.New(rand.NewSource(1)))
	if err != nil {
		return nil, err
	}
	if err := arch.Model.LoadStateDict(r.StateDict()); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return New(arch.Model)
}

// SetInvert changes the polarity handling (default InvertAuto).
func (p *Predictor) SetInvert(mode Invert) {
	p.invert = mode
}

// PredictFile decodes a PNG or JPEG file and classifies it.
func (p *Predictor) PredictFile(path string) (Prediction, error) {
	//nolint:gosec // G304: File path comes from user input
	f, err := os.Open(path)
	if err != nil {
		return Prediction{}, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return Prediction{}, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return p.PredictImage(img)
}

// PredictImage classifies an image of any size.
func (p *Predictor) PredictImage(img image.Image) (Prediction, error) {
	return p.Predict(ImageTensor(img, p.invert))
}

// Predict classifies a flat [784] tensor with values in [0, 1].
func (p *Predictor) Predict(input *tensor.Tensor) (Prediction, error) {
	x, err := input.Reshape(1, -1)
	if err != nil {
		return Prediction{}, err
	}
	out, err := p.model.Predict(x)
	if err != nil {
		return Prediction{}, err
	}

	confidences := slices.Clone(out.Row(0).Data())
	digit := out.ArgMax()[0]
	return Prediction{Digit: digit, Confidence: confidences[digit], Confidences: confidences}, nil
}

// ImageTensor converts img to a flat [784] tensor: bilinear scaling to 28x28
// grayscale, polarity handling, values in [0, 1].
func ImageTensor(img image.Image, mode Invert) *tensor.Tensor {
	gray := image.NewGray(image.Rect(0, 0, Side, Side))
	draw.BiLinear.Scale(gray, gray.Bounds(), img, img.Bounds(), draw.Src, nil)

	pixels := make([]float64, Side*Side)
	var sum float64
	for y := 0; y < Side; y++ {
		for x := 0; x < Side; x++ {
			v := float64(gray.GrayAt(x, y).Y) / 255.0
			pixels[y*Side+x] = v
			sum += v
		}
	}

	if mode == InvertAlways || (mode == InvertAuto && sum/float64(len(pixels)) > 0.5) {
		for i, v := range pixels {
			pixels[i] = 1 - v
		}
	}

	t, _ := tensor.FromSlice(pixels, tensor.Shape{Side * Side})
	return t
}

// Digit renders a tensor produced by ImageTensor back to an image, for
// previews.
func Digit(input *tensor.Tensor) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, Side, Side))
	for i, v := range input.Data() {
		img.SetGray(i%Side, i/Side, color.Gray{Y: uint8(min(max(v, 0), 1)*255 + 0.5)})
	}
	return img
}
