package dataset

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"math/rand"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/born-ml/nnfs/internal/nn"
	"github.com/born-ml/nnfs/internal/tensor"
)

// Augmenter produces a randomly perturbed copy of a sample input.
//
// Augment must never modify its input.
type Augmenter interface {
	// Check reports whether inputs of the given per-sample shape are supported.
	Check(shape tensor.Shape) error
	// Augment returns a new tensor with the same shape as input.
	Augment(input *tensor.Tensor, rng *rand.Rand) *tensor.Tensor
}

// ImageAugmenter rotates and shifts single-channel images, optionally adds
// Gaussian noise, and clamps the result to [Min, Max].
//
// Inputs may be stored flat ([H*W]) or as [1, H, W]. Rotation is about the
// image centre; both geometric transforms are resampled bilinearly and
// uncovered pixels take the value Min.
type ImageAugmenter struct {
	Height, Width int
	MaxRotation   float64 // degrees, angle drawn from U(-MaxRotation, MaxRotation)
	MaxShift      float64 // pixels, per axis, drawn from U(-MaxShift, MaxShift)
	NoiseStd      float64 // standard deviation of additive noise (0 disables)
	Min, Max      float64 // value range of the pixels
}

// DefaultImageAugmenter returns the MNIST setting: ±10° rotation and ±2 px
// shift on 28x28 images with values in [0, 1].
func DefaultImageAugmenter() *ImageAugmenter {
	return &ImageAugmenter{
		Height:      28,
		Width:       28,
		MaxRotation: 10,
		MaxShift:    2,
		Min:         0,
		Max:         1,
	}
}

// Check implements Augmenter.
func (a *ImageAugmenter) Check(shape tensor.Shape) error {
	if a.Height <= 0 || a.Width <= 0 || a.Max <= a.Min || a.MaxRotation < 0 || a.MaxShift < 0 || a.NoiseStd < 0 {
		return fmt.Errorf("%w: image augmenter %+v", nn.ErrInvalidConfiguration, *a)
	}
	if shape.NumElements() != a.Height*a.Width {
		return fmt.Errorf("%w: augmenter expects %dx%d images, got shape %v",
			nn.ErrShapeMismatch, a.Height, a.Width, shape)
	}
	return nil
}

// Augment implements Augmenter.
func (a *ImageAugmenter) Augment(input *tensor.Tensor, rng *rand.Rand) *tensor.Tensor {
	out := input.Clone()

	if a.MaxRotation > 0 || a.MaxShift > 0 {
		angle := (rng.Float64()*2 - 1) * a.MaxRotation * math.Pi / 180
		dx := (rng.Float64()*2 - 1) * a.MaxShift
		dy := (rng.Float64()*2 - 1) * a.MaxShift
		a.transform(out.Data(), angle, dx, dy)
	}

	data := out.Data()
	for i, v := range data {
		if a.NoiseStd > 0 {
			v += rng.NormFloat64() * a.NoiseStd
		}
		data[i] = math.Min(math.Max(v, a.Min), a.Max)
	}
	return out
}

// transform resamples pixels in place through the affine map
// dst = R(θ)·(src − c) + c + (dx, dy).
func (a *ImageAugmenter) transform(pixels []float64, angle, dx, dy float64) {
	src := a.toGray(pixels)
	dst := image.NewGray16(src.Bounds())

	cos, sin := math.Cos(angle), math.Sin(angle)
	cx, cy := float64(a.Width)/2, float64(a.Height)/2
	s2d := f64.Aff3{
		cos, -sin, cx - cos*cx + sin*cy + dx,
		sin, cos, cy - sin*cx - cos*cy + dy,
	}
	draw.BiLinear.Transform(dst, s2d, src, src.Bounds(), draw.Src, nil)

	scale := (a.Max - a.Min) / math.MaxUint16
	for y := 0; y < a.Height; y++ {
		for x := 0; x < a.Width; x++ {
			pixels[y*a.Width+x] = a.Min + float64(dst.Gray16At(x, y).Y)*scale
		}
	}
}

func (a *ImageAugmenter) toGray(pixels []float64) *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, a.Width, a.Height))
	span := a.Max - a.Min
	for y := 0; y < a.Height; y++ {
		for x := 0; x < a.Width; x++ {
			v := (pixels[y*a.Width+x] - a.Min) / span
			v = math.Min(math.Max(v, 0), 1)
			img.SetGray16(x, y, color.Gray16{Y: uint16(math.Round(v * math.MaxUint16))})
		}
	}
	return img
}
