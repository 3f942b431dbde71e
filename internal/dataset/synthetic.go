package dataset

import (
	"math"
	"math/rand"

	"github.com/born-ml/nnfs/internal/tensor"
)

// XOR returns the four-row XOR truth table with scalar targets.
//
//	[0 0] → 0, [0 1] → 1, [1 0] → 1, [1 1] → 0
func XOR(opts ...Option) (*Dataset, error) {
	rows := [][2]float64{{0, 0}, {0, 1}, {1, 0}, {1, 1}}
	samples := make([]Sample, len(rows))
	for i, r := range rows {
		input, err := tensor.FromSlice(r[:], tensor.Shape{2})
		if err != nil {
			return nil, err
		}
		samples[i] = Sample{Input: input, Label: int(r[0]) ^ int(r[1])}
	}
	return New(samples, 2, append([]Option{WithEncoding(Scalar)}, opts...)...)
}

// SyntheticDigits generates n flat 28x28 images in ten classes, for running
// the MNIST pipeline without the real files.
//
// Digit c is a bright band over rows 2c..2c+7 and columns 5..22. Each
// sample jitters the band by up to one pixel in both directions and adds
// Gaussian noise (σ = 0.1), clamped to [0, 1]. Labels cycle 0..9.
func SyntheticDigits(n int, rng *rand.Rand, opts ...Option) (*Dataset, error) {
	const size = 28
	samples := make([]Sample, n)
	for i := range samples {
		label := i % 10
		dr := rng.Intn(3) - 1
		dc := rng.Intn(3) - 1

		pixels := make([]float64, size*size)
		for row := 0; row < size; row++ {
			for col := 0; col < size; col++ {
				v := 0.0
				r, c := row-dr, col-dc
				if r >= 2*label && r < 2*label+8 && c >= 5 && c < 23 {
					v = 0.8
				}
				v += rng.NormFloat64() * 0.1
				pixels[row*size+col] = math.Min(math.Max(v, 0), 1)
			}
		}

		input, err := tensor.FromSlice(pixels, tensor.Shape{size * size})
		if err != nil {
			return nil, err
		}
		samples[i] = Sample{Input: input, Label: label}
	}
	return New(samples, 10, opts...)
}
