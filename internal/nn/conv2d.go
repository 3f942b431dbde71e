package nn

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/nnfs/internal/parallel"
	"github.com/born-ml/nnfs/internal/tensor"
)

// Conv2DConfig describes a square-kernel convolution.
type Conv2DConfig struct {
	InChannels  int // Number of input channels
	OutChannels int // Number of output channels (number of filters)
	KernelSize  int // Kernel height and width
	Stride      int // Stride (0 means 1)
	Padding     int // Zero padding on every side (0 means "valid")
}

// Conv2D is a 2D convolutional layer.
//
// Performs channel-wise cross-correlation: output = Conv2D(input, weight) + bias
//
// Input shape:  [batch, in_channels, height, width]
// Weight shape: [out_channels, in_channels, kernel, kernel]
// Bias shape:   [out_channels]
// Output shape: [batch, out_channels, out_h, out_w]
//
// Where:
//
//	out_h = (height + 2*padding - kernel) / stride + 1
//	out_w = (width + 2*padding - kernel) / stride + 1
//
// The division must be exact; see ConvOutputSize.
//
// Example:
//
//	// 1 channel -> 5 channels, 3x3 kernel
//	conv, err := nn.NewConv2D(nn.Conv2DConfig{InChannels: 1, OutChannels: 5, KernelSize: 3}, nil, rng)
//
//	output, ctx, err := conv.Forward(input) // [32, 1, 28, 28] → [32, 5, 26, 26]
type Conv2D struct {
	cfg Conv2DConfig

	weight *Parameter // [out_channels, in_channels, kernel, kernel]
	bias   *Parameter // [out_channels]

	par parallel.Config
}

type conv2dContext struct {
	input      *tensor.Tensor
	outH, outW int
}

func (conv2dContext) layer() string { return "conv2d" }

// NewConv2D creates a new 2D convolutional layer.
//
// Initialization:
//   - Weights: init (nil selects XavierUniform) with
//     fan_in = in_channels * k * k and fan_out = out_channels * k * k
//   - Bias: Zeros
//
// Returns ErrInvalidConfiguration for non-positive channels or kernel,
// negative stride or padding, or a nil rng.
func NewConv2D(cfg Conv2DConfig, init Initializer, rng *rand.Rand) (*Conv2D, error) {
	if cfg.Stride == 0 {
		cfg.Stride = 1
	}
	switch {
	case cfg.InChannels <= 0 || cfg.OutChannels <= 0:
		return nil, fmt.Errorf("%w: conv2d channels in=%d, out=%d", ErrInvalidConfiguration, cfg.InChannels, cfg.OutChannels)
	case cfg.KernelSize <= 0:
		return nil, fmt.Errorf("%w: conv2d kernel size %d", ErrInvalidConfiguration, cfg.KernelSize)
	case cfg.Stride < 0:
		return nil, fmt.Errorf("%w: conv2d stride %d", ErrInvalidConfiguration, cfg.Stride)
	case cfg.Padding < 0:
		return nil, fmt.Errorf("%w: conv2d padding %d", ErrInvalidConfiguration, cfg.Padding)
	case rng == nil:
		return nil, fmt.Errorf("%w: conv2d needs a random source", ErrInvalidConfiguration)
	}
	if init == nil {
		init = XavierUniform
	}

	k := cfg.KernelSize
	fanIn := cfg.InChannels * k * k
	fanOut := cfg.OutChannels * k * k
	weight := init(tensor.Shape{cfg.OutChannels, cfg.InChannels, k, k}, fanIn, fanOut, rng)

	return &Conv2D{
		cfg:    cfg,
		weight: NewParameter("conv2d.weight", weight),
		bias:   NewParameter("conv2d.bias", tensor.Zeros(tensor.Shape{cfg.OutChannels})),
		par:    parallel.DefaultConfig(),
	}, nil
}

// WithParallel overrides how kernel loops are split across goroutines.
// Results are identical for every configuration.
func (c *Conv2D) WithParallel(cfg parallel.Config) *Conv2D {
	c.par = cfg
	return c
}

// ConvOutputSize returns (in + 2*padding - kernel) / stride + 1.
//
// Returns ErrInvalidConfiguration when the kernel does not fit the padded
// input or when the stride does not tile it exactly.
func ConvOutputSize(in, kernel, stride, padding int) (int, error) {
	if kernel <= 0 || stride <= 0 || padding < 0 {
		return 0, fmt.Errorf("%w: kernel=%d stride=%d padding=%d", ErrInvalidConfiguration, kernel, stride, padding)
	}
	span := in + 2*padding - kernel
	if span < 0 {
		return 0, fmt.Errorf("%w: kernel %d larger than padded input %d", ErrInvalidConfiguration, kernel, in+2*padding)
	}
	if span%stride != 0 {
		return 0, fmt.Errorf("%w: stride %d does not tile input %d (kernel %d, padding %d)",
			ErrInvalidConfiguration, stride, in, kernel, padding)
	}
	return span/stride + 1, nil
}

// Config returns the layer configuration with defaults applied.
func (c *Conv2D) Config() Conv2DConfig {
	return c.cfg
}

// Name implements Layer.
func (c *Conv2D) Name() string {
	return fmt.Sprintf("conv2d(%d→%d, k=%d, s=%d, p=%d)",
		c.cfg.InChannels, c.cfg.OutChannels, c.cfg.KernelSize, c.cfg.Stride, c.cfg.Padding)
}

// OutputShape implements Layer. The input must be [in_channels, height, width].
func (c *Conv2D) OutputShape(in tensor.Shape) (tensor.Shape, error) {
	if len(in) != 3 || in[0] != c.cfg.InChannels {
		return nil, fmt.Errorf("%w: %s expects [%d, H, W], got %v", ErrShapeMismatch, c.Name(), c.cfg.InChannels, in)
	}
	outH, outW, err := c.outputSize(in[1], in[2])
	if err != nil {
		return nil, err
	}
	return tensor.Shape{c.cfg.OutChannels, outH, outW}, nil
}

func (c *Conv2D) outputSize(h, w int) (int, int, error) {
	outH, err := ConvOutputSize(h, c.cfg.KernelSize, c.cfg.Stride, c.cfg.Padding)
	if err != nil {
		return 0, 0, fmt.Errorf("%s height: %w", c.Name(), err)
	}
	outW, err := ConvOutputSize(w, c.cfg.KernelSize, c.cfg.Stride, c.cfg.Padding)
	if err != nil {
		return 0, 0, fmt.Errorf("%s width: %w", c.Name(), err)
	}
	return outH, outW, nil
}

// Forward performs the convolution.
//
// Input: [batch, in_channels, height, width]
// Output: [batch, out_channels, out_h, out_w].
func (c *Conv2D) Forward(input *tensor.Tensor) (*tensor.Tensor, Context, error) {
	if input.Rank() != 4 || input.Dim(1) != c.cfg.InChannels {
		return nil, nil, fmt.Errorf("%w: %s expects [batch, %d, H, W], got %v",
			ErrShapeMismatch, c.Name(), c.cfg.InChannels, input.Shape())
	}
	batch, h, w := input.Dim(0), input.Dim(2), input.Dim(3)
	outH, outW, err := c.outputSize(h, w)
	if err != nil {
		return nil, nil, err
	}

	ic, oc := c.cfg.InChannels, c.cfg.OutChannels
	k, s, p := c.cfg.KernelSize, c.cfg.Stride, c.cfg.Padding
	x := input.Data()
	wt := c.weight.Tensor().Data()
	bias := c.bias.Tensor().Data()
	out := make([]float64, batch*oc*outH*outW)

	parallel.ForBatch(batch, oc, func(b, o int) {
		dst := out[(b*oc+o)*outH*outW : (b*oc+o+1)*outH*outW]
		for i := range dst {
			dst[i] = bias[o]
		}
		for ci := 0; ci < ic; ci++ {
			src := x[(b*ic+ci)*h*w : (b*ic+ci+1)*h*w]
			kern := wt[(o*ic+ci)*k*k : (o*ic+ci+1)*k*k]
			for oh := 0; oh < outH; oh++ {
				for ow := 0; ow < outW; ow++ {
					sum := 0.0
					for kh := 0; kh < k; kh++ {
						ih := oh*s + kh - p
						if ih < 0 || ih >= h {
							continue
						}
						for kw := 0; kw < k; kw++ {
							iw := ow*s + kw - p
							if iw < 0 || iw >= w {
								continue
							}
							sum += kern[kh*k+kw] * src[ih*w+iw]
						}
					}
					dst[oh*outW+ow] += sum
				}
			}
		}
	}, c.par)

	t, err := tensor.FromSlice(out, tensor.Shape{batch, oc, outH, outW})
	if err != nil {
		return nil, nil, err
	}
	return t, conv2dContext{input: input, outH: outH, outW: outW}, nil
}

// Backward computes the kernel, bias and input gradients.
//
//   - dW[o,i,kh,kw] = Σ_b Σ_oh,ow dY[b,o,oh,ow] · X[b,i,oh*s+kh-p,ow*s+kw-p] / batch
//   - db[o] = Σ_b Σ_oh,ow dY[b,o,oh,ow] / batch
//   - dX is the full correlation of dY with the flipped kernels, computed as
//     a scatter over kernel taps.
func (c *Conv2D) Backward(ctx Context, outputGrad *tensor.Tensor) (*tensor.Tensor, error) {
	cc, ok := ctx.(conv2dContext)
	if !ok {
		return nil, fmt.Errorf("%w: %s received %T", ErrInvalidContext, c.Name(), ctx)
	}

	batch, h, w := cc.input.Dim(0), cc.input.Dim(2), cc.input.Dim(3)
	ic, oc := c.cfg.InChannels, c.cfg.OutChannels
	k, s, p := c.cfg.KernelSize, c.cfg.Stride, c.cfg.Padding
	outH, outW := cc.outH, cc.outW

	if !outputGrad.Shape().Equal(tensor.Shape{batch, oc, outH, outW}) {
		return nil, fmt.Errorf("%w: %s gradient %v, want [%d, %d, %d, %d]",
			ErrShapeMismatch, c.Name(), outputGrad.Shape(), batch, oc, outH, outW)
	}

	x := cc.input.Data()
	dy := outputGrad.Data()
	wt := c.weight.Tensor().Data()
	scale := 1 / float64(batch)

	dW := make([]float64, oc*ic*k*k)
	db := make([]float64, oc)
	parallel.For(oc, func(o int) {
		for b := 0; b < batch; b++ {
			g := dy[(b*oc+o)*outH*outW : (b*oc+o+1)*outH*outW]
			for _, v := range g {
				db[o] += v
			}
			for ci := 0; ci < ic; ci++ {
				src := x[(b*ic+ci)*h*w : (b*ic+ci+1)*h*w]
				kern := dW[(o*ic+ci)*k*k : (o*ic+ci+1)*k*k]
				for oh := 0; oh < outH; oh++ {
					for ow := 0; ow < outW; ow++ {
						gv := g[oh*outW+ow]
						if gv == 0 {
							continue
						}
						for kh := 0; kh < k; kh++ {
							ih := oh*s + kh - p
							if ih < 0 || ih >= h {
								continue
							}
							for kw := 0; kw < k; kw++ {
								iw := ow*s + kw - p
								if iw < 0 || iw >= w {
									continue
								}
								kern[kh*k+kw] += gv * src[ih*w+iw]
							}
						}
					}
				}
			}
		}
		db[o] *= scale
		for i := o * ic * k * k; i < (o+1)*ic*k*k; i++ {
			dW[i] *= scale
		}
	}, c.par)

	dX := make([]float64, len(x))
	parallel.ForBatch(batch, ic, func(b, ci int) {
		dst := dX[(b*ic+ci)*h*w : (b*ic+ci+1)*h*w]
		for o := 0; o < oc; o++ {
			g := dy[(b*oc+o)*outH*outW : (b*oc+o+1)*outH*outW]
			kern := wt[(o*ic+ci)*k*k : (o*ic+ci+1)*k*k]
			for oh := 0; oh < outH; oh++ {
				for ow := 0; ow < outW; ow++ {
					gv := g[oh*outW+ow]
					if gv == 0 {
						continue
					}
					for kh := 0; kh < k; kh++ {
						ih := oh*s + kh - p
						if ih < 0 || ih >= h {
							continue
						}
						for kw := 0; kw < k; kw++ {
							iw := ow*s + kw - p
							if iw < 0 || iw >= w {
								continue
							}
							dst[ih*w+iw] += gv * kern[kh*k+kw]
						}
					}
				}
			}
		}
	}, c.par)

	dWt, err := tensor.FromSlice(dW, c.weight.Tensor().Shape())
	if err != nil {
		return nil, err
	}
	dbt, err := tensor.FromSlice(db, tensor.Shape{oc})
	if err != nil {
		return nil, err
	}
	c.weight.SetGrad(dWt)
	c.bias.SetGrad(dbt)

	return tensor.FromSlice(dX, cc.input.Shape())
}

// Parameters returns [weight, bias].
func (c *Conv2D) Parameters() []*Parameter {
	return []*Parameter{c.weight, c.bias}
}

// Weight returns the kernel parameter.
func (c *Conv2D) Weight() *Parameter {
	return c.weight
}

// Bias returns the bias parameter.
func (c *Conv2D) Bias() *Parameter {
	return c.bias
}
