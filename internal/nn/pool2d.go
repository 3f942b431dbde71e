package nn

import (
	"fmt"

	"github.com/born-ml/nnfs/internal/parallel"
	"github.com/born-ml/nnfs/internal/tensor"
)

// PoolKind selects the reduction applied by Pool2D.
type PoolKind int

// Supported pooling reductions.
const (
	// MaxPool keeps the largest value of each window.
	MaxPool PoolKind = iota
	// AvgPool averages each window.
	AvgPool
)

// String returns "max" or "avg".
func (k PoolKind) String() string {
	if k == AvgPool {
		return "avg"
	}
	return "max"
}

// Pool2DConfig describes a square pooling window.
type Pool2DConfig struct {
	Kind   PoolKind
	Size   int // Window height and width
	Stride int // Stride (0 means Size, i.e. non-overlapping windows)
}

// Pool2D is a 2D pooling layer. It has no learnable parameters.
//
// Input shape:  [batch, channels, height, width]
// Output shape: [batch, channels, out_height, out_width]
//
// Where:
//
//	out_height = (height - size) / stride + 1
//	out_width = (width - size) / stride + 1
//
// Example:
//
//	pool, err := nn.NewPool2D(nn.Pool2DConfig{Kind: nn.MaxPool, Size: 2})
//	output, ctx, err := pool.Forward(input) // [32, 8, 28, 28] → [32, 8, 14, 14]
type Pool2D struct {
	cfg Pool2DConfig
	par parallel.Config
}

type pool2dContext struct {
	kind       PoolKind
	inputShape tensor.Shape
	outH, outW int
	argmax     []int // flat input index selected for each output (MaxPool)
}

func (pool2dContext) layer() string { return "pool2d" }

// NewPool2D creates a new pooling layer.
func NewPool2D(cfg Pool2DConfig) (*Pool2D, error) {
	if cfg.Stride == 0 {
		cfg.Stride = cfg.Size
	}
	if cfg.Kind != MaxPool && cfg.Kind != AvgPool {
		return nil, fmt.Errorf("%w: unknown pool kind %d", ErrInvalidConfiguration, int(cfg.Kind))
	}
	if cfg.Size <= 0 || cfg.Stride <= 0 {
		return nil, fmt.Errorf("%w: pool size %d stride %d", ErrInvalidConfiguration, cfg.Size, cfg.Stride)
	}
	return &Pool2D{cfg: cfg, par: parallel.DefaultConfig()}, nil
}

// WithParallel overrides how channel loops are split across goroutines.
func (p *Pool2D) WithParallel(cfg parallel.Config) *Pool2D {
	p.par = cfg
	return p
}

// Config returns the layer configuration with defaults applied.
func (p *Pool2D) Config() Pool2DConfig {
	return p.cfg
}

// Name implements Layer.
func (p *Pool2D) Name() string {
	return fmt.Sprintf("%spool(%d, s=%d)", p.cfg.Kind, p.cfg.Size, p.cfg.Stride)
}

// OutputShape implements Layer. The input must be [channels, height, width].
func (p *Pool2D) OutputShape(in tensor.Shape) (tensor.Shape, error) {
	if len(in) != 3 {
		return nil, fmt.Errorf("%w: %s expects [C, H, W], got %v", ErrShapeMismatch, p.Name(), in)
	}
	outH, outW, err := p.outputSize(in[1], in[2])
	if err != nil {
		return nil, err
	}
	return tensor.Shape{in[0], outH, outW}, nil
}

func (p *Pool2D) outputSize(h, w int) (int, int, error) {
	outH, err := ConvOutputSize(h, p.cfg.Size, p.cfg.Stride, 0)
	if err != nil {
		return 0, 0, fmt.Errorf("%s height: %w", p.Name(), err)
	}
	outW, err := ConvOutputSize(w, p.cfg.Size, p.cfg.Stride, 0)
	if err != nil {
		return 0, 0, fmt.Errorf("%s width: %w", p.Name(), err)
	}
	return outH, outW, nil
}

// Forward pools every channel independently.
func (p *Pool2D) Forward(input *tensor.Tensor) (*tensor.Tensor, Context, error) {
	if input.Rank() != 4 {
		return nil, nil, fmt.Errorf("%w: %s expects [batch, C, H, W], got %v", ErrShapeMismatch, p.Name(), input.Shape())
	}
	batch, ch, h, w := input.Dim(0), input.Dim(1), input.Dim(2), input.Dim(3)
	outH, outW, err := p.outputSize(h, w)
	if err != nil {
		return nil, nil, err
	}

	size, stride := p.cfg.Size, p.cfg.Stride
	x := input.Data()
	out := make([]float64, batch*ch*outH*outW)
	ctx := pool2dContext{kind: p.cfg.Kind, inputShape: input.Shape(), outH: outH, outW: outW}
	if p.cfg.Kind == MaxPool {
		ctx.argmax = make([]int, len(out))
	}
	area := float64(size * size)

	parallel.ForBatch(batch, ch, func(b, c int) {
		plane := (b*ch + c) * h * w
		base := (b*ch + c) * outH * outW
		for oh := 0; oh < outH; oh++ {
			for ow := 0; ow < outW; ow++ {
				o := base + oh*outW + ow
				start := plane + oh*stride*w + ow*stride

				if p.cfg.Kind == AvgPool {
					sum := 0.0
					for kh := 0; kh < size; kh++ {
						for kw := 0; kw < size; kw++ {
							sum += x[start+kh*w+kw]
						}
					}
					out[o] = sum / area
					continue
				}

				best := start
				for kh := 0; kh < size; kh++ {
					for kw := 0; kw < size; kw++ {
						if i := start + kh*w + kw; x[i] > x[best] {
							best = i
						}
					}
				}
				out[o] = x[best]
				ctx.argmax[o] = best
			}
		}
	}, p.par)

	t, err := tensor.FromSlice(out, tensor.Shape{batch, ch, outH, outW})
	if err != nil {
		return nil, nil, err
	}
	return t, ctx, nil
}

// Backward routes each output gradient to the selected input (max) or
// spreads it evenly over its window (avg). Overlapping windows accumulate.
func (p *Pool2D) Backward(ctx Context, outputGrad *tensor.Tensor) (*tensor.Tensor, error) {
	pc, ok := ctx.(pool2dContext)
	if !ok || pc.kind != p.cfg.Kind {
		return nil, fmt.Errorf("%w: %s received %T", ErrInvalidContext, p.Name(), ctx)
	}

	batch, ch, h, w := pc.inputShape[0], pc.inputShape[1], pc.inputShape[2], pc.inputShape[3]
	outH, outW := pc.outH, pc.outW
	if !outputGrad.Shape().Equal(tensor.Shape{batch, ch, outH, outW}) {
		return nil, fmt.Errorf("%w: %s gradient %v, want [%d, %d, %d, %d]",
			ErrShapeMismatch, p.Name(), outputGrad.Shape(), batch, ch, outH, outW)
	}

	size, stride := p.cfg.Size, p.cfg.Stride
	g := outputGrad.Data()
	dX := make([]float64, pc.inputShape.NumElements())
	area := float64(size * size)

	// Each (b, c) plane of dX is written by exactly one worker.
	parallel.ForBatch(batch, ch, func(b, c int) {
		plane := (b*ch + c) * h * w
		base := (b*ch + c) * outH * outW
		for oh := 0; oh < outH; oh++ {
			for ow := 0; ow < outW; ow++ {
				o := base + oh*outW + ow
				if pc.kind == MaxPool {
					dX[pc.argmax[o]] += g[o]
					continue
				}
				share := g[o] / area
				start := plane + oh*stride*w + ow*stride
				for kh := 0; kh < size; kh++ {
					for kw := 0; kw < size; kw++ {
						dX[start+kh*w+kw] += share
					}
				}
			}
		}
	}, p.par)

	return tensor.FromSlice(dX, pc.inputShape)
}

// Parameters returns an empty slice (pooling has no trainable parameters).
func (p *Pool2D) Parameters() []*Parameter {
	return nil
}
