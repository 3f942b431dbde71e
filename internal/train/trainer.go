package train

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/born-ml/nnfs/internal/dataset"
	"github.com/born-ml/nnfs/internal/nn"
)

// State is the lifecycle position of a Trainer.
type State int

// Trainer states. A run moves Idle → EpochRunning → EpochComplete, loops
// back to EpochRunning for every further epoch and ends in Finished, or in
// Failed on an error or cancellation.
const (
	Idle State = iota
	EpochRunning
	EpochComplete
	Finished
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case EpochRunning:
		return "epoch_running"
	case EpochComplete:
		return "epoch_complete"
	case Finished:
		return "finished"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Config configures a training run.
type Config struct {
	Epochs    int
	BatchSize int
	Shuffle   bool

	// Validation, if set, is evaluated after every epoch.
	Validation *dataset.Dataset

	// Logger receives per-epoch info and per-batch debug records.
	// Defaults to a discarding logger.
	Logger *slog.Logger
}

// Validate checks the run parameters.
func (c Config) Validate() error {
	if c.Epochs < 1 {
		return fmt.Errorf("%w: epochs must be at least 1, got %d", nn.ErrInvalidConfiguration, c.Epochs)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("%w: batch size must be at least 1, got %d", nn.ErrInvalidConfiguration, c.BatchSize)
	}
	return nil
}

// EpochMetrics is reported after every completed epoch.
type EpochMetrics struct {
	Epoch      int     // 1-based
	Loss       float64 // mean training loss per sample
	Accuracy   float64 // training accuracy
	Duration   time.Duration
	Validation *Metrics // nil without a validation set
}

// Reporter receives epoch metrics as they are produced.
type Reporter interface {
	ReportEpoch(m EpochMetrics)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(m EpochMetrics)

// ReportEpoch calls f(m).
func (f ReporterFunc) ReportEpoch(m EpochMetrics) { f(m) }

// Trainer runs the epoch loop for one Network.
type Trainer struct {
	net       *Network
	cfg       Config
	logger    *slog.Logger
	reporters []Reporter
	history   *History

	mu    sync.Mutex
	state State
}

// NewTrainer creates a Trainer in the Idle state.
func NewTrainer(net *Network, cfg Config, reporters ...Reporter) (*Trainer, error) {
	if net == nil {
		return nil, fmt.Errorf("%w: trainer needs a network", nn.ErrInvalidConfiguration)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Trainer{
		net:       net,
		cfg:       cfg,
		logger:    logger,
		reporters: reporters,
		history:   &History{},
		state:     Idle,
	}, nil
}

// State returns the current state. Safe to call while Fit runs.
func (t *Trainer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Trainer) setState(s State) {
	t.mu.Lock()
	t.state = s
	t.mu.Unlock()
}

// History returns the metrics recorded so far.
func (t *Trainer) History() *History {
	return t.history
}

// Fit trains the network on ds for the configured number of epochs.
//
// ctx is checked between epochs; a cancelled run stops before the next
// epoch starts and returns ctx.Err(). A Trainer runs once: calling Fit again
// returns ErrInvalidConfiguration.
func (t *Trainer) Fit(ctx context.Context, ds *dataset.Dataset) (*History, error) {
	if s := t.State(); s != Idle {
		return t.history, fmt.Errorf("%w: trainer is %s, not idle", nn.ErrInvalidConfiguration, s)
	}

	batches, err := ds.Batches(t.cfg.BatchSize, t.cfg.Shuffle)
	if err != nil {
		t.setState(Failed)
		return t.history, err
	}

	t.logger.Info("training started",
		"epochs", t.cfg.Epochs,
		"batch_size", t.cfg.BatchSize,
		"samples", ds.Len(),
		"parameters", len(t.net.model.Parameters()),
		"optimizer", t.net.opt.Name(),
		"loss", t.net.loss.Name())

	for epoch := 1; epoch <= t.cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			t.setState(Failed)
			t.logger.Info("training cancelled", "epoch", epoch, "err", err)
			return t.history, err
		}

		t.setState(EpochRunning)
		start := time.Now()

		var totalLoss float64
		var hits, seen int
		for batch := range batches {
			loss, predictions, err := t.net.step(batch)
			if err != nil {
				t.setState(Failed)
				var ie *InstabilityError
				if errors.As(err, &ie) {
					ie.Epoch = epoch
				}
				t.logger.Error("training failed", "epoch", epoch, "batch", batch.Index, "err", err)
				return t.history, fmt.Errorf("epoch %d: %w", epoch, err)
			}

			n := batch.Size()
			totalLoss += loss * float64(n)
			hits += correct(Classes(predictions), batch.Labels)
			seen += n
			t.logger.Debug("batch", "epoch", epoch, "batch", batch.Index, "loss", loss)
		}

		m := EpochMetrics{
			Epoch:    epoch,
			Loss:     totalLoss / float64(seen),
			Accuracy: float64(hits) / float64(seen),
			Duration: time.Since(start),
		}
		if t.cfg.Validation != nil {
			v, err := t.net.Evaluate(t.cfg.Validation, t.cfg.BatchSize)
			if err != nil {
				t.setState(Failed)
				return t.history, fmt.Errorf("epoch %d validation: %w", epoch, err)
			}
			m.Validation = &v
		}

		t.setState(EpochComplete)
		t.history.ReportEpoch(m)
		for _, r := range t.reporters {
			r.ReportEpoch(m)
		}

		attrs := []any{"epoch", epoch, "loss", m.Loss, "accuracy", m.Accuracy, "duration", m.Duration}
		if m.Validation != nil {
			attrs = append(attrs, "val_loss", m.Validation.Loss, "val_accuracy", m.Validation.Accuracy)
		}
		t.logger.Info("epoch complete", attrs...)
	}

	t.setState(Finished)
	return t.history, nil
}
