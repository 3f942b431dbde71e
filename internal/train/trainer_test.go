package train

import (
	"bytes"
	"context"
	"log/slog"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/nnfs/internal/dataset"
	"github.com/born-ml/nnfs/internal/nn"
	"github.com/born-ml/nnfs/internal/tensor"
)

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, Config{Epochs: 1, BatchSize: 1}.Validate())
	require.ErrorIs(t, Config{Epochs: 0, BatchSize: 1}.Validate(), nn.ErrInvalidConfiguration)
	require.ErrorIs(t, Config{Epochs: 1, BatchSize: 0}.Validate(), nn.ErrInvalidConfiguration)

	_, err := NewTrainer(xorNetwork(t, 1), Config{Epochs: -1, BatchSize: 4})
	require.ErrorIs(t, err, nn.ErrInvalidConfiguration)
}

func TestFit_XORConverges(t *testing.T) {
	if testing.Short() {
		t.Skip("2000 epochs")
	}
	ds, err := dataset.XOR(dataset.WithRand(rand.New(rand.NewSource(7))))
	require.NoError(t, err)

	net := xorNetwork(t, 42)
	trainer, err := NewTrainer(net, Config{Epochs: 2000, BatchSize: 1, Shuffle: true})
	require.NoError(t, err)

	history, err := trainer.Fit(context.Background(), ds)
	require.NoError(t, err)
	assert.Equal(t, 2000, history.Len())
	assert.Equal(t, Finished, trainer.State())

	x, err := tensor.FromSlice([]float64{0, 0, 0, 1, 1, 0, 1, 1}, tensor.Shape{4, 2})
	require.NoError(t, err)
	out, err := net.Predict(x)
	require.NoError(t, err)
	for i, want := range []float64{0, 1, 1, 0} {
		assert.InDelta(t, want, out.At(i, 0), 0.1, "row %d", i)
	}

	last, ok := history.Last()
	require.True(t, ok)
	assert.Equal(t, 1.0, last.Accuracy)
}

func TestFit_MLPLossDecreases(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	ds, err := dataset.SyntheticDigits(1000, rng, dataset.WithRand(rng))
	require.NoError(t, err)

	trainer, err := NewTrainer(mlpNetwork(t, 11), Config{Epochs: 5, BatchSize: 32, Shuffle: true})
	require.NoError(t, err)
	history, err := trainer.Fit(context.Background(), ds)
	require.NoError(t, err)

	losses := history.Losses()
	require.Len(t, losses, 5)
	for i := 1; i < len(losses); i++ {
		assert.LessOrEqual(t, losses[i], losses[i-1]+0.05*losses[0], "epoch %d", i+1)
	}
	assert.Less(t, losses[4], losses[0])
}

func TestFit_ConvAndMLPAccuracies(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	ds, err := dataset.SyntheticDigits(200, rng, dataset.WithRand(rng))
	require.NoError(t, err)
	train, test, err := ds.Split(0.25)
	require.NoError(t, err)

	for name, net := range map[string]*Network{
		"mlp":  mlpNetwork(t, 5),
		"conv": convNetwork(t, 5),
	} {
		t.Run(name, func(t *testing.T) {
			trainer, err := NewTrainer(net, Config{Epochs: 2, BatchSize: 25, Shuffle: true, Validation: test})
			require.NoError(t, err)
			history, err := trainer.Fit(context.Background(), train)
			require.NoError(t, err)

			for _, acc := range history.Accuracies() {
				assert.False(t, math.IsNaN(acc))
				assert.GreaterOrEqual(t, acc, 0.0)
				assert.LessOrEqual(t, acc, 1.0)
			}
			last, _ := history.Last()
			require.NotNil(t, last.Validation)
			assert.Equal(t, 50, last.Validation.Samples)
			assert.GreaterOrEqual(t, last.Validation.Accuracy, 0.0)
			assert.LessOrEqual(t, last.Validation.Accuracy, 1.0)
		})
	}
}

func TestFit_AugmentedDatasetUnchanged(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	ds, err := dataset.SyntheticDigits(60, rng,
		dataset.WithAugmenter(dataset.DefaultImageAugmenter()), dataset.WithRand(rng))
	require.NoError(t, err)
	before := ds.Checksum()

	trainer, err := NewTrainer(mlpNetwork(t, 9), Config{Epochs: 2, BatchSize: 20, Shuffle: true})
	require.NoError(t, err)
	_, err = trainer.Fit(context.Background(), ds)
	require.NoError(t, err)

	assert.Equal(t, before, ds.Checksum())
}

func TestFit_HaltsOnNaN(t *testing.T) {
	net := xorNetwork(t, 1)
	net.Model().Layer(2).(*nn.Dense).Bias().Tensor().Set(math.Inf(1), 0)

	ds, err := dataset.XOR()
	require.NoError(t, err)

	var reported int
	trainer, err := NewTrainer(net, Config{Epochs: 10, BatchSize: 2},
		ReporterFunc(func(EpochMetrics) { reported++ }))
	require.NoError(t, err)

	history, err := trainer.Fit(context.Background(), ds)
	require.ErrorIs(t, err, nn.ErrNumericalInstability)
	var ie *InstabilityError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, 1, ie.Epoch)
	assert.Equal(t, 0, ie.Batch)

	assert.Equal(t, Failed, trainer.State())
	assert.Zero(t, history.Len())
	assert.Zero(t, reported)
}

func TestFit_Cancellation(t *testing.T) {
	ds, err := dataset.XOR()
	require.NoError(t, err)

	t.Run("before start", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		trainer, err := NewTrainer(xorNetwork(t, 1), Config{Epochs: 5, BatchSize: 4})
		require.NoError(t, err)
		history, err := trainer.Fit(ctx, ds)
		require.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, history.Len())
		assert.Equal(t, Failed, trainer.State())
	})

	t.Run("between epochs", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		stopAfter := ReporterFunc(func(m EpochMetrics) {
			if m.Epoch == 3 {
				cancel()
			}
		})
		trainer, err := NewTrainer(xorNetwork(t, 1), Config{Epochs: 100, BatchSize: 4}, stopAfter)
		require.NoError(t, err)

		history, err := trainer.Fit(ctx, ds)
		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 3, history.Len(), "the running epoch completes")
	})
}

func TestTrainer_StateMachine(t *testing.T) {
	ds, err := dataset.XOR()
	require.NoError(t, err)

	var trainer *Trainer
	var states []State
	record := ReporterFunc(func(EpochMetrics) { states = append(states, trainer.State()) })

	trainer, err = NewTrainer(xorNetwork(t, 1), Config{Epochs: 3, BatchSize: 4}, record)
	require.NoError(t, err)
	assert.Equal(t, Idle, trainer.State())

	_, err = trainer.Fit(context.Background(), ds)
	require.NoError(t, err)
	assert.Equal(t, []State{EpochComplete, EpochComplete, EpochComplete}, states)
	assert.Equal(t, Finished, trainer.State())

	_, err = trainer.Fit(context.Background(), ds)
	require.ErrorIs(t, err, nn.ErrInvalidConfiguration)

	assert.Equal(t, "epoch_running", EpochRunning.String())
	assert.Equal(t, "failed", Failed.String())
}

func TestFit_Logging(t *testing.T) {
	ds, err := dataset.XOR()
	require.NoError(t, err)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	trainer, err := NewTrainer(xorNetwork(t, 1), Config{Epochs: 2, BatchSize: 2, Logger: logger})
	require.NoError(t, err)
	_, err = trainer.Fit(context.Background(), ds)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "training started")
	assert.Contains(t, out, "msg=\"epoch complete\" epoch=2")
	assert.Contains(t, out, "msg=batch")
}
