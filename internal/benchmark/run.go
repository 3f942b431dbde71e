package benchmark

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/born-ml/nnfs/internal/dataset"
	"github.com/born-ml/nnfs/internal/optim"
	"github.com/born-ml/nnfs/internal/train"
)

// evalBatchSize is the batch size used for the final test evaluation.
const evalBatchSize = 10

// Result is the outcome of a benchmark run.
type Result struct {
	RunID      string
	Config     Config
	Host       HostInfo
	Parameters int // number of trainable scalars
	Epochs     []train.EpochMetrics
	Test       train.Metrics
	Duration   time.Duration
	SavedTo    string
}

// Data holds the splits of a benchmark.
type Data struct {
	Train      *dataset.Dataset
	Validation *dataset.Dataset // nil without a validation split
	Test       *dataset.Dataset
}

// LoadData prepares the datasets for cfg.
//
// XOR trains and tests on its four rows. MNIST reads IDX files from
// cfg.DataDir, or generates synthetic digits when DataDir is empty; the tail
// of the training set is held out for validation.
func LoadData(cfg Config, rng *rand.Rand) (Data, error) {
	if cfg.Run == RunXOR {
		ds, err := dataset.XOR(dataset.WithRand(rng))
		if err != nil {
			return Data{}, err
		}
		return Data{Train: ds, Test: ds}, nil
	}

	var opts []dataset.Option
	opts = append(opts, dataset.WithRand(rng))
	if cfg.Augment {
		opts = append(opts, dataset.WithAugmenter(dataset.DefaultImageAugmenter()))
	}

	var trainSet, testSet *dataset.Dataset
	var err error
	if cfg.DataDir != "" {
		trainSet, err = dataset.LoadMNIST(cfg.DataDir, dataset.MNISTTrain, cfg.Samples, opts...)
		if err != nil {
			return Data{}, err
		}
		testSet, err = dataset.LoadMNIST(cfg.DataDir, dataset.MNISTTest, cfg.Samples)
		if err != nil {
			return Data{}, err
		}
	} else {
		n := cfg.Samples
		if n == 0 {
			n = syntheticSamples
		}
		trainSet, err = dataset.SyntheticDigits(n, rng, opts...)
		if err != nil {
			return Data{}, err
		}
		testSet, err = dataset.SyntheticDigits(max(n/5, 10), rng)
		if err != nil {
			return Data{}, err
		}
	}

	data := Data{Train: trainSet, Test: testSet}
	if cfg.ValidationRatio > 0 {
		data.Train, data.Validation, err = trainSet.Split(cfg.ValidationRatio)
		if err != nil {
			return Data{}, err
		}
	}
	return data, nil
}

// Run builds the datasets and network described by cfg, trains it, evaluates
// it on the test split and optionally saves its parameters.
//
// reporter, if not nil, receives every epoch as it completes. Cancelling ctx
// stops training before the next epoch.
func Run(ctx context.Context, cfg Config, reporter train.Reporter) (*Result, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	result := &Result{
		RunID:  uuid.NewString(),
		Config: cfg,
		Host:   Host(),
	}
	logger = logger.With("run_id", result.RunID)
	logger.Info("benchmark starting", "run", cfg.Run, "net", cfg.NetType, "host", result.Host.String())
	start := time.Now()

	rng := rand.New(rand.NewSource(cfg.Seed))
	data, err := LoadData(cfg, rng)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s data: %w", cfg.Run, err)
	}
	logger.Info("data loaded", "train", data.Train.Len(), "test", data.Test.Len())

	arch, err := Build(cfg, rng)
	if err != nil {
		return nil, err
	}
	for _, p := range arch.Model.Parameters() {
		result.Parameters += p.Tensor().Len()
	}

	opt, err := optim.New(cfg.Optimizer, arch.Model.Parameters(), cfg.LR, cfg.Momentum)
	if err != nil {
		return nil, err
	}
	net, err := train.NewNetwork(arch.Model, arch.Loss, opt)
	if err != nil {
		return nil, err
	}

	var reporters []train.Reporter
	if reporter != nil {
		reporters = append(reporters, reporter)
	}
	trainer, err := train.NewTrainer(net, train.Config{
		Epochs:     cfg.Epochs,
		BatchSize:  cfg.BatchSize,
		Shuffle:    true,
		Validation: data.Validation,
		Logger:     logger,
	}, reporters...)
	if err != nil {
		return nil, err
	}

	history, err := trainer.Fit(ctx, data.Train)
	result.Epochs = history.Epochs()
	if err != nil {
		result.Duration = time.Since(start)
		return result, err
	}

	result.Test, err = net.Evaluate(data.Test, evalBatchSize)
	if err != nil {
		return result, fmt.Errorf("test evaluation: %w", err)
	}
	logger.Info("test evaluation", "loss", result.Test.Loss, "accuracy", result.Test.Accuracy)

	if cfg.SavePath != "" {
		err := net.SaveParameters(cfg.SavePath, map[string]string{
			"run_id":   result.RunID,
			"run":      cfg.Run,
			"net_type": cfg.NetType,
			"epochs":   strconv.Itoa(cfg.Epochs),
			"accuracy": strconv.FormatFloat(result.Test.Accuracy, 'f', 4, 64),
		})
		if err != nil {
			return result, fmt.Errorf("failed to save parameters: %w", err)
		}
		result.SavedTo = cfg.SavePath
		logger.Info("parameters saved", "path", cfg.SavePath)
	}

	result.Duration = time.Since(start)
	return result, nil
}
