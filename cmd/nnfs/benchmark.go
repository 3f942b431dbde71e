package main

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/born-ml/nnfs/internal/benchmark"
	"github.com/born-ml/nnfs/internal/train"
)

func newBenchmarkCommand(logger func(io.Writer) *slog.Logger) *cobra.Command {
	var cfg benchmark.Config

	cmd := &cobra.Command{
		Use:   "benchmark",
		Short: "Train a reference network and report per-epoch metrics",
		Example: `  nnfs benchmark --run xor
  nnfs benchmark --run mnist --net-type conv --data ./data --augment
  nnfs benchmark --run mnist --epochs 3 --save mlp.nnfs`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg.Logger = logger(cmd.ErrOrStderr())
			cfg.NoValidation = cmd.Flags().Changed("validation") && cfg.ValidationRatio == 0
			out := cmd.OutOrStdout()

			result, err := benchmark.Run(cmd.Context(), cfg, train.ReporterFunc(func(m train.EpochMetrics) {
				printEpoch(out, m)
			}))
			if err != nil {
				return err
			}
			printResult(out, result)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.Run, "run", benchmark.RunXOR, "benchmark to run: xor or mnist")
	f.StringVar(&cfg.NetType, "net-type", benchmark.NetMLP, "mnist network: mlp or conv")
	f.StringVar(&cfg.Optimizer, "optimizer", "sgd", "optimizer: sgd or adam")
	f.IntVar(&cfg.Epochs, "epochs", 0, "training epochs (0 = benchmark default)")
	f.IntVar(&cfg.BatchSize, "batch-size", 0, "mini-batch size (0 = benchmark default)")
	f.Float64Var(&cfg.LR, "lr", 0, "learning rate (0 = benchmark default)")
	f.Float64Var(&cfg.Momentum, "momentum", 0, "SGD momentum in [0, 1)")
	f.Int64Var(&cfg.Seed, "seed", 1, "random seed")
	f.StringVar(&cfg.DataDir, "data", "", "directory with MNIST IDX files (empty = synthetic digits)")
	f.IntVar(&cfg.Samples, "samples", 0, "max MNIST samples per split (0 = all)")
	f.Float64Var(&cfg.ValidationRatio, "validation", 0, "fraction of the training set held out (0 disables; unset = benchmark default)")
	f.BoolVar(&cfg.Augment, "augment", false, "rotate and shift MNIST training images")
	f.StringVar(&cfg.SavePath, "save", "", "write trained parameters to this NNFS file")
	return cmd
}

func printEpoch(w io.Writer, m train.EpochMetrics) {
	line := fmt.Sprintf("epoch %4d  loss=%.4f  acc=%6.2f%%", m.Epoch, m.Loss, m.Accuracy*100)
	if m.Validation != nil {
		line += fmt.Sprintf("  val_loss=%.4f  val_acc=%6.2f%%", m.Validation.Loss, m.Validation.Accuracy*100)
	}
	fmt.Fprintf(w, "%s  (%s)\n", line, m.Duration.Round(time.Millisecond))
}

func printResult(w io.Writer, r *benchmark.Result) {
	fmt.Fprintf(w, "\nrun:        %s\n", r.RunID)
	fmt.Fprintf(w, "benchmark:  %s (%s, %d parameters)\n", r.Config.Run, r.Config.NetType, r.Parameters)
	fmt.Fprintf(w, "host:       %s\n", r.Host)
	fmt.Fprintf(w, "test:       %s\n", r.Test)
	fmt.Fprintf(w, "duration:   %s\n", r.Duration.Round(time.Millisecond))
	if r.SavedTo != "" {
		fmt.Fprintf(w, "saved to:   %s\n", r.SavedTo)
	}
}
