package main

import (
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/born-ml/nnfs/internal/inference"
)

func newPredictCommand() *cobra.Command {
	var (
		modelPath string
		images    []string
		invert    string
	)

	cmd := &cobra.Command{
		Use:   "predict [flags] [IMAGE...]",
		Short: "Classify hand-drawn digit images with a saved MNIST network",
		Example: `  nnfs predict --model mlp.nnfs --image seven.png
  nnfs predict -m mlp.nnfs one.png two.jpg`,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths := slices.Concat(images, args)
			if len(paths) == 0 {
				return errors.New("no image given (use --image or positional arguments)")
			}
			mode, err := parseInvert(invert)
			if err != nil {
				return err
			}
			p, err := inference.Load(modelPath)
			if err != nil {
				return err
			}
			p.SetInvert(mode)

			out := cmd.OutOrStdout()
			for _, path := range paths {
				pred, err := p.PredictFile(path)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s: %d (%.1f%%)\n", path, pred.Digit, pred.Confidence*100)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&modelPath, "model", "m", "", "NNFS file written by a mnist benchmark with --save")
	cmd.Flags().StringSliceVarP(&images, "image", "i", nil, "PNG or JPEG image to classify (repeatable)")
	cmd.Flags().StringVar(&invert, "invert", "auto", "image polarity: auto, never or always")
	_ = cmd.MarkFlagRequired("model")
	return cmd
}

func parseInvert(s string) (inference.Invert, error) {
	switch s {
	case "auto":
		return inference.InvertAuto, nil
	case "never":
		return inference.InvertNever, nil
	case "always":
		return inference.InvertAlways, nil
	default:
		return 0, fmt.Errorf("unknown --invert value %q (want auto, never or always)", s)
	}
}
