// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package train

import (
	"math/rand"

	"github.com/born-ml/nnfs/internal/dataset"
)

// Dataset is an ordered collection of samples with identical input shapes.
type Dataset = dataset.Dataset

// Sample is one labelled input.
type Sample = dataset.Sample

// Batch is one mini-batch of inputs, targets and labels.
type Batch = dataset.Batch

// Option configures a Dataset.
type Option = dataset.Option

// Encoding selects how labels become target tensors.
type Encoding = dataset.Encoding

// Target encodings.
const (
	OneHot = dataset.OneHot
	Scalar = dataset.Scalar
)

// ErrDataFormat is matched by every *FormatError.
var ErrDataFormat = dataset.ErrDataFormat

// FormatError reports malformed or missing dataset files.
type FormatError = dataset.FormatError

// NewDataset creates a Dataset over samples labelled in [0, numClasses).
//
// Example:
//
//	ds, err := train.NewDataset(samples, 10, train.WithAugmenter(train.DefaultImageAugmenter()))
func NewDataset(samples []Sample, numClasses int, opts ...Option) (*Dataset, error) {
	return dataset.New(samples, numClasses, opts...)
}

// WithEncoding selects the target encoding (default OneHot).
func WithEncoding(e Encoding) Option {
	return dataset.WithEncoding(e)
}

// WithAugmenter applies a to a copy of every sampled input, once per epoch.
func WithAugmenter(a Augmenter) Option {
	return dataset.WithAugmenter(a)
}

// WithRand sets the random source used for shuffling and augmentation.
func WithRand(rng *rand.Rand) Option {
	return dataset.WithRand(rng)
}

// Augmentation

// Augmenter produces a randomly perturbed copy of a sample input.
type Augmenter = dataset.Augmenter

// ImageAugmenter rotates, shifts and optionally adds noise to images.
type ImageAugmenter = dataset.ImageAugmenter

// DefaultImageAugmenter returns ±10° rotation and ±2 px shift on 28x28
// images with values in [0, 1].
func DefaultImageAugmenter() *ImageAugmenter {
	return dataset.DefaultImageAugmenter()
}

// Built-in data

// XOR returns the four-row XOR truth table with scalar targets.
func XOR(opts ...Option) (*Dataset, error) {
	return dataset.XOR(opts...)
}

// MNISTSplit selects the training or the test files.
type MNISTSplit = dataset.MNISTSplit

// MNIST file sets.
const (
	MNISTTrain = dataset.MNISTTrain
	MNISTTest  = dataset.MNISTTest
)

// LoadMNIST loads MNIST IDX files (optionally gzip-compressed) from dir.
// maxSamples > 0 truncates the set.
func LoadMNIST(dir string, split MNISTSplit, maxSamples int, opts ...Option) (*Dataset, error) {
	return dataset.LoadMNIST(dir, split, maxSamples, opts...)
}

// SyntheticDigits generates n flat 28x28 images in ten classes.
func SyntheticDigits(n int, rng *rand.Rand, opts ...Option) (*Dataset, error) {
	return dataset.SyntheticDigits(n, rng, opts...)
}
