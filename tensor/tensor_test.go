// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/nnfs/tensor"
)

// TestPublicAPI exercises the re-exported constructors and operations.
func TestPublicAPI(t *testing.T) {
	x, err := tensor.FromSlice([]float64{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	require.NoError(t, err)
	b, err := tensor.FromSlice([]float64{10, 20, 30}, tensor.Shape{3})
	require.NoError(t, err)

	y, err := x.Add(b)
	require.NoError(t, err)
	assert.Equal(t, []float64{11, 22, 33, 14, 25, 36}, y.Data())

	z, err := x.MatMul(tensor.Ones(tensor.Shape{3, 2}))
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 2}, z.Shape())
	assert.Equal(t, []float64{6, 6, 15, 15}, z.Data())

	_, err = x.Sub(tensor.Zeros(tensor.Shape{2}))
	require.ErrorIs(t, err, tensor.ErrShapeMismatch)

	_, err = tensor.FromSlice([]float64{1, 2}, tensor.Shape{3})
	require.ErrorIs(t, err, tensor.ErrElementCountMismatch)

	shape, needs, err := tensor.BroadcastShapes(tensor.Shape{4, 1}, tensor.Shape{1, 5})
	require.NoError(t, err)
	assert.True(t, needs)
	assert.Equal(t, tensor.Shape{4, 5}, shape)
}

func TestRandomConstructors(t *testing.T) {
	a := tensor.RandNormal(tensor.Shape{3, 3}, 0, 1, rand.New(rand.NewSource(1)))
	b := tensor.RandNormal(tensor.Shape{3, 3}, 0, 1, rand.New(rand.NewSource(1)))
	assert.Equal(t, a.Checksum(), b.Checksum(), "same seed, same values")

	u := tensor.RandUniform(tensor.Shape{100}, -1, 1, rand.New(rand.NewSource(2)))
	for _, v := range u.Data() {
		require.GreaterOrEqual(t, v, -1.0)
		require.Less(t, v, 1.0)
	}

	f := tensor.FromFunc(tensor.Shape{4}, func(i int) float64 { return float64(i * i) })
	assert.Equal(t, []float64{0, 1, 4, 9}, f.Data())
	assert.Equal(t, 7.0, tensor.Full(tensor.Shape{2}, 3.5).SumAll())
}
