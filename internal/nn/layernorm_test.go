package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eanet-ml/eanet/internal/tensor"
)

func TestLayerNormNormalizesLastDim(t *testing.T) {
	b := newTestBackend()
	ln := NewLayerNorm[Backend]("ln", 4, b)

	x, err := tensor.FromSlice([]float32{
		1, 2, 3, 4,
		10, 20, 30, 40,
	}, tensor.Shape{2, 4}, b)
	require.NoError(t, err)

	out := ln.Forward(x)
	require.Equal(t, tensor.Shape{2, 4}, out.Shape())

	data := out.Data()
	for r := 0; r < 2; r++ {
		var mean, sq float64
		for c := 0; c < 4; c++ {
			mean += float64(data[r*4+c])
		}
		mean /= 4
		assert.InDelta(t, 0.0, mean, 1e-5)
		for c := 0; c < 4; c++ {
			d := float64(data[r*4+c]) - mean
			sq += d * d
		}
		assert.InDelta(t, 1.0, sq/4, 1e-3)
	}
}

func TestLayerNormGammaBeta(t *testing.T) {
	b := newTestBackend()
	ln := NewLayerNorm[Backend]("ln", 2, b)
	copy(ln.gamma.Data().Data(), []float32{2, 2})
	copy(ln.beta.Data().Data(), []float32{5, 5})

	x, err := tensor.FromSlice([]float32{-1, 1}, tensor.Shape{1, 2}, b)
	require.NoError(t, err)

	out := ln.Forward(x).Data()
	// Normalized values are close to -1 and 1, scaled and shifted.
	assert.InDelta(t, 3.0, float64(out[0]), 1e-2)
	assert.InDelta(t, 7.0, float64(out[1]), 1e-2)
}

func TestLayerNormWrongDimPanics(t *testing.T) {
	b := newTestBackend()
	ln := NewLayerNorm[Backend]("ln", 8, b)

	x := tensor.Zeros[float32](tensor.Shape{2, 4}, b)
	assert.Panics(t, func() { ln.Forward(x) })
}

func TestLayerNormBatchedInput(t *testing.T) {
	b := newTestBackend()
	ln := NewLayerNorm[Backend]("ln", 4, b)

	x := tensor.Zeros[float32](tensor.Shape{2, 3, 4}, b)
	out := ln.Forward(x)
	assert.Equal(t, tensor.Shape{2, 3, 4}, out.Shape())
}
