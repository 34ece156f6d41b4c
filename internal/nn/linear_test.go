package nn

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eanet-ml/eanet/internal/autodiff"
	"github.com/eanet-ml/eanet/internal/backend/cpu"
	"github.com/eanet-ml/eanet/internal/tensor"
)

// Backend is the concrete backend the layer tests run against.
type Backend = *autodiff.AutodiffBackend[*cpu.CPUBackend]

func newTestBackend() Backend {
	return autodiff.New(cpu.New())
}

func testRNG() *rand.Rand {
	return rand.New(rand.NewSource(42))
}

func TestLinearForward2D(t *testing.T) {
	b := newTestBackend()
	layer := NewLinear[Backend]("fc", 4, 3, testRNG(), b)

	x := tensor.Zeros[float32](tensor.Shape{2, 4}, b)
	out := layer.Forward(x)
	require.Equal(t, tensor.Shape{2, 3}, out.Shape())
	// Zero input hits only the (zero) bias.
	assert.Equal(t, []float32{0, 0, 0, 0, 0, 0}, out.Data())
}

func TestLinearForward3DKeepsLeadingDims(t *testing.T) {
	b := newTestBackend()
	layer := NewLinear[Backend]("fc", 8, 16, testRNG(), b)

	x := tensor.Zeros[float32](tensor.Shape{2, 5, 8}, b)
	out := layer.Forward(x)
	assert.Equal(t, tensor.Shape{2, 5, 16}, out.Shape())
}

func TestLinearBiasApplied(t *testing.T) {
	b := newTestBackend()
	layer := NewLinear[Backend]("fc", 2, 2, testRNG(), b)
	copy(layer.Bias().Data().Data(), []float32{1, -1})

	x := tensor.Zeros[float32](tensor.Shape{1, 2}, b)
	out := layer.Forward(x)
	assert.Equal(t, []float32{1, -1}, out.Data())
}

func TestLinearWrongFeaturesPanics(t *testing.T) {
	b := newTestBackend()
	layer := NewLinear[Backend]("fc", 4, 3, testRNG(), b)

	x := tensor.Zeros[float32](tensor.Shape{2, 5}, b)
	assert.Panics(t, func() { layer.Forward(x) })
}

func TestXavierInitBounded(t *testing.T) {
	b := newTestBackend()
	w := XavierUniform[Backend](tensor.Shape{64, 64}, testRNG(), b)

	limit := float32(0.2165 + 1e-4) // sqrt(6/128)
	for _, v := range w.Data() {
		assert.LessOrEqual(t, v, limit)
		assert.GreaterOrEqual(t, v, -limit)
	}
}

func TestXavierInitDeterministic(t *testing.T) {
	b := newTestBackend()
	w1 := XavierUniform[Backend](tensor.Shape{8, 8}, rand.New(rand.NewSource(7)), b)
	w2 := XavierUniform[Backend](tensor.Shape{8, 8}, rand.New(rand.NewSource(7)), b)
	assert.Equal(t, w1.Data(), w2.Data())
}
