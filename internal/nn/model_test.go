package nn

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eanet-ml/eanet/internal/tensor"
)

func smallConfig() EANetConfig {
	cfg := DefaultEANetConfig()
	cfg.ImageSize = 8
	cfg.NumBlocks = 2
	cfg.NumClasses = 10
	return cfg
}

func TestEANetForwardShape(t *testing.T) {
	b := newTestBackend()
	model := NewEANet[Backend](smallConfig(), testRNG(), b)
	model.SetTraining(false)

	images := tensor.Zeros[float32](tensor.Shape{2, 8, 8, 3}, b)
	logits := model.Forward(images)
	assert.Equal(t, tensor.Shape{2, 10}, logits.Shape())
}

func TestEANetDefaultConfigGeometry(t *testing.T) {
	cfg := DefaultEANetConfig()
	cfg.Validate()
	assert.Equal(t, 256, cfg.NumPatches())
	assert.Equal(t, 8, cfg.NumBlocks)
	assert.Equal(t, 100, cfg.NumClasses)
}

func TestEANetInvalidConfigPanics(t *testing.T) {
	bad := DefaultEANetConfig()
	bad.EmbedDim = 65
	assert.Panics(t, func() { bad.Validate() })

	bad = DefaultEANetConfig()
	bad.PatchSize = 5
	assert.Panics(t, func() { bad.Validate() })

	bad = DefaultEANetConfig()
	bad.Variant = "flash_attention"
	assert.Panics(t, func() { bad.Validate() })
}

func TestEANetDeterministicWithDropoutDisabled(t *testing.T) {
	b := newTestBackend()
	model := NewEANet[Backend](smallConfig(), testRNG(), b)
	model.SetTraining(false)

	images := tensor.Zeros[float32](tensor.Shape{1, 8, 8, 3}, b)
	data := images.Data()
	for i := range data {
		data[i] = float32(i%11) / 11
	}

	out1 := model.Forward(images.Clone())
	out2 := model.Forward(images.Clone())
	assert.Equal(t, out1.Data(), out2.Data())
}

func TestEANetSameSeedSameInit(t *testing.T) {
	b := newTestBackend()
	m1 := NewEANet[Backend](smallConfig(), rand.New(rand.NewSource(9)), b)
	m2 := NewEANet[Backend](smallConfig(), rand.New(rand.NewSource(9)), b)

	p1, p2 := m1.Parameters(), m2.Parameters()
	require.Equal(t, len(p1), len(p2))
	for i := range p1 {
		assert.Equal(t, p1[i].Data().Data(), p2[i].Data().Data(), p1[i].Name())
	}
}

func TestEANetSelfAttentionVariant(t *testing.T) {
	b := newTestBackend()
	cfg := smallConfig()
	cfg.Variant = AttentionSelf
	model := NewEANet[Backend](cfg, testRNG(), b)
	model.SetTraining(false)

	images := tensor.Zeros[float32](tensor.Shape{2, 8, 8, 3}, b)
	assert.Equal(t, tensor.Shape{2, 10}, model.Forward(images).Shape())
}

func TestEANetParameterCount(t *testing.T) {
	b := newTestBackend()
	model := NewEANet[Backend](smallConfig(), testRNG(), b)

	total := model.NumParameters()
	assert.Greater(t, total, 0)

	manual := 0
	for _, p := range model.Parameters() {
		manual += p.NumElements()
	}
	assert.Equal(t, manual, total)
}

func TestEANetGradientReachesAllParameters(t *testing.T) {
	b := newTestBackend()
	cfg := smallConfig()
	cfg.NumBlocks = 1
	model := NewEANet[Backend](cfg, testRNG(), b)
	model.SetTraining(true)

	b.Tape().StartRecording()
	defer b.Tape().Clear()

	images := tensor.Zeros[float32](tensor.Shape{2, 8, 8, 3}, b)
	data := images.Data()
	for i := range data {
		data[i] = float32(i%5) / 5
	}
	targets, err := tensor.NewRaw(tensor.Shape{2}, tensor.Int32, tensor.CPU)
	require.NoError(t, err)
	copy(targets.AsInt32(), []int32{3, 7})

	logits := model.Forward(images)
	loss := b.CrossEntropy(logits.Raw(), targets, 0.1)
	require.Equal(t, tensor.Shape{1}, loss.Shape())
	require.Greater(t, loss.AsFloat32()[0], float32(0))

	outGrad, err := tensor.NewRaw(tensor.Shape{1}, tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	outGrad.AsFloat32()[0] = 1

	grads := b.Tape().Backward(outGrad)
	for _, p := range model.Parameters() {
		g, ok := grads[p.Raw()]
		require.True(t, ok, "no gradient for %s", p.Name())
		require.True(t, g.Shape().Equal(p.Raw().Shape()), "gradient shape mismatch for %s", p.Name())
	}
}

func TestEANetPositionalEmbeddingDistinguishesPatches(t *testing.T) {
	b := newTestBackend()
	cfg := smallConfig()
	model := NewEANet[Backend](cfg, testRNG(), b)

	// Identical pixel patches must still embed differently by position.
	patchDim := cfg.PatchSize * cfg.PatchSize * cfg.Channels
	patches := tensor.Zeros[float32](tensor.Shape{1, cfg.NumPatches(), patchDim}, b)
	embedded := model.embed.Forward(patches).Data()

	dim := cfg.EmbedDim
	first := embedded[:dim]
	second := embedded[dim : 2*dim]
	assert.NotEqual(t, first, second)
}
