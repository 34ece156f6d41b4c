package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eanet-ml/eanet/internal/tensor"
)

func testAttentionConfig() ExternalAttentionConfig {
	return ExternalAttentionConfig{
		Dim:            64,
		NumHeads:       4,
		DimCoefficient: 4,
	}
}

func TestExternalAttentionPreservesShape(t *testing.T) {
	b := newTestBackend()
	attn := NewExternalAttention[Backend]("attn", testAttentionConfig(), testRNG(), b)

	x := tensor.Zeros[float32](tensor.Shape{2, 256, 64}, b)
	out := attn.Forward(x)
	assert.Equal(t, tensor.Shape{2, 256, 64}, out.Shape())
}

func TestExternalAttentionHeadSplit(t *testing.T) {
	b := newTestBackend()
	attn := NewExternalAttention[Backend]("attn", testAttentionConfig(), testRNG(), b)

	// dim*coefficient expansion and the per-head width.
	assert.Equal(t, tensor.Shape{64, 256}, attn.toHeads.Weight().Data().Shape())
	assert.Equal(t, tensor.Shape{16, 16}, attn.keyMem.Weight().Data().Shape())
	assert.Equal(t, tensor.Shape{16, 16}, attn.valMem.Weight().Data().Shape())
	assert.Equal(t, tensor.Shape{256, 64}, attn.proj.Weight().Data().Shape())
}

func TestExternalAttentionIndivisibleDimPanics(t *testing.T) {
	b := newTestBackend()
	cfg := testAttentionConfig()
	cfg.Dim = 65

	assert.Panics(t, func() {
		NewExternalAttention[Backend]("attn", cfg, testRNG(), b)
	})
}

func TestDoubleNormalizationSumsToOne(t *testing.T) {
	// Mirror the normalization inside the attention: softmax over the
	// patch axis followed by division by the memory-axis sum. After the
	// second step every (batch, head, patch) row sums to one over memory.
	b := newTestBackend()

	logits := tensor.Zeros[float32](tensor.Shape{2, 4, 8, 16}, b)
	data := logits.Data()
	for i := range data {
		data[i] = float32(i%13) * 0.37
	}

	attn := logits.Softmax(2)
	denom := attn.SumDim(-1, true).AddScalar(float32(1e-9))
	normed := attn.Div(denom)

	out := normed.Data()
	for row := 0; row < 2*4*8; row++ {
		var sum float64
		for m := 0; m < 16; m++ {
			sum += float64(out[row*16+m])
		}
		assert.InDelta(t, 1.0, sum, 1e-5, "row %d", row)
	}
}

func TestExternalAttentionDeterministicWithoutDropout(t *testing.T) {
	b := newTestBackend()
	cfg := testAttentionConfig()
	cfg.AttentionDropout = 0.2
	cfg.ProjectionDropout = 0.2
	attn := NewExternalAttention[Backend]("attn", cfg, testRNG(), b)
	attn.SetTraining(false)

	x := tensor.Zeros[float32](tensor.Shape{1, 16, 64}, b)
	data := x.Data()
	for i := range data {
		data[i] = float32(i%7) * 0.1
	}

	out1 := attn.Forward(x.Clone())
	out2 := attn.Forward(x.Clone())
	assert.Equal(t, out1.Data(), out2.Data())
}

func TestSelfAttentionPreservesShape(t *testing.T) {
	b := newTestBackend()
	attn := NewSelfAttention[Backend]("attn", 64, 4, 0, 0, testRNG(), b)

	x := tensor.Zeros[float32](tensor.Shape{2, 16, 64}, b)
	out := attn.Forward(x)
	assert.Equal(t, tensor.Shape{2, 16, 64}, out.Shape())
}

func TestSelfAttentionIndivisibleHeadsPanics(t *testing.T) {
	b := newTestBackend()
	assert.Panics(t, func() {
		NewSelfAttention[Backend]("attn", 65, 4, 0, 0, testRNG(), b)
	})
}

func TestAttentionVariantsShareInterface(t *testing.T) {
	b := newTestBackend()
	variants := []Attention[Backend]{
		NewExternalAttention[Backend]("ext", testAttentionConfig(), testRNG(), b),
		NewSelfAttention[Backend]("self", 64, 4, 0, 0, testRNG(), b),
	}

	x := tensor.Zeros[float32](tensor.Shape{1, 16, 64}, b)
	for _, v := range variants {
		require.Equal(t, tensor.Shape{1, 16, 64}, v.Forward(x).Shape())
		require.NotEmpty(t, v.Parameters())
	}
}
