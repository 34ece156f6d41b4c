package nn

import (
	"fmt"
	"math/rand"

	"github.com/eanet-ml/eanet/internal/tensor"
)

// AttentionVariant selects which attention module the encoder blocks use.
type AttentionVariant string

const (
	AttentionExternal AttentionVariant = "external_attention"
	AttentionSelf     AttentionVariant = "self_attention"
)

// EANetConfig holds the model hyperparameters.
type EANetConfig struct {
	ImageSize      int
	Channels       int
	PatchSize      int
	EmbedDim       int
	MLPDim         int
	DimCoefficient int
	NumHeads       int
	NumBlocks      int
	NumClasses     int

	AttentionDropout  float64
	ProjectionDropout float64

	Variant AttentionVariant
}

// DefaultEANetConfig returns the CIFAR-100 configuration.
func DefaultEANetConfig() EANetConfig {
	return EANetConfig{
		ImageSize:         32,
		Channels:          3,
		PatchSize:         2,
		EmbedDim:          64,
		MLPDim:            64,
		DimCoefficient:    4,
		NumHeads:          4,
		NumBlocks:         8,
		NumClasses:        100,
		AttentionDropout:  0.2,
		ProjectionDropout: 0.2,
		Variant:           AttentionExternal,
	}
}

// Validate panics on an inconsistent configuration. Shape errors here are
// programmer mistakes, not runtime conditions.
func (c EANetConfig) Validate() {
	if c.ImageSize <= 0 || c.Channels <= 0 || c.NumClasses <= 0 || c.NumBlocks <= 0 {
		panic(fmt.Sprintf("eanet config: non-positive field in %+v", c))
	}
	if c.PatchSize <= 0 || c.ImageSize%c.PatchSize != 0 {
		panic(fmt.Sprintf("eanet config: image size %d not divisible by patch size %d",
			c.ImageSize, c.PatchSize))
	}
	if c.EmbedDim%c.NumHeads != 0 {
		panic(fmt.Sprintf("eanet config: embed dim %d not divisible by heads %d",
			c.EmbedDim, c.NumHeads))
	}
	if c.Variant == AttentionExternal && c.EmbedDim%c.DimCoefficient != 0 {
		panic(fmt.Sprintf("eanet config: embed dim %d not divisible by coefficient %d",
			c.EmbedDim, c.DimCoefficient))
	}
	if c.Variant != AttentionExternal && c.Variant != AttentionSelf {
		panic(fmt.Sprintf("eanet config: unknown attention variant %q", c.Variant))
	}
}

// NumPatches returns the patch count per image.
func (c EANetConfig) NumPatches() int {
	side := c.ImageSize / c.PatchSize
	return side * side
}

// EANet is the full classifier: patch extraction, patch embedding with
// learned positions, a stack of encoder blocks, global average pooling
// over patches, and a linear head producing class logits.
type EANet[B tensor.Backend] struct {
	config EANetConfig

	patcher PatchExtract
	embed   *PatchEmbedding[B]
	blocks  []*EncoderBlock[B]
	head    *Linear[B]
}

// NewEANet builds the model. All weights draw from rng, so a fixed seed
// reproduces the exact initialization.
func NewEANet[B tensor.Backend](cfg EANetConfig, rng *rand.Rand, b B) *EANet[B] {
	cfg.Validate()

	patchDim := cfg.PatchSize * cfg.PatchSize * cfg.Channels
	model := &EANet[B]{
		config:  cfg,
		patcher: PatchExtract{PatchSize: cfg.PatchSize},
		embed:   NewPatchEmbedding[B](patchDim, cfg.NumPatches(), cfg.EmbedDim, rng, b),
		head:    NewLinear[B]("head", cfg.EmbedDim, cfg.NumClasses, rng, b),
	}

	for i := 0; i < cfg.NumBlocks; i++ {
		name := fmt.Sprintf("block%d", i)
		var attention Attention[B]
		switch cfg.Variant {
		case AttentionSelf:
			attention = NewSelfAttention[B](name+".attn", cfg.EmbedDim, cfg.NumHeads,
				cfg.AttentionDropout, cfg.ProjectionDropout, rng, b)
		default:
			attention = NewExternalAttention[B](name+".attn", ExternalAttentionConfig{
				Dim:               cfg.EmbedDim,
				NumHeads:          cfg.NumHeads,
				DimCoefficient:    cfg.DimCoefficient,
				AttentionDropout:  cfg.AttentionDropout,
				ProjectionDropout: cfg.ProjectionDropout,
			}, rng, b)
		}
		mlp := NewMLP[B](name+".mlp", cfg.EmbedDim, cfg.MLPDim, cfg.ProjectionDropout, rng, b)
		model.blocks = append(model.blocks, NewEncoderBlock[B](name, cfg.EmbedDim, attention, mlp, b))
	}
	return model
}

// Forward maps images [batch, H, W, C] to logits [batch, numClasses].
func (m *EANet[B]) Forward(images *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	patches := Patches(m.patcher, images)
	x := m.embed.Forward(patches)
	for _, block := range m.blocks {
		x = block.Forward(x)
	}
	pooled := x.MeanDim(1, false)
	return m.head.Forward(pooled)
}

func (m *EANet[B]) Parameters() []*Parameter[B] {
	params := m.embed.Parameters()
	for _, block := range m.blocks {
		params = append(params, block.Parameters()...)
	}
	return append(params, m.head.Parameters()...)
}

// SetTraining toggles dropout across all blocks.
func (m *EANet[B]) SetTraining(training bool) {
	for _, block := range m.blocks {
		block.SetTraining(training)
	}
}

// Config returns the model configuration.
func (m *EANet[B]) Config() EANetConfig {
	return m.config
}

// NumParameters returns the total learnable element count.
func (m *EANet[B]) NumParameters() int {
	return CountParameters(m.Parameters())
}
