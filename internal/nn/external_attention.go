package nn

import (
	"fmt"
	"math/rand"

	"github.com/eanet-ml/eanet/internal/tensor"
)

// ExternalAttention replaces the quadratic self-attention map with two
// small learned memory units shared across all samples.
//
// The input is first expanded by dimCoefficient and split into
// numHeads*dimCoefficient heads. The key memory projects each head down to
// dim/dimCoefficient, the attention weights are softmaxed over the patch
// axis and then re-normalized over the memory axis (double normalization),
// and the value memory projects back to the head width.
type ExternalAttention[B tensor.Backend] struct {
	toHeads *Linear[B]
	keyMem  *Linear[B]
	valMem  *Linear[B]
	proj    *Linear[B]

	attnDrop *Dropout[B]
	projDrop *Dropout[B]

	dim            int
	numHeads       int
	dimCoefficient int
	headDim        int
}

// ExternalAttentionConfig carries the attention hyperparameters.
type ExternalAttentionConfig struct {
	Dim               int
	NumHeads          int
	DimCoefficient    int
	AttentionDropout  float64
	ProjectionDropout float64
}

// NewExternalAttention builds the four projections and validates the head
// split. Dim must divide evenly by both NumHeads and DimCoefficient.
func NewExternalAttention[B tensor.Backend](name string, cfg ExternalAttentionConfig, rng *rand.Rand, b B) *ExternalAttention[B] {
	if cfg.Dim%cfg.NumHeads != 0 {
		panic(fmt.Sprintf("external attention %s: dim %d not divisible by heads %d",
			name, cfg.Dim, cfg.NumHeads))
	}
	if cfg.Dim%cfg.DimCoefficient != 0 {
		panic(fmt.Sprintf("external attention %s: dim %d not divisible by coefficient %d",
			name, cfg.Dim, cfg.DimCoefficient))
	}

	expanded := cfg.Dim * cfg.DimCoefficient
	headDim := cfg.Dim / cfg.NumHeads
	memDim := cfg.Dim / cfg.DimCoefficient

	return &ExternalAttention[B]{
		toHeads:        NewLinear[B](name+".to_heads", cfg.Dim, expanded, rng, b),
		keyMem:         NewLinear[B](name+".key_mem", headDim, memDim, rng, b),
		valMem:         NewLinear[B](name+".val_mem", memDim, headDim, rng, b),
		proj:           NewLinear[B](name+".proj", expanded, cfg.Dim, rng, b),
		attnDrop:       NewDropout[B](cfg.AttentionDropout, rng),
		projDrop:       NewDropout[B](cfg.ProjectionDropout, rng),
		dim:            cfg.Dim,
		numHeads:       cfg.NumHeads,
		dimCoefficient: cfg.DimCoefficient,
		headDim:        headDim,
	}
}

func (ea *ExternalAttention[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	if len(shape) != 3 || shape[2] != ea.dim {
		panic(fmt.Sprintf("external attention: expected [batch, patches, %d], got %v", ea.dim, shape))
	}
	batch, patches := shape[0], shape[1]
	heads := ea.numHeads * ea.dimCoefficient

	// [B, N, d] -> [B, N, d*k] -> [B, H*k, N, d/H].
	expanded := ea.toHeads.Forward(x)
	split := expanded.Reshape(batch, patches, heads, ea.headDim).Transpose(0, 2, 1, 3)

	// Key memory, softmax over the patch axis, then double normalization
	// over the memory axis.
	attn := ea.keyMem.Forward(split).Softmax(2)
	denom := attn.SumDim(-1, true).AddScalar(float32(1e-9))
	attn = ea.attnDrop.Forward(attn.Div(denom))

	// Value memory and reassembly back to [B, N, d].
	out := ea.valMem.Forward(attn).Transpose(0, 2, 1, 3)
	out = out.Reshape(batch, patches, ea.dim*ea.dimCoefficient)
	return ea.projDrop.Forward(ea.proj.Forward(out))
}

func (ea *ExternalAttention[B]) Parameters() []*Parameter[B] {
	params := ea.toHeads.Parameters()
	params = append(params, ea.keyMem.Parameters()...)
	params = append(params, ea.valMem.Parameters()...)
	params = append(params, ea.proj.Parameters()...)
	return params
}

func (ea *ExternalAttention[B]) SetTraining(training bool) {
	ea.attnDrop.SetTraining(training)
	ea.projDrop.SetTraining(training)
}
