package nn

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/eanet-ml/eanet/internal/tensor"
)

// SelfAttention is standard multi-head scaled dot-product attention, kept
// as the baseline the external variant is measured against.
type SelfAttention[B tensor.Backend] struct {
	query *Linear[B]
	key   *Linear[B]
	value *Linear[B]
	proj  *Linear[B]

	attnDrop *Dropout[B]
	projDrop *Dropout[B]

	dim      int
	numHeads int
	headDim  int
	scale    float32
}

// NewSelfAttention builds the Q/K/V/output projections. Dim must divide
// evenly by numHeads.
func NewSelfAttention[B tensor.Backend](name string, dim, numHeads int, attnDropout, projDropout float64, rng *rand.Rand, b B) *SelfAttention[B] {
	if dim%numHeads != 0 {
		panic(fmt.Sprintf("self attention %s: dim %d not divisible by heads %d", name, dim, numHeads))
	}
	headDim := dim / numHeads

	return &SelfAttention[B]{
		query:    NewLinear[B](name+".query", dim, dim, rng, b),
		key:      NewLinear[B](name+".key", dim, dim, rng, b),
		value:    NewLinear[B](name+".value", dim, dim, rng, b),
		proj:     NewLinear[B](name+".proj", dim, dim, rng, b),
		attnDrop: NewDropout[B](attnDropout, rng),
		projDrop: NewDropout[B](projDropout, rng),
		dim:      dim,
		numHeads: numHeads,
		headDim:  headDim,
		scale:    float32(1.0 / math.Sqrt(float64(headDim))),
	}
}

func (sa *SelfAttention[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	if len(shape) != 3 || shape[2] != sa.dim {
		panic(fmt.Sprintf("self attention: expected [batch, patches, %d], got %v", sa.dim, shape))
	}
	batch, patches := shape[0], shape[1]

	toHeads := func(t *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
		return t.Reshape(batch, patches, sa.numHeads, sa.headDim).Transpose(0, 2, 1, 3)
	}

	q := toHeads(sa.query.Forward(x))
	k := toHeads(sa.key.Forward(x))
	v := toHeads(sa.value.Forward(x))

	scores := q.BatchMatMul(k.Transpose(0, 1, 3, 2)).MulScalar(sa.scale)
	attn := sa.attnDrop.Forward(scores.Softmax(-1))

	out := attn.BatchMatMul(v).Transpose(0, 2, 1, 3).Reshape(batch, patches, sa.dim)
	return sa.projDrop.Forward(sa.proj.Forward(out))
}

func (sa *SelfAttention[B]) Parameters() []*Parameter[B] {
	params := sa.query.Parameters()
	params = append(params, sa.key.Parameters()...)
	params = append(params, sa.value.Parameters()...)
	params = append(params, sa.proj.Parameters()...)
	return params
}

func (sa *SelfAttention[B]) SetTraining(training bool) {
	sa.attnDrop.SetTraining(training)
	sa.projDrop.SetTraining(training)
}
