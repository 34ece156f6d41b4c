package nn

import (
	"fmt"
	"math/rand"

	"github.com/eanet-ml/eanet/internal/tensor"
)

// PatchEmbedding projects patch vectors into the model width and adds a
// learned positional embedding, looked up by patch index 0..N-1.
type PatchEmbedding[B tensor.Backend] struct {
	proj     *Linear[B]
	posTable *Parameter[B]
	indices  *tensor.Tensor[int32, B]

	numPatches int
}

// NewPatchEmbedding creates the projection and an [numPatches, embedDim]
// positional table.
func NewPatchEmbedding[B tensor.Backend](patchDim, numPatches, embedDim int, rng *rand.Rand, b B) *PatchEmbedding[B] {
	if numPatches <= 0 {
		panic(fmt.Sprintf("patch embedding: invalid patch count %d", numPatches))
	}
	return &PatchEmbedding[B]{
		proj:       NewLinear[B]("patch_embed.proj", patchDim, embedDim, rng, b),
		posTable:   NewParameter("patch_embed.pos", TruncatedNormal[B](tensor.Shape{numPatches, embedDim}, 0.02, rng, b)),
		indices:    tensor.Arange(0, int32(numPatches), b),
		numPatches: numPatches,
	}
}

func (pe *PatchEmbedding[B]) Forward(patches *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := patches.Shape()
	if len(shape) != 3 || shape[1] != pe.numPatches {
		panic(fmt.Sprintf("patch embedding: expected [batch, %d, patchDim], got %v",
			pe.numPatches, shape))
	}

	projected := pe.proj.Forward(patches)

	b := patches.Backend()
	pos := tensor.New[float32](b.Embedding(pe.posTable.Raw(), pe.indices.Raw()), b)
	return projected.Add(pos)
}

func (pe *PatchEmbedding[B]) Parameters() []*Parameter[B] {
	return append(pe.proj.Parameters(), pe.posTable)
}

// PositionTable exposes the positional embedding parameter.
func (pe *PatchEmbedding[B]) PositionTable() *Parameter[B] {
	return pe.posTable
}
