package nn

import (
	"fmt"
	"math/rand"

	"github.com/eanet-ml/eanet/internal/tensor"
)

// Linear is a dense layer: y = x @ W + b.
//
// Inputs may carry leading batch dims; everything but the last dim is
// flattened into rows for the matmul and restored afterwards.
type Linear[B tensor.Backend] struct {
	weight *Parameter[B]
	bias   *Parameter[B]

	inFeatures  int
	outFeatures int
}

// NewLinear creates a dense layer with Xavier-initialized weights and a
// zero bias.
func NewLinear[B tensor.Backend](name string, inFeatures, outFeatures int, rng *rand.Rand, b B) *Linear[B] {
	if inFeatures <= 0 || outFeatures <= 0 {
		panic(fmt.Sprintf("linear %s: invalid dims in=%d out=%d", name, inFeatures, outFeatures))
	}
	weight := XavierUniform(tensor.Shape{inFeatures, outFeatures}, rng, b)
	bias := tensor.Zeros[float32](tensor.Shape{outFeatures}, b)

	return &Linear[B]{
		weight:      NewParameter(name+".weight", weight),
		bias:        NewParameter(name+".bias", bias),
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
	}
}

func (l *Linear[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	last := shape[len(shape)-1]
	if last != l.inFeatures {
		panic(fmt.Sprintf("linear %s: input features %d, expected %d",
			l.weight.Name(), last, l.inFeatures))
	}

	rows := x.NumElements() / last
	flat := x.Reshape(rows, last)
	out := flat.MatMul(l.weight.Data()).Add(l.bias.Data())

	outShape := make([]int, len(shape))
	copy(outShape, shape)
	outShape[len(outShape)-1] = l.outFeatures
	return out.Reshape(outShape...)
}

func (l *Linear[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{l.weight, l.bias}
}

// Weight exposes the weight parameter, used by weight decay filters.
func (l *Linear[B]) Weight() *Parameter[B] { return l.weight }

// Bias exposes the bias parameter.
func (l *Linear[B]) Bias() *Parameter[B] { return l.bias }
