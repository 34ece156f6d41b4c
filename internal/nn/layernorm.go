package nn

import (
	"fmt"

	"github.com/eanet-ml/eanet/internal/tensor"
)

// LayerNorm normalizes over the last dimension with learnable scale and
// shift, matching the transformer pre-norm blocks.
type LayerNorm[B tensor.Backend] struct {
	gamma *Parameter[B]
	beta  *Parameter[B]

	dim int
	eps float32
}

// NewLayerNorm creates a layer norm over a trailing dimension of size dim.
func NewLayerNorm[B tensor.Backend](name string, dim int, b B) *LayerNorm[B] {
	if dim <= 0 {
		panic(fmt.Sprintf("layernorm %s: invalid dim %d", name, dim))
	}
	return &LayerNorm[B]{
		gamma: NewParameter(name+".gamma", tensor.Ones[float32](tensor.Shape{dim}, b)),
		beta:  NewParameter(name+".beta", tensor.Zeros[float32](tensor.Shape{dim}, b)),
		dim:   dim,
		eps:   1e-5,
	}
}

func (ln *LayerNorm[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	if shape[len(shape)-1] != ln.dim {
		panic(fmt.Sprintf("layernorm %s: last dim %d, expected %d",
			ln.gamma.Name(), shape[len(shape)-1], ln.dim))
	}

	mean := x.MeanDim(-1, true)
	diff := x.Sub(mean)
	variance := diff.Clone().Mul(diff).MeanDim(-1, true)
	inv := variance.AddScalar(ln.eps).Rsqrt()

	norm := diff.Mul(inv)
	return norm.Mul(ln.gamma.Data()).Add(ln.beta.Data())
}

func (ln *LayerNorm[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{ln.gamma, ln.beta}
}
