package nn

import "github.com/eanet-ml/eanet/internal/tensor"

// Attention is implemented by both attention variants so encoder blocks
// can swap one for the other.
type Attention[B tensor.Backend] interface {
	Module[B]
	SetTraining(training bool)
}

// EncoderBlock is a pre-norm transformer block: layer norm and attention
// with a residual connection, then layer norm and the feed-forward MLP
// with a second residual.
type EncoderBlock[B tensor.Backend] struct {
	norm1     *LayerNorm[B]
	attention Attention[B]
	norm2     *LayerNorm[B]
	mlp       *MLP[B]
}

// NewEncoderBlock assembles a block around the given attention module.
func NewEncoderBlock[B tensor.Backend](name string, dim int, attention Attention[B], mlp *MLP[B], b B) *EncoderBlock[B] {
	return &EncoderBlock[B]{
		norm1:     NewLayerNorm[B](name+".norm1", dim, b),
		attention: attention,
		norm2:     NewLayerNorm[B](name+".norm2", dim, b),
		mlp:       mlp,
	}
}

func (eb *EncoderBlock[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	attended := eb.attention.Forward(eb.norm1.Forward(x)).Add(x)
	return eb.mlp.Forward(eb.norm2.Forward(attended)).Add(attended)
}

func (eb *EncoderBlock[B]) Parameters() []*Parameter[B] {
	params := eb.norm1.Parameters()
	params = append(params, eb.attention.Parameters()...)
	params = append(params, eb.norm2.Parameters()...)
	params = append(params, eb.mlp.Parameters()...)
	return params
}

func (eb *EncoderBlock[B]) SetTraining(training bool) {
	eb.attention.SetTraining(training)
	eb.mlp.SetTraining(training)
}
