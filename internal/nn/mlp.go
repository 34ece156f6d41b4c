package nn

import (
	"math/rand"

	"github.com/eanet-ml/eanet/internal/tensor"
)

// MLP is the transformer feed-forward block: a GELU-activated expansion
// followed by a linear projection back to the model width, each with dropout.
type MLP[B tensor.Backend] struct {
	fc1   *Linear[B]
	fc2   *Linear[B]
	drop1 *Dropout[B]
	drop2 *Dropout[B]
}

// NewMLP builds dim -> hidden -> dim with the given dropout rate.
func NewMLP[B tensor.Backend](name string, dim, hidden int, dropout float64, rng *rand.Rand, b B) *MLP[B] {
	return &MLP[B]{
		fc1:   NewLinear[B](name+".fc1", dim, hidden, rng, b),
		fc2:   NewLinear[B](name+".fc2", hidden, dim, rng, b),
		drop1: NewDropout[B](dropout, rng),
		drop2: NewDropout[B](dropout, rng),
	}
}

func (m *MLP[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	h := m.drop1.Forward(GELU(m.fc1.Forward(x)))
	return m.drop2.Forward(m.fc2.Forward(h))
}

func (m *MLP[B]) Parameters() []*Parameter[B] {
	return append(m.fc1.Parameters(), m.fc2.Parameters()...)
}

func (m *MLP[B]) SetTraining(training bool) {
	m.drop1.SetTraining(training)
	m.drop2.SetTraining(training)
}
