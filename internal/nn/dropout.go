package nn

import (
	"fmt"
	"math/rand"

	"github.com/eanet-ml/eanet/internal/tensor"
)

// Dropout zeroes activations with probability rate during training and
// scales the survivors by 1/(1-rate) so expectations match at inference.
//
// Implemented as a multiply by a Bernoulli mask, which keeps the layer
// differentiable through the ordinary product rule.
type Dropout[B tensor.Backend] struct {
	rate     float64
	rng      *rand.Rand
	training bool
}

// NewDropout creates a dropout layer. rate must be in [0, 1).
func NewDropout[B tensor.Backend](rate float64, rng *rand.Rand) *Dropout[B] {
	if rate < 0 || rate >= 1 {
		panic(fmt.Sprintf("dropout: rate %v out of [0, 1)", rate))
	}
	return &Dropout[B]{rate: rate, rng: rng}
}

// SetTraining switches between the masked (training) and identity
// (inference) behavior.
func (d *Dropout[B]) SetTraining(training bool) {
	d.training = training
}

func (d *Dropout[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if !d.training || d.rate == 0 {
		return x
	}

	mask := tensor.Zeros[float32](x.Shape(), x.Backend())
	keep := float32(1.0 / (1.0 - d.rate))
	data := mask.Data()
	for i := range data {
		if d.rng.Float64() >= d.rate {
			data[i] = keep
		}
	}
	return mask.Mul(x)
}

func (d *Dropout[B]) Parameters() []*Parameter[B] {
	return nil
}
