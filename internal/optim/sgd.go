package optim

import (
	"fmt"

	"github.com/eanet-ml/eanet/internal/nn"
	"github.com/eanet-ml/eanet/internal/tensor"
)

// SGD is plain stochastic gradient descent with optional momentum.
type SGD[B tensor.Backend] struct {
	params   []*nn.Parameter[B]
	lr       float32
	momentum float32
	velocity [][]float32
}

// NewSGD creates the optimizer. momentum 0 disables the velocity term.
func NewSGD[B tensor.Backend](params []*nn.Parameter[B], lr, momentum float64) *SGD[B] {
	if lr <= 0 {
		panic(fmt.Sprintf("sgd: learning rate %v must be positive", lr))
	}
	opt := &SGD[B]{
		params:   params,
		lr:       float32(lr),
		momentum: float32(momentum),
	}
	if momentum > 0 {
		opt.velocity = make([][]float32, len(params))
		for i, p := range params {
			opt.velocity[i] = make([]float32, p.NumElements())
		}
	}
	return opt
}

func (o *SGD[B]) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	for i, p := range o.params {
		grad := gradientFor(p, grads)
		if grad == nil {
			continue
		}
		data := p.Data().Data()

		if o.velocity == nil {
			for j := range data {
				data[j] -= o.lr * grad[j]
			}
			continue
		}

		vel := o.velocity[i]
		for j := range data {
			vel[j] = o.momentum*vel[j] + grad[j]
			data[j] -= o.lr * vel[j]
		}
	}
}

func (o *SGD[B]) Parameters() []*nn.Parameter[B] {
	return o.params
}
