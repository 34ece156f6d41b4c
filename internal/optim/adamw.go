package optim

import (
	"fmt"
	"math"

	"github.com/eanet-ml/eanet/internal/nn"
	"github.com/eanet-ml/eanet/internal/tensor"
)

// AdamW is Adam with decoupled weight decay: the decay term is applied
// directly to the weights instead of being folded into the gradient.
type AdamW[B tensor.Backend] struct {
	params []*nn.Parameter[B]

	lr          float32
	beta1       float32
	beta2       float32
	eps         float32
	weightDecay float32

	step int
	m    [][]float32
	v    [][]float32
}

// AdamWConfig holds the optimizer hyperparameters.
type AdamWConfig struct {
	LR          float64
	Beta1       float64
	Beta2       float64
	Eps         float64
	WeightDecay float64
}

// DefaultAdamWConfig matches the training recipe: lr 1e-3, decay 1e-4.
func DefaultAdamWConfig() AdamWConfig {
	return AdamWConfig{
		LR:          1e-3,
		Beta1:       0.9,
		Beta2:       0.999,
		Eps:         1e-7,
		WeightDecay: 1e-4,
	}
}

// NewAdamW creates the optimizer with zeroed moment buffers.
func NewAdamW[B tensor.Backend](params []*nn.Parameter[B], cfg AdamWConfig) *AdamW[B] {
	if cfg.LR <= 0 {
		panic(fmt.Sprintf("adamw: learning rate %v must be positive", cfg.LR))
	}
	if cfg.WeightDecay < 0 {
		panic(fmt.Sprintf("adamw: weight decay %v must be non-negative", cfg.WeightDecay))
	}

	opt := &AdamW[B]{
		params:      params,
		lr:          float32(cfg.LR),
		beta1:       float32(cfg.Beta1),
		beta2:       float32(cfg.Beta2),
		eps:         float32(cfg.Eps),
		weightDecay: float32(cfg.WeightDecay),
		m:           make([][]float32, len(params)),
		v:           make([][]float32, len(params)),
	}
	for i, p := range params {
		opt.m[i] = make([]float32, p.NumElements())
		opt.v[i] = make([]float32, p.NumElements())
	}
	return opt
}

func (o *AdamW[B]) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	o.step++
	bc1 := 1 - float32(math.Pow(float64(o.beta1), float64(o.step)))
	bc2 := 1 - float32(math.Pow(float64(o.beta2), float64(o.step)))

	for i, p := range o.params {
		grad := gradientFor(p, grads)
		if grad == nil {
			continue
		}
		data := p.Data().Data()
		m, v := o.m[i], o.v[i]

		for j := range data {
			g := grad[j]
			m[j] = o.beta1*m[j] + (1-o.beta1)*g
			v[j] = o.beta2*v[j] + (1-o.beta2)*g*g

			mHat := m[j] / bc1
			vHat := v[j] / bc2

			// Decoupled decay, then the Adam step.
			data[j] -= o.lr * o.weightDecay * data[j]
			data[j] -= o.lr * mHat / (float32(math.Sqrt(float64(vHat))) + o.eps)
		}
	}
}

func (o *AdamW[B]) Parameters() []*nn.Parameter[B] {
	return o.params
}

// StepCount returns the number of updates applied.
func (o *AdamW[B]) StepCount() int {
	return o.step
}
