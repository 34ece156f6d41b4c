// Package optim implements the gradient descent optimizers used for
// training: AdamW with decoupled weight decay and plain SGD.
package optim

import (
	"github.com/eanet-ml/eanet/internal/nn"
	"github.com/eanet-ml/eanet/internal/tensor"
)

// Optimizer updates parameters from a gradient map produced by the tape.
type Optimizer[B tensor.Backend] interface {
	// Step applies one update. Parameters without a gradient are skipped.
	Step(grads map[*tensor.RawTensor]*tensor.RawTensor)

	// Parameters returns the parameters this optimizer manages.
	Parameters() []*nn.Parameter[B]
}

// gradientFor looks up a parameter's gradient by raw tensor identity.
func gradientFor[B tensor.Backend](p *nn.Parameter[B], grads map[*tensor.RawTensor]*tensor.RawTensor) []float32 {
	g, ok := grads[p.Raw()]
	if !ok {
		return nil
	}
	return g.AsFloat32()
}
