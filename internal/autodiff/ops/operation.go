// Package ops defines the differentiable operations recorded on the
// gradient tape. Each operation keeps references to the raw tensors it
// touched during the forward pass and knows how to push a gradient back
// through itself.
package ops

import "github.com/eanet-ml/eanet/internal/tensor"

// Operation is a single recorded step of the forward pass.
//
// Backward receives the gradient of the loss with respect to the output
// and returns one gradient per input, in the same order as Inputs.
// A nil entry marks a non-differentiable input.
type Operation interface {
	Name() string
	Inputs() []*tensor.RawTensor
	Output() *tensor.RawTensor
	Backward(outputGrad *tensor.RawTensor) []*tensor.RawTensor
}
