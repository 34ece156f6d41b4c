// Package nn implements the neural network layers of the external
// attention transformer: dense projections, layer normalization, patch
// extraction and embedding, the two attention variants, and the
// classifier head.
package nn

import "github.com/eanet-ml/eanet/internal/tensor"

// Module is a layer or block with learnable parameters.
type Module[B tensor.Backend] interface {
	// Forward runs the layer on a float32 activation tensor.
	Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters returns the learnable parameters in a stable order.
	Parameters() []*Parameter[B]
}
