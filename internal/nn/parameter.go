package nn

import "github.com/eanet-ml/eanet/internal/tensor"

// Parameter is a named learnable tensor. The optimizer matches gradients
// to parameters through the underlying raw tensor identity.
type Parameter[B tensor.Backend] struct {
	name string
	data *tensor.Tensor[float32, B]
}

// NewParameter wraps a tensor as a learnable parameter.
func NewParameter[B tensor.Backend](name string, data *tensor.Tensor[float32, B]) *Parameter[B] {
	return &Parameter[B]{name: name, data: data}
}

// Name returns the parameter's name, used in diagnostics.
func (p *Parameter[B]) Name() string {
	return p.name
}

// Data returns the parameter tensor.
func (p *Parameter[B]) Data() *tensor.Tensor[float32, B] {
	return p.data
}

// Raw returns the underlying raw tensor.
func (p *Parameter[B]) Raw() *tensor.RawTensor {
	return p.data.Raw()
}

// NumElements returns the parameter's element count.
func (p *Parameter[B]) NumElements() int {
	return p.data.NumElements()
}

// CountParameters sums the element counts of a parameter list.
func CountParameters[B tensor.Backend](params []*Parameter[B]) int {
	total := 0
	for _, p := range params {
		total += p.NumElements()
	}
	return total
}
