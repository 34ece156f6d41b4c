package cpu

import (
	"fmt"

	"github.com/eanet-ml/eanet/internal/tensor"
)

// Embedding gathers rows from a [vocab, dim] weight table by int32 indices.
// indices of shape [n0, n1, ...] produce output [n0, n1, ..., dim].
func (cpu *CPUBackend) Embedding(weight, indices *tensor.RawTensor) *tensor.RawTensor {
	if len(weight.Shape()) != 2 {
		panic(fmt.Sprintf("embedding: weight must be 2D, got %v", weight.Shape()))
	}
	if indices.DType() != tensor.Int32 {
		panic(fmt.Sprintf("embedding: indices must be int32, got %s", indices.DType()))
	}

	vocab := weight.Shape()[0]
	dim := weight.Shape()[1]
	idx := indices.AsInt32()

	outShape := make(tensor.Shape, 0, len(indices.Shape())+1)
	outShape = append(outShape, indices.Shape()...)
	outShape = append(outShape, dim)

	result := mustNewRaw("embedding", outShape, weight.DType(), weight.Device())

	switch weight.DType() {
	case tensor.Float32:
		src, dst := weight.AsFloat32(), result.AsFloat32()
		for i, ix := range idx {
			if ix < 0 || int(ix) >= vocab {
				panic(fmt.Sprintf("embedding: index %d out of range [0, %d)", ix, vocab))
			}
			copy(dst[i*dim:(i+1)*dim], src[int(ix)*dim:(int(ix)+1)*dim])
		}
	case tensor.Float64:
		src, dst := weight.AsFloat64(), result.AsFloat64()
		for i, ix := range idx {
			if ix < 0 || int(ix) >= vocab {
				panic(fmt.Sprintf("embedding: index %d out of range [0, %d)", ix, vocab))
			}
			copy(dst[i*dim:(i+1)*dim], src[int(ix)*dim:(int(ix)+1)*dim])
		}
	default:
		panic(fmt.Sprintf("embedding: unsupported dtype %s", weight.DType()))
	}
	return result
}
