package cpu

import (
	"fmt"
	"math"

	"github.com/eanet-ml/eanet/internal/tensor"
)

// Softmax computes a numerically stable softmax along dim.
// Each slice along dim is shifted by its maximum before exponentiation.
func (cpu *CPUBackend) Softmax(t *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := t.Shape()
	dim = shape.NormalizeDim(dim)

	result := mustNewRaw("softmax", shape, t.DType(), t.Device())

	// Iterate over all slices along dim. outer covers dims before dim,
	// inner covers dims after; elements of one slice are inner apart.
	dimSize := shape[dim]
	outer := 1
	for i := 0; i < dim; i++ {
		outer *= shape[i]
	}
	inner := 1
	for i := dim + 1; i < len(shape); i++ {
		inner *= shape[i]
	}

	switch t.DType() {
	case tensor.Float32:
		softmaxSlices(t.AsFloat32(), result.AsFloat32(), outer, dimSize, inner)
	case tensor.Float64:
		softmaxSlices(t.AsFloat64(), result.AsFloat64(), outer, dimSize, inner)
	default:
		panic(fmt.Sprintf("softmax: unsupported dtype %s", t.DType()))
	}
	return result
}

func softmaxSlices[T float32 | float64](src, dst []T, outer, dimSize, inner int) {
	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			base := o*dimSize*inner + in

			maxVal := src[base]
			for d := 1; d < dimSize; d++ {
				if v := src[base+d*inner]; v > maxVal {
					maxVal = v
				}
			}

			var sum T
			for d := 0; d < dimSize; d++ {
				e := T(math.Exp(float64(src[base+d*inner] - maxVal)))
				dst[base+d*inner] = e
				sum += e
			}

			inv := T(1) / sum
			for d := 0; d < dimSize; d++ {
				dst[base+d*inner] *= inv
			}
		}
	}
}
