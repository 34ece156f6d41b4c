package cpu

import (
	"fmt"

	"github.com/eanet-ml/eanet/internal/tensor"
)

// SumDim sums along dim. With keepDim the reduced dimension stays as size 1,
// otherwise it is removed from the shape.
func (cpu *CPUBackend) SumDim(t *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return cpu.reduceOp("sumdim", t, dim, keepDim, false)
}

// MeanDim averages along dim.
func (cpu *CPUBackend) MeanDim(t *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return cpu.reduceOp("meandim", t, dim, keepDim, true)
}

func (cpu *CPUBackend) reduceOp(op string, t *tensor.RawTensor, dim int, keepDim, mean bool) *tensor.RawTensor {
	shape := t.Shape()
	dim = shape.NormalizeDim(dim)
	outShape := reducedShape(shape, dim, keepDim)

	result := mustNewRaw(op, outShape, t.DType(), t.Device())

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
		reduceSlices(t.AsFloat32(), result.AsFloat32(), outer, dimSize, inner, mean)
	case tensor.Float64:
		reduceSlices(t.AsFloat64(), result.AsFloat64(), outer, dimSize, inner, mean)
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", op, t.DType()))
	}
	return result
}

func reduceSlices[T float32 | float64](src, dst []T, outer, dimSize, inner int, mean bool) {
	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			base := o*dimSize*inner + in
			var sum T
			for d := 0; d < dimSize; d++ {
				sum += src[base+d*inner]
			}
			if mean {
				sum /= T(dimSize)
			}
			dst[o*inner+in] = sum
		}
	}
}

// Argmax returns the index of the maximum along dim as an int32 tensor.
// The reduced dimension is removed from the shape.
func (cpu *CPUBackend) Argmax(t *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := t.Shape()
	dim = shape.NormalizeDim(dim)
	outShape := reducedShape(shape, dim, false)

	result := mustNewRaw("argmax", outShape, tensor.Int32, t.Device())
	dst := result.AsInt32()

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
		argmaxSlices(t.AsFloat32(), dst, outer, dimSize, inner)
	case tensor.Float64:
		argmaxSlices(t.AsFloat64(), dst, outer, dimSize, inner)
	default:
		panic(fmt.Sprintf("argmax: unsupported dtype %s", t.DType()))
	}
	return result
}

func argmaxSlices[T float32 | float64](src []T, dst []int32, outer, dimSize, inner int) {
	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			base := o*dimSize*inner + in
			best := src[base]
			bestIdx := int32(0)
			for d := 1; d < dimSize; d++ {
				if v := src[base+d*inner]; v > best {
					best = v
					bestIdx = int32(d)
				}
			}
			dst[o*inner+in] = bestIdx
		}
	}
}

func reducedShape(shape tensor.Shape, dim int, keepDim bool) tensor.Shape {
	if keepDim {
		out := shape.Clone()
		out[dim] = 1
		return out
	}
	out := make(tensor.Shape, 0, len(shape)-1)
	for i, s := range shape {
		if i != dim {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		out = tensor.Shape{1}
	}
	return out
}
