package cpu

import (
	"fmt"

	"github.com/eanet-ml/eanet/internal/tensor"
)

// Reshape returns a tensor with the same data but a different shape.
// Data is copied; the source keeps its own buffer so the autodiff tape can
// hold both shapes alive independently.
func (cpu *CPUBackend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	if err := newShape.Validate(); err != nil {
		panic(fmt.Sprintf("reshape: invalid shape: %v", err))
	}
	if t.NumElements() != newShape.NumElements() {
		panic(fmt.Sprintf("reshape: incompatible shapes: %v -> %v (different number of elements)",
			t.Shape(), newShape))
	}

	result := mustNewRaw("reshape", newShape, t.DType(), t.Device())

	switch t.DType() {
	case tensor.Float32:
		copy(result.AsFloat32(), t.AsFloat32())
	case tensor.Float64:
		copy(result.AsFloat64(), t.AsFloat64())
	case tensor.Int32:
		copy(result.AsInt32(), t.AsInt32())
	}
	return result
}

// Transpose permutes the tensor's dimensions.
// If axes is empty, all dimensions are reversed.
func (cpu *CPUBackend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := t.Shape()
	ndim := len(shape)

	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}

	if len(axes) != ndim {
		panic(fmt.Sprintf("transpose: axes length %d != ndim %d", len(axes), ndim))
	}
	seen := make([]bool, ndim)
	for _, ax := range axes {
		if ax < 0 || ax >= ndim {
			panic(fmt.Sprintf("transpose: invalid axis %d for %dD tensor", ax, ndim))
		}
		if seen[ax] {
			panic(fmt.Sprintf("transpose: duplicate axis %d", ax))
		}
		seen[ax] = true
	}

	newShape := make(tensor.Shape, ndim)
	for i, ax := range axes {
		newShape[i] = shape[ax]
	}

	result := mustNewRaw("transpose", newShape, t.DType(), t.Device())
	transposeData(result, t, axes)
	return result
}

// transposeData copies elements into their permuted positions.
func transposeData(result, t *tensor.RawTensor, axes []int) {
	srcShape := t.Shape()
	srcStrides := srcShape.ComputeStrides()
	dstShape := result.Shape()
	dstStrides := dstShape.ComputeStrides()
	n := srcShape.NumElements()
	ndim := len(srcShape)

	// For every destination element, map its coordinates back through the
	// permutation to the source flat index.
	index := func(dstFlat int) int {
		srcFlat := 0
		for d := 0; d < ndim; d++ {
			coord := dstFlat / dstStrides[d] % dstShape[d]
			srcFlat += coord * srcStrides[axes[d]]
		}
		return srcFlat
	}

	switch t.DType() {
	case tensor.Float32:
		src, dst := t.AsFloat32(), result.AsFloat32()
		for i := 0; i < n; i++ {
			dst[i] = src[index(i)]
		}
	case tensor.Float64:
		src, dst := t.AsFloat64(), result.AsFloat64()
		for i := 0; i < n; i++ {
			dst[i] = src[index(i)]
		}
	case tensor.Int32:
		src, dst := t.AsInt32(), result.AsInt32()
		for i := 0; i < n; i++ {
			dst[i] = src[index(i)]
		}
	}
}
