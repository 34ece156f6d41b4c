package ops

import (
	"fmt"

	"github.com/eanet-ml/eanet/internal/tensor"
)

func mustRaw(op string, shape tensor.Shape, dtype tensor.DataType, device tensor.Device) *tensor.RawTensor {
	raw, err := tensor.NewRaw(shape, dtype, device)
	if err != nil {
		panic(fmt.Sprintf("%s backward: %v", op, err))
	}
	return raw
}

// zerosLike allocates a zero tensor with t's shape, dtype and device.
func zerosLike(op string, t *tensor.RawTensor) *tensor.RawTensor {
	return mustRaw(op, t.Shape(), t.DType(), t.Device())
}

// broadcastIndex maps a flat index in outShape back to the flat index of a
// tensor of inShape that broadcasts into outShape (right-aligned, size-1
// dims pinned to coordinate zero).
func broadcastIndex(inShape, outShape tensor.Shape, outStrides, inStrides []int) func(int) int {
	offset := len(outShape) - len(inShape)
	return func(outFlat int) int {
		inFlat := 0
		for d := 0; d < len(inShape); d++ {
			coord := outFlat / outStrides[d+offset] % outShape[d+offset]
			if inShape[d] != 1 {
				inFlat += coord * inStrides[d]
			}
		}
		return inFlat
	}
}

// broadcastTo expands t into shape. t's shape must broadcast into shape.
func broadcastTo(op string, t *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	if t.Shape().Equal(shape) {
		return t.Clone()
	}
	result := mustRaw(op, shape, t.DType(), t.Device())
	index := broadcastIndex(t.Shape(), shape, shape.ComputeStrides(), t.Shape().ComputeStrides())

	switch t.DType() {
	case tensor.Float32:
		src, dst := t.AsFloat32(), result.AsFloat32()
		for i := range dst {
			dst[i] = src[index(i)]
		}
	case tensor.Float64:
		src, dst := t.AsFloat64(), result.AsFloat64()
		for i := range dst {
			dst[i] = src[index(i)]
		}
	default:
		panic(fmt.Sprintf("%s backward: unsupported dtype %s", op, t.DType()))
	}
	return result
}

// reduceToShape sums grad over the dimensions that were broadcast so the
// result matches shape. Used by the binary op backwards: the gradient of a
// broadcast input is the sum of the output gradient over the expanded dims.
func reduceToShape(op string, grad *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	if grad.Shape().Equal(shape) {
		return grad.Clone()
	}
	result := mustRaw(op, shape, grad.DType(), grad.Device())
	index := broadcastIndex(shape, grad.Shape(), grad.Shape().ComputeStrides(), shape.ComputeStrides())

	switch grad.DType() {
	case tensor.Float32:
		src, dst := grad.AsFloat32(), result.AsFloat32()
		for i := range src {
			dst[index(i)] += src[i]
		}
	case tensor.Float64:
		src, dst := grad.AsFloat64(), result.AsFloat64()
		for i := range src {
			dst[index(i)] += src[i]
		}
	default:
		panic(fmt.Sprintf("%s backward: unsupported dtype %s", op, grad.DType()))
	}
	return result
}

// Accumulate adds src into dst element-wise, returning dst.
// Shapes must match; used by the tape to merge gradients from multiple
// consumers of the same tensor.
func Accumulate(dst, src *tensor.RawTensor) *tensor.RawTensor {
	if !dst.Shape().Equal(src.Shape()) {
		panic(fmt.Sprintf("gradient accumulate: shape mismatch %v vs %v", dst.Shape(), src.Shape()))
	}
	switch dst.DType() {
	case tensor.Float32:
		d, s := dst.AsFloat32(), src.AsFloat32()
		for i := range d {
			d[i] += s[i]
		}
	case tensor.Float64:
		d, s := dst.AsFloat64(), src.AsFloat64()
		for i := range d {
			d[i] += s[i]
		}
	default:
		panic(fmt.Sprintf("gradient accumulate: unsupported dtype %s", dst.DType()))
	}
	return dst
}

// elemwise applies f(a, b) element-wise where b broadcasts into a's shape.
func elemwise(op string, a, b *tensor.RawTensor, f32 func(x, y float32) float32, f64 func(x, y float64) float64) *tensor.RawTensor {
	result := mustRaw(op, a.Shape(), a.DType(), a.Device())
	sameShape := a.Shape().Equal(b.Shape())
	var index func(int) int
	if !sameShape {
		index = broadcastIndex(b.Shape(), a.Shape(), a.Shape().ComputeStrides(), b.Shape().ComputeStrides())
	}

	switch a.DType() {
	case tensor.Float32:
		x, y, dst := a.AsFloat32(), b.AsFloat32(), result.AsFloat32()
		if sameShape {
			for i := range x {
				dst[i] = f32(x[i], y[i])
			}
		} else {
			for i := range x {
				dst[i] = f32(x[i], y[index(i)])
			}
		}
	case tensor.Float64:
		x, y, dst := a.AsFloat64(), b.AsFloat64(), result.AsFloat64()
		if sameShape {
			for i := range x {
				dst[i] = f64(x[i], y[i])
			}
		} else {
			for i := range x {
				dst[i] = f64(x[i], y[index(i)])
			}
		}
	default:
		panic(fmt.Sprintf("%s backward: unsupported dtype %s", op, a.DType()))
	}
	return result
}

// scale multiplies every element of t by s into a fresh tensor.
func scale(op string, t *tensor.RawTensor, s float64) *tensor.RawTensor {
	result := mustRaw(op, t.Shape(), t.DType(), t.Device())
	switch t.DType() {
	case tensor.Float32:
		src, dst := t.AsFloat32(), result.AsFloat32()
		sf := float32(s)
		for i := range src {
			dst[i] = src[i] * sf
		}
	case tensor.Float64:
		src, dst := t.AsFloat64(), result.AsFloat64()
		for i := range src {
			dst[i] = src[i] * s
		}
	default:
		panic(fmt.Sprintf("%s backward: unsupported dtype %s", op, t.DType()))
	}
	return result
}
