package cpu

import (
	"fmt"

	"github.com/eanet-ml/eanet/internal/tensor"
)

// applyInplace updates a's buffer in place: a[i] = f(a[i], b[i]).
// Caller guarantees shapes match and a has a unique buffer.
func applyInplace(
	a, b *tensor.RawTensor,
	f32 func(x, y float32) float32,
	f64 func(x, y float64) float64,
) {
	switch a.DType() {
	case tensor.Float32:
		aData := a.AsFloat32()
		bData := b.AsFloat32()
		for i := range aData {
			aData[i] = f32(aData[i], bData[i])
		}
	case tensor.Float64:
		aData := a.AsFloat64()
		bData := b.AsFloat64()
		for i := range aData {
			aData[i] = f64(aData[i], bData[i])
		}
	default:
		panic(fmt.Sprintf("elementwise: unsupported dtype %s", a.DType()))
	}
}

// applyVectorized computes result[i] = f(a[i], b[i]) for equal shapes.
func applyVectorized(
	result, a, b *tensor.RawTensor,
	f32 func(x, y float32) float32,
	f64 func(x, y float64) float64,
) {
	switch a.DType() {
	case tensor.Float32:
		rData := result.AsFloat32()
		aData := a.AsFloat32()
		bData := b.AsFloat32()
		for i := range rData {
			rData[i] = f32(aData[i], bData[i])
		}
	case tensor.Float64:
		rData := result.AsFloat64()
		aData := a.AsFloat64()
		bData := b.AsFloat64()
		for i := range rData {
			rData[i] = f64(aData[i], bData[i])
		}
	default:
		panic(fmt.Sprintf("elementwise: unsupported dtype %s", a.DType()))
	}
}

// applyBroadcast computes the op with full NumPy broadcasting: each output
// coordinate maps back to (possibly clamped) input coordinates.
func applyBroadcast(
	result, a, b *tensor.RawTensor,
	outShape tensor.Shape,
	f32 func(x, y float32) float32,
	f64 func(x, y float64) float64,
) {
	outStrides := outShape.ComputeStrides()
	n := outShape.NumElements()

	aIndex := broadcastIndexer(a.Shape(), outShape, outStrides)
	bIndex := broadcastIndexer(b.Shape(), outShape, outStrides)

	switch a.DType() {
	case tensor.Float32:
		rData := result.AsFloat32()
		aData := a.AsFloat32()
		bData := b.AsFloat32()
		for i := 0; i < n; i++ {
			rData[i] = f32(aData[aIndex(i)], bData[bIndex(i)])
		}
	case tensor.Float64:
		rData := result.AsFloat64()
		aData := a.AsFloat64()
		bData := b.AsFloat64()
		for i := 0; i < n; i++ {
			rData[i] = f64(aData[aIndex(i)], bData[bIndex(i)])
		}
	default:
		panic(fmt.Sprintf("elementwise: unsupported dtype %s", a.DType()))
	}
}

// broadcastIndexer returns a function mapping a flat output index to the flat
// index of the (right-aligned, possibly size-1) input tensor.
func broadcastIndexer(inShape, outShape tensor.Shape, outStrides []int) func(int) int {
	inStrides := inShape.ComputeStrides()
	offset := len(outShape) - len(inShape)

	return func(flat int) int {
		idx := 0
		for d := 0; d < len(outShape); d++ {
			coord := flat / outStrides[d] % outShape[d]
			inDim := d - offset
			if inDim < 0 {
				continue
			}
			if inShape[inDim] == 1 {
				continue // broadcast: coordinate pinned to 0
			}
			idx += coord * inStrides[inDim]
		}
		return idx
	}
}
