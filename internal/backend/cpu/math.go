package cpu

import (
	"fmt"
	"math"

	"github.com/eanet-ml/eanet/internal/tensor"
)

// Exp computes element-wise e^x.
func (cpu *CPUBackend) Exp(t *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryOp("exp", t,
		func(a float32) float32 { return float32(math.Exp(float64(a))) },
		math.Exp)
}

// Sqrt computes element-wise square root.
func (cpu *CPUBackend) Sqrt(t *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryOp("sqrt", t,
		func(a float32) float32 { return float32(math.Sqrt(float64(a))) },
		math.Sqrt)
}

// Rsqrt computes element-wise reciprocal square root.
func (cpu *CPUBackend) Rsqrt(t *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryOp("rsqrt", t,
		func(a float32) float32 { return float32(1.0 / math.Sqrt(float64(a))) },
		func(a float64) float64 { return 1.0 / math.Sqrt(a) })
}

// Tanh computes element-wise hyperbolic tangent.
func (cpu *CPUBackend) Tanh(t *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryOp("tanh", t,
		func(a float32) float32 { return float32(math.Tanh(float64(a))) },
		math.Tanh)
}

func (cpu *CPUBackend) unaryOp(
	op string,
	t *tensor.RawTensor,
	f32 func(a float32) float32,
	f64 func(a float64) float64,
) *tensor.RawTensor {
	var result *tensor.RawTensor
	if t.IsUnique() {
		result = t
	} else {
		result = mustNewRaw(op, t.Shape(), t.DType(), t.Device())
	}

	switch t.DType() {
	case tensor.Float32:
		src, dst := t.AsFloat32(), result.AsFloat32()
		for i := range src {
			dst[i] = f32(src[i])
		}
	case tensor.Float64:
		src, dst := t.AsFloat64(), result.AsFloat64()
		for i := range src {
			dst[i] = f64(src[i])
		}
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", op, t.DType()))
	}
	return result
}
