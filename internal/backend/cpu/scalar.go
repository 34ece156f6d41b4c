package cpu

import (
	"fmt"

	"github.com/eanet-ml/eanet/internal/tensor"
)

// MulScalar multiplies every element by scalar.
func (cpu *CPUBackend) MulScalar(t *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return cpu.scalarOp("mulscalar", t, scalar,
		func(a, s float32) float32 { return a * s },
		func(a, s float64) float64 { return a * s })
}

// AddScalar adds scalar to every element.
func (cpu *CPUBackend) AddScalar(t *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return cpu.scalarOp("addscalar", t, scalar,
		func(a, s float32) float32 { return a + s },
		func(a, s float64) float64 { return a + s })
}

// SubScalar subtracts scalar from every element.
func (cpu *CPUBackend) SubScalar(t *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return cpu.scalarOp("subscalar", t, scalar,
		func(a, s float32) float32 { return a - s },
		func(a, s float64) float64 { return a - s })
}

// DivScalar divides every element by scalar.
func (cpu *CPUBackend) DivScalar(t *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return cpu.scalarOp("divscalar", t, scalar,
		func(a, s float32) float32 { return a / s },
		func(a, s float64) float64 { return a / s })
}

func (cpu *CPUBackend) scalarOp(
	op string,
	t *tensor.RawTensor,
	scalar any,
	f32 func(a, s float32) float32,
	f64 func(a, s float64) float64,
) *tensor.RawTensor {
	s := toFloat64(op, scalar)

	// Inplace fast path when we own the only reference.
	var result *tensor.RawTensor
	if t.IsUnique() {
		result = t
	} else {
		result = mustNewRaw(op, t.Shape(), t.DType(), t.Device())
	}

	switch t.DType() {
	case tensor.Float32:
		src, dst := t.AsFloat32(), result.AsFloat32()
		sf := float32(s)
		for i := range src {
			dst[i] = f32(src[i], sf)
		}
	case tensor.Float64:
		src, dst := t.AsFloat64(), result.AsFloat64()
		for i := range src {
			dst[i] = f64(src[i], s)
		}
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", op, t.DType()))
	}
	return result
}

// toFloat64 converts any supported scalar type to float64.
func toFloat64(op string, scalar any) float64 {
	switch v := scalar.(type) {
	case float32:
		return float64(v)
	case float64:
		return v
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	default:
		panic(fmt.Sprintf("%s: unsupported scalar type %T", op, scalar))
	}
}
