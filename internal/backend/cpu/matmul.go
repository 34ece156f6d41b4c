package cpu

import (
	"fmt"

	"github.com/eanet-ml/eanet/internal/parallel"
	"github.com/eanet-ml/eanet/internal/tensor"
)

// MatMul performs 2D matrix multiplication: (M, K) @ (K, N) -> (M, N).
// Rows of the output are distributed across workers.
func (cpu *CPUBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape := a.Shape()
	bShape := b.Shape()

	if len(aShape) != 2 || len(bShape) != 2 {
		panic(fmt.Sprintf("matmul: only 2D tensors supported, got %dD and %dD", len(aShape), len(bShape)))
	}

	m, k := aShape[0], aShape[1]
	kAlt, n := bShape[0], bShape[1]

	if k != kAlt {
		panic(fmt.Sprintf("matmul: shape mismatch [%d,%d] @ [%d,%d]", m, k, kAlt, n))
	}

	result := mustNewRaw("matmul", tensor.Shape{m, n}, a.DType(), cpu.device)

	switch a.DType() {
	case tensor.Float32:
		c, av, bv := result.AsFloat32(), a.AsFloat32(), b.AsFloat32()
		parallel.For(m, func(i int) {
			matmulRowFloat32(c, av, bv, i, k, n)
		}, cpu.par)
	case tensor.Float64:
		c, av, bv := result.AsFloat64(), a.AsFloat64(), b.AsFloat64()
		parallel.For(m, func(i int) {
			matmulRowFloat64(c, av, bv, i, k, n)
		}, cpu.par)
	default:
		panic(fmt.Sprintf("matmul: unsupported dtype %s", a.DType()))
	}

	return result
}

// matmulRowFloat32 computes one output row: C[i,:] = A[i,:] @ B.
// The k-outer loop walks B rows sequentially for cache locality.
func matmulRowFloat32(c, a, b []float32, i, k, n int) {
	row := c[i*n : (i+1)*n]
	for j := range row {
		row[j] = 0
	}
	for kIdx := 0; kIdx < k; kIdx++ {
		aik := a[i*k+kIdx]
		if aik == 0 {
			continue
		}
		bRow := b[kIdx*n : (kIdx+1)*n]
		for j, bv := range bRow {
			row[j] += aik * bv
		}
	}
}

func matmulRowFloat64(c, a, b []float64, i, k, n int) {
	row := c[i*n : (i+1)*n]
	for j := range row {
		row[j] = 0
	}
	for kIdx := 0; kIdx < k; kIdx++ {
		aik := a[i*k+kIdx]
		if aik == 0 {
			continue
		}
		bRow := b[kIdx*n : (kIdx+1)*n]
		for j, bv := range bRow {
			row[j] += aik * bv
		}
	}
}

// BatchMatMul performs batched matrix multiplication.
// The last two dimensions are matrix dimensions; all leading dimensions are
// batch dimensions and must match.
//
// For 3D: [B, M, K] @ [B, K, N] -> [B, M, N]
// For 4D: [B, H, M, K] @ [B, H, K, N] -> [B, H, M, N]
func (cpu *CPUBackend) BatchMatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape := a.Shape()
	bShape := b.Shape()
	ndim := len(aShape)

	if ndim < 3 {
		panic(fmt.Sprintf("batchmatmul: inputs must be at least 3D, got %dD", ndim))
	}
	if len(bShape) != ndim {
		panic(fmt.Sprintf("batchmatmul: dimension mismatch, got %dD and %dD", ndim, len(bShape)))
	}
	for i := 0; i < ndim-2; i++ {
		if aShape[i] != bShape[i] {
			panic(fmt.Sprintf("batchmatmul: batch dimension mismatch at dim %d: %d vs %d", i, aShape[i], bShape[i]))
		}
	}

	m := aShape[ndim-2]
	k1 := aShape[ndim-1]
	k2 := bShape[ndim-2]
	n := bShape[ndim-1]
	if k1 != k2 {
		panic(fmt.Sprintf("batchmatmul: inner dimension mismatch: %d vs %d", k1, k2))
	}

	batchSize := 1
	for i := 0; i < ndim-2; i++ {
		batchSize *= aShape[i]
	}

	outShape := make(tensor.Shape, ndim)
	copy(outShape, aShape[:ndim-2])
	outShape[ndim-2] = m
	outShape[ndim-1] = n

	result := mustNewRaw("batchmatmul", outShape, a.DType(), cpu.device)

	switch a.DType() {
	case tensor.Float32:
		c, av, bv := result.AsFloat32(), a.AsFloat32(), b.AsFloat32()
		parallel.ForRows(batchSize, m, func(batch, i int) {
			aOff := batch * m * k1
			bOff := batch * k1 * n
			cOff := batch * m * n
			matmulRowFloat32(c[cOff:cOff+m*n], av[aOff:aOff+m*k1], bv[bOff:bOff+k1*n], i, k1, n)
		}, cpu.par)
	case tensor.Float64:
		c, av, bv := result.AsFloat64(), a.AsFloat64(), b.AsFloat64()
		parallel.ForRows(batchSize, m, func(batch, i int) {
			aOff := batch * m * k1
			bOff := batch * k1 * n
			cOff := batch * m * n
			matmulRowFloat64(c[cOff:cOff+m*n], av[aOff:aOff+m*k1], bv[bOff:bOff+k1*n], i, k1, n)
		}, cpu.par)
	default:
		panic(fmt.Sprintf("batchmatmul: unsupported dtype %s", a.DType()))
	}

	return result
}
