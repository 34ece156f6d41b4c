package ops

import "github.com/eanet-ml/eanet/internal/tensor"

// MatMulOp records out = x @ y for 2D operands.
type MatMulOp struct {
	X, Y    *tensor.RawTensor
	Out     *tensor.RawTensor
	Backend tensor.Backend
}

func (op *MatMulOp) Name() string                { return "matmul" }
func (op *MatMulOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.X, op.Y} }
func (op *MatMulOp) Output() *tensor.RawTensor   { return op.Out }

func (op *MatMulOp) Backward(grad *tensor.RawTensor) []*tensor.RawTensor {
	// dL/dX = grad @ Y^T, dL/dY = X^T @ grad.
	gradX := op.Backend.MatMul(grad, op.Backend.Transpose(op.Y))
	gradY := op.Backend.MatMul(op.Backend.Transpose(op.X), grad)
	return []*tensor.RawTensor{gradX, gradY}
}

// BatchMatMulOp records out = x @ y over the last two dims, batched over
// the leading dims.
type BatchMatMulOp struct {
	X, Y    *tensor.RawTensor
	Out     *tensor.RawTensor
	Backend tensor.Backend
}

func (op *BatchMatMulOp) Name() string                { return "batchmatmul" }
func (op *BatchMatMulOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.X, op.Y} }
func (op *BatchMatMulOp) Output() *tensor.RawTensor   { return op.Out }

func (op *BatchMatMulOp) Backward(grad *tensor.RawTensor) []*tensor.RawTensor {
	gradX := op.Backend.BatchMatMul(grad, transposeLastTwo(op.Backend, op.Y))
	gradY := op.Backend.BatchMatMul(transposeLastTwo(op.Backend, op.X), grad)
	return []*tensor.RawTensor{gradX, gradY}
}

// transposeLastTwo swaps the final two dimensions, leaving batch dims alone.
func transposeLastTwo(b tensor.Backend, t *tensor.RawTensor) *tensor.RawTensor {
	ndim := len(t.Shape())
	axes := make([]int, ndim)
	for i := range axes {
		axes[i] = i
	}
	axes[ndim-2], axes[ndim-1] = axes[ndim-1], axes[ndim-2]
	return b.Transpose(t, axes...)
}
