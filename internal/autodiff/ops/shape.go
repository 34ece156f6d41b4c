package ops

import "github.com/eanet-ml/eanet/internal/tensor"

// ReshapeOp records out = reshape(x).
type ReshapeOp struct {
	X       *tensor.RawTensor
	Out     *tensor.RawTensor
	Backend tensor.Backend
}

func (op *ReshapeOp) Name() string                { return "reshape" }
func (op *ReshapeOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.X} }
func (op *ReshapeOp) Output() *tensor.RawTensor   { return op.Out }

func (op *ReshapeOp) Backward(grad *tensor.RawTensor) []*tensor.RawTensor {
	return []*tensor.RawTensor{op.Backend.Reshape(grad, op.X.Shape())}
}

// TransposeOp records out = transpose(x, axes).
type TransposeOp struct {
	X       *tensor.RawTensor
	Out     *tensor.RawTensor
	Axes    []int
	Backend tensor.Backend
}

func (op *TransposeOp) Name() string                { return "transpose" }
func (op *TransposeOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.X} }
func (op *TransposeOp) Output() *tensor.RawTensor   { return op.Out }

func (op *TransposeOp) Backward(grad *tensor.RawTensor) []*tensor.RawTensor {
	// Undo the permutation: the gradient flows through the inverse.
	inverse := make([]int, len(op.Axes))
	for i, ax := range op.Axes {
		inverse[ax] = i
	}
	return []*tensor.RawTensor{op.Backend.Transpose(grad, inverse...)}
}
