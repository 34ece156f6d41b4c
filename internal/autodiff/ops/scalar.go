package ops

import "github.com/eanet-ml/eanet/internal/tensor"

// MulScalarOp records out = x * s.
type MulScalarOp struct {
	X      *tensor.RawTensor
	Out    *tensor.RawTensor
	Scalar float64
}

func (op *MulScalarOp) Name() string                { return "mulscalar" }
func (op *MulScalarOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.X} }
func (op *MulScalarOp) Output() *tensor.RawTensor   { return op.Out }

func (op *MulScalarOp) Backward(grad *tensor.RawTensor) []*tensor.RawTensor {
	return []*tensor.RawTensor{scale("mulscalar", grad, op.Scalar)}
}

// AddScalarOp records out = x + s.
type AddScalarOp struct {
	X   *tensor.RawTensor
	Out *tensor.RawTensor
}

func (op *AddScalarOp) Name() string                { return "addscalar" }
func (op *AddScalarOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.X} }
func (op *AddScalarOp) Output() *tensor.RawTensor   { return op.Out }

func (op *AddScalarOp) Backward(grad *tensor.RawTensor) []*tensor.RawTensor {
	return []*tensor.RawTensor{grad.Clone()}
}

// SubScalarOp records out = x - s.
type SubScalarOp struct {
	X   *tensor.RawTensor
	Out *tensor.RawTensor
}

func (op *SubScalarOp) Name() string                { return "subscalar" }
func (op *SubScalarOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.X} }
func (op *SubScalarOp) Output() *tensor.RawTensor   { return op.Out }

func (op *SubScalarOp) Backward(grad *tensor.RawTensor) []*tensor.RawTensor {
	return []*tensor.RawTensor{grad.Clone()}
}

// DivScalarOp records out = x / s.
type DivScalarOp struct {
	X      *tensor.RawTensor
	Out    *tensor.RawTensor
	Scalar float64
}

func (op *DivScalarOp) Name() string                { return "divscalar" }
func (op *DivScalarOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.X} }
func (op *DivScalarOp) Output() *tensor.RawTensor   { return op.Out }

func (op *DivScalarOp) Backward(grad *tensor.RawTensor) []*tensor.RawTensor {
	return []*tensor.RawTensor{scale("divscalar", grad, 1/op.Scalar)}
}
