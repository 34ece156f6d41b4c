package ops

import "github.com/eanet-ml/eanet/internal/tensor"

// ExpOp records out = e^x. The saved output is the derivative.
type ExpOp struct {
	X   *tensor.RawTensor
	Out *tensor.RawTensor
}

func (op *ExpOp) Name() string                { return "exp" }
func (op *ExpOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.X} }
func (op *ExpOp) Output() *tensor.RawTensor   { return op.Out }

func (op *ExpOp) Backward(grad *tensor.RawTensor) []*tensor.RawTensor {
	return []*tensor.RawTensor{elemwise("exp", grad, op.Out,
		func(g, o float32) float32 { return g * o },
		func(g, o float64) float64 { return g * o })}
}

// SqrtOp records out = sqrt(x).
type SqrtOp struct {
	X   *tensor.RawTensor
	Out *tensor.RawTensor
}

func (op *SqrtOp) Name() string                { return "sqrt" }
func (op *SqrtOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.X} }
func (op *SqrtOp) Output() *tensor.RawTensor   { return op.Out }

func (op *SqrtOp) Backward(grad *tensor.RawTensor) []*tensor.RawTensor {
	// d(sqrt(x))/dx = 1 / (2 sqrt(x)) = 1 / (2 out).
	return []*tensor.RawTensor{elemwise("sqrt", grad, op.Out,
		func(g, o float32) float32 { return g / (2 * o) },
		func(g, o float64) float64 { return g / (2 * o) })}
}

// RsqrtOp records out = 1/sqrt(x).
type RsqrtOp struct {
	X   *tensor.RawTensor
	Out *tensor.RawTensor
}

func (op *RsqrtOp) Name() string                { return "rsqrt" }
func (op *RsqrtOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.X} }
func (op *RsqrtOp) Output() *tensor.RawTensor   { return op.Out }

func (op *RsqrtOp) Backward(grad *tensor.RawTensor) []*tensor.RawTensor {
	// d(x^-1/2)/dx = -1/2 x^-3/2 = -out^3 / 2.
	return []*tensor.RawTensor{elemwise("rsqrt", grad, op.Out,
		func(g, o float32) float32 { return -0.5 * o * o * o * g },
		func(g, o float64) float64 { return -0.5 * o * o * o * g })}
}

// TanhOp records out = tanh(x).
type TanhOp struct {
	X   *tensor.RawTensor
	Out *tensor.RawTensor
}

func (op *TanhOp) Name() string                { return "tanh" }
func (op *TanhOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.X} }
func (op *TanhOp) Output() *tensor.RawTensor   { return op.Out }

func (op *TanhOp) Backward(grad *tensor.RawTensor) []*tensor.RawTensor {
	return []*tensor.RawTensor{elemwise("tanh", grad, op.Out,
		func(g, o float32) float32 { return g * (1 - o*o) },
		func(g, o float64) float64 { return g * (1 - o*o) })}
}
