package ops

import "github.com/eanet-ml/eanet/internal/tensor"

// AddOp records out = x + y with broadcasting.
type AddOp struct {
	X, Y *tensor.RawTensor
	Out  *tensor.RawTensor
}

func (op *AddOp) Name() string                  { return "add" }
func (op *AddOp) Inputs() []*tensor.RawTensor   { return []*tensor.RawTensor{op.X, op.Y} }
func (op *AddOp) Output() *tensor.RawTensor     { return op.Out }

func (op *AddOp) Backward(grad *tensor.RawTensor) []*tensor.RawTensor {
	return []*tensor.RawTensor{
		reduceToShape("add", grad, op.X.Shape()),
		reduceToShape("add", grad, op.Y.Shape()),
	}
}

// SubOp records out = x - y with broadcasting.
type SubOp struct {
	X, Y *tensor.RawTensor
	Out  *tensor.RawTensor
}

func (op *SubOp) Name() string                  { return "sub" }
func (op *SubOp) Inputs() []*tensor.RawTensor   { return []*tensor.RawTensor{op.X, op.Y} }
func (op *SubOp) Output() *tensor.RawTensor     { return op.Out }

func (op *SubOp) Backward(grad *tensor.RawTensor) []*tensor.RawTensor {
	negGrad := scale("sub", grad, -1)
	return []*tensor.RawTensor{
		reduceToShape("sub", grad, op.X.Shape()),
		reduceToShape("sub", negGrad, op.Y.Shape()),
	}
}

// MulOp records out = x * y with broadcasting.
type MulOp struct {
	X, Y *tensor.RawTensor
	Out  *tensor.RawTensor
}

func (op *MulOp) Name() string                  { return "mul" }
func (op *MulOp) Inputs() []*tensor.RawTensor   { return []*tensor.RawTensor{op.X, op.Y} }
func (op *MulOp) Output() *tensor.RawTensor     { return op.Out }

func (op *MulOp) Backward(grad *tensor.RawTensor) []*tensor.RawTensor {
	gradX := elemwise("mul", grad, op.Y,
		func(g, y float32) float32 { return g * y },
		func(g, y float64) float64 { return g * y })
	gradY := elemwise("mul", grad, op.X,
		func(g, x float32) float32 { return g * x },
		func(g, x float64) float64 { return g * x })
	return []*tensor.RawTensor{
		reduceToShape("mul", gradX, op.X.Shape()),
		reduceToShape("mul", gradY, op.Y.Shape()),
	}
}

// DivOp records out = x / y with broadcasting.
type DivOp struct {
	X, Y *tensor.RawTensor
	Out  *tensor.RawTensor
}

func (op *DivOp) Name() string                  { return "div" }
func (op *DivOp) Inputs() []*tensor.RawTensor   { return []*tensor.RawTensor{op.X, op.Y} }
func (op *DivOp) Output() *tensor.RawTensor     { return op.Out }

func (op *DivOp) Backward(grad *tensor.RawTensor) []*tensor.RawTensor {
	// d(x/y)/dx = 1/y, d(x/y)/dy = -x/y^2 = -out/y.
	gradX := elemwise("div", grad, op.Y,
		func(g, y float32) float32 { return g / y },
		func(g, y float64) float64 { return g / y })
	gradY := elemwise("div", gradX, op.Out,
		func(g, o float32) float32 { return -g * o },
		func(g, o float64) float64 { return -g * o })
	return []*tensor.RawTensor{
		reduceToShape("div", gradX, op.X.Shape()),
		reduceToShape("div", gradY, op.Y.Shape()),
	}
}
