package ops

import "github.com/eanet-ml/eanet/internal/tensor"

// SoftmaxOp records out = softmax(x, dim).
type SoftmaxOp struct {
	X       *tensor.RawTensor
	Out     *tensor.RawTensor
	Dim     int
	Backend tensor.Backend
}

func (op *SoftmaxOp) Name() string                { return "softmax" }
func (op *SoftmaxOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.X} }
func (op *SoftmaxOp) Output() *tensor.RawTensor   { return op.Out }

func (op *SoftmaxOp) Backward(grad *tensor.RawTensor) []*tensor.RawTensor {
	// gradIn = out * (grad - sum(grad * out, dim, keepDim)).
	gradOut := elemwise("softmax", grad, op.Out,
		func(g, o float32) float32 { return g * o },
		func(g, o float64) float64 { return g * o })
	sum := op.Backend.SumDim(gradOut, op.Dim, true)
	diff := elemwise("softmax", grad, sum,
		func(g, s float32) float32 { return g - s },
		func(g, s float64) float64 { return g - s })
	gradIn := elemwise("softmax", diff, op.Out,
		func(d, o float32) float32 { return d * o },
		func(d, o float64) float64 { return d * o })
	return []*tensor.RawTensor{gradIn}
}
