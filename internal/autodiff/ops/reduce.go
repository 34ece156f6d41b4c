package ops

import "github.com/eanet-ml/eanet/internal/tensor"

// SumDimOp records out = sum(x, dim, keepDim).
type SumDimOp struct {
	X       *tensor.RawTensor
	Out     *tensor.RawTensor
	Dim     int
	KeepDim bool
	Backend tensor.Backend
}

func (op *SumDimOp) Name() string                { return "sumdim" }
func (op *SumDimOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.X} }
func (op *SumDimOp) Output() *tensor.RawTensor   { return op.Out }

func (op *SumDimOp) Backward(grad *tensor.RawTensor) []*tensor.RawTensor {
	return []*tensor.RawTensor{spreadReduced("sumdim", grad, op.X.Shape(), op.Dim, op.KeepDim, op.Backend, 1)}
}

// MeanDimOp records out = mean(x, dim, keepDim).
type MeanDimOp struct {
	X       *tensor.RawTensor
	Out     *tensor.RawTensor
	Dim     int
	KeepDim bool
	Backend tensor.Backend
}

func (op *MeanDimOp) Name() string                { return "meandim" }
func (op *MeanDimOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.X} }
func (op *MeanDimOp) Output() *tensor.RawTensor   { return op.Out }

func (op *MeanDimOp) Backward(grad *tensor.RawTensor) []*tensor.RawTensor {
	n := op.X.Shape()[op.Dim]
	return []*tensor.RawTensor{spreadReduced("meandim", grad, op.X.Shape(), op.Dim, op.KeepDim, op.Backend, 1.0/float64(n))}
}

// spreadReduced broadcasts a reduction gradient back over the reduced
// dimension, optionally scaling each element (for mean).
func spreadReduced(name string, grad *tensor.RawTensor, inShape tensor.Shape, dim int, keepDim bool, b tensor.Backend, factor float64) *tensor.RawTensor {
	g := grad
	if !keepDim {
		// Reinsert the reduced dim as size 1 so broadcastTo lines up.
		withDim := make(tensor.Shape, 0, len(inShape))
		withDim = append(withDim, inShape[:dim]...)
		withDim = append(withDim, 1)
		withDim = append(withDim, inShape[dim+1:]...)
		g = b.Reshape(g, withDim)
	}
	spread := broadcastTo(name, g, inShape)
	if factor != 1 {
		spread = scale(name, spread, factor)
	}
	return spread
}
