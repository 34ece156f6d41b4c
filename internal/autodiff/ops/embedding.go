package ops

import "github.com/eanet-ml/eanet/internal/tensor"

// EmbeddingOp records out = weight[indices]. Only the weight table gets a
// gradient; the integer indices are opaque to differentiation.
type EmbeddingOp struct {
	Weight  *tensor.RawTensor
	Indices *tensor.RawTensor
	Out     *tensor.RawTensor
}

func (op *EmbeddingOp) Name() string { return "embedding" }
func (op *EmbeddingOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.Weight, op.Indices}
}
func (op *EmbeddingOp) Output() *tensor.RawTensor { return op.Out }

func (op *EmbeddingOp) Backward(grad *tensor.RawTensor) []*tensor.RawTensor {
	gradWeight := zerosLike("embedding", op.Weight)
	dim := op.Weight.Shape()[1]
	idx := op.Indices.AsInt32()

	// Scatter-add: rows looked up more than once accumulate.
	switch op.Weight.DType() {
	case tensor.Float32:
		g, gw := grad.AsFloat32(), gradWeight.AsFloat32()
		for i, ix := range idx {
			row := int(ix) * dim
			src := g[i*dim : (i+1)*dim]
			for j, v := range src {
				gw[row+j] += v
			}
		}
	case tensor.Float64:
		g, gw := grad.AsFloat64(), gradWeight.AsFloat64()
		for i, ix := range idx {
			row := int(ix) * dim
			src := g[i*dim : (i+1)*dim]
			for j, v := range src {
				gw[row+j] += v
			}
		}
	}
	return []*tensor.RawTensor{gradWeight, nil}
}
