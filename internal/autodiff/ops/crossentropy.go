package ops

import (
	"fmt"

	"github.com/eanet-ml/eanet/internal/tensor"
)

// CrossEntropyOp records the fused softmax + label-smoothed NLL loss.
//
// The forward pass stores the softmax of the logits so the backward pass
// reduces to (softmax - smoothedTarget) / batchSize, scaled by the
// incoming gradient of the scalar loss.
type CrossEntropyOp struct {
	Logits    *tensor.RawTensor
	Targets   *tensor.RawTensor
	Softmax   *tensor.RawTensor
	Out       *tensor.RawTensor
	Smoothing float64
}

func (op *CrossEntropyOp) Name() string { return "crossentropy" }
func (op *CrossEntropyOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.Logits, op.Targets}
}
func (op *CrossEntropyOp) Output() *tensor.RawTensor { return op.Out }

func (op *CrossEntropyOp) Backward(grad *tensor.RawTensor) []*tensor.RawTensor {
	batch := op.Logits.Shape()[0]
	classes := op.Logits.Shape()[1]
	targets := op.Targets.AsInt32()

	gradLogits := zerosLike("crossentropy", op.Logits)

	switch op.Logits.DType() {
	case tensor.Float32:
		g := float32(grad.AsFloat32()[0]) / float32(batch)
		probs, gl := op.Softmax.AsFloat32(), gradLogits.AsFloat32()
		off := float32(op.Smoothing) / float32(classes)
		on := float32(1-op.Smoothing) + off
		for i := 0; i < batch; i++ {
			t := int(targets[i])
			base := i * classes
			for c := 0; c < classes; c++ {
				y := off
				if c == t {
					y = on
				}
				gl[base+c] = g * (probs[base+c] - y)
			}
		}
	case tensor.Float64:
		g := grad.AsFloat64()[0] / float64(batch)
		probs, gl := op.Softmax.AsFloat64(), gradLogits.AsFloat64()
		off := op.Smoothing / float64(classes)
		on := 1 - op.Smoothing + off
		for i := 0; i < batch; i++ {
			t := int(targets[i])
			base := i * classes
			for c := 0; c < classes; c++ {
				y := off
				if c == t {
					y = on
				}
				gl[base+c] = g * (probs[base+c] - y)
			}
		}
	default:
		panic(fmt.Sprintf("crossentropy backward: unsupported dtype %s", op.Logits.DType()))
	}
	return []*tensor.RawTensor{gradLogits, nil}
}
