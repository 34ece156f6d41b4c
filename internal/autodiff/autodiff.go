// Package autodiff provides reverse-mode automatic differentiation as a
// backend decorator. Wrap any Backend in an AutodiffBackend and every
// operation executed while the tape records becomes differentiable.
package autodiff

import (
	"fmt"
	"math"

	"github.com/eanet-ml/eanet/internal/autodiff/ops"
	"github.com/eanet-ml/eanet/internal/tensor"
)

// AutodiffBackend wraps an inner backend and records differentiable
// operations on a gradient tape. When the tape is not recording, calls pass
// straight through to the inner backend.
type AutodiffBackend[B tensor.Backend] struct {
	inner B
	tape  *GradientTape
}

// New wraps inner with a fresh gradient tape.
func New[B tensor.Backend](inner B) *AutodiffBackend[B] {
	return &AutodiffBackend[B]{
		inner: inner,
		tape:  NewGradientTape(),
	}
}

// Inner returns the wrapped backend.
func (ab *AutodiffBackend[B]) Inner() B {
	return ab.inner
}

// Tape returns the gradient tape.
func (ab *AutodiffBackend[B]) Tape() *GradientTape {
	return ab.tape
}

func (ab *AutodiffBackend[B]) Name() string {
	return "autodiff(" + ab.inner.Name() + ")"
}

func (ab *AutodiffBackend[B]) Device() tensor.Device {
	return ab.inner.Device()
}

func (ab *AutodiffBackend[B]) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	if !ab.tape.IsRecording() {
		return ab.inner.Add(a, b)
	}
	ab.tape.guard(a, b)
	out := ab.inner.Add(a, b)
	ab.tape.guard(out)
	ab.tape.Record(&ops.AddOp{X: a, Y: b, Out: out})
	return out
}

func (ab *AutodiffBackend[B]) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	if !ab.tape.IsRecording() {
		return ab.inner.Sub(a, b)
	}
	ab.tape.guard(a, b)
	out := ab.inner.Sub(a, b)
	ab.tape.guard(out)
	ab.tape.Record(&ops.SubOp{X: a, Y: b, Out: out})
	return out
}

func (ab *AutodiffBackend[B]) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	if !ab.tape.IsRecording() {
		return ab.inner.Mul(a, b)
	}
	ab.tape.guard(a, b)
	out := ab.inner.Mul(a, b)
	ab.tape.guard(out)
	ab.tape.Record(&ops.MulOp{X: a, Y: b, Out: out})
	return out
}

func (ab *AutodiffBackend[B]) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	if !ab.tape.IsRecording() {
		return ab.inner.Div(a, b)
	}
	ab.tape.guard(a, b)
	out := ab.inner.Div(a, b)
	ab.tape.guard(out)
	ab.tape.Record(&ops.DivOp{X: a, Y: b, Out: out})
	return out
}

func (ab *AutodiffBackend[B]) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	if !ab.tape.IsRecording() {
		return ab.inner.MatMul(a, b)
	}
	ab.tape.guard(a, b)
	out := ab.inner.MatMul(a, b)
	ab.tape.guard(out)
	ab.tape.Record(&ops.MatMulOp{X: a, Y: b, Out: out, Backend: ab.inner})
	return out
}

func (ab *AutodiffBackend[B]) BatchMatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	if !ab.tape.IsRecording() {
		return ab.inner.BatchMatMul(a, b)
	}
	ab.tape.guard(a, b)
	out := ab.inner.BatchMatMul(a, b)
	ab.tape.guard(out)
	ab.tape.Record(&ops.BatchMatMulOp{X: a, Y: b, Out: out, Backend: ab.inner})
	return out
}

func (ab *AutodiffBackend[B]) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	if !ab.tape.IsRecording() {
		return ab.inner.Reshape(t, newShape)
	}
	ab.tape.guard(t)
	out := ab.inner.Reshape(t, newShape)
	ab.tape.guard(out)
	ab.tape.Record(&ops.ReshapeOp{X: t, Out: out, Backend: ab.inner})
	return out
}

func (ab *AutodiffBackend[B]) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	if !ab.tape.IsRecording() {
		return ab.inner.Transpose(t, axes...)
	}
	// Resolve the default (full reversal) so backward can invert it.
	if len(axes) == 0 {
		ndim := len(t.Shape())
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}
	ab.tape.guard(t)
	out := ab.inner.Transpose(t, axes...)
	ab.tape.guard(out)
	ab.tape.Record(&ops.TransposeOp{X: t, Out: out, Axes: axes, Backend: ab.inner})
	return out
}

func (ab *AutodiffBackend[B]) MulScalar(t *tensor.RawTensor, scalar any) *tensor.RawTensor {
	if !ab.tape.IsRecording() {
		return ab.inner.MulScalar(t, scalar)
	}
	ab.tape.guard(t)
	out := ab.inner.MulScalar(t, scalar)
	ab.tape.guard(out)
	ab.tape.Record(&ops.MulScalarOp{X: t, Out: out, Scalar: scalarToFloat64(scalar)})
	return out
}

func (ab *AutodiffBackend[B]) AddScalar(t *tensor.RawTensor, scalar any) *tensor.RawTensor {
	if !ab.tape.IsRecording() {
		return ab.inner.AddScalar(t, scalar)
	}
	ab.tape.guard(t)
	out := ab.inner.AddScalar(t, scalar)
	ab.tape.guard(out)
	ab.tape.Record(&ops.AddScalarOp{X: t, Out: out})
	return out
}

func (ab *AutodiffBackend[B]) SubScalar(t *tensor.RawTensor, scalar any) *tensor.RawTensor {
	if !ab.tape.IsRecording() {
		return ab.inner.SubScalar(t, scalar)
	}
	ab.tape.guard(t)
	out := ab.inner.SubScalar(t, scalar)
	ab.tape.guard(out)
	ab.tape.Record(&ops.SubScalarOp{X: t, Out: out})
	return out
}

func (ab *AutodiffBackend[B]) DivScalar(t *tensor.RawTensor, scalar any) *tensor.RawTensor {
	if !ab.tape.IsRecording() {
		return ab.inner.DivScalar(t, scalar)
	}
	ab.tape.guard(t)
	out := ab.inner.DivScalar(t, scalar)
	ab.tape.guard(out)
	ab.tape.Record(&ops.DivScalarOp{X: t, Out: out, Scalar: scalarToFloat64(scalar)})
	return out
}

func (ab *AutodiffBackend[B]) Exp(t *tensor.RawTensor) *tensor.RawTensor {
	if !ab.tape.IsRecording() {
		return ab.inner.Exp(t)
	}
	ab.tape.guard(t)
	out := ab.inner.Exp(t)
	ab.tape.guard(out)
	ab.tape.Record(&ops.ExpOp{X: t, Out: out})
	return out
}

func (ab *AutodiffBackend[B]) Sqrt(t *tensor.RawTensor) *tensor.RawTensor {
	if !ab.tape.IsRecording() {
		return ab.inner.Sqrt(t)
	}
	ab.tape.guard(t)
	out := ab.inner.Sqrt(t)
	ab.tape.guard(out)
	ab.tape.Record(&ops.SqrtOp{X: t, Out: out})
	return out
}

func (ab *AutodiffBackend[B]) Rsqrt(t *tensor.RawTensor) *tensor.RawTensor {
	if !ab.tape.IsRecording() {
		return ab.inner.Rsqrt(t)
	}
	ab.tape.guard(t)
	out := ab.inner.Rsqrt(t)
	ab.tape.guard(out)
	ab.tape.Record(&ops.RsqrtOp{X: t, Out: out})
	return out
}

func (ab *AutodiffBackend[B]) Tanh(t *tensor.RawTensor) *tensor.RawTensor {
	if !ab.tape.IsRecording() {
		return ab.inner.Tanh(t)
	}
	ab.tape.guard(t)
	out := ab.inner.Tanh(t)
	ab.tape.guard(out)
	ab.tape.Record(&ops.TanhOp{X: t, Out: out})
	return out
}

func (ab *AutodiffBackend[B]) Softmax(t *tensor.RawTensor, dim int) *tensor.RawTensor {
	if !ab.tape.IsRecording() {
		return ab.inner.Softmax(t, dim)
	}
	dim = t.Shape().NormalizeDim(dim)
	ab.tape.guard(t)
	out := ab.inner.Softmax(t, dim)
	ab.tape.guard(out)
	ab.tape.Record(&ops.SoftmaxOp{X: t, Out: out, Dim: dim, Backend: ab.inner})
	return out
}

func (ab *AutodiffBackend[B]) SumDim(t *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	if !ab.tape.IsRecording() {
		return ab.inner.SumDim(t, dim, keepDim)
	}
	dim = t.Shape().NormalizeDim(dim)
	ab.tape.guard(t)
	out := ab.inner.SumDim(t, dim, keepDim)
	ab.tape.guard(out)
	ab.tape.Record(&ops.SumDimOp{X: t, Out: out, Dim: dim, KeepDim: keepDim, Backend: ab.inner})
	return out
}

func (ab *AutodiffBackend[B]) MeanDim(t *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	if !ab.tape.IsRecording() {
		return ab.inner.MeanDim(t, dim, keepDim)
	}
	dim = t.Shape().NormalizeDim(dim)
	ab.tape.guard(t)
	out := ab.inner.MeanDim(t, dim, keepDim)
	ab.tape.guard(out)
	ab.tape.Record(&ops.MeanDimOp{X: t, Out: out, Dim: dim, KeepDim: keepDim, Backend: ab.inner})
	return out
}

// Argmax is not differentiable and always passes through.
func (ab *AutodiffBackend[B]) Argmax(t *tensor.RawTensor, dim int) *tensor.RawTensor {
	return ab.inner.Argmax(t, dim)
}

func (ab *AutodiffBackend[B]) Embedding(weight, indices *tensor.RawTensor) *tensor.RawTensor {
	if !ab.tape.IsRecording() {
		return ab.inner.Embedding(weight, indices)
	}
	ab.tape.guard(weight, indices)
	out := ab.inner.Embedding(weight, indices)
	ab.tape.guard(out)
	ab.tape.Record(&ops.EmbeddingOp{Weight: weight, Indices: indices, Out: out})
	return out
}

// CrossEntropy computes the mean label-smoothed cross-entropy between
// logits [batch, classes] and int32 class targets [batch], returning a
// scalar [1] tensor. Recorded as a single fused operation.
func (ab *AutodiffBackend[B]) CrossEntropy(logits, targets *tensor.RawTensor, smoothing float64) *tensor.RawTensor {
	if len(logits.Shape()) != 2 {
		panic(fmt.Sprintf("crossentropy: logits must be [batch, classes], got %v", logits.Shape()))
	}
	if len(targets.Shape()) != 1 || targets.Shape()[0] != logits.Shape()[0] {
		panic(fmt.Sprintf("crossentropy: targets shape %v does not match logits %v",
			targets.Shape(), logits.Shape()))
	}
	if targets.DType() != tensor.Int32 {
		panic(fmt.Sprintf("crossentropy: targets must be int32, got %s", targets.DType()))
	}
	if smoothing < 0 || smoothing >= 1 {
		panic(fmt.Sprintf("crossentropy: smoothing %v out of [0, 1)", smoothing))
	}

	probs := ab.inner.Softmax(logits, -1)
	out := crossEntropyForward(logits, probs, targets, smoothing)

	if ab.tape.IsRecording() {
		ab.tape.guard(logits, targets, probs, out)
		ab.tape.Record(&ops.CrossEntropyOp{
			Logits:    logits,
			Targets:   targets,
			Softmax:   probs,
			Out:       out,
			Smoothing: smoothing,
		})
	}
	return out
}

func crossEntropyForward(logits, probs, targets *tensor.RawTensor, smoothing float64) *tensor.RawTensor {
	batch := logits.Shape()[0]
	classes := logits.Shape()[1]
	idx := targets.AsInt32()

	out, err := tensor.NewRaw(tensor.Shape{1}, logits.DType(), logits.Device())
	if err != nil {
		panic(fmt.Sprintf("crossentropy: %v", err))
	}

	// loss_i = -sum_c y_c log p_c with y the smoothed one-hot.
	off := smoothing / float64(classes)
	on := 1 - smoothing + off

	switch logits.DType() {
	case tensor.Float32:
		p := probs.AsFloat32()
		var total float64
		for i := 0; i < batch; i++ {
			t := int(idx[i])
			if t < 0 || t >= classes {
				panic(fmt.Sprintf("crossentropy: target %d out of range [0, %d)", t, classes))
			}
			base := i * classes
			for c := 0; c < classes; c++ {
				y := off
				if c == t {
					y = on
				}
				total -= y * math.Log(float64(p[base+c])+1e-12)
			}
		}
		out.AsFloat32()[0] = float32(total / float64(batch))
	case tensor.Float64:
		p := probs.AsFloat64()
		var total float64
		for i := 0; i < batch; i++ {
			t := int(idx[i])
			if t < 0 || t >= classes {
				panic(fmt.Sprintf("crossentropy: target %d out of range [0, %d)", t, classes))
			}
			base := i * classes
			for c := 0; c < classes; c++ {
				y := off
				if c == t {
					y = on
				}
				total -= y * math.Log(p[base+c]+1e-12)
			}
		}
		out.AsFloat64()[0] = total / float64(batch)
	default:
		panic(fmt.Sprintf("crossentropy: unsupported dtype %s", logits.DType()))
	}
	return out
}

func scalarToFloat64(scalar any) float64 {
	switch v := scalar.(type) {
	case float32:
		return float64(v)
	case float64:
		return v
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	default:
		panic(fmt.Sprintf("autodiff: unsupported scalar type %T", scalar))
	}
}
