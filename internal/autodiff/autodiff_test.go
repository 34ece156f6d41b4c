package autodiff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eanet-ml/eanet/internal/backend/cpu"
	"github.com/eanet-ml/eanet/internal/tensor"
)

func newBackend() *AutodiffBackend[*cpu.CPUBackend] {
	return New(cpu.New())
}

func raw(t *testing.T, data []float32, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	r, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	copy(r.AsFloat32(), data)
	return r
}

func onesGrad(t *testing.T, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	g := raw(t, nil, shape)
	data := g.AsFloat32()
	for i := range data {
		data[i] = 1
	}
	return g
}

func TestPassthroughWhenNotRecording(t *testing.T) {
	b := newBackend()
	x := raw(t, []float32{1, 2}, tensor.Shape{2})
	y := raw(t, []float32{3, 4}, tensor.Shape{2})

	out := b.Add(x, y)
	assert.Equal(t, []float32{4, 6}, out.AsFloat32())
	assert.Equal(t, 0, b.Tape().NumOperations())
}

func TestAddBackward(t *testing.T) {
	b := newBackend()
	b.Tape().StartRecording()
	defer b.Tape().Clear()

	x := raw(t, []float32{1, 2, 3}, tensor.Shape{3})
	y := raw(t, []float32{4, 5, 6}, tensor.Shape{3})
	out := b.Add(x, y)

	grads := b.Tape().Backward(onesGrad(t, out.Shape()))
	assert.Equal(t, []float32{1, 1, 1}, grads[x].AsFloat32())
	assert.Equal(t, []float32{1, 1, 1}, grads[y].AsFloat32())
}

func TestBroadcastAddBackwardReduces(t *testing.T) {
	b := newBackend()
	b.Tape().StartRecording()
	defer b.Tape().Clear()

	x := raw(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	bias := raw(t, []float32{0, 0, 0}, tensor.Shape{1, 3})
	out := b.Add(x, bias)

	grads := b.Tape().Backward(onesGrad(t, out.Shape()))
	// Bias gradient sums over the broadcast batch dim.
	assert.Equal(t, tensor.Shape{1, 3}, grads[bias].Shape())
	assert.Equal(t, []float32{2, 2, 2}, grads[bias].AsFloat32())
}

func TestMulBackward(t *testing.T) {
	b := newBackend()
	b.Tape().StartRecording()
	defer b.Tape().Clear()

	x := raw(t, []float32{2, 3}, tensor.Shape{2})
	y := raw(t, []float32{5, 7}, tensor.Shape{2})
	out := b.Mul(x, y)

	grads := b.Tape().Backward(onesGrad(t, out.Shape()))
	assert.Equal(t, []float32{5, 7}, grads[x].AsFloat32())
	assert.Equal(t, []float32{2, 3}, grads[y].AsFloat32())
}

func TestChainBackward(t *testing.T) {
	b := newBackend()
	b.Tape().StartRecording()
	defer b.Tape().Clear()

	// out = (x * 3 + 1) * x  ->  d/dx = 6x + 1.
	x := raw(t, []float32{2}, tensor.Shape{1})
	scaled := b.MulScalar(x, float32(3))
	shifted := b.AddScalar(scaled, float32(1))
	out := b.Mul(shifted, x)

	grads := b.Tape().Backward(onesGrad(t, out.Shape()))
	assert.InDelta(t, 13.0, float64(grads[x].AsFloat32()[0]), 1e-5)
}

func TestMatMulBackward(t *testing.T) {
	b := newBackend()
	b.Tape().StartRecording()
	defer b.Tape().Clear()

	x := raw(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	w := raw(t, []float32{5, 6, 7, 8}, tensor.Shape{2, 2})
	out := b.MatMul(x, w)

	grads := b.Tape().Backward(onesGrad(t, out.Shape()))
	// dX = ones @ W^T, dW = X^T @ ones.
	assert.Equal(t, []float32{11, 15, 11, 15}, grads[x].AsFloat32())
	assert.Equal(t, []float32{4, 4, 6, 6}, grads[w].AsFloat32())
}

func TestBatchMatMulBackwardShapes(t *testing.T) {
	b := newBackend()
	b.Tape().StartRecording()
	defer b.Tape().Clear()

	x := raw(t, make([]float32, 2*3*4), tensor.Shape{2, 3, 4})
	y := raw(t, make([]float32, 2*4*5), tensor.Shape{2, 4, 5})
	out := b.BatchMatMul(x, y)
	require.Equal(t, tensor.Shape{2, 3, 5}, out.Shape())

	grads := b.Tape().Backward(onesGrad(t, out.Shape()))
	assert.Equal(t, tensor.Shape{2, 3, 4}, grads[x].Shape())
	assert.Equal(t, tensor.Shape{2, 4, 5}, grads[y].Shape())
}

func TestReshapeTransposeBackward(t *testing.T) {
	b := newBackend()
	b.Tape().StartRecording()
	defer b.Tape().Clear()

	x := raw(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	r := b.Reshape(x, tensor.Shape{3, 2})
	out := b.Transpose(r, 1, 0)
	assert.Equal(t, tensor.Shape{2, 3}, out.Shape())
	assert.Equal(t, []float32{1, 3, 5, 2, 4, 6}, out.AsFloat32())

	grad := raw(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	grads := b.Tape().Backward(grad)
	// Gradient must land back in x's layout: transpose then reshape undone.
	assert.Equal(t, tensor.Shape{2, 3}, grads[x].Shape())
	assert.Equal(t, []float32{1, 4, 2, 5, 3, 6}, grads[x].AsFloat32())
}

func TestSoftmaxBackwardRowsSumToZero(t *testing.T) {
	b := newBackend()
	b.Tape().StartRecording()
	defer b.Tape().Clear()

	x := raw(t, []float32{0.5, 1.5, -0.3, 2.0, 0.1, 0.2}, tensor.Shape{2, 3})
	out := b.Softmax(x, -1)
	fwd := out.AsFloat32()
	for r := 0; r < 2; r++ {
		sum := float64(fwd[r*3] + fwd[r*3+1] + fwd[r*3+2])
		assert.InDelta(t, 1.0, sum, 1e-6, "forward row %d", r)
	}

	grad := raw(t, []float32{1, 0, 0, 0, 1, 0}, tensor.Shape{2, 3})
	grads := b.Tape().Backward(grad)

	data := grads[x].AsFloat32()
	for r := 0; r < 2; r++ {
		var sum float64
		for c := 0; c < 3; c++ {
			sum += float64(data[r*3+c])
		}
		// Softmax Jacobian rows are orthogonal to the all-ones vector.
		assert.InDelta(t, 0.0, sum, 1e-6)
	}
}

func TestSumDimBackwardSpreads(t *testing.T) {
	b := newBackend()
	b.Tape().StartRecording()
	defer b.Tape().Clear()

	x := raw(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	out := b.SumDim(x, -1, true)
	require.Equal(t, tensor.Shape{2, 1}, out.Shape())

	grad := raw(t, []float32{10, 20}, tensor.Shape{2, 1})
	grads := b.Tape().Backward(grad)
	assert.Equal(t, []float32{10, 10, 10, 20, 20, 20}, grads[x].AsFloat32())
}

func TestMeanDimBackwardDividesByN(t *testing.T) {
	b := newBackend()
	b.Tape().StartRecording()
	defer b.Tape().Clear()

	x := raw(t, []float32{1, 2, 3, 4}, tensor.Shape{4})
	out := b.MeanDim(x, 0, false)
	require.Equal(t, tensor.Shape{1}, out.Shape())

	grads := b.Tape().Backward(onesGrad(t, out.Shape()))
	assert.InDeltaSlice(t, []float32{0.25, 0.25, 0.25, 0.25}, grads[x].AsFloat32(), 1e-6)
}

func TestEmbeddingBackwardScatterAdd(t *testing.T) {
	b := newBackend()
	b.Tape().StartRecording()
	defer b.Tape().Clear()

	weight := raw(t, make([]float32, 3*2), tensor.Shape{3, 2})
	idx, err := tensor.NewRaw(tensor.Shape{3}, tensor.Int32, tensor.CPU)
	require.NoError(t, err)
	copy(idx.AsInt32(), []int32{1, 1, 0})

	out := b.Embedding(weight, idx)
	require.Equal(t, tensor.Shape{3, 2}, out.Shape())

	grads := b.Tape().Backward(onesGrad(t, out.Shape()))
	// Row 1 referenced twice accumulates, row 2 untouched.
	assert.Equal(t, []float32{1, 1, 2, 2, 0, 0}, grads[weight].AsFloat32())
}

func TestCrossEntropyForwardAndBackward(t *testing.T) {
	b := newBackend()
	b.Tape().StartRecording()
	defer b.Tape().Clear()

	logits := raw(t, []float32{2, 0, 0, 0, 3, 0}, tensor.Shape{2, 3})
	targets, err := tensor.NewRaw(tensor.Shape{2}, tensor.Int32, tensor.CPU)
	require.NoError(t, err)
	copy(targets.AsInt32(), []int32{0, 1})

	loss := b.CrossEntropy(logits, targets, 0.1)
	require.Equal(t, tensor.Shape{1}, loss.Shape())
	assert.Greater(t, loss.AsFloat32()[0], float32(0))

	grads := b.Tape().Backward(onesGrad(t, tensor.Shape{1}))
	gl := grads[logits].AsFloat32()

	// Each row of the logit gradient sums to zero: softmax and the smoothed
	// target are both distributions.
	for r := 0; r < 2; r++ {
		var sum float64
		for c := 0; c < 3; c++ {
			sum += float64(gl[r*3+c])
		}
		assert.InDelta(t, 0.0, sum, 1e-6)
	}
	// The true class is pushed up (negative gradient).
	assert.Less(t, gl[0], float32(0))
	assert.Less(t, gl[4], float32(0))
}

func TestCrossEntropyNoSmoothingMatchesNLL(t *testing.T) {
	b := newBackend()

	logits := raw(t, []float32{0, 0}, tensor.Shape{1, 2})
	targets, err := tensor.NewRaw(tensor.Shape{1}, tensor.Int32, tensor.CPU)
	require.NoError(t, err)
	targets.AsInt32()[0] = 0

	loss := b.CrossEntropy(logits, targets, 0)
	// Uniform logits over 2 classes: loss = ln 2.
	assert.InDelta(t, 0.6931, float64(loss.AsFloat32()[0]), 1e-3)
}

func TestStopRecordingPausesCapture(t *testing.T) {
	b := newBackend()
	b.Tape().StartRecording()
	defer b.Tape().Clear()

	x := raw(t, []float32{1}, tensor.Shape{1})
	b.AddScalar(x, float32(1))
	require.Equal(t, 1, b.Tape().NumOperations())

	b.Tape().StopRecording()
	b.AddScalar(x, float32(1))
	assert.Equal(t, 1, b.Tape().NumOperations())

	b.Tape().StartRecording()
	b.AddScalar(x, float32(1))
	assert.Equal(t, 2, b.Tape().NumOperations())
}

func TestClearResetsTape(t *testing.T) {
	b := newBackend()
	b.Tape().StartRecording()

	x := raw(t, []float32{1, 2}, tensor.Shape{2})
	b.MulScalar(x, float32(2))
	require.Equal(t, 1, b.Tape().NumOperations())

	b.Tape().Clear()
	assert.Equal(t, 0, b.Tape().NumOperations())
	assert.True(t, b.Tape().IsRecording())
}

func TestRecordingDisablesInplaceReuse(t *testing.T) {
	b := newBackend()
	b.Tape().StartRecording()
	defer b.Tape().Clear()

	x := raw(t, []float32{1, 2}, tensor.Shape{2})
	out := b.MulScalar(x, float32(10))

	// The input buffer must survive the op untouched for backward.
	assert.Equal(t, []float32{1, 2}, x.AsFloat32())
	assert.Equal(t, []float32{10, 20}, out.AsFloat32())
}

func TestGradientAccumulationAcrossConsumers(t *testing.T) {
	b := newBackend()
	b.Tape().StartRecording()
	defer b.Tape().Clear()

	// out = x*x: x feeds both sides, gradients sum to 2x.
	x := raw(t, []float32{3, 4}, tensor.Shape{2})
	out := b.Mul(x, x)

	grads := b.Tape().Backward(onesGrad(t, out.Shape()))
	assert.InDeltaSlice(t, []float32{6, 8}, grads[x].AsFloat32(), 1e-6)
}

func TestNumericalGradientCheck(t *testing.T) {
	// Compare the recorded gradient of sum(tanh(x W)) against central
	// differences.
	eps := float64(1e-3)
	xData := []float32{0.3, -0.2, 0.5, 0.1, -0.4, 0.2}
	wData := []float32{0.5, -0.3, 0.2, 0.7, -0.1, 0.4}

	forward := func(x, w []float32) float64 {
		b := cpu.New()
		xr := rawFrom(x, tensor.Shape{2, 3})
		wr := rawFrom(w, tensor.Shape{3, 2})
		out := b.Tanh(b.MatMul(xr, wr))
		var sum float64
		for _, v := range out.AsFloat32() {
			sum += float64(v)
		}
		return sum
	}

	b := newBackend()
	b.Tape().StartRecording()
	defer b.Tape().Clear()

	x := raw(t, xData, tensor.Shape{2, 3})
	w := raw(t, wData, tensor.Shape{3, 2})
	out := b.Tanh(b.MatMul(x, w))
	grads := b.Tape().Backward(onesGrad(t, out.Shape()))

	gw := grads[w].AsFloat32()
	for i := range wData {
		plus := append([]float32(nil), wData...)
		minus := append([]float32(nil), wData...)
		plus[i] += float32(eps)
		minus[i] -= float32(eps)
		numeric := (forward(xData, plus) - forward(xData, minus)) / (2 * eps)
		assert.InDelta(t, numeric, float64(gw[i]), 1e-2, "weight %d", i)
	}
}

func rawFrom(data []float32, shape tensor.Shape) *tensor.RawTensor {
	r, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
	if err != nil {
		panic(err)
	}
	copy(r.AsFloat32(), data)
	return r
}
