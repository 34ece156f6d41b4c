package autodiff

import (
	"fmt"

	"github.com/eanet-ml/eanet/internal/autodiff/ops"
	"github.com/eanet-ml/eanet/internal/tensor"
)

// GradientTape records operations during the forward pass and replays them
// in reverse to compute gradients.
//
// While an operation is on the tape, every tensor it references is forced
// non-unique so the backend cannot reuse its buffer in-place. Clear
// releases those holds.
type GradientTape struct {
	recording  bool
	operations []ops.Operation
	restores   []func()
}

// NewGradientTape returns an empty, non-recording tape.
func NewGradientTape() *GradientTape {
	return &GradientTape{}
}

// StartRecording begins capturing operations.
func (t *GradientTape) StartRecording() {
	t.recording = true
}

// StopRecording pauses capture without discarding recorded operations.
// Useful for validation passes in the middle of training.
func (t *GradientTape) StopRecording() {
	t.recording = false
}

// IsRecording reports whether operations are currently being captured.
func (t *GradientTape) IsRecording() bool {
	return t.recording
}

// Record appends an operation to the tape.
func (t *GradientTape) Record(op ops.Operation) {
	t.operations = append(t.operations, op)
}

// NumOperations returns the count of recorded operations.
func (t *GradientTape) NumOperations() int {
	return len(t.operations)
}

// guard pins tensors against in-place reuse for the lifetime of the tape.
func (t *GradientTape) guard(tensors ...*tensor.RawTensor) {
	for _, raw := range tensors {
		t.restores = append(t.restores, raw.ForceNonUnique())
	}
}

// Backward walks the tape in reverse from the tensor that outputGrad
// differentiates, accumulating gradients for every tensor reached.
// Gradients from multiple consumers of the same tensor are summed.
func (t *GradientTape) Backward(outputGrad *tensor.RawTensor) map[*tensor.RawTensor]*tensor.RawTensor {
	if len(t.operations) == 0 {
		panic("autodiff: backward on an empty tape")
	}

	grads := make(map[*tensor.RawTensor]*tensor.RawTensor)
	last := t.operations[len(t.operations)-1]
	if !last.Output().Shape().Equal(outputGrad.Shape()) {
		panic(fmt.Sprintf("autodiff: output gradient shape %v does not match final output %v",
			outputGrad.Shape(), last.Output().Shape()))
	}
	grads[last.Output()] = outputGrad.Clone()

	for i := len(t.operations) - 1; i >= 0; i-- {
		op := t.operations[i]
		outGrad, ok := grads[op.Output()]
		if !ok {
			continue
		}
		inputGrads := op.Backward(outGrad)
		inputs := op.Inputs()
		if len(inputGrads) != len(inputs) {
			panic(fmt.Sprintf("autodiff: %s returned %d gradients for %d inputs",
				op.Name(), len(inputGrads), len(inputs)))
		}
		for j, in := range inputs {
			g := inputGrads[j]
			if g == nil {
				continue
			}
			if existing, ok := grads[in]; ok {
				ops.Accumulate(existing, g)
			} else {
				grads[in] = g
			}
		}
	}
	return grads
}

// Clear drops all recorded operations and releases the in-place holds.
// Recording state is preserved.
func (t *GradientTape) Clear() {
	for _, restore := range t.restores {
		restore()
	}
	t.restores = t.restores[:0]
	t.operations = t.operations[:0]
}
