package nn

import (
	"fmt"
	"math"

	"github.com/eanet-ml/eanet/internal/tensor"
)

// CrossEntropyLoss computes the mean label-smoothed cross-entropy of
// logits [batch, classes] against integer class targets, without touching
// the gradient tape. The training path uses the backend's fused op; this
// is the evaluation-side mirror.
func CrossEntropyLoss[B tensor.Backend](logits *tensor.Tensor[float32, B], targets []int32, smoothing float64) float32 {
	shape := logits.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("cross entropy loss: expected [batch, classes], got %v", shape))
	}
	batch, classes := shape[0], shape[1]
	if len(targets) != batch {
		panic(fmt.Sprintf("cross entropy loss: %d targets for batch %d", len(targets), batch))
	}

	probs := logits.Softmax(-1).Data()
	off := smoothing / float64(classes)
	on := 1 - smoothing + off

	var total float64
	for i := 0; i < batch; i++ {
		t := int(targets[i])
		if t < 0 || t >= classes {
			panic(fmt.Sprintf("cross entropy loss: target %d out of range [0, %d)", t, classes))
		}
		base := i * classes
		for c := 0; c < classes; c++ {
			y := off
			if c == t {
				y = on
			}
			total -= y * math.Log(float64(probs[base+c])+1e-12)
		}
	}
	return float32(total / float64(batch))
}
