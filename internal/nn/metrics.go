package nn

import (
	"fmt"
	"sort"

	"github.com/eanet-ml/eanet/internal/tensor"
)

// Accuracy returns the fraction of rows whose argmax matches the target.
func Accuracy[B tensor.Backend](logits *tensor.Tensor[float32, B], targets []int32) float64 {
	return TopKAccuracy(logits, targets, 1)
}

// TopKAccuracy returns the fraction of rows whose target appears among the
// k highest logits.
func TopKAccuracy[B tensor.Backend](logits *tensor.Tensor[float32, B], targets []int32, k int) float64 {
	shape := logits.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("top-k accuracy: expected [batch, classes], got %v", shape))
	}
	batch, classes := shape[0], shape[1]
	if len(targets) != batch {
		panic(fmt.Sprintf("top-k accuracy: %d targets for batch %d", len(targets), batch))
	}
	if k <= 0 || k > classes {
		panic(fmt.Sprintf("top-k accuracy: k=%d out of [1, %d]", k, classes))
	}

	data := logits.Data()
	correct := 0
	idx := make([]int, classes)
	for i := 0; i < batch; i++ {
		row := data[i*classes : (i+1)*classes]
		for c := range idx {
			idx[c] = c
		}
		sort.Slice(idx, func(a, b int) bool { return row[idx[a]] > row[idx[b]] })
		for _, c := range idx[:k] {
			if int32(c) == targets[i] {
				correct++
				break
			}
		}
	}
	return float64(correct) / float64(batch)
}
