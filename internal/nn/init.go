package nn

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/eanet-ml/eanet/internal/tensor"
)

// XavierUniform initializes a [fanIn, fanOut] weight matrix with the
// Glorot uniform distribution: U(-limit, limit), limit = sqrt(6/(in+out)).
func XavierUniform[B tensor.Backend](shape tensor.Shape, rng *rand.Rand, b B) *tensor.Tensor[float32, B] {
	if len(shape) != 2 {
		panic(fmt.Sprintf("xavier init: expected 2D shape, got %v", shape))
	}
	fanIn, fanOut := shape[0], shape[1]
	limit := float32(math.Sqrt(6.0 / float64(fanIn+fanOut)))

	t := tensor.Zeros[float32](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = (rng.Float32()*2 - 1) * limit
	}
	return t
}

// TruncatedNormal initializes a tensor with N(0, std) values resampled
// until they fall within two standard deviations. Used for the positional
// embedding table.
func TruncatedNormal[B tensor.Backend](shape tensor.Shape, std float64, rng *rand.Rand, b B) *tensor.Tensor[float32, B] {
	t := tensor.Zeros[float32](shape, b)
	data := t.Data()
	for i := range data {
		for {
			v := rng.NormFloat64() * std
			if math.Abs(v) <= 2*std {
				data[i] = float32(v)
				break
			}
		}
	}
	return t
}
