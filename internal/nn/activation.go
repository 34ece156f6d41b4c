package nn

import (
	"math"

	"github.com/eanet-ml/eanet/internal/tensor"
)

var sqrt2OverPi = float32(math.Sqrt(2.0 / math.Pi))

// GELU applies the Gaussian error linear unit using the tanh
// approximation: 0.5 x (1 + tanh(sqrt(2/pi) (x + 0.044715 x^3))).
//
// Built entirely from backend primitives so the gradient falls out of the
// tape without a dedicated backward rule.
func GELU[B tensor.Backend](x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	cube := x.Clone().Mul(x).Mul(x)
	inner := cube.MulScalar(0.044715).Add(x).MulScalar(sqrt2OverPi)
	gate := inner.Tanh().AddScalar(1)
	return gate.Mul(x).MulScalar(0.5)
}
