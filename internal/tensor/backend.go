package tensor

// Backend defines the interface that all compute backends must implement.
// Backends handle the actual computation for tensor operations.
//
// The op surface is scoped to what the EANet model reaches: dense projections,
// batched attention matmuls, axis softmax, the reductions used by LayerNorm
// and the double-normalization, and the embedding lookup of the positional
// table. An accelerator backend would implement the same interface.
type Backend interface {
	// Element-wise binary operations with NumPy-style broadcasting.
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// Matrix operations.
	// MatMul: (M, K) @ (K, N) -> (M, N).
	// BatchMatMul: leading dimensions are batch dims, e.g.
	// [B, H, M, K] @ [B, H, K, N] -> [B, H, M, N].
	MatMul(a, b *RawTensor) *RawTensor
	BatchMatMul(a, b *RawTensor) *RawTensor

	// Shape operations.
	Reshape(t *RawTensor, newShape Shape) *RawTensor
	Transpose(t *RawTensor, axes ...int) *RawTensor

	// Scalar operations (element-wise with a scalar operand).
	MulScalar(x *RawTensor, scalar any) *RawTensor
	AddScalar(x *RawTensor, scalar any) *RawTensor
	SubScalar(x *RawTensor, scalar any) *RawTensor
	DivScalar(x *RawTensor, scalar any) *RawTensor

	// Math operations (element-wise).
	Exp(x *RawTensor) *RawTensor
	Sqrt(x *RawTensor) *RawTensor
	Rsqrt(x *RawTensor) *RawTensor
	Tanh(x *RawTensor) *RawTensor

	// Softmax along an arbitrary dimension (negative indexing supported).
	// External attention normalizes over the patch axis, not the last one.
	Softmax(x *RawTensor, dim int) *RawTensor

	// Reduction operations.
	SumDim(x *RawTensor, dim int, keepDim bool) *RawTensor
	MeanDim(x *RawTensor, dim int, keepDim bool) *RawTensor
	Argmax(x *RawTensor, dim int) *RawTensor

	// Embedding looks up rows of weight [numEmbeddings, dim] by an int32
	// index tensor, producing indices.Shape() + [dim].
	Embedding(weight, indices *RawTensor) *RawTensor

	// Metadata.
	Name() string
	Device() Device
}
