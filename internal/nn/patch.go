package nn

import (
	"fmt"

	"github.com/eanet-ml/eanet/internal/tensor"
)

// PatchExtract slices images into non-overlapping square patches.
//
// [batch, H, W, C] becomes [batch, numPatches, patchSize*patchSize*C] in
// row-major patch order. Built from reshape and transpose so it is exactly
// invertible and differentiable.
type PatchExtract struct {
	PatchSize int
}

// NumPatches returns how many patches an HxW image yields.
func (pe PatchExtract) NumPatches(height, width int) int {
	return (height / pe.PatchSize) * (width / pe.PatchSize)
}

func (pe PatchExtract) validate(shape tensor.Shape) (batch, rows, cols, channels int) {
	if len(shape) != 4 {
		panic(fmt.Sprintf("patch extract: expected [batch, H, W, C], got %v", shape))
	}
	batch, height, width, channels := shape[0], shape[1], shape[2], shape[3]
	if height%pe.PatchSize != 0 || width%pe.PatchSize != 0 {
		panic(fmt.Sprintf("patch extract: image %dx%d not divisible by patch size %d",
			height, width, pe.PatchSize))
	}
	return batch, height / pe.PatchSize, width / pe.PatchSize, channels
}

// Forward extracts patches.
func Patches[B tensor.Backend](pe PatchExtract, images *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	batch, rows, cols, channels := pe.validate(images.Shape())
	p := pe.PatchSize

	grid := images.Reshape(batch, rows, p, cols, p, channels)
	ordered := grid.Transpose(0, 1, 3, 2, 4, 5)
	return ordered.Reshape(batch, rows*cols, p*p*channels)
}

// PatchesToImages reverses Patches, reassembling [batch, H, W, C].
func PatchesToImages[B tensor.Backend](pe PatchExtract, patches *tensor.Tensor[float32, B], height, width, channels int) *tensor.Tensor[float32, B] {
	shape := patches.Shape()
	if len(shape) != 3 {
		panic(fmt.Sprintf("patches to images: expected 3D patches, got %v", shape))
	}
	p := pe.PatchSize
	rows, cols := height/p, width/p
	if shape[1] != rows*cols || shape[2] != p*p*channels {
		panic(fmt.Sprintf("patches to images: shape %v does not match %dx%dx%d with patch %d",
			shape, height, width, channels, p))
	}

	grid := patches.Reshape(shape[0], rows, cols, p, p, channels)
	ordered := grid.Transpose(0, 1, 3, 2, 4, 5)
	return ordered.Reshape(shape[0], height, width, channels)
}
