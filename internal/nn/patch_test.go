package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eanet-ml/eanet/internal/tensor"
)

func TestPatchCount(t *testing.T) {
	pe := PatchExtract{PatchSize: 2}
	assert.Equal(t, 256, pe.NumPatches(32, 32))

	pe = PatchExtract{PatchSize: 4}
	assert.Equal(t, 64, pe.NumPatches(32, 32))
}

func TestPatchesShape(t *testing.T) {
	b := newTestBackend()
	pe := PatchExtract{PatchSize: 2}

	images := tensor.Zeros[float32](tensor.Shape{3, 32, 32, 3}, b)
	patches := Patches(pe, images)
	assert.Equal(t, tensor.Shape{3, 256, 12}, patches.Shape())
}

func TestPatchesContent(t *testing.T) {
	b := newTestBackend()
	pe := PatchExtract{PatchSize: 2}

	// 4x4 single-channel image numbered row-major.
	images, err := tensor.FromSlice([]float32{
		0, 1, 2, 3,
		4, 5, 6, 7,
		8, 9, 10, 11,
		12, 13, 14, 15,
	}, tensor.Shape{1, 4, 4, 1}, b)
	require.NoError(t, err)

	patches := Patches(pe, images)
	require.Equal(t, tensor.Shape{1, 4, 4}, patches.Shape())

	// Patches in row-major grid order, pixels row-major within the patch.
	assert.Equal(t, []float32{
		0, 1, 4, 5,
		2, 3, 6, 7,
		8, 9, 12, 13,
		10, 11, 14, 15,
	}, patches.Data())
}

func TestPatchRoundTrip(t *testing.T) {
	b := newTestBackend()
	pe := PatchExtract{PatchSize: 2}

	data := make([]float32, 2*8*8*3)
	for i := range data {
		data[i] = float32(i)
	}
	images, err := tensor.FromSlice(data, tensor.Shape{2, 8, 8, 3}, b)
	require.NoError(t, err)

	patches := Patches(pe, images)
	restored := PatchesToImages(pe, patches, 8, 8, 3)

	require.Equal(t, images.Shape(), restored.Shape())
	assert.Equal(t, data, restored.Data())
}

func TestPatchesIndivisiblePanics(t *testing.T) {
	b := newTestBackend()
	pe := PatchExtract{PatchSize: 5}

	images := tensor.Zeros[float32](tensor.Shape{1, 32, 32, 3}, b)
	assert.Panics(t, func() { Patches(pe, images) })
}
