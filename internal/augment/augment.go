// Package augment implements the image preprocessing pipeline: dataset
// normalization plus the random flip, rotation, contrast and zoom
// perturbations applied during training.
//
// Images are flat float32 slices in [H, W, C] row-major order. The
// deterministic transforms are exported separately from their random
// wrappers so they can be tested with fixed parameters.
package augment

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// FlipHorizontal mirrors the image left-right in place.
func FlipHorizontal(img []float32, h, w, c int) {
	for y := 0; y < h; y++ {
		row := img[y*w*c : (y+1)*w*c]
		for x := 0; x < w/2; x++ {
			mirror := w - 1 - x
			for ch := 0; ch < c; ch++ {
				row[x*c+ch], row[mirror*c+ch] = row[mirror*c+ch], row[x*c+ch]
			}
		}
	}
}

// bilinear samples channel ch at fractional coordinates, clamping to the
// image edges.
func bilinear(img []float32, h, w, c int, fy, fx float64, ch int) float32 {
	clamp := func(v, lo, hi int) int {
		if v < lo {
			return lo
		}
		if v > hi {
			return hi
		}
		return v
	}

	y0 := int(math.Floor(fy))
	x0 := int(math.Floor(fx))
	dy := float32(fy - float64(y0))
	dx := float32(fx - float64(x0))

	y1 := clamp(y0+1, 0, h-1)
	x1 := clamp(x0+1, 0, w-1)
	y0 = clamp(y0, 0, h-1)
	x0 = clamp(x0, 0, w-1)

	at := func(y, x int) float32 { return img[(y*w+x)*c+ch] }

	top := at(y0, x0)*(1-dx) + at(y0, x1)*dx
	bot := at(y1, x0)*(1-dx) + at(y1, x1)*dx
	return top*(1-dy) + bot*dy
}

// Rotate resamples the image rotated by angle radians about its center.
func Rotate(img []float32, h, w, c int, angle float64) []float32 {
	out := make([]float32, len(img))
	cy, cx := float64(h-1)/2, float64(w-1)/2
	sin, cos := math.Sincos(-angle)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			ry, rx := float64(y)-cy, float64(x)-cx
			sy := cy + ry*cos - rx*sin
			sx := cx + ry*sin + rx*cos
			for ch := 0; ch < c; ch++ {
				out[(y*w+x)*c+ch] = bilinear(img, h, w, c, sy, sx, ch)
			}
		}
	}
	return out
}

// Zoom resamples the image scaled by factor about its center. factor > 1
// zooms in, factor < 1 zooms out with edge pixels extended.
func Zoom(img []float32, h, w, c int, factor float64) []float32 {
	if factor <= 0 {
		panic(fmt.Sprintf("zoom: factor %v must be positive", factor))
	}
	out := make([]float32, len(img))
	cy, cx := float64(h-1)/2, float64(w-1)/2

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sy := cy + (float64(y)-cy)/factor
			sx := cx + (float64(x)-cx)/factor
			for ch := 0; ch < c; ch++ {
				out[(y*w+x)*c+ch] = bilinear(img, h, w, c, sy, sx, ch)
			}
		}
	}
	return out
}

// AdjustContrast scales each channel's deviation from its mean in place.
func AdjustContrast(img []float32, h, w, c int, factor float64) {
	pixels := h * w
	for ch := 0; ch < c; ch++ {
		var mean float64
		for p := 0; p < pixels; p++ {
			mean += float64(img[p*c+ch])
		}
		mean /= float64(pixels)
		for p := 0; p < pixels; p++ {
			v := float64(img[p*c+ch])
			img[p*c+ch] = float32(mean + (v-mean)*factor)
		}
	}
}

// Normalization standardizes pixels with per-channel statistics computed
// from the training set.
type Normalization struct {
	Mean []float64
	Std  []float64
}

// Adapt estimates per-channel mean and standard deviation from the given
// images. Large datasets are strided down to cap the sample size.
func (n *Normalization) Adapt(images [][]float32, channels int) {
	if len(images) == 0 {
		panic("normalization: adapt on empty dataset")
	}

	const maxSamplesPerChannel = 1 << 20
	total := 0
	for _, img := range images {
		total += len(img) / channels
	}
	stride := total/maxSamplesPerChannel + 1

	n.Mean = make([]float64, channels)
	n.Std = make([]float64, channels)

	samples := make([]float64, 0, total/stride+1)
	for ch := 0; ch < channels; ch++ {
		samples = samples[:0]
		seen := 0
		for _, img := range images {
			for p := ch; p < len(img); p += channels {
				if seen%stride == 0 {
					samples = append(samples, float64(img[p]))
				}
				seen++
			}
		}
		mean, std := stat.MeanStdDev(samples, nil)
		if std == 0 {
			std = 1
		}
		n.Mean[ch] = mean
		n.Std[ch] = std
	}
}

// Apply standardizes an image in place.
func (n *Normalization) Apply(img []float32) {
	channels := len(n.Mean)
	if channels == 0 {
		panic("normalization: apply before adapt")
	}
	for p := 0; p < len(img); p += channels {
		for ch := 0; ch < channels; ch++ {
			img[p+ch] = float32((float64(img[p+ch]) - n.Mean[ch]) / n.Std[ch])
		}
	}
}
