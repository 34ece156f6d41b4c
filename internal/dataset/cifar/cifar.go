// Package cifar loads the CIFAR-100 binary distribution and slices it
// into shuffled training batches.
package cifar

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const (
	// Width and Height are the CIFAR image dimensions.
	Width  = 32
	Height = 32
	// Channels is the RGB channel count.
	Channels = 3
	// NumClasses is the number of fine labels.
	NumClasses = 100
	// NumCoarseClasses is the number of superclass labels.
	NumCoarseClasses = 20

	// TrainFile and TestFile are the binary-version file names.
	TrainFile = "train.bin"
	TestFile  = "test.bin"

	numTrain = 50000
	numTest  = 10000

	pixelsPerImage = Width * Height
	imageBytes     = pixelsPerImage * Channels
	recordBytes    = 2 + imageBytes
)

// Dataset is an in-memory image set. Images are flat [H, W, C] float32
// slices with raw 0..255 pixel values; normalization happens in the
// augmentation pipeline.
type Dataset struct {
	Images [][]float32
	Labels []int32
	Coarse []int32
}

// Len returns the number of examples.
func (d *Dataset) Len() int {
	return len(d.Images)
}

// LoadTrain reads train.bin from dir.
func LoadTrain(dir string) (*Dataset, error) {
	return load(filepath.Join(dir, TrainFile), numTrain)
}

// LoadTest reads test.bin from dir.
func LoadTest(dir string) (*Dataset, error) {
	return load(filepath.Join(dir, TestFile), numTest)
}

func load(path string, expected int) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("cifar: %s not found (download the CIFAR-100 binary version and point --data at its directory): %w", path, err)
		}
		return nil, fmt.Errorf("cifar: open %s: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("cifar: read %s: %w", path, err)
	}
	return Parse(data, expected, path)
}

// Parse decodes CIFAR-100 binary records: one coarse label byte, one fine
// label byte, then 3072 bytes of channel-planar RGB pixels.
func Parse(data []byte, expected int, source string) (*Dataset, error) {
	if len(data) != expected*recordBytes {
		return nil, fmt.Errorf("cifar: %s has %d bytes, want %d (%d records of %d bytes)",
			source, len(data), expected*recordBytes, expected, recordBytes)
	}

	ds := &Dataset{
		Images: make([][]float32, expected),
		Labels: make([]int32, expected),
		Coarse: make([]int32, expected),
	}

	for i := 0; i < expected; i++ {
		record := data[i*recordBytes : (i+1)*recordBytes]
		coarse, fine := record[0], record[1]
		if fine >= NumClasses || coarse >= NumCoarseClasses {
			return nil, fmt.Errorf("cifar: %s record %d has labels coarse=%d fine=%d out of range",
				source, i, coarse, fine)
		}
		ds.Coarse[i] = int32(coarse)
		ds.Labels[i] = int32(fine)

		// Planar RGB to interleaved HWC.
		pixels := record[2:]
		img := make([]float32, imageBytes)
		for p := 0; p < pixelsPerImage; p++ {
			for ch := 0; ch < Channels; ch++ {
				img[p*Channels+ch] = float32(pixels[ch*pixelsPerImage+p])
			}
		}
		ds.Images[i] = img
	}
	return ds, nil
}

// Split carves off the last fraction of the dataset as a validation set,
// mirroring a framework-style validation_split. The split is positional;
// shuffle the dataset first if ordering matters.
func (d *Dataset) Split(valFraction float64) (train, val *Dataset) {
	if valFraction < 0 || valFraction >= 1 {
		panic(fmt.Sprintf("cifar: validation fraction %v out of [0, 1)", valFraction))
	}
	cut := d.Len() - int(float64(d.Len())*valFraction)
	train = &Dataset{Images: d.Images[:cut], Labels: d.Labels[:cut], Coarse: d.Coarse[:cut]}
	val = &Dataset{Images: d.Images[cut:], Labels: d.Labels[cut:], Coarse: d.Coarse[cut:]}
	return train, val
}
