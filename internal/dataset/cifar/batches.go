package cifar

import (
	"fmt"
	"math/rand"
)

// Batches iterates index batches over a dataset, reshuffling between
// epochs with the supplied source so runs are reproducible.
type Batches struct {
	indices   []int
	batchSize int
	pos       int
	shuffle   bool
	rng       *rand.Rand
}

// NewBatches creates an iterator over n examples. The final short batch
// is yielded as-is.
func NewBatches(n, batchSize int, shuffle bool, rng *rand.Rand) *Batches {
	if n <= 0 || batchSize <= 0 {
		panic(fmt.Sprintf("cifar: invalid batch setup n=%d batchSize=%d", n, batchSize))
	}
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	b := &Batches{indices: indices, batchSize: batchSize, shuffle: shuffle, rng: rng}
	b.Reset()
	return b
}

// Reset rewinds to the start of a new epoch, reshuffling if enabled.
func (b *Batches) Reset() {
	b.pos = 0
	if b.shuffle {
		b.rng.Shuffle(len(b.indices), func(i, j int) {
			b.indices[i], b.indices[j] = b.indices[j], b.indices[i]
		})
	}
}

// Next returns the next batch of indices, or false at the end of the
// epoch.
func (b *Batches) Next() ([]int, bool) {
	if b.pos >= len(b.indices) {
		return nil, false
	}
	end := b.pos + b.batchSize
	if end > len(b.indices) {
		end = len(b.indices)
	}
	batch := b.indices[b.pos:end]
	b.pos = end
	return batch, true
}

// NumBatches returns how many batches one epoch yields.
func (b *Batches) NumBatches() int {
	return (len(b.indices) + b.batchSize - 1) / b.batchSize
}
