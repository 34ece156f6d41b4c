package parallel_test

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eanet-ml/eanet/internal/parallel"
)

func TestForCoversAllIndices(t *testing.T) {
	cfg := parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 8}

	const n = 1000
	var hits [n]atomic.Int32
	parallel.For(n, func(i int) {
		hits[i].Add(1)
	}, cfg)

	for i := range hits {
		assert.Equal(t, int32(1), hits[i].Load(), "index %d", i)
	}
}

func TestForSequentialFallback(t *testing.T) {
	cfg := parallel.Config{Enabled: false}

	order := make([]int, 0, 10)
	parallel.For(10, func(i int) {
		order = append(order, i)
	}, cfg)

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, order)
}

func TestForSmallNStaysSequential(t *testing.T) {
	cfg := parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 64}

	// n below MinChunkSize runs on the calling goroutine, so an unsynchronized
	// slice append is safe here.
	order := make([]int, 0, 5)
	parallel.For(5, func(i int) {
		order = append(order, i)
	}, cfg)

	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestForRows(t *testing.T) {
	cfg := parallel.Config{Enabled: true, NumWorkers: 2, MinChunkSize: 1}

	const batches, rows = 3, 4
	var hits [batches][rows]atomic.Int32
	parallel.ForRows(batches, rows, func(batch, row int) {
		hits[batch][row].Add(1)
	}, cfg)

	for b := range hits {
		for r := range hits[b] {
			assert.Equal(t, int32(1), hits[b][r].Load(), "batch %d row %d", b, r)
		}
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := parallel.DefaultConfig()
	assert.Greater(t, cfg.NumWorkers, 0)
	assert.GreaterOrEqual(t, cfg.MinChunkSize, 64)
}

func TestForZeroN(t *testing.T) {
	called := false
	parallel.For(0, func(int) { called = true }, parallel.DefaultConfig())
	assert.False(t, called)
}
