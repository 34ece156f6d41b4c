package train

import (
	"bytes"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eanet-ml/eanet/internal/augment"
	"github.com/eanet-ml/eanet/internal/autodiff"
	"github.com/eanet-ml/eanet/internal/backend/cpu"
	"github.com/eanet-ml/eanet/internal/dataset/cifar"
	"github.com/eanet-ml/eanet/internal/nn"
	"github.com/eanet-ml/eanet/internal/optim"
)

type Backend = *autodiff.AutodiffBackend[*cpu.CPUBackend]

func tinyTrainer(t *testing.T, epochs int) (*Trainer[*cpu.CPUBackend], *cifar.Dataset, *cifar.Dataset) {
	t.Helper()
	b := autodiff.New(cpu.New())
	rng := rand.New(rand.NewSource(11))

	cfg := nn.DefaultEANetConfig()
	cfg.NumBlocks = 1
	cfg.NumClasses = 10
	cfg.AttentionDropout = 0
	cfg.ProjectionDropout = 0
	model := nn.NewEANet[Backend](cfg, rng, b)

	ds := cifar.Synthetic(32, rng)
	for i := range ds.Labels {
		ds.Labels[i] %= 10
	}
	trainSet, valSet := ds.Split(0.25)

	var norm augment.Normalization
	norm.Adapt(trainSet.Images, cifar.Channels)
	pipeline := augment.NewPipeline(&norm, augment.Config{}, cifar.Height, cifar.Width, cifar.Channels, rng)

	optCfg := optim.DefaultAdamWConfig()
	optCfg.LR = 0.01
	optCfg.WeightDecay = 0
	opt := optim.NewAdamW(model.Parameters(), optCfg)
	trainCfg := Config{Epochs: epochs, BatchSize: 8, LabelSmoothing: 0.1, Quiet: true}
	return New(b, model, opt, pipeline, trainCfg, rng), trainSet, valSet
}

func TestFitRecordsHistory(t *testing.T) {
	trainer, trainSet, valSet := tinyTrainer(t, 2)

	history := trainer.Fit(trainSet, valSet)
	require.Len(t, history.Epochs, 2)

	for i, e := range history.Epochs {
		assert.Equal(t, i+1, e.Epoch)
		assert.Greater(t, e.TrainLoss, 0.0)
		assert.GreaterOrEqual(t, e.ValAcc, 0.0)
		assert.LessOrEqual(t, e.ValAcc, 1.0)
		assert.GreaterOrEqual(t, e.ValTop5, e.ValAcc)
	}
}

func TestFitReducesLossOnTinyData(t *testing.T) {
	trainer, trainSet, valSet := tinyTrainer(t, 4)

	history := trainer.Fit(trainSet, valSet)
	first := history.Epochs[0].TrainLoss
	last := history.Last().TrainLoss
	assert.Less(t, last, first)
}

func TestEvaluateIsDeterministic(t *testing.T) {
	trainer, _, valSet := tinyTrainer(t, 1)

	l1, a1, t1 := trainer.Evaluate(valSet)
	l2, a2, t2 := trainer.Evaluate(valSet)
	assert.Equal(t, l1, l2)
	assert.Equal(t, a1, a2)
	assert.Equal(t, t1, t2)
}

func TestHistoryCSV(t *testing.T) {
	h := NewHistory()
	h.Append(EpochStats{Epoch: 1, TrainLoss: 2.5, TrainAcc: 0.1, ValLoss: 2.6, ValAcc: 0.09, ValTop5: 0.4})
	h.Append(EpochStats{Epoch: 2, TrainLoss: 2.1, TrainAcc: 0.2, ValLoss: 2.3, ValAcc: 0.15, ValTop5: 0.5})

	var buf bytes.Buffer
	require.NoError(t, h.WriteCSV(&buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "epoch,train_loss,train_acc,val_loss,val_acc,val_top5", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "1,2.500000"))
}

func TestHistorySavePlot(t *testing.T) {
	h := NewHistory()
	h.Append(EpochStats{Epoch: 1, TrainLoss: 2.5, ValLoss: 2.6, TrainAcc: 0.1, ValAcc: 0.1})
	h.Append(EpochStats{Epoch: 2, TrainLoss: 2.0, ValLoss: 2.2, TrainAcc: 0.2, ValAcc: 0.18})

	path := filepath.Join(t.TempDir(), "history.png")
	require.NoError(t, h.SavePlot(path))
}

func TestHistorySavePlotEmptyFails(t *testing.T) {
	h := NewHistory()
	assert.Error(t, h.SavePlot(filepath.Join(t.TempDir(), "history.png")))
}

func TestHistoryLastPanicsWhenEmpty(t *testing.T) {
	assert.Panics(t, func() { NewHistory().Last() })
}
