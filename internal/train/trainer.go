// Package train drives the fit/evaluate loop: batching, augmentation,
// the forward and backward passes, optimizer steps, and metric tracking.
package train

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/eanet-ml/eanet/internal/augment"
	"github.com/eanet-ml/eanet/internal/autodiff"
	"github.com/eanet-ml/eanet/internal/dataset/cifar"
	"github.com/eanet-ml/eanet/internal/nn"
	"github.com/eanet-ml/eanet/internal/optim"
	"github.com/eanet-ml/eanet/internal/tensor"
)

// Config holds the training-loop hyperparameters.
type Config struct {
	Epochs         int
	BatchSize      int
	LabelSmoothing float64

	// Quiet suppresses the per-epoch progress lines.
	Quiet bool
}

// DefaultConfig matches the CIFAR-100 recipe: 50 epochs, batch 128,
// smoothing 0.1.
func DefaultConfig() Config {
	return Config{
		Epochs:         50,
		BatchSize:      128,
		LabelSmoothing: 0.1,
	}
}

// Trainer wires a model, optimizer and augmentation pipeline to a
// tape-carrying backend.
type Trainer[B tensor.Backend] struct {
	backend   *autodiff.AutodiffBackend[B]
	model     *nn.EANet[*autodiff.AutodiffBackend[B]]
	optimizer optim.Optimizer[*autodiff.AutodiffBackend[B]]
	pipeline  *augment.Pipeline
	cfg       Config
	rng       *rand.Rand
}

// New assembles a trainer. rng drives batch shuffling; the pipeline
// carries its own source.
func New[B tensor.Backend](
	backend *autodiff.AutodiffBackend[B],
	model *nn.EANet[*autodiff.AutodiffBackend[B]],
	optimizer optim.Optimizer[*autodiff.AutodiffBackend[B]],
	pipeline *augment.Pipeline,
	cfg Config,
	rng *rand.Rand,
) *Trainer[B] {
	if cfg.Epochs <= 0 || cfg.BatchSize <= 0 {
		panic(fmt.Sprintf("train: invalid config %+v", cfg))
	}
	return &Trainer[B]{
		backend:   backend,
		model:     model,
		optimizer: optimizer,
		pipeline:  pipeline,
		cfg:       cfg,
		rng:       rng,
	}
}

// Fit trains on trainSet and evaluates on valSet after every epoch.
func (t *Trainer[B]) Fit(trainSet, valSet *cifar.Dataset) *History {
	history := NewHistory()
	batches := cifar.NewBatches(trainSet.Len(), t.cfg.BatchSize, true, t.rng)

	for epoch := 1; epoch <= t.cfg.Epochs; epoch++ {
		start := time.Now()
		trainLoss, trainAcc := t.trainEpoch(trainSet, batches)
		valLoss, valAcc, valTop5 := t.Evaluate(valSet)

		history.Append(EpochStats{
			Epoch:     epoch,
			TrainLoss: trainLoss,
			TrainAcc:  trainAcc,
			ValLoss:   valLoss,
			ValAcc:    valAcc,
			ValTop5:   valTop5,
		})

		if !t.cfg.Quiet {
			fmt.Printf("epoch %d/%d: loss=%.4f acc=%.2f%% val_loss=%.4f val_acc=%.2f%% val_top5=%.2f%% (%.1fs)\n",
				epoch, t.cfg.Epochs, trainLoss, trainAcc*100, valLoss, valAcc*100, valTop5*100,
				time.Since(start).Seconds())
		}
	}
	return history
}

func (t *Trainer[B]) trainEpoch(ds *cifar.Dataset, batches *cifar.Batches) (loss, acc float64) {
	t.model.SetTraining(true)
	t.pipeline.SetTraining(true)
	t.backend.Tape().StartRecording()
	defer t.backend.Tape().StopRecording()

	var totalLoss, correct float64
	seen := 0

	batches.Reset()
	for {
		idx, ok := batches.Next()
		if !ok {
			break
		}
		images, labels := t.batchTensors(ds, idx)

		logits := t.model.Forward(images)
		lossT := t.backend.CrossEntropy(logits.Raw(), labels.Raw(), t.cfg.LabelSmoothing)

		grads := t.backend.Tape().Backward(onesLike(lossT))
		t.optimizer.Step(grads)
		t.backend.Tape().Clear()

		totalLoss += float64(lossT.AsFloat32()[0]) * float64(len(idx))
		correct += nn.Accuracy(logits, labels.Data()) * float64(len(idx))
		seen += len(idx)
	}
	return totalLoss / float64(seen), correct / float64(seen)
}

// Evaluate runs the model over a dataset without recording gradients,
// returning mean loss, top-1 and top-5 accuracy.
func (t *Trainer[B]) Evaluate(ds *cifar.Dataset) (loss, top1, top5 float64) {
	t.model.SetTraining(false)
	t.pipeline.SetTraining(false)

	recording := t.backend.Tape().IsRecording()
	t.backend.Tape().StopRecording()
	defer func() {
		if recording {
			t.backend.Tape().StartRecording()
		}
	}()

	var totalLoss, correct1, correct5 float64
	seen := 0

	batches := cifar.NewBatches(ds.Len(), t.cfg.BatchSize, false, nil)
	for {
		idx, ok := batches.Next()
		if !ok {
			break
		}
		images, labels := t.batchTensors(ds, idx)
		logits := t.model.Forward(images)

		n := float64(len(idx))
		totalLoss += float64(nn.CrossEntropyLoss(logits, labels.Data(), t.cfg.LabelSmoothing)) * n
		correct1 += nn.Accuracy(logits, labels.Data()) * n
		correct5 += nn.TopKAccuracy(logits, labels.Data(), 5) * n
		seen += len(idx)
	}
	return totalLoss / float64(seen), correct1 / float64(seen), correct5 / float64(seen)
}

// batchTensors assembles the augmented image tensor and label tensor for
// a batch of dataset indices.
func (t *Trainer[B]) batchTensors(ds *cifar.Dataset, idx []int) (*tensor.Tensor[float32, *autodiff.AutodiffBackend[B]], *tensor.Tensor[int32, *autodiff.AutodiffBackend[B]]) {
	cfg := t.model.Config()
	imgLen := cfg.ImageSize * cfg.ImageSize * cfg.Channels

	images := tensor.Zeros[float32](tensor.Shape{len(idx), cfg.ImageSize, cfg.ImageSize, cfg.Channels}, t.backend)
	data := images.Data()
	for i, j := range idx {
		copy(data[i*imgLen:(i+1)*imgLen], t.pipeline.Apply(ds.Images[j]))
	}

	labels := tensor.Zeros[int32](tensor.Shape{len(idx)}, t.backend)
	labelData := labels.Data()
	for i, j := range idx {
		labelData[i] = ds.Labels[j]
	}
	return images, labels
}

func onesLike(t *tensor.RawTensor) *tensor.RawTensor {
	g, err := tensor.NewRaw(t.Shape(), t.DType(), t.Device())
	if err != nil {
		panic(fmt.Sprintf("train: %v", err))
	}
	for i := range g.AsFloat32() {
		g.AsFloat32()[i] = 1
	}
	return g
}
