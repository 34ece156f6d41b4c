// Command eanet trains the external attention transformer on CIFAR-100
// and reports test-set accuracy.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"

	"github.com/eanet-ml/eanet/internal/augment"
	"github.com/eanet-ml/eanet/internal/autodiff"
	"github.com/eanet-ml/eanet/internal/backend/cpu"
	"github.com/eanet-ml/eanet/internal/dataset/cifar"
	"github.com/eanet-ml/eanet/internal/nn"
	"github.com/eanet-ml/eanet/internal/optim"
	"github.com/eanet-ml/eanet/internal/train"
)

func main() {
	var (
		dataDir     = flag.String("data", "data/cifar-100-binary", "directory containing train.bin and test.bin")
		epochs      = flag.Int("epochs", 50, "training epochs")
		batchSize   = flag.Int("batch-size", 128, "batch size")
		lr          = flag.Float64("lr", 1e-3, "learning rate")
		weightDecay = flag.Float64("weight-decay", 1e-4, "decoupled weight decay")
		smoothing   = flag.Float64("label-smoothing", 0.1, "cross-entropy label smoothing")
		valSplit    = flag.Float64("val-split", 0.2, "fraction of the training set held out for validation")
		variant     = flag.String("attention", string(nn.AttentionExternal), "attention variant: external_attention or self_attention")
		seed        = flag.Int64("seed", 42, "seed for weights, shuffling and augmentation")
		synthetic   = flag.Int("synthetic", 0, "train on N synthetic images instead of CIFAR-100 (smoke test)")
		historyCSV  = flag.String("history-csv", "", "write per-epoch metrics to this CSV file")
		historyPlot = flag.String("history-plot", "", "render loss/accuracy curves to this image file")
	)
	flag.Parse()

	if err := run(*dataDir, *epochs, *batchSize, *lr, *weightDecay, *smoothing, *valSplit,
		nn.AttentionVariant(*variant), *seed, *synthetic, *historyCSV, *historyPlot); err != nil {
		fmt.Fprintf(os.Stderr, "eanet: %v\n", err)
		os.Exit(1)
	}
}

func run(dataDir string, epochs, batchSize int, lr, weightDecay, smoothing, valSplit float64,
	variant nn.AttentionVariant, seed int64, synthetic int, historyCSV, historyPlot string) error {

	rng := rand.New(rand.NewSource(seed))
	backend := autodiff.New(cpu.New())

	var trainFull, testSet *cifar.Dataset
	if synthetic > 0 {
		fmt.Printf("using %d synthetic images\n", synthetic)
		trainFull = cifar.Synthetic(synthetic, rng)
		testSet = cifar.Synthetic(synthetic/5+1, rng)
	} else {
		var err error
		if trainFull, err = cifar.LoadTrain(dataDir); err != nil {
			return err
		}
		if testSet, err = cifar.LoadTest(dataDir); err != nil {
			return err
		}
	}
	trainSet, valSet := trainFull.Split(valSplit)
	fmt.Printf("train: %d  val: %d  test: %d\n", trainSet.Len(), valSet.Len(), testSet.Len())

	modelCfg := nn.DefaultEANetConfig()
	modelCfg.Variant = variant
	modelCfg.Validate()
	model := nn.NewEANet(modelCfg, rng, backend)
	fmt.Printf("model: %s, %d patches, %d parameters\n",
		variant, modelCfg.NumPatches(), model.NumParameters())

	var norm augment.Normalization
	norm.Adapt(trainSet.Images, cifar.Channels)
	pipeline := augment.NewPipeline(&norm, augment.DefaultConfig(),
		cifar.Height, cifar.Width, cifar.Channels, rng)

	optCfg := optim.DefaultAdamWConfig()
	optCfg.LR = lr
	optCfg.WeightDecay = weightDecay
	optimizer := optim.NewAdamW(model.Parameters(), optCfg)

	trainCfg := train.DefaultConfig()
	trainCfg.Epochs = epochs
	trainCfg.BatchSize = batchSize
	trainCfg.LabelSmoothing = smoothing

	trainer := train.New(backend, model, optimizer, pipeline, trainCfg, rng)
	history := trainer.Fit(trainSet, valSet)

	testLoss, testTop1, testTop5 := trainer.Evaluate(testSet)
	fmt.Printf("test: loss=%.4f top1=%.2f%% top5=%.2f%%\n",
		testLoss, testTop1*100, testTop5*100)

	if historyCSV != "" {
		f, err := os.Create(historyCSV)
		if err != nil {
			return fmt.Errorf("create %s: %w", historyCSV, err)
		}
		defer f.Close()
		if err := history.WriteCSV(f); err != nil {
			return err
		}
		fmt.Printf("history written to %s\n", historyCSV)
	}
	if historyPlot != "" {
		if err := history.SavePlot(historyPlot); err != nil {
			return err
		}
		fmt.Printf("curves written to %s\n", historyPlot)
	}
	return nil
}
