package cifar

import "math/rand"

// Synthetic generates a random dataset with CIFAR geometry, used for
// smoke-testing the training loop without the real files. Each image's
// mean brightness correlates with its label so a model can actually learn
// something from it.
func Synthetic(n int, rng *rand.Rand) *Dataset {
	ds := &Dataset{
		Images: make([][]float32, n),
		Labels: make([]int32, n),
		Coarse: make([]int32, n),
	}
	for i := 0; i < n; i++ {
		label := int32(rng.Intn(NumClasses))
		ds.Labels[i] = label
		ds.Coarse[i] = label % NumCoarseClasses

		base := float32(label) * (255.0 / NumClasses)
		img := make([]float32, Width*Height*Channels)
		for p := range img {
			v := base + float32(rng.NormFloat64()*20)
			if v < 0 {
				v = 0
			} else if v > 255 {
				v = 255
			}
			img[p] = v
		}
		ds.Images[i] = img
	}
	return ds
}
