package augment

import (
	"fmt"
	"math"
	"math/rand"
)

// Config controls the random perturbation strengths, mirroring the
// training recipe: horizontal flip, rotation +-0.1 of a full turn,
// contrast +-0.1, zoom +-0.2.
type Config struct {
	Flip           bool
	RotationFactor float64
	ContrastFactor float64
	ZoomFactor     float64
}

// DefaultConfig returns the CIFAR-100 augmentation strengths.
func DefaultConfig() Config {
	return Config{
		Flip:           true,
		RotationFactor: 0.1,
		ContrastFactor: 0.1,
		ZoomFactor:     0.2,
	}
}

// Pipeline applies normalization always and the random perturbations only
// in training mode. All randomness draws from the supplied source, so a
// fixed seed reproduces the exact augmentation stream.
type Pipeline struct {
	norm     *Normalization
	cfg      Config
	rng      *rand.Rand
	training bool

	height   int
	width    int
	channels int
}

// NewPipeline builds a pipeline for images of the given geometry.
// norm must already be adapted.
func NewPipeline(norm *Normalization, cfg Config, height, width, channels int, rng *rand.Rand) *Pipeline {
	if cfg.RotationFactor < 0 || cfg.ContrastFactor < 0 || cfg.ZoomFactor < 0 || cfg.ZoomFactor >= 1 {
		panic(fmt.Sprintf("augment: invalid config %+v", cfg))
	}
	return &Pipeline{
		norm:     norm,
		cfg:      cfg,
		rng:      rng,
		height:   height,
		width:    width,
		channels: channels,
	}
}

// SetTraining toggles the random perturbations.
func (p *Pipeline) SetTraining(training bool) {
	p.training = training
}

// uniform returns a draw from [-factor, factor].
func (p *Pipeline) uniform(factor float64) float64 {
	return (p.rng.Float64()*2 - 1) * factor
}

// Apply transforms one image, returning a slice the caller owns.
func (p *Pipeline) Apply(img []float32) []float32 {
	out := make([]float32, len(img))
	copy(out, img)
	p.norm.Apply(out)

	if !p.training {
		return out
	}

	if p.cfg.Flip && p.rng.Float64() < 0.5 {
		FlipHorizontal(out, p.height, p.width, p.channels)
	}
	if p.cfg.RotationFactor > 0 {
		angle := p.uniform(p.cfg.RotationFactor) * 2 * math.Pi
		out = Rotate(out, p.height, p.width, p.channels, angle)
	}
	if p.cfg.ContrastFactor > 0 {
		AdjustContrast(out, p.height, p.width, p.channels, 1+p.uniform(p.cfg.ContrastFactor))
	}
	if p.cfg.ZoomFactor > 0 {
		out = Zoom(out, p.height, p.width, p.channels, 1+p.uniform(p.cfg.ZoomFactor))
	}
	return out
}
