package evolution

import (
	"math"

	"github.com/stresslab/portfolio-engine/internal/rng"
	"github.com/stresslab/portfolio-engine/pkg/models"
)

// MutationKind enumerates the mutation operator families. A weighted draw
// picks one per call, so adding or removing a family stays local to this
// file.
type MutationKind int

const (
	// MutatePointTransfer moves a random fraction of one asset's weight to
	// another asset.
	MutatePointTransfer MutationKind = iota
	// MutateGaussianJitter adds independent gaussian noise to every weight.
	MutateGaussianJitter
	// MutateSwap exchanges the weights of two assets.
	MutateSwap
	// MutateZeroRedistribute zeroes one asset and hands its weight to
	// another non-zero asset.
	MutateZeroRedistribute
	// MutateHedgeShift moves weight from a risky asset to a hedge asset.
	MutateHedgeShift

	numMutationKinds
)

// CrossoverKind enumerates the crossover operator families.
type CrossoverKind int

const (
	// CrossoverUniform inherits each weight from either parent with equal
	// probability.
	CrossoverUniform CrossoverKind = iota
	// CrossoverBlend linearly combines both parents with a random blend
	// factor.
	CrossoverBlend

	numCrossoverKinds
)

const (
	// dustThreshold zeroes positions too small to matter.
	dustThreshold = 0.02
	// snapIncrement quantizes weights for human readability.
	snapIncrement = 0.005
	// dustEpsilon absorbs float rounding from the renormalization division
	// so a weight sitting exactly at the dust threshold is not re-swept.
	dustEpsilon = 1e-9

	jitterScale = 0.1

	blendLow  = 0.2
	blendHigh = 0.8

	tournamentSize = 3
)

// Normalize maps an arbitrary weight vector onto a valid allocation:
// negatives are clamped, an all-zero vector falls back to equal weighting,
// dust positions below 2% are zeroed, and the result is snapped to a 0.5%
// grid with the snap residual folded into the largest position. The output
// sums to 1 within floating tolerance and is a fixed point of Normalize.
func Normalize(p models.Portfolio) models.Portfolio {
	classes := models.AllAssetClasses()
	out := make(models.Portfolio, len(classes))

	var sum float64
	for _, a := range classes {
		w := p[a]
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			w = 0
		}
		out[a] = w
		sum += w
	}
	if sum == 0 {
		return models.EqualWeightPortfolio()
	}
	for _, a := range classes {
		out[a] /= sum
	}

	sum = 0
	for _, a := range classes {
		if out[a] < dustThreshold-dustEpsilon {
			out[a] = 0
		}
		sum += out[a]
	}
	if sum == 0 {
		return models.EqualWeightPortfolio()
	}
	for _, a := range classes {
		out[a] /= sum
	}

	sum = 0
	for _, a := range classes {
		out[a] = math.Round(out[a]/snapIncrement) * snapIncrement
		sum += out[a]
	}
	// Fold the snap residual into the largest position rather than dividing:
	// division drags every weight off the grid and can push a 2% position
	// back under the dust threshold, so the result would not be a fixed
	// point. The residual is itself a grid multiple and is bounded well below
	// the largest weight, so grid alignment and the dust floor both survive.
	largest := classes[0]
	for _, a := range classes {
		if out[a] > out[largest] {
			largest = a
		}
	}
	out[largest] += 1 - sum
	return out
}

// Mutate applies a randomly selected mutation operator and normalizes the
// result. The input portfolio is never modified.
func Mutate(rnd *rng.Rand, p models.Portfolio, rate float64) models.Portfolio {
	kind := MutationKind(rnd.Intn(int(numMutationKinds)))
	return MutateWith(kind, rnd, p, rate)
}

// MutateWith applies one specific mutation operator, exported so operators
// can be exercised in isolation.
func MutateWith(kind MutationKind, rnd *rng.Rand, p models.Portfolio, rate float64) models.Portfolio {
	out := p.Clone()
	classes := models.AllAssetClasses()

	switch kind {
	case MutatePointTransfer:
		from := classes[rnd.Intn(len(classes))]
		to := classes[rnd.Intn(len(classes))]
		amount := out[from] * rnd.Float64()
		out[from] -= amount
		out[to] += amount

	case MutateGaussianJitter:
		for _, a := range classes {
			out[a] += rnd.Gaussian() * rate * jitterScale
		}

	case MutateSwap:
		i := rnd.Intn(len(classes))
		j := rnd.Intn(len(classes))
		out[classes[i]], out[classes[j]] = out[classes[j]], out[classes[i]]

	case MutateZeroRedistribute:
		from := classes[rnd.Intn(len(classes))]
		targets := make([]models.AssetClass, 0, len(classes))
		for _, a := range classes {
			if a != from && out[a] > 0 {
				targets = append(targets, a)
			}
		}
		if len(targets) > 0 {
			to := targets[rnd.Intn(len(targets))]
			out[to] += out[from]
			out[from] = 0
		}

	case MutateHedgeShift:
		risky := models.RiskyAssets()
		hedges := models.HedgeAssets()
		from := risky[rnd.Intn(len(risky))]
		to := hedges[rnd.Intn(len(hedges))]
		amount := out[from] * rnd.Float64()
		out[from] -= amount
		out[to] += amount
	}

	return Normalize(out)
}

// Crossover breeds two parents with a randomly selected crossover operator.
func Crossover(rnd *rng.Rand, a, b models.Portfolio) models.Portfolio {
	kind := CrossoverKind(rnd.Intn(int(numCrossoverKinds)))
	return CrossoverWith(kind, rnd, a, b)
}

// CrossoverWith breeds two parents with one specific crossover operator.
func CrossoverWith(kind CrossoverKind, rnd *rng.Rand, a, b models.Portfolio) models.Portfolio {
	classes := models.AllAssetClasses()
	child := make(models.Portfolio, len(classes))

	switch kind {
	case CrossoverUniform:
		for _, c := range classes {
			if rnd.Float64() < 0.5 {
				child[c] = a[c]
			} else {
				child[c] = b[c]
			}
		}
	case CrossoverBlend:
		t := rnd.Range(blendLow, blendHigh)
		for _, c := range classes {
			child[c] = t*a[c] + (1-t)*b[c]
		}
	}

	return Normalize(child)
}

// RandomPortfolio draws a fresh uniform allocation, post-normalization.
func RandomPortfolio(rnd *rng.Rand) models.Portfolio {
	classes := models.AllAssetClasses()
	p := make(models.Portfolio, len(classes))
	for _, a := range classes {
		p[a] = rnd.Float64()
	}
	return Normalize(p)
}

// tournament returns the fittest of tournamentSize random draws from the
// population.
func tournament(rnd *rng.Rand, pop []models.EvolvedPortfolio) models.EvolvedPortfolio {
	best := pop[rnd.Intn(len(pop))]
	for i := 1; i < tournamentSize; i++ {
		if c := pop[rnd.Intn(len(pop))]; c.Fitness > best.Fitness {
			best = c
		}
	}
	return best
}
