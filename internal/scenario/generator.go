// Package scenario samples macroeconomic shock scenarios: a regime per
// trial, four correlated factor shocks, and occasional rate tail jumps.
package scenario

import (
	"math"

	"github.com/stresslab/portfolio-engine/internal/rng"
	"github.com/stresslab/portfolio-engine/pkg/models"
	"github.com/stresslab/portfolio-engine/pkg/utils/logger"
)

// Base per-sigma shock scales, before the regime volatility multiplier.
const (
	rateScaleBps   = 100.0
	inflationScale = 0.02
	growthScale    = 0.025
	riskOffScale   = 1.0
)

// Rare tail jump applied to the rate shock only.
const (
	tailJumpProb   = 0.05
	tailJumpMinBps = 200.0
	tailJumpMaxBps = 400.0
)

// Regime correlation overrides are expressed as fixed recombination weights
// of the already-drawn shocks. The induced direction of co-movement is the
// contract; the exact weights are an approximation.
const (
	crashInflationOwnWeight  = 0.4
	crashInflationRateWeight = 0.6
	crashRiskOffOwnWeight    = 0.5
	crashRiskOffRateWeight   = 0.5
	stagRiskOffOwnWeight     = 0.6
	stagRiskOffInflWeight    = 0.4
)

// Generator produces macro shocks under a regime table.
type Generator struct {
	regimes models.RegimeTable
	log     *logger.Logger
}

// NewGenerator creates a generator over the given regime table, falling back
// to the packaged table when nil.
func NewGenerator(regimes models.RegimeTable) *Generator {
	if regimes == nil {
		regimes = models.DefaultRegimeTable()
	}
	return &Generator{
		regimes: regimes,
		log:     logger.GetLogger("scenario.generator"),
	}
}

// regimeSampler is an inverse-CDF sampler over the enabled regimes, with
// probabilities renormalized across the enabled set.
type regimeSampler struct {
	regimes []models.Regime
	cum     []float64
}

func (g *Generator) newSampler(enabled []models.Regime) regimeSampler {
	s := regimeSampler{
		regimes: make([]models.Regime, 0, len(enabled)),
		cum:     make([]float64, 0, len(enabled)),
	}
	var total float64
	for _, r := range enabled {
		if spec, ok := g.regimes[r]; ok {
			total += spec.Probability
			s.regimes = append(s.regimes, r)
		}
	}
	if len(s.regimes) == 0 || total <= 0 {
		// Degenerate enabled list; sample normal conditions only.
		g.log.Warnf("no usable regimes among %v, defaulting to %s", enabled, models.RegimeNormal)
		return regimeSampler{regimes: []models.Regime{models.RegimeNormal}, cum: []float64{1}}
	}
	var acc float64
	for _, r := range s.regimes {
		acc += g.regimes[r].Probability / total
		s.cum = append(s.cum, acc)
	}
	s.cum[len(s.cum)-1] = 1 // absorb rounding
	return s
}

func (s regimeSampler) sample(u float64) models.Regime {
	for i, c := range s.cum {
		if u < c {
			return s.regimes[i]
		}
	}
	return s.regimes[len(s.regimes)-1]
}

// Generate draws count macro shocks from the enabled regimes, consuming the
// given random stream in a fixed order: regime, four base shocks, tail jump.
func (g *Generator) Generate(rnd *rng.Rand, enabled []models.Regime, count int) []models.MacroShock {
	sampler := g.newSampler(enabled)
	shocks := make([]models.MacroShock, count)
	for i := range shocks {
		shocks[i] = g.next(rnd, sampler)
	}
	return shocks
}

func (g *Generator) next(rnd *rng.Rand, sampler regimeSampler) models.MacroShock {
	regime := sampler.sample(rnd.Float64())
	mult := 1.0
	if spec, ok := g.regimes[regime]; ok && spec.VolMultiplier > 0 {
		mult = spec.VolMultiplier
	}

	rate := rnd.Gaussian() * rateScaleBps * mult
	inflation := rnd.Gaussian() * inflationScale * mult
	growth := rnd.Gaussian() * growthScale * mult
	riskOff := rnd.Gaussian() * riskOffScale * mult

	// Correlation overrides recombine the drawn shocks; nothing is
	// re-sampled, so the draw order above stays stable across regimes.
	switch regime {
	case models.RegimeRateShockCrash:
		// Inflation co-moves with the rate spike, and safety bids fail as
		// rates gap: risk-off picks up the magnitude of the rate move.
		inflation = crashInflationOwnWeight*inflation +
			crashInflationRateWeight*(rate/rateScaleBps)*inflationScale
		riskOff = crashRiskOffOwnWeight*riskOff +
			crashRiskOffRateWeight*math.Abs(rate)/rateScaleBps
	case models.RegimeStagflation:
		inflation = math.Abs(inflation)
		riskOff = stagRiskOffOwnWeight*riskOff +
			stagRiskOffInflWeight*math.Abs(inflation)/inflationScale
	case models.RegimeDeflation:
		riskOff = math.Abs(riskOff)
		inflation = -math.Abs(inflation)
	}

	if rnd.Float64() < tailJumpProb {
		jump := rnd.Range(tailJumpMinBps, tailJumpMaxBps)
		if rnd.Float64() < 0.5 {
			jump = -jump
		}
		rate += jump
	}

	return models.MacroShock{
		Regime:         regime,
		RateChangeBps:  rate,
		InflationShock: inflation,
		GrowthShock:    growth,
		RiskOffShock:   riskOff,
	}
}
