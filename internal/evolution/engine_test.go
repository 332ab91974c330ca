package evolution

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stresslab/portfolio-engine/internal/simulation"
	"github.com/stresslab/portfolio-engine/pkg/models"
)

func testEvolutionConfig() models.EvolutionConfig {
	return models.EvolutionConfig{
		PopulationSize: 12,
		Generations:    4,
		MutationRate:   0.3,
		CrossoverRate:  0.6,
		EliteCount:     2,
		Simulation: models.SimulationConfig{
			NumScenarios:  200,
			HorizonMonths: 6,
			RiskFreeRate:  0.02,
			Seed:          42,
		},
	}
}

func newTestEngine(cfg models.EvolutionConfig) *Engine {
	sim := simulation.NewEngine(nil, nil, nil)
	return NewEngine(cfg, sim, nil)
}

func TestEvolve_Deterministic(t *testing.T) {
	seed := models.EqualWeightPortfolio()

	a, err := newTestEngine(testEvolutionConfig()).Evolve(context.Background(), seed)
	require.NoError(t, err)
	b, err := newTestEngine(testEvolutionConfig()).Evolve(context.Background(), seed)
	require.NoError(t, err)

	assert.Equal(t, a.Champion, b.Champion, "a fixed seed must reproduce the champion exactly")
	assert.Equal(t, a.HallOfFame, b.HallOfFame)
	assert.Equal(t, a.Findings, b.Findings)
	require.Equal(t, len(a.History), len(b.History))
	for i := range a.History {
		assert.Equal(t, a.History[i].Best.Fitness, b.History[i].Best.Fitness, "generation %d", i)
	}
}

func TestEvolve_HistoryShape(t *testing.T) {
	cfg := testEvolutionConfig()
	res, err := newTestEngine(cfg).Evolve(context.Background(), models.EqualWeightPortfolio())
	require.NoError(t, err)

	require.Len(t, res.History, cfg.Generations)
	for i, snap := range res.History {
		assert.Equal(t, i, snap.Generation)
		require.Len(t, snap.Population, cfg.PopulationSize)
		assert.GreaterOrEqual(t, snap.Best.Fitness, snap.Median.Fitness)
		assert.GreaterOrEqual(t, snap.Median.Fitness, snap.Worst.Fitness)
		assert.GreaterOrEqual(t, snap.Diversity, 0.0)
	}

	// Generation zero contains the unmodified seed.
	origins := make(map[models.Origin]bool)
	for _, ind := range res.History[0].Population {
		origins[ind.Origin] = true
	}
	assert.True(t, origins[models.OriginSeed])
}

func TestEvolve_ChampionFitnessNonDecreasing(t *testing.T) {
	cfg := testEvolutionConfig()
	cfg.Generations = 6
	require.GreaterOrEqual(t, cfg.EliteCount, 1)

	res, err := newTestEngine(cfg).Evolve(context.Background(), models.EqualWeightPortfolio())
	require.NoError(t, err)

	for i := 1; i < len(res.History); i++ {
		assert.GreaterOrEqual(t, res.History[i].Best.Fitness, res.History[i-1].Best.Fitness,
			"elitism must keep the per-generation best from regressing (gen %d)", i)
	}
	assert.Equal(t, res.History[len(res.History)-1].Best.Fitness, res.Champion.Fitness)
}

func TestEvolve_HallOfFameConstraints(t *testing.T) {
	cfg := testEvolutionConfig()
	cfg.Generations = 8

	res, err := newTestEngine(cfg).Evolve(context.Background(), models.EqualWeightPortfolio())
	require.NoError(t, err)

	require.NotEmpty(t, res.HallOfFame)
	assert.LessOrEqual(t, len(res.HallOfFame), 5)
	for i := 1; i < len(res.HallOfFame); i++ {
		assert.LessOrEqual(t, res.HallOfFame[i].Fitness, res.HallOfFame[i-1].Fitness, "hall of fame is sorted by fitness")
	}
	for i := 0; i < len(res.HallOfFame); i++ {
		for j := i + 1; j < len(res.HallOfFame); j++ {
			d := res.HallOfFame[i].Portfolio.Distance(res.HallOfFame[j].Portfolio)
			assert.Greater(t, d, 0.05, "hall-of-fame entries must be structurally distinct (%d vs %d)", i, j)
		}
	}
}

func TestEvolve_ShiftsAwayFromConcentratedEquityUnderCrash(t *testing.T) {
	cfg := testEvolutionConfig()
	cfg.PopulationSize = 20
	cfg.Generations = 6
	cfg.Weights = models.FitnessWeights{Sharpe: 1.0, CVaR: 4.0, Drawdown: 0.5, MeanReturn: 1.0}
	cfg.Simulation.EnabledRegimes = []models.Regime{models.RegimeRateShockCrash}
	cfg.Simulation.NumScenarios = 300
	cfg.Simulation.Seed = 11

	seed := models.Portfolio{models.AssetUSEquity: 1.0}
	res, err := newTestEngine(cfg).Evolve(context.Background(), seed)
	require.NoError(t, err)

	champion := res.Champion.Portfolio
	assert.Less(t, champion.MaxWeight(), 1.0, "the all-equity seed should not survive a CVaR-heavy crash search")

	var defensive float64
	for _, a := range models.HedgeAssets() {
		defensive += champion.Weight(a)
	}
	defensive += champion.Weight(models.AssetCash)
	assert.Greater(t, defensive, 0.1, "the champion should carry meaningful defensive weight")

	var seedFitness float64
	for _, ind := range res.History[0].Population {
		if ind.Origin == models.OriginSeed {
			seedFitness = ind.Fitness
		}
	}
	assert.GreaterOrEqual(t, res.Champion.Fitness, seedFitness,
		"the champion should at least match the raw seed")
}

func TestEvolve_FullPressureGrowsInflationHedges(t *testing.T) {
	cfg := testEvolutionConfig()
	cfg.PopulationSize = 20
	cfg.Generations = 8
	cfg.AdversarialPressure = 1.0
	cfg.Simulation.EnabledRegimes = models.DefaultEnabledRegimes()
	cfg.Simulation.NumScenarios = 500
	cfg.Simulation.Seed = 42

	seed := models.Portfolio{
		models.AssetUSEquity:       0.25,
		models.AssetIntlEquity:     0.10,
		models.AssetEmergingEquity: 0.05,
		models.AssetShortBonds:     0.10,
		models.AssetLongBonds:      0.15,
		models.AssetTIPS:           0.10,
		models.AssetRealEstate:     0.10,
		models.AssetCommodities:    0.05,
		models.AssetGold:           0.05,
		models.AssetCash:           0.05,
	}
	require.NoError(t, seed.Validate())

	res, err := newTestEngine(cfg).Evolve(context.Background(), seed)
	require.NoError(t, err)

	hedgeWeight := func(p models.Portfolio) float64 {
		return p.Weight(models.AssetTIPS) + p.Weight(models.AssetGold) + p.Weight(models.AssetCommodities)
	}
	assert.GreaterOrEqual(t, hedgeWeight(res.Champion.Portfolio), hedgeWeight(seed),
		"full adversarial pressure should push the champion toward inflation hedges")
}

func TestEvolve_AdversarialPressureForcesCrashRegime(t *testing.T) {
	cfg := testEvolutionConfig()
	cfg.PopulationSize = 16
	cfg.Generations = 5
	cfg.AdversarialPressure = 1.0
	cfg.Simulation.EnabledRegimes = []models.Regime{models.RegimeNormal}
	cfg.Simulation.NumScenarios = 300

	res, err := newTestEngine(cfg).Evolve(context.Background(), models.EqualWeightPortfolio())
	require.NoError(t, err)

	assert.False(t, containsCrashScenario(res.History[0].Population),
		"early generations simulate only the configured regimes")
	assert.True(t, containsCrashScenario(res.History[len(res.History)-1].Population),
		"by the final generation the crash regime should be in the mix")
}

func containsCrashScenario(pop []models.EvolvedPortfolio) bool {
	for _, ind := range pop {
		scenarios := append([]models.ScenarioResult{}, ind.Summary.WorstScenarios...)
		scenarios = append(scenarios, ind.Summary.MedianScenario)
		scenarios = append(scenarios, ind.Summary.BestScenarios...)
		for _, sc := range scenarios {
			if sc.Shock.Regime == models.RegimeRateShockCrash {
				return true
			}
		}
	}
	return false
}

func TestEvolve_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestEngine(testEvolutionConfig()).Evolve(ctx, models.EqualWeightPortfolio())
	assert.Error(t, err)
}

func TestNewEngine_ClampsDegenerateConfig(t *testing.T) {
	e := newTestEngine(models.EvolutionConfig{
		PopulationSize: -1,
		Generations:    0,
		MutationRate:   7,
		CrossoverRate:  -0.5,
		EliteCount:     100,
	})

	assert.Equal(t, defaultPopulationSize, e.cfg.PopulationSize)
	assert.Equal(t, defaultGenerations, e.cfg.Generations)
	assert.Equal(t, defaultMutationRate, e.cfg.MutationRate)
	assert.Equal(t, defaultCrossoverRate, e.cfg.CrossoverRate)
	assert.Less(t, e.cfg.EliteCount, e.cfg.PopulationSize)
	assert.Equal(t, defaultWeights(), e.cfg.Weights)
}
