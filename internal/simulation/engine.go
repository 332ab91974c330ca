// Package simulation maps portfolios and macro scenario batches to
// risk/return summaries via a factor-model Monte Carlo.
package simulation

import (
	"math"
	"sort"
	"time"

	"github.com/stresslab/portfolio-engine/internal/numerics"
	"github.com/stresslab/portfolio-engine/internal/rng"
	"github.com/stresslab/portfolio-engine/internal/scenario"
	"github.com/stresslab/portfolio-engine/pkg/metrics"
	"github.com/stresslab/portfolio-engine/pkg/models"
	"github.com/stresslab/portfolio-engine/pkg/utils/logger"
)

const (
	defaultScenarios = 2000
	defaultHorizon   = 12

	// Shock scaling divisors of the factor model.
	rateDivisor      = 100.0
	inflationDivisor = 10.0
	growthDivisor    = 10.0

	// Idiosyncratic noise uses half the asset's annualized volatility.
	idioVolFraction = 0.5

	// Monthly path noise, for drawdown realism only. Zero-mean, so it does
	// not bias aggregate return statistics.
	pathNoiseStdDev = 0.01

	cvarTailFraction = 0.05
	histogramBuckets = 20
	minBucketWidth   = 1e-4
	extremeScenarios = 3

	// Tail-risk flag thresholds.
	corrBreakdownThreshold  = 0.2
	longBondDurationWeight  = 0.15
	longBondInflationWeight = 0.20
	tipsCoverWeight         = 0.10
	concentrationWeight     = 0.40
)

// Engine runs Monte Carlo simulations against a fixed set of asset
// assumptions and regime definitions.
type Engine struct {
	assumptions models.AssumptionTable
	generator   *scenario.Generator
	recorder    metrics.Recorder
	log         *logger.Logger
}

// NewEngine creates a simulation engine. Nil tables fall back to the
// packaged defaults; a nil recorder disables instrumentation.
func NewEngine(assumptions models.AssumptionTable, regimes models.RegimeTable, recorder metrics.Recorder) *Engine {
	if assumptions == nil {
		assumptions = models.DefaultAssetAssumptions()
	}
	if recorder == nil {
		recorder = metrics.NopRecorder{}
	}
	return &Engine{
		assumptions: assumptions,
		generator:   scenario.NewGenerator(regimes),
		recorder:    recorder,
		log:         logger.GetLogger("simulation.engine"),
	}
}

// Run simulates the portfolio over a scenario batch and aggregates the
// results. The portfolio is assumed valid (weights summing to 1); callers
// validate before invoking. A fixed config seed reproduces the summary
// bit-for-bit.
func (e *Engine) Run(portfolio models.Portfolio, cfg models.SimulationConfig) models.SimulationSummary {
	start := time.Now()

	if cfg.NumScenarios < 1 {
		cfg.NumScenarios = defaultScenarios
	}
	if cfg.HorizonMonths < 1 {
		cfg.HorizonMonths = defaultHorizon
	}
	if len(cfg.EnabledRegimes) == 0 {
		cfg.EnabledRegimes = models.DefaultEnabledRegimes()
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rnd := rng.New(seed)

	shocks := e.generator.Generate(rnd, cfg.EnabledRegimes, cfg.NumScenarios)

	results := make([]models.ScenarioResult, len(shocks))
	regimeCounts := make(map[models.Regime]int, 4)
	for i, shock := range shocks {
		results[i] = e.simulateScenario(rnd, portfolio, shock, cfg.HorizonMonths)
		regimeCounts[shock.Regime]++
	}

	summary := e.summarize(portfolio, results, cfg)

	e.recorder.RecordScenarios(regimeCounts)
	e.recorder.RecordSimulation(time.Since(start), cfg.NumScenarios)
	return summary
}

// simulateScenario computes per-asset factor returns, the monthly wealth
// path, and the drawdown for one macro shock.
func (e *Engine) simulateScenario(rnd *rng.Rand, portfolio models.Portfolio, shock models.MacroShock, months int) models.ScenarioResult {
	horizonYears := float64(months) / 12.0
	active := portfolio.ActiveAssets()

	assetReturns := make(map[models.AssetClass]float64, len(active))
	var horizonReturn float64
	for _, asset := range active {
		asm := e.assumptions[asset]
		factor := asm.Betas.Rate*(shock.RateChangeBps/rateDivisor) +
			asm.Betas.Inflation*(shock.InflationShock/inflationDivisor) +
			asm.Betas.Growth*(shock.GrowthShock/growthDivisor) +
			asm.Betas.RiskOff*shock.RiskOffShock
		idio := rnd.Gaussian() * asm.Volatility * idioVolFraction * math.Sqrt(horizonYears)
		ret := factor + idio + asm.ExpectedReturn*horizonYears
		assetReturns[asset] = ret
		horizonReturn += portfolio[asset] * ret
	}

	// Flat monthly apportionment of the horizon return, compounded with
	// small independent path noise for drawdown realism.
	monthly := horizonReturn / float64(months)
	path := make([]float64, months+1)
	path[0] = 1
	wealth, peak, maxDD := 1.0, 1.0, 0.0
	for m := 1; m <= months; m++ {
		wealth *= 1 + monthly + rnd.Gaussian()*pathNoiseStdDev
		path[m] = wealth
		if wealth > peak {
			peak = wealth
		} else if dd := (peak - wealth) / peak; dd > maxDD {
			maxDD = dd
		}
	}

	return models.ScenarioResult{
		Shock:           shock,
		AssetReturns:    assetReturns,
		PortfolioReturn: wealth - 1,
		MaxDrawdown:     maxDD,
		WealthPath:      path,
	}
}

func (e *Engine) summarize(portfolio models.Portfolio, results []models.ScenarioResult, cfg models.SimulationConfig) models.SimulationSummary {
	n := len(results)
	byReturn := make([]models.ScenarioResult, n)
	copy(byReturn, results)
	sort.Slice(byReturn, func(i, j int) bool {
		return byReturn[i].PortfolioReturn < byReturn[j].PortfolioReturn
	})

	returns := make([]float64, n)
	maxDD := 0.0
	losses := 0
	for i, r := range byReturn {
		returns[i] = r.PortfolioReturn
		if r.MaxDrawdown > maxDD {
			maxDD = r.MaxDrawdown
		}
		if r.PortfolioReturn < 0 {
			losses++
		}
	}

	mean := numerics.Mean(returns)
	vol := numerics.StdDev(returns)

	horizonYears := float64(cfg.HorizonMonths) / 12.0
	sharpe := 0.0
	if vol > 0 {
		sharpe = (mean - cfg.RiskFreeRate*horizonYears) / vol
	}

	tail := int(float64(n) * cvarTailFraction)
	if tail < 1 {
		tail = 1
	}
	cvar := numerics.Mean(returns[:tail])

	worstCount := extremeScenarios
	if worstCount > n {
		worstCount = n
	}
	bestCount := extremeScenarios
	if bestCount > n-worstCount {
		bestCount = n - worstCount
	}
	worst := cloneRange(byReturn[:worstCount])
	best := cloneRange(byReturn[n-bestCount:])

	corr := e.realizedCorrelations(portfolio, results)

	summary := models.SimulationSummary{
		NumScenarios:      n,
		HorizonMonths:     cfg.HorizonMonths,
		P5Return:          numerics.Percentile(returns, 0.05),
		P25Return:         numerics.Percentile(returns, 0.25),
		P50Return:         numerics.Percentile(returns, 0.50),
		P75Return:         numerics.Percentile(returns, 0.75),
		P95Return:         numerics.Percentile(returns, 0.95),
		MeanReturn:        mean,
		Volatility:        vol,
		Sharpe:            sharpe,
		CVaR95:            cvar,
		MaxDrawdown:       maxDD,
		ProbabilityOfLoss: float64(losses) / float64(n),
		TailFlags:         e.tailFlags(portfolio, corr),
		WorstScenarios:    worst,
		MedianScenario:    byReturn[n/2].Clone(),
		BestScenarios:     best,
		Histogram:         buildHistogram(returns),
		Correlations:      corr,
	}
	return summary
}

// realizedCorrelations computes pairwise correlations of per-scenario asset
// returns over the portfolio's active assets.
func (e *Engine) realizedCorrelations(portfolio models.Portfolio, results []models.ScenarioResult) models.CorrelationMatrix {
	active := portfolio.ActiveAssets()
	series := make([][]float64, len(active))
	for i, asset := range active {
		s := make([]float64, len(results))
		for j, r := range results {
			s[j] = r.AssetReturns[asset]
		}
		series[i] = s
	}

	values := make([][]float64, len(active))
	for i := range values {
		values[i] = make([]float64, len(active))
		values[i][i] = 1
	}
	for i := 0; i < len(active); i++ {
		for j := i + 1; j < len(active); j++ {
			c := numerics.Correlation(series[i], series[j])
			values[i][j] = c
			values[j][i] = c
		}
	}
	return models.CorrelationMatrix{Assets: active, Values: values}
}

func (e *Engine) tailFlags(portfolio models.Portfolio, corr models.CorrelationMatrix) models.TailRiskFlags {
	flags := models.TailRiskFlags{
		RateShockRisk: portfolio.Weight(models.AssetLongBonds) > longBondDurationWeight,
		InflationShockRisk: portfolio.Weight(models.AssetLongBonds) > longBondInflationWeight &&
			portfolio.Weight(models.AssetTIPS) < tipsCoverWeight,
		ConcentrationRisk: portfolio.MaxWeight() > concentrationWeight,
	}
	if c, ok := corr.Corr(models.AssetUSEquity, models.AssetLongBonds); ok {
		flags.CorrelationBreakdown = c > corrBreakdownThreshold
	}
	return flags
}

func buildHistogram(sorted []float64) []models.HistogramBucket {
	low, high := sorted[0], sorted[len(sorted)-1]
	width := (high - low) / histogramBuckets
	if width <= 0 {
		width = minBucketWidth
	}
	buckets := make([]models.HistogramBucket, histogramBuckets)
	for i := range buckets {
		buckets[i] = models.HistogramBucket{
			Low:  low + float64(i)*width,
			High: low + float64(i+1)*width,
		}
	}
	for _, r := range sorted {
		idx := int((r - low) / width)
		if idx >= histogramBuckets {
			idx = histogramBuckets - 1
		}
		buckets[idx].Count++
	}
	return buckets
}

func cloneRange(in []models.ScenarioResult) []models.ScenarioResult {
	out := make([]models.ScenarioResult, len(in))
	for i, r := range in {
		out[i] = r.Clone()
	}
	return out
}
