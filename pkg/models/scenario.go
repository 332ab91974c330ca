package models

// Regime is a discrete macroeconomic scenario family with its own shock
// volatility scaling and correlation behavior.
type Regime string

const (
	RegimeNormal         Regime = "normal"
	RegimeRateShockCrash Regime = "rate_shock_crash"
	RegimeStagflation    Regime = "stagflation"
	RegimeDeflation      Regime = "deflation"
)

// RegimeSpec carries the sampling and scaling parameters for one regime.
type RegimeSpec struct {
	Probability   float64 `json:"probability"`
	VolMultiplier float64 `json:"volMultiplier"`
	Description   string  `json:"description"`
}

// RegimeTable maps each regime to its spec. Supplied once per run as
// read-only configuration.
type RegimeTable map[Regime]RegimeSpec

// MacroShock is one realized macro draw, tagged with the regime it was
// sampled under. Rate changes are in basis points; the other shocks are in
// their natural units (inflation and growth as decimal rates, risk-off as a
// z-score).
type MacroShock struct {
	Regime         Regime  `json:"regime"`
	RateChangeBps  float64 `json:"rateChangeBps"`
	InflationShock float64 `json:"inflationShock"`
	GrowthShock    float64 `json:"growthShock"`
	RiskOffShock   float64 `json:"riskOffShock"`
}

// ScenarioResult is the outcome of a single simulated scenario for one
// portfolio.
type ScenarioResult struct {
	Shock           MacroShock             `json:"shock"`
	AssetReturns    map[AssetClass]float64 `json:"assetReturns"`
	PortfolioReturn float64                `json:"portfolioReturn"`
	MaxDrawdown     float64                `json:"maxDrawdown"`
	WealthPath      []float64              `json:"wealthPath"`
}

// Clone returns an independent copy of the scenario result.
func (s ScenarioResult) Clone() ScenarioResult {
	out := s
	out.AssetReturns = make(map[AssetClass]float64, len(s.AssetReturns))
	for a, r := range s.AssetReturns {
		out.AssetReturns[a] = r
	}
	out.WealthPath = append([]float64(nil), s.WealthPath...)
	return out
}

// TailRiskFlags are threshold rules over computed and allocation quantities.
type TailRiskFlags struct {
	CorrelationBreakdown bool `json:"correlationBreakdown"`
	RateShockRisk        bool `json:"rateShockRisk"`
	InflationShockRisk   bool `json:"inflationShockRisk"`
	ConcentrationRisk    bool `json:"concentrationRisk"`
}

// HistogramBucket is one equal-width bucket of the return distribution.
type HistogramBucket struct {
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
	Count int     `json:"count"`
}

// CorrelationMatrix holds realized pairwise correlations for the assets that
// were active in a simulation run. Values is indexed by the order of Assets.
type CorrelationMatrix struct {
	Assets []AssetClass `json:"assets"`
	Values [][]float64  `json:"values"`
}

// Corr returns the realized correlation between two assets, and whether both
// were part of the matrix.
func (m CorrelationMatrix) Corr(a, b AssetClass) (float64, bool) {
	ai, bi := -1, -1
	for i, c := range m.Assets {
		if c == a {
			ai = i
		}
		if c == b {
			bi = i
		}
	}
	if ai < 0 || bi < 0 {
		return 0, false
	}
	return m.Values[ai][bi], true
}

// Clone returns an independent copy of the matrix.
func (m CorrelationMatrix) Clone() CorrelationMatrix {
	out := CorrelationMatrix{Assets: append([]AssetClass(nil), m.Assets...)}
	out.Values = make([][]float64, len(m.Values))
	for i, row := range m.Values {
		out.Values[i] = append([]float64(nil), row...)
	}
	return out
}

// SimulationSummary aggregates a scenario batch for one portfolio.
// Percentiles are monotonic; the worst and best scenario lists are disjoint
// samples drawn from the same return-sorted batch.
type SimulationSummary struct {
	NumScenarios  int `json:"numScenarios"`
	HorizonMonths int `json:"horizonMonths"`

	P5Return  float64 `json:"p5Return"`
	P25Return float64 `json:"p25Return"`
	P50Return float64 `json:"p50Return"`
	P75Return float64 `json:"p75Return"`
	P95Return float64 `json:"p95Return"`

	MeanReturn        float64 `json:"meanReturn"`
	Volatility        float64 `json:"volatility"`
	Sharpe            float64 `json:"sharpe"`
	CVaR95            float64 `json:"cvar95"`
	MaxDrawdown       float64 `json:"maxDrawdown"`
	ProbabilityOfLoss float64 `json:"probabilityOfLoss"`

	TailFlags      TailRiskFlags     `json:"tailFlags"`
	WorstScenarios []ScenarioResult  `json:"worstScenarios"`
	MedianScenario ScenarioResult    `json:"medianScenario"`
	BestScenarios  []ScenarioResult  `json:"bestScenarios"`
	Histogram      []HistogramBucket `json:"histogram"`
	Correlations   CorrelationMatrix `json:"correlations"`
}

// Clone returns a deep copy of the summary. Hall-of-fame and snapshot entries
// store clones so later population churn cannot reach back into them.
func (s SimulationSummary) Clone() SimulationSummary {
	out := s
	out.WorstScenarios = cloneScenarios(s.WorstScenarios)
	out.BestScenarios = cloneScenarios(s.BestScenarios)
	out.MedianScenario = s.MedianScenario.Clone()
	out.Histogram = append([]HistogramBucket(nil), s.Histogram...)
	out.Correlations = s.Correlations.Clone()
	return out
}

func cloneScenarios(in []ScenarioResult) []ScenarioResult {
	out := make([]ScenarioResult, len(in))
	for i, sc := range in {
		out[i] = sc.Clone()
	}
	return out
}

// SimulationConfig parameterizes one Monte Carlo run.
type SimulationConfig struct {
	NumScenarios   int      `json:"numScenarios"`
	HorizonMonths  int      `json:"horizonMonths"`
	EnabledRegimes []Regime `json:"enabledRegimes"`
	// RiskFreeRate is the annualized rate used for Sharpe, prorated to the
	// horizon.
	RiskFreeRate float64 `json:"riskFreeRate"`
	// Seed drives every stochastic draw of the run; identical seeds
	// reproduce identical summaries.
	Seed int64 `json:"seed"`
}

// Clone returns an independent copy of the config, so per-generation regime
// adjustments never leak into the caller's config.
func (c SimulationConfig) Clone() SimulationConfig {
	out := c
	out.EnabledRegimes = append([]Regime(nil), c.EnabledRegimes...)
	return out
}

// HasRegime reports whether the config enables the given regime.
func (c SimulationConfig) HasRegime(r Regime) bool {
	for _, enabled := range c.EnabledRegimes {
		if enabled == r {
			return true
		}
	}
	return false
}
