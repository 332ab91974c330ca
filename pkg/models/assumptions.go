package models

// FactorBetas are an asset's sensitivities to the four macro factors. The
// simulation engine scales shocks before applying betas: rate changes are
// divided by 100 (basis points to percentage points), inflation and growth
// shocks by 10, and the risk-off z-score is applied raw.
type FactorBetas struct {
	Rate      float64 `json:"rate"`
	Inflation float64 `json:"inflation"`
	Growth    float64 `json:"growth"`
	RiskOff   float64 `json:"riskOff"`
}

// AssetAssumptions are the static per-asset parameters: annualized expected
// return and volatility plus factor betas. Loaded once, read-only for the
// life of the process.
type AssetAssumptions struct {
	ExpectedReturn float64     `json:"expectedReturn"`
	Volatility     float64     `json:"volatility"`
	Betas          FactorBetas `json:"betas"`
}

// AssumptionTable maps every asset class to its assumptions.
type AssumptionTable map[AssetClass]AssetAssumptions

// DefaultAssetAssumptions returns the packaged capital-market assumptions.
// Callers pass this (or a synthetic table, in tests) to the engine
// constructors; there is no ambient global the engines read.
func DefaultAssetAssumptions() AssumptionTable {
	return AssumptionTable{
		AssetUSEquity:       {ExpectedReturn: 0.070, Volatility: 0.160, Betas: FactorBetas{Rate: -0.030, Inflation: -3.0, Growth: 24.0, RiskOff: -0.055}},
		AssetIntlEquity:     {ExpectedReturn: 0.065, Volatility: 0.170, Betas: FactorBetas{Rate: -0.025, Inflation: -2.0, Growth: 20.0, RiskOff: -0.060}},
		AssetEmergingEquity: {ExpectedReturn: 0.080, Volatility: 0.220, Betas: FactorBetas{Rate: -0.040, Inflation: -1.5, Growth: 28.0, RiskOff: -0.080}},
		AssetShortBonds:     {ExpectedReturn: 0.030, Volatility: 0.030, Betas: FactorBetas{Rate: -0.020, Inflation: -1.5, Growth: 0.0, RiskOff: 0.008}},
		AssetLongBonds:      {ExpectedReturn: 0.042, Volatility: 0.110, Betas: FactorBetas{Rate: -0.150, Inflation: -6.0, Growth: -2.0, RiskOff: 0.018}},
		AssetTIPS:           {ExpectedReturn: 0.035, Volatility: 0.060, Betas: FactorBetas{Rate: -0.055, Inflation: 8.0, Growth: 0.0, RiskOff: 0.010}},
		AssetRealEstate:     {ExpectedReturn: 0.060, Volatility: 0.150, Betas: FactorBetas{Rate: -0.085, Inflation: 2.5, Growth: 16.0, RiskOff: -0.045}},
		AssetCommodities:    {ExpectedReturn: 0.045, Volatility: 0.180, Betas: FactorBetas{Rate: -0.010, Inflation: 10.0, Growth: 8.0, RiskOff: -0.020}},
		AssetGold:           {ExpectedReturn: 0.040, Volatility: 0.150, Betas: FactorBetas{Rate: -0.020, Inflation: 6.0, Growth: -4.0, RiskOff: 0.035}},
		AssetCash:           {ExpectedReturn: 0.020, Volatility: 0.005, Betas: FactorBetas{Rate: 0.002, Inflation: -1.0, Growth: 0.0, RiskOff: 0.0}},
	}
}

// DefaultRegimeTable returns the packaged regime definitions. Probabilities
// are renormalized over the enabled set at sampling time, so a subset of
// regimes can be enabled without editing the table.
func DefaultRegimeTable() RegimeTable {
	return RegimeTable{
		RegimeNormal: {
			Probability:   0.70,
			VolMultiplier: 1.0,
			Description:   "baseline macro conditions, historical factor correlations",
		},
		RegimeRateShockCrash: {
			Probability:   0.10,
			VolMultiplier: 2.5,
			Description:   "violent rate repricing; inflation co-moves with rates, flight to safety fails",
		},
		RegimeStagflation: {
			Probability:   0.12,
			VolMultiplier: 1.8,
			Description:   "persistent positive inflation surprises with weak growth",
		},
		RegimeDeflation: {
			Probability:   0.08,
			VolMultiplier: 1.5,
			Description:   "deflationary bust, broad risk-off with falling prices",
		},
	}
}

// DefaultEnabledRegimes enables every packaged regime.
func DefaultEnabledRegimes() []Regime {
	return []Regime{RegimeNormal, RegimeRateShockCrash, RegimeStagflation, RegimeDeflation}
}
