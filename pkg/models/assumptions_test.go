package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultAssetAssumptions_CoversEveryClass(t *testing.T) {
	table := DefaultAssetAssumptions()

	for _, a := range AllAssetClasses() {
		asm, ok := table[a]
		require.True(t, ok, "missing assumptions for %s", a)
		assert.Greater(t, asm.Volatility, 0.0, "%s needs positive volatility", a)
		assert.Greater(t, asm.ExpectedReturn, 0.0, "%s needs a positive expected return", a)
	}

	// Directional sanity on the factor betas the regimes lean on.
	assert.Negative(t, table[AssetLongBonds].Betas.Rate, "long bonds lose when rates rise")
	assert.Positive(t, table[AssetTIPS].Betas.Inflation, "TIPS gain from inflation surprises")
	assert.Positive(t, table[AssetGold].Betas.RiskOff, "gold gains in risk-off")
	assert.Negative(t, table[AssetUSEquity].Betas.RiskOff, "equities lose in risk-off")
}

func TestDefaultRegimeTable(t *testing.T) {
	table := DefaultRegimeTable()
	require.Len(t, table, 4)

	var total float64
	for r, spec := range table {
		assert.Greater(t, spec.Probability, 0.0, "regime %s", r)
		assert.GreaterOrEqual(t, spec.VolMultiplier, 1.0, "regime %s", r)
		total += spec.Probability
	}
	assert.InDelta(t, 1.0, total, 1e-12, "regime probabilities sum to one")

	assert.Equal(t, 1.0, table[RegimeNormal].VolMultiplier)
	assert.Greater(t, table[RegimeRateShockCrash].VolMultiplier, table[RegimeStagflation].VolMultiplier)
}

func TestDefaultEnabledRegimes(t *testing.T) {
	enabled := DefaultEnabledRegimes()
	require.Len(t, enabled, 4)

	table := DefaultRegimeTable()
	for _, r := range enabled {
		_, ok := table[r]
		assert.True(t, ok, "enabled regime %s must exist in the table", r)
	}
}
