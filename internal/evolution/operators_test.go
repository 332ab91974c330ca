package evolution

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stresslab/portfolio-engine/internal/rng"
	"github.com/stresslab/portfolio-engine/pkg/models"
)

func assertValidAllocation(t *testing.T, p models.Portfolio) {
	t.Helper()
	var sum float64
	for a, w := range p {
		assert.GreaterOrEqual(t, w, 0.0, "asset %s has a negative weight", a)
		if w > 0 {
			assert.GreaterOrEqual(t, w, 0.02-1e-9, "asset %s holds a dust position %v", a, w)
		}
		snapped := math.Round(w/0.005) * 0.005
		assert.InDelta(t, snapped, w, 1e-9, "asset %s weight %v is off the 0.5%% grid", a, w)
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9, "weights must sum to one")
}

func TestNormalize_RandomInputs(t *testing.T) {
	for seed := int64(1); seed <= 50; seed++ {
		r := rng.New(seed)
		p := make(models.Portfolio)
		for _, a := range models.AllAssetClasses() {
			p[a] = r.Range(-0.5, 1.5)
		}
		assertValidAllocation(t, Normalize(p))
	}
}

func TestNormalize_AllZeroFallsBackToEqualWeight(t *testing.T) {
	p := make(models.Portfolio)
	for _, a := range models.AllAssetClasses() {
		p[a] = 0
	}
	out := Normalize(p)
	for _, a := range models.AllAssetClasses() {
		assert.InDelta(t, 0.1, out[a], 1e-12)
	}
}

func TestNormalize_NegativesClampedToZero(t *testing.T) {
	p := models.Portfolio{
		models.AssetUSEquity:  0.8,
		models.AssetGold:      0.4,
		models.AssetLongBonds: -0.2,
		models.AssetCash:      math.NaN(),
	}
	out := Normalize(p)

	assert.Equal(t, 0.0, out[models.AssetLongBonds])
	assert.Equal(t, 0.0, out[models.AssetCash])
	assertValidAllocation(t, out)
}

func TestNormalize_DustZeroed(t *testing.T) {
	p := models.Portfolio{
		models.AssetUSEquity: 0.99,
		models.AssetGold:     0.01,
	}
	out := Normalize(p)

	assert.Equal(t, 0.0, out[models.AssetGold], "sub-2% positions are swept to zero")
	assert.InDelta(t, 1.0, out[models.AssetUSEquity], 1e-12)
}

func TestNormalize_IdempotentOnGridAllocations(t *testing.T) {
	cases := []models.Portfolio{
		models.EqualWeightPortfolio(),
		{
			models.AssetUSEquity:  0.50,
			models.AssetLongBonds: 0.30,
			models.AssetGold:      0.20,
		},
		{
			models.AssetUSEquity:   0.25,
			models.AssetIntlEquity: 0.25,
			models.AssetShortBonds: 0.25,
			models.AssetTIPS:       0.25,
		},
	}
	for _, p := range cases {
		once := Normalize(p)
		twice := Normalize(once)
		for _, a := range models.AllAssetClasses() {
			assert.InDelta(t, once[a], twice[a], 1e-12)
		}
	}
}

func TestNormalize_IdempotentOnRandomInputs(t *testing.T) {
	for seed := int64(1); seed <= 200; seed++ {
		r := rng.New(seed)
		p := make(models.Portfolio)
		for _, a := range models.AllAssetClasses() {
			p[a] = r.Range(-0.5, 1.5)
		}

		once := Normalize(p)
		twice := Normalize(once)
		for _, a := range models.AllAssetClasses() {
			assert.InDelta(t, once[a], twice[a], 1e-9,
				"seed %d: asset %s moved on the second pass", seed, a)
		}
	}
}

func TestNormalize_InfinityClampedToZero(t *testing.T) {
	p := models.Portfolio{
		models.AssetUSEquity: math.Inf(1),
		models.AssetGold:     0.4,
		models.AssetCash:     0.6,
	}
	out := Normalize(p)

	assert.Equal(t, 0.0, out[models.AssetUSEquity])
	assertValidAllocation(t, out)
	assert.InDelta(t, 0.4, out[models.AssetGold], 1e-9)
	assert.InDelta(t, 0.6, out[models.AssetCash], 1e-9)
}

func TestMutateWith_AllKindsProduceValidAllocations(t *testing.T) {
	base := models.EqualWeightPortfolio()
	for kind := MutationKind(0); kind < numMutationKinds; kind++ {
		for seed := int64(1); seed <= 10; seed++ {
			r := rng.New(seed)
			before := base.Clone()
			out := MutateWith(kind, r, base, 0.3)

			assertValidAllocation(t, out)
			assert.Equal(t, before, base, "mutation kind %d must not modify its input", kind)
		}
	}
}

func TestCrossoverWith_BothKindsProduceValidAllocations(t *testing.T) {
	a := models.Portfolio{
		models.AssetUSEquity:  0.50,
		models.AssetLongBonds: 0.30,
		models.AssetGold:      0.20,
	}
	b := models.EqualWeightPortfolio()

	for kind := CrossoverKind(0); kind < numCrossoverKinds; kind++ {
		for seed := int64(1); seed <= 10; seed++ {
			r := rng.New(seed)
			assertValidAllocation(t, CrossoverWith(kind, r, a, b))
		}
	}
}

func TestCrossoverWith_IdenticalParentsBreedTrue(t *testing.T) {
	p := models.EqualWeightPortfolio()
	r := rng.New(5)

	child := CrossoverWith(CrossoverUniform, r, p, p)
	for _, a := range models.AllAssetClasses() {
		assert.InDelta(t, p[a], child[a], 1e-12)
	}
}

func TestRandomPortfolio_Valid(t *testing.T) {
	for seed := int64(1); seed <= 30; seed++ {
		p := RandomPortfolio(rng.New(seed))
		assertValidAllocation(t, p)
		require.NoError(t, p.Validate())
	}
}

func TestTournament_FavorsFitter(t *testing.T) {
	pop := []models.EvolvedPortfolio{
		{Fitness: 0.1},
		{Fitness: 0.2},
		{Fitness: 0.3},
		{Fitness: 0.4},
		{Fitness: 5.0},
	}
	r := rng.New(13)

	wins := 0
	trials := 200
	for i := 0; i < trials; i++ {
		if tournament(r, pop).Fitness == 5.0 {
			wins++
		}
	}
	// P(top individual in a 3-draw tournament over 5) is just under one half.
	assert.Greater(t, wins, trials/4, "the fittest individual should win tournaments far more often than chance")
}
