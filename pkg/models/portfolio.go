package models

import (
	"math"
	"sort"

	"github.com/stresslab/portfolio-engine/pkg/utils/errors"
)

// AssetClass identifies one of the allocatable asset categories. The set is
// closed; allocations are always expressed over these ten classes.
type AssetClass string

const (
	AssetUSEquity       AssetClass = "us_equity"
	AssetIntlEquity     AssetClass = "intl_equity"
	AssetEmergingEquity AssetClass = "em_equity"
	AssetShortBonds     AssetClass = "short_bonds"
	AssetLongBonds      AssetClass = "long_bonds"
	AssetTIPS           AssetClass = "tips"
	AssetRealEstate     AssetClass = "real_estate"
	AssetCommodities    AssetClass = "commodities"
	AssetGold           AssetClass = "gold"
	AssetCash           AssetClass = "cash"
)

// WeightTolerance is the allowed deviation of a portfolio's weight sum from 1.
const WeightTolerance = 1e-4

// AllAssetClasses returns every asset class in stable order.
func AllAssetClasses() []AssetClass {
	return []AssetClass{
		AssetUSEquity,
		AssetIntlEquity,
		AssetEmergingEquity,
		AssetShortBonds,
		AssetLongBonds,
		AssetTIPS,
		AssetRealEstate,
		AssetCommodities,
		AssetGold,
		AssetCash,
	}
}

// RiskyAssets are the classes the regime-aware hedge-shift mutation moves
// weight away from.
func RiskyAssets() []AssetClass {
	return []AssetClass{AssetUSEquity, AssetIntlEquity, AssetEmergingEquity, AssetLongBonds}
}

// HedgeAssets are the classes the regime-aware hedge-shift mutation moves
// weight toward.
func HedgeAssets() []AssetClass {
	return []AssetClass{AssetTIPS, AssetCommodities, AssetGold, AssetShortBonds}
}

// Portfolio maps asset classes to non-negative weights. Whenever a portfolio
// is used as simulation input its weights sum to 1 within WeightTolerance.
// Breeding operators never mutate a portfolio in place; they produce new ones.
type Portfolio map[AssetClass]float64

// Weight returns the weight for an asset class, zero if absent.
func (p Portfolio) Weight(a AssetClass) float64 {
	return p[a]
}

// Clone returns an independent copy of the portfolio.
func (p Portfolio) Clone() Portfolio {
	out := make(Portfolio, len(p))
	for a, w := range p {
		out[a] = w
	}
	return out
}

// ActiveAssets returns the asset classes with non-zero weight, in the stable
// class order.
func (p Portfolio) ActiveAssets() []AssetClass {
	active := make([]AssetClass, 0, len(p))
	for _, a := range AllAssetClasses() {
		if p[a] > 0 {
			active = append(active, a)
		}
	}
	return active
}

// MaxWeight returns the largest single weight in the portfolio.
func (p Portfolio) MaxWeight() float64 {
	max := 0.0
	for _, w := range p {
		if w > max {
			max = w
		}
	}
	return max
}

// Distance returns the Euclidean distance between two allocations over the
// full asset-class vector.
func (p Portfolio) Distance(other Portfolio) float64 {
	var sum float64
	for _, a := range AllAssetClasses() {
		d := p[a] - other[a]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Validate checks that the portfolio is usable as simulation input: all
// weights non-negative, no unknown asset classes, and the sum within
// WeightTolerance of 1. Validation belongs to the boundary; the engines
// assume it already happened.
func (p Portfolio) Validate() error {
	if len(p) == 0 {
		return errors.InvalidArgument("portfolio has no allocations")
	}
	known := make(map[AssetClass]bool, 10)
	for _, a := range AllAssetClasses() {
		known[a] = true
	}
	var sum float64
	for a, w := range p {
		if !known[a] {
			return errors.InvalidArgumentf("unknown asset class %q", a)
		}
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return errors.InvalidArgumentf("asset %s has invalid weight %v", a, w)
		}
		sum += w
	}
	if math.Abs(sum-1) > WeightTolerance {
		return errors.InvalidArgumentf("portfolio weights sum to %.6f, want 1", sum)
	}
	return nil
}

// EqualWeightPortfolio allocates uniformly across all asset classes.
func EqualWeightPortfolio() Portfolio {
	classes := AllAssetClasses()
	p := make(Portfolio, len(classes))
	w := 1.0 / float64(len(classes))
	for _, a := range classes {
		p[a] = w
	}
	return p
}

// SortedClasses returns the portfolio's asset classes sorted lexically.
// Useful for deterministic iteration over arbitrary portfolios.
func (p Portfolio) SortedClasses() []AssetClass {
	out := make([]AssetClass, 0, len(p))
	for a := range p {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
