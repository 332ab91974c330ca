package evolution

import (
	"fmt"
	"math"
	"sort"

	"github.com/stresslab/portfolio-engine/pkg/models"
)

const (
	hofMaxSize = 5
	// hofMinDistance keeps near-duplicate allocations out of the hall.
	hofMinDistance = 0.05
	// hofFitnessFloor admits structurally distinct strategies only when
	// they score at least this fraction of the best entry's fitness.
	hofFitnessFloor = 0.95

	// diversitySampleCap bounds the pairwise-distance computation.
	diversitySampleCap = 20

	// findingLossThreshold keeps only scenarios with severe portfolio loss.
	findingLossThreshold = -0.15
	// findingAssetLossThreshold marks an individual asset as damaged.
	findingAssetLossThreshold = -0.10
	maxDamagedAssets          = 3
	maxFindings               = 5
)

// hallOfFame archives the best structurally distinct strategies seen across
// the run. Entries are independent deep copies, sorted descending by
// fitness.
type hallOfFame struct {
	entries []models.EvolvedPortfolio
}

func newHallOfFame() *hallOfFame {
	return &hallOfFame{entries: make([]models.EvolvedPortfolio, 0, hofMaxSize)}
}

// consider admits a generation's top individual if it is far enough from
// every existing entry and close enough to the best entry's fitness.
func (h *hallOfFame) consider(c models.EvolvedPortfolio) {
	for _, e := range h.entries {
		if e.Portfolio.Distance(c.Portfolio) <= hofMinDistance {
			return
		}
	}
	if len(h.entries) > 0 && c.Fitness < hofFitnessFloor*h.entries[0].Fitness {
		return
	}
	h.entries = append(h.entries, c.Clone())
	sort.SliceStable(h.entries, func(i, j int) bool {
		return h.entries[i].Fitness > h.entries[j].Fitness
	})
	if len(h.entries) > hofMaxSize {
		h.entries = h.entries[:hofMaxSize]
	}
}

// diversity is the average pairwise Euclidean distance between allocation
// vectors, sampled over at most the first diversitySampleCap members.
// Diagnostics only; it exerts no selection pressure.
func diversity(pop []models.EvolvedPortfolio) float64 {
	n := len(pop)
	if n > diversitySampleCap {
		n = diversitySampleCap
	}
	if n < 2 {
		return 0
	}
	var total float64
	var pairs int
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			total += pop[i].Portfolio.Distance(pop[j].Portfolio)
			pairs++
		}
	}
	return total / float64(pairs)
}

// findingKey deduplicates findings by regime and shock direction.
type findingKey struct {
	regime   models.Regime
	rateSign int
	inflSign int
}

// extractFindings scans the final population's worst scenarios for severe
// losses and returns the five worst distinct vulnerabilities, most damaging
// first.
func extractFindings(pop []models.EvolvedPortfolio) []models.AdversarialFinding {
	seen := make(map[findingKey]bool)
	findings := make([]models.AdversarialFinding, 0, maxFindings)

	for _, ind := range pop {
		for _, sc := range ind.Summary.WorstScenarios {
			if sc.PortfolioReturn >= findingLossThreshold {
				continue
			}
			key := findingKey{
				regime:   sc.Shock.Regime,
				rateSign: sign(sc.Shock.RateChangeBps),
				inflSign: sign(sc.Shock.InflationShock),
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			findings = append(findings, models.AdversarialFinding{
				Regime:          sc.Shock.Regime,
				Shock:           sc.Shock,
				PortfolioReturn: sc.PortfolioReturn,
				Vulnerability:   classifyVulnerability(sc.Shock),
				DamagedAssets:   damagedAssets(sc),
			})
		}
	}

	sort.SliceStable(findings, func(i, j int) bool {
		return findings[i].PortfolioReturn < findings[j].PortfolioReturn
	})
	if len(findings) > maxFindings {
		findings = findings[:maxFindings]
	}
	return findings
}

func classifyVulnerability(shock models.MacroShock) string {
	switch shock.Regime {
	case models.RegimeRateShockCrash:
		return "correlation breakdown: bonds fail to hedge equities while rates gap higher"
	case models.RegimeStagflation:
		return "stagflation trap: nominal assets lose ground as inflation runs hot against weak growth"
	case models.RegimeDeflation:
		return "deflationary risk-off: growth assets sell off into falling prices"
	default:
		direction := "rising"
		if shock.RateChangeBps < 0 {
			direction = "falling"
		}
		return fmt.Sprintf("sensitivity to a %.0fbp %s-rate move under otherwise normal conditions",
			math.Abs(shock.RateChangeBps), direction)
	}
}

// damagedAssets lists up to three assets that lost more than 10% in the
// scenario, most negative first.
func damagedAssets(sc models.ScenarioResult) []models.AssetDamage {
	damaged := make([]models.AssetDamage, 0, maxDamagedAssets)
	for _, a := range models.AllAssetClasses() {
		if r, ok := sc.AssetReturns[a]; ok && r < findingAssetLossThreshold {
			damaged = append(damaged, models.AssetDamage{Asset: a, Return: r})
		}
	}
	sort.SliceStable(damaged, func(i, j int) bool {
		return damaged[i].Return < damaged[j].Return
	})
	if len(damaged) > maxDamagedAssets {
		damaged = damaged[:maxDamagedAssets]
	}
	return damaged
}

func sign(x float64) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}
