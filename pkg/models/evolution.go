package models

import "time"

// Origin tags how an evolved portfolio was produced.
type Origin string

const (
	OriginSeed      Origin = "seed"
	OriginMutation  Origin = "mutation"
	OriginCrossover Origin = "crossover"
	OriginImmigrant Origin = "random_immigrant"
	OriginElite     Origin = "elite"
)

// EvolvedPortfolio is a candidate allocation together with its evaluation.
// Each instance is owned by the generation that created it; archived copies
// are made with Clone.
type EvolvedPortfolio struct {
	Portfolio  Portfolio         `json:"portfolio"`
	Fitness    float64           `json:"fitness"`
	Summary    SimulationSummary `json:"summary"`
	Generation int               `json:"generation"`
	Origin     Origin            `json:"origin"`
}

// Clone returns a deep copy.
func (e EvolvedPortfolio) Clone() EvolvedPortfolio {
	out := e
	out.Portfolio = e.Portfolio.Clone()
	out.Summary = e.Summary.Clone()
	return out
}

// GenerationSnapshot records one generation of the search. Snapshots are
// append-only; they hold deep copies and are never revised by later
// generations.
type GenerationSnapshot struct {
	Generation     int                `json:"generation"`
	Best           EvolvedPortfolio   `json:"best"`
	Worst          EvolvedPortfolio   `json:"worst"`
	Median         EvolvedPortfolio   `json:"median"`
	AverageFitness float64            `json:"averageFitness"`
	Diversity      float64            `json:"diversity"`
	Population     []EvolvedPortfolio `json:"population"`
}

// FitnessWeights weight the components of the fitness score.
type FitnessWeights struct {
	Sharpe     float64 `json:"sharpe"`
	CVaR       float64 `json:"cvar"`
	Drawdown   float64 `json:"drawdown"`
	MeanReturn float64 `json:"meanReturn"`
}

// EvolutionConfig parameterizes a full evolutionary run.
type EvolutionConfig struct {
	PopulationSize int            `json:"populationSize"`
	Generations    int            `json:"generations"`
	MutationRate   float64        `json:"mutationRate"`
	CrossoverRate  float64        `json:"crossoverRate"`
	EliteCount     int            `json:"eliteCount"`
	Weights        FitnessWeights `json:"weights"`
	// AdversarialPressure in [0,1] ramps stress exposure up over the run.
	AdversarialPressure float64          `json:"adversarialPressure"`
	Simulation          SimulationConfig `json:"simulation"`
}

// AssetDamage records how badly one asset fared in an adversarial scenario.
type AssetDamage struct {
	Asset  AssetClass `json:"asset"`
	Return float64    `json:"return"`
}

// AdversarialFinding is a concrete worst-case scenario extracted from the
// final population, with a narrative classification of the vulnerability.
type AdversarialFinding struct {
	Regime          Regime        `json:"regime"`
	Shock           MacroShock    `json:"shock"`
	PortfolioReturn float64       `json:"portfolioReturn"`
	Vulnerability   string        `json:"vulnerability"`
	DamagedAssets   []AssetDamage `json:"damagedAssets"`
}

// EvolutionResult is the final output of a run.
type EvolutionResult struct {
	History    []GenerationSnapshot `json:"history"`
	Champion   EvolvedPortfolio     `json:"champion"`
	HallOfFame []EvolvedPortfolio   `json:"hallOfFame"`
	Findings   []AdversarialFinding `json:"findings"`
}

// RunRequest asks the worker to evolve a seed portfolio.
type RunRequest struct {
	RunID  string          `json:"runId"`
	Seed   Portfolio       `json:"seed"`
	Config EvolutionConfig `json:"config"`
}

// RunResult is the worker's reply for one run.
type RunResult struct {
	RunID       string           `json:"runId"`
	Result      *EvolutionResult `json:"result,omitempty"`
	Error       string           `json:"error,omitempty"`
	CompletedAt time.Time        `json:"completedAt"`
}
