// Package evolution runs a genetic search over portfolio allocations,
// scoring candidates with the Monte Carlo simulation engine.
package evolution

import (
	"context"
	"math"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/stresslab/portfolio-engine/internal/rng"
	"github.com/stresslab/portfolio-engine/internal/simulation"
	"github.com/stresslab/portfolio-engine/pkg/metrics"
	"github.com/stresslab/portfolio-engine/pkg/models"
	"github.com/stresslab/portfolio-engine/pkg/utils/logger"
)

const (
	defaultPopulationSize = 24
	defaultGenerations    = 10
	defaultMutationRate   = 0.3
	defaultCrossoverRate  = 0.6
	defaultEliteCount     = 2

	// immigrantProb is the per-slot chance of injecting a fully random
	// portfolio instead of breeding one.
	immigrantProb = 0.1

	// adversarialTrigger is the effective-pressure level past which the
	// rate-shock-crash regime is force-enabled for the rest of the run.
	adversarialTrigger = 0.7
)

// defaultWeights balance risk-adjusted return against tail losses.
func defaultWeights() models.FitnessWeights {
	return models.FitnessWeights{Sharpe: 1.0, CVaR: 2.0, Drawdown: 0.5, MeanReturn: 2.0}
}

// Engine breeds, mutates, and selects portfolio variants across generations.
type Engine struct {
	cfg         models.EvolutionConfig
	sim         *simulation.Engine
	recorder    metrics.Recorder
	log         *logger.Logger
	parallelism int
}

// candidate is an unscored population slot. Elites arrive pre-evaluated and
// skip re-simulation, which is what keeps champion fitness non-decreasing.
type candidate struct {
	portfolio models.Portfolio
	origin    models.Origin
	evaluated *models.EvolvedPortfolio
}

// NewEngine creates an evolution engine. Out-of-range config values are
// clamped to defaults.
func NewEngine(cfg models.EvolutionConfig, sim *simulation.Engine, recorder metrics.Recorder) *Engine {
	if cfg.PopulationSize < 2 {
		cfg.PopulationSize = defaultPopulationSize
	}
	if cfg.Generations < 1 {
		cfg.Generations = defaultGenerations
	}
	if cfg.MutationRate <= 0 || cfg.MutationRate > 1 {
		cfg.MutationRate = defaultMutationRate
	}
	if cfg.CrossoverRate <= 0 || cfg.CrossoverRate > 1 {
		cfg.CrossoverRate = defaultCrossoverRate
	}
	if cfg.EliteCount < 0 {
		cfg.EliteCount = defaultEliteCount
	}
	if cfg.EliteCount >= cfg.PopulationSize {
		cfg.EliteCount = cfg.PopulationSize - 1
	}
	if cfg.Weights == (models.FitnessWeights{}) {
		cfg.Weights = defaultWeights()
	}
	if cfg.AdversarialPressure < 0 {
		cfg.AdversarialPressure = 0
	}
	if cfg.AdversarialPressure > 1 {
		cfg.AdversarialPressure = 1
	}
	if recorder == nil {
		recorder = metrics.NopRecorder{}
	}
	if sim == nil {
		sim = simulation.NewEngine(nil, nil, recorder)
	}
	return &Engine{
		cfg:         cfg,
		sim:         sim,
		recorder:    recorder,
		log:         logger.GetLogger("evolution.engine"),
		parallelism: runtime.GOMAXPROCS(0),
	}
}

// Evolve runs the full generational search from a seed portfolio. The seed
// is assumed valid; callers validate before invoking. A fixed simulation
// seed reproduces the entire run.
func (e *Engine) Evolve(ctx context.Context, seed models.Portfolio) (*models.EvolutionResult, error) {
	start := time.Now()

	masterSeed := e.cfg.Simulation.Seed
	if masterSeed == 0 {
		masterSeed = time.Now().UnixNano()
	}
	// One master stream drives all breeding draws; evaluation streams are
	// derived per candidate so parallel scoring stays reproducible.
	rnd := rng.New(masterSeed)
	simCfg := e.cfg.Simulation.Clone()

	e.log.Infow("starting evolution",
		"populationSize", e.cfg.PopulationSize,
		"generations", e.cfg.Generations,
		"adversarialPressure", e.cfg.AdversarialPressure,
	)

	pop, err := e.evaluate(ctx, e.initialPopulation(rnd, seed), 0, masterSeed, simCfg)
	if err != nil {
		return nil, err
	}

	history := make([]models.GenerationSnapshot, 0, e.cfg.Generations)
	hof := newHallOfFame()

	for gen := 0; gen < e.cfg.Generations; gen++ {
		sortByFitness(pop)
		snap := e.snapshot(gen, pop)
		history = append(history, snap)
		hof.consider(pop[0])
		e.recorder.RecordGeneration(snap.Best.Fitness, snap.AverageFitness, snap.Diversity)

		e.log.Debugw("generation complete",
			"generation", gen,
			"bestFitness", snap.Best.Fitness,
			"averageFitness", snap.AverageFitness,
			"diversity", snap.Diversity,
		)

		if gen == e.cfg.Generations-1 {
			break
		}

		// Stress exposure only ever increases within a run: once effective
		// pressure crosses the trigger, the crash regime stays enabled.
		if e.cfg.AdversarialPressure > 0 {
			progress := float64(gen+1) / float64(e.cfg.Generations)
			if e.cfg.AdversarialPressure*progress > adversarialTrigger &&
				!simCfg.HasRegime(models.RegimeRateShockCrash) {
				simCfg.EnabledRegimes = append(simCfg.EnabledRegimes, models.RegimeRateShockCrash)
				e.log.Infow("adversarial pressure crossed trigger, forcing crash regime",
					"generation", gen)
			}
		}

		next := e.breed(rnd, pop, gen+1)
		pop, err = e.evaluate(ctx, next, gen+1, masterSeed, simCfg)
		if err != nil {
			return nil, err
		}
	}

	champion := bestOfRun(history)
	findings := extractFindings(pop)

	e.recorder.RecordEvolution(time.Since(start), e.cfg.Generations)
	e.recorder.RecordChampion(champion.Fitness, champion.Summary.Sharpe, champion.Summary.CVaR95)

	e.log.Infow("evolution complete",
		"championFitness", champion.Fitness,
		"championSharpe", champion.Summary.Sharpe,
		"championCVaR95", champion.Summary.CVaR95,
		"findings", len(findings),
		"elapsed", time.Since(start),
	)

	return &models.EvolutionResult{
		History:    history,
		Champion:   champion,
		HallOfFame: hof.entries,
		Findings:   findings,
	}, nil
}

// initialPopulation seeds the search: the unmodified seed portfolio, then
// graded seed mutations for local exploitation, then random immigrants for
// global exploration.
func (e *Engine) initialPopulation(rnd *rng.Rand, seed models.Portfolio) []candidate {
	size := e.cfg.PopulationSize
	cands := make([]candidate, 0, size)
	cands = append(cands, candidate{portfolio: seed.Clone(), origin: models.OriginSeed})

	half := size / 2
	for i := 1; i <= half && len(cands) < size; i++ {
		intensity := e.cfg.MutationRate * (0.5 + 1.5*float64(i)/float64(half))
		cands = append(cands, candidate{
			portfolio: Mutate(rnd, seed, intensity),
			origin:    models.OriginMutation,
		})
	}
	for len(cands) < size {
		cands = append(cands, candidate{
			portfolio: RandomPortfolio(rnd),
			origin:    models.OriginImmigrant,
		})
	}
	return cands
}

// breed produces the next generation: elites survive unchanged, remaining
// slots are filled by an independent roll among crossover, mutation of a
// tournament winner, and random immigration.
func (e *Engine) breed(rnd *rng.Rand, pop []models.EvolvedPortfolio, nextGen int) []candidate {
	next := make([]candidate, 0, e.cfg.PopulationSize)

	for i := 0; i < e.cfg.EliteCount && i < len(pop); i++ {
		elite := pop[i].Clone()
		elite.Generation = nextGen
		elite.Origin = models.OriginElite
		next = append(next, candidate{
			portfolio: elite.Portfolio,
			origin:    models.OriginElite,
			evaluated: &elite,
		})
	}

	for len(next) < e.cfg.PopulationSize {
		roll := rnd.Float64()
		switch {
		case roll < e.cfg.CrossoverRate:
			a := tournament(rnd, pop)
			b := tournament(rnd, pop)
			child := Crossover(rnd, a.Portfolio, b.Portfolio)
			if rnd.Float64() < e.cfg.MutationRate {
				child = Mutate(rnd, child, e.cfg.MutationRate)
			}
			next = append(next, candidate{portfolio: child, origin: models.OriginCrossover})
		case roll < e.cfg.CrossoverRate+immigrantProb:
			next = append(next, candidate{portfolio: RandomPortfolio(rnd), origin: models.OriginImmigrant})
		default:
			parent := tournament(rnd, pop)
			next = append(next, candidate{
				portfolio: Mutate(rnd, parent.Portfolio, e.cfg.MutationRate),
				origin:    models.OriginMutation,
			})
		}
	}
	return next
}

// evaluate scores every unscored candidate. Candidates are independent, so
// scoring runs in parallel with per-candidate seeds derived from the master
// seed; no member of generation N+1 exists until all of generation N was
// scored, preserving the generational barrier.
func (e *Engine) evaluate(ctx context.Context, cands []candidate, gen int, masterSeed int64, simCfg models.SimulationConfig) ([]models.EvolvedPortfolio, error) {
	out := make([]models.EvolvedPortfolio, len(cands))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallelism)
	for i, c := range cands {
		if c.evaluated != nil {
			out[i] = *c.evaluated
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			cfg := simCfg.Clone()
			cfg.Seed = rng.DeriveSeed(masterSeed, gen, i)
			summary := e.sim.Run(c.portfolio, cfg)
			out[i] = models.EvolvedPortfolio{
				Portfolio:  c.portfolio,
				Fitness:    e.fitness(summary),
				Summary:    summary,
				Generation: gen,
				Origin:     c.origin,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// fitness scores a summary; higher is better.
func (e *Engine) fitness(s models.SimulationSummary) float64 {
	w := e.cfg.Weights
	return w.Sharpe*s.Sharpe -
		w.CVaR*math.Abs(s.CVaR95) -
		w.Drawdown*s.MaxDrawdown +
		w.MeanReturn*s.MeanReturn
}

// snapshot deep-copies the generation's state so later population churn can
// never reach back into the history.
func (e *Engine) snapshot(gen int, pop []models.EvolvedPortfolio) models.GenerationSnapshot {
	if len(pop) == 0 {
		panic("evolution: empty population at generation end")
	}
	var totalFitness float64
	population := make([]models.EvolvedPortfolio, len(pop))
	for i, ind := range pop {
		totalFitness += ind.Fitness
		population[i] = ind.Clone()
	}
	return models.GenerationSnapshot{
		Generation:     gen,
		Best:           pop[0].Clone(),
		Worst:          pop[len(pop)-1].Clone(),
		Median:         pop[len(pop)/2].Clone(),
		AverageFitness: totalFitness / float64(len(pop)),
		Diversity:      diversity(pop),
		Population:     population,
	}
}

func sortByFitness(pop []models.EvolvedPortfolio) {
	sort.SliceStable(pop, func(i, j int) bool {
		return pop[i].Fitness > pop[j].Fitness
	})
}

// bestOfRun picks the overall champion from the per-generation bests,
// earliest generation winning ties.
func bestOfRun(history []models.GenerationSnapshot) models.EvolvedPortfolio {
	champion := history[0].Best
	for _, snap := range history[1:] {
		if snap.Best.Fitness > champion.Fitness {
			champion = snap.Best
		}
	}
	return champion.Clone()
}
