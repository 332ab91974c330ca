package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stresslab/portfolio-engine/pkg/models"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "portfolio-stress-engine", cfg.App.Name)
	assert.Equal(t, "info", cfg.App.LogLevel)

	assert.Equal(t, 2000, cfg.Simulation.NumScenarios)
	assert.Equal(t, 12, cfg.Simulation.HorizonMonths)
	assert.Equal(t, 0.02, cfg.Simulation.RiskFreeRate)
	assert.Len(t, cfg.Simulation.EnabledRegimes, 4)

	assert.Equal(t, 24, cfg.Evolution.PopulationSize)
	assert.Equal(t, 10, cfg.Evolution.Generations)
	assert.Equal(t, 0.3, cfg.Evolution.MutationRate)
	assert.Equal(t, 0.6, cfg.Evolution.CrossoverRate)
	assert.Equal(t, 2, cfg.Evolution.EliteCount)
	assert.Equal(t, 2.0, cfg.Evolution.Weights.CVaR)

	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "all", cfg.Kafka.ProducerAcks)
	assert.Equal(t, 10*time.Second, cfg.Kafka.WriteTimeout)
	assert.Equal(t, "stress.evolution.requests", cfg.Kafka.Topics.EvolutionRequests)
	assert.Equal(t, "stress.evolution.results", cfg.Kafka.Topics.EvolutionResults)

	assert.True(t, cfg.Metrics.Prometheus.Enabled)
	assert.Equal(t, 9090, cfg.Metrics.Prometheus.Port)
}

func TestSimulationModel_Conversion(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	sim := cfg.SimulationModel()
	assert.Equal(t, cfg.Simulation.NumScenarios, sim.NumScenarios)
	assert.Equal(t, cfg.Simulation.HorizonMonths, sim.HorizonMonths)
	assert.Contains(t, sim.EnabledRegimes, models.RegimeNormal)
	assert.Contains(t, sim.EnabledRegimes, models.RegimeRateShockCrash)
}

func TestRegimeTableModel_AppliesOverrides(t *testing.T) {
	cfg := &Config{
		Simulation: SimulationConfig{
			Regimes: map[string]RegimeOverride{
				"stagflation":    {Probability: 0.25, VolMultiplier: 2.2},
				"normal":         {VolMultiplier: 0}, // zero keeps the default
				"no_such_regime": {Probability: 0.5},
			},
		},
	}

	table := cfg.RegimeTableModel()
	assert.Equal(t, 0.25, table[models.RegimeStagflation].Probability)
	assert.Equal(t, 2.2, table[models.RegimeStagflation].VolMultiplier)
	assert.Equal(t, 1.0, table[models.RegimeNormal].VolMultiplier)
	assert.Equal(t, 0.70, table[models.RegimeNormal].Probability)
	assert.Len(t, table, 4, "unknown regimes are ignored")
}

func TestEvolutionModel_EmbedsSimulation(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	evo := cfg.EvolutionModel()
	assert.Equal(t, cfg.Evolution.PopulationSize, evo.PopulationSize)
	assert.Equal(t, models.FitnessWeights{
		Sharpe:     cfg.Evolution.Weights.Sharpe,
		CVaR:       cfg.Evolution.Weights.CVaR,
		Drawdown:   cfg.Evolution.Weights.Drawdown,
		MeanReturn: cfg.Evolution.Weights.MeanReturn,
	}, evo.Weights)
	assert.Equal(t, cfg.SimulationModel(), evo.Simulation)
}
