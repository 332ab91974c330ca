package config

import (
	stderrors "errors"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/stresslab/portfolio-engine/pkg/models"
	"github.com/stresslab/portfolio-engine/pkg/utils/errors"
)

// Config for the whole application.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Evolution  EvolutionConfig  `mapstructure:"evolution"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

// AppConfig is the general application configuration.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// SimulationConfig configures the Monte Carlo runs used to score candidates.
type SimulationConfig struct {
	NumScenarios   int                       `mapstructure:"num_scenarios"`
	HorizonMonths  int                       `mapstructure:"horizon_months"`
	RiskFreeRate   float64                   `mapstructure:"risk_free_rate"`
	EnabledRegimes []string                  `mapstructure:"enabled_regimes"`
	Seed           int64                     `mapstructure:"seed"`
	Regimes        map[string]RegimeOverride `mapstructure:"regimes"`
}

// RegimeOverride adjusts one regime's packaged parameters. Zero values keep
// the packaged default.
type RegimeOverride struct {
	Probability   float64 `mapstructure:"probability"`
	VolMultiplier float64 `mapstructure:"vol_multiplier"`
}

// WeightsConfig are the fitness component weights.
type WeightsConfig struct {
	Sharpe     float64 `mapstructure:"sharpe"`
	CVaR       float64 `mapstructure:"cvar"`
	Drawdown   float64 `mapstructure:"drawdown"`
	MeanReturn float64 `mapstructure:"mean_return"`
}

// EvolutionConfig configures the genetic search.
type EvolutionConfig struct {
	PopulationSize      int           `mapstructure:"population_size"`
	Generations         int           `mapstructure:"generations"`
	MutationRate        float64       `mapstructure:"mutation_rate"`
	CrossoverRate       float64       `mapstructure:"crossover_rate"`
	EliteCount          int           `mapstructure:"elite_count"`
	AdversarialPressure float64       `mapstructure:"adversarial_pressure"`
	Weights             WeightsConfig `mapstructure:"weights"`
}

// KafkaConfig configures the worker's broker connection.
type KafkaConfig struct {
	Brokers      []string      `mapstructure:"brokers"`
	GroupID      string        `mapstructure:"group_id"`
	ProducerAcks string        `mapstructure:"producer_acks"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Topics       TopicsConfig  `mapstructure:"topics"`
}

// TopicsConfig names the worker's topics.
type TopicsConfig struct {
	EvolutionRequests string `mapstructure:"evolution_requests"`
	EvolutionResults  string `mapstructure:"evolution_results"`
}

// MetricsConfig configures metrics exposure.
type MetricsConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
}

// PrometheusConfig configures the prometheus endpoint.
type PrometheusConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// Load reads the configuration from ./config/config.yaml (when present) and
// STRESS_-prefixed environment variables, on top of the packaged defaults.
func Load() (*Config, error) {
	setDefaults()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !stderrors.As(err, &notFound) {
			return nil, errors.Wrap(err, "failed to read config file")
		}
	}

	viper.SetEnvPrefix("STRESS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &cfg, nil
}

func setDefaults() {
	// App defaults
	viper.SetDefault("app.name", "portfolio-stress-engine")
	viper.SetDefault("app.environment", "development")
	viper.SetDefault("app.log_level", "info")

	// Simulation defaults
	viper.SetDefault("simulation.num_scenarios", 2000)
	viper.SetDefault("simulation.horizon_months", 12)
	viper.SetDefault("simulation.risk_free_rate", 0.02)
	viper.SetDefault("simulation.enabled_regimes", []string{
		string(models.RegimeNormal),
		string(models.RegimeRateShockCrash),
		string(models.RegimeStagflation),
		string(models.RegimeDeflation),
	})
	viper.SetDefault("simulation.seed", 0)

	// Evolution defaults
	viper.SetDefault("evolution.population_size", 24)
	viper.SetDefault("evolution.generations", 10)
	viper.SetDefault("evolution.mutation_rate", 0.3)
	viper.SetDefault("evolution.crossover_rate", 0.6)
	viper.SetDefault("evolution.elite_count", 2)
	viper.SetDefault("evolution.adversarial_pressure", 0.0)
	viper.SetDefault("evolution.weights.sharpe", 1.0)
	viper.SetDefault("evolution.weights.cvar", 2.0)
	viper.SetDefault("evolution.weights.drawdown", 0.5)
	viper.SetDefault("evolution.weights.mean_return", 2.0)

	// Kafka defaults
	viper.SetDefault("kafka.brokers", []string{"localhost:9092"})
	viper.SetDefault("kafka.group_id", "stress-engine")
	viper.SetDefault("kafka.producer_acks", "all")
	viper.SetDefault("kafka.write_timeout", "10s")
	viper.SetDefault("kafka.topics.evolution_requests", "stress.evolution.requests")
	viper.SetDefault("kafka.topics.evolution_results", "stress.evolution.results")

	// Metrics defaults
	viper.SetDefault("metrics.prometheus.enabled", true)
	viper.SetDefault("metrics.prometheus.port", 9090)
}

// SimulationModel converts the loaded simulation settings into the engine's
// config type.
func (c *Config) SimulationModel() models.SimulationConfig {
	regimes := make([]models.Regime, 0, len(c.Simulation.EnabledRegimes))
	for _, r := range c.Simulation.EnabledRegimes {
		regimes = append(regimes, models.Regime(r))
	}
	return models.SimulationConfig{
		NumScenarios:   c.Simulation.NumScenarios,
		HorizonMonths:  c.Simulation.HorizonMonths,
		RiskFreeRate:   c.Simulation.RiskFreeRate,
		EnabledRegimes: regimes,
		Seed:           c.Simulation.Seed,
	}
}

// RegimeTableModel returns the packaged regime table with any configured
// overrides applied. Overrides for unknown regimes are ignored.
func (c *Config) RegimeTableModel() models.RegimeTable {
	table := models.DefaultRegimeTable()
	for name, o := range c.Simulation.Regimes {
		spec, ok := table[models.Regime(name)]
		if !ok {
			continue
		}
		if o.Probability > 0 {
			spec.Probability = o.Probability
		}
		if o.VolMultiplier > 0 {
			spec.VolMultiplier = o.VolMultiplier
		}
		table[models.Regime(name)] = spec
	}
	return table
}

// EvolutionModel converts the loaded evolution settings into the engine's
// config type, embedding the simulation config.
func (c *Config) EvolutionModel() models.EvolutionConfig {
	return models.EvolutionConfig{
		PopulationSize:      c.Evolution.PopulationSize,
		Generations:         c.Evolution.Generations,
		MutationRate:        c.Evolution.MutationRate,
		CrossoverRate:       c.Evolution.CrossoverRate,
		EliteCount:          c.Evolution.EliteCount,
		AdversarialPressure: c.Evolution.AdversarialPressure,
		Weights: models.FitnessWeights{
			Sharpe:     c.Evolution.Weights.Sharpe,
			CVaR:       c.Evolution.Weights.CVaR,
			Drawdown:   c.Evolution.Weights.Drawdown,
			MeanReturn: c.Evolution.Weights.MeanReturn,
		},
		Simulation: c.SimulationModel(),
	}
}
