// Package metrics exposes engine instrumentation. Engines record through the
// Recorder interface; the prometheus implementation backs the worker's
// /metrics endpoint and tests use the no-op recorder.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/stresslab/portfolio-engine/pkg/models"
)

// Recorder receives engine-level measurements.
type Recorder interface {
	// RecordSimulation records one completed Monte Carlo run.
	RecordSimulation(latency time.Duration, scenarios int)
	// RecordScenarios records how many scenarios were drawn per regime.
	RecordScenarios(counts map[models.Regime]int)
	// RecordGeneration records per-generation population diagnostics.
	RecordGeneration(best, average, diversity float64)
	// RecordEvolution records one completed evolutionary run.
	RecordEvolution(latency time.Duration, generations int)
	// RecordChampion records the final champion's headline metrics.
	RecordChampion(fitness, sharpe, cvar95 float64)
}

// PrometheusRecorder publishes measurements to the default prometheus
// registry. Construct it once per process.
type PrometheusRecorder struct {
	simulationCounter   prometheus.Counter
	simulationLatency   prometheus.Histogram
	scenarioCounter     *prometheus.CounterVec
	generationCounter   prometheus.Counter
	generationBestGauge prometheus.Gauge
	generationAvgGauge  prometheus.Gauge
	diversityGauge      prometheus.Gauge
	evolutionCounter    prometheus.Counter
	evolutionLatency    prometheus.Histogram
	championFitness     prometheus.Gauge
	championSharpe      prometheus.Gauge
	championCVaR        prometheus.Gauge
}

// NewRecorder creates and registers the prometheus metrics.
func NewRecorder() *PrometheusRecorder {
	return &PrometheusRecorder{
		simulationCounter: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pse_simulations_total",
			Help: "Total number of Monte Carlo simulation runs",
		}),
		simulationLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "pse_simulation_latency_seconds",
			Help:    "Monte Carlo run latency distribution",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		}),
		scenarioCounter: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pse_scenarios_total",
			Help: "Total number of macro scenarios drawn",
		}, []string{"regime"}),
		generationCounter: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pse_generations_total",
			Help: "Total number of completed generations",
		}),
		generationBestGauge: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "pse_generation_best_fitness",
			Help: "Best fitness in the most recent generation",
		}),
		generationAvgGauge: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "pse_generation_average_fitness",
			Help: "Average fitness in the most recent generation",
		}),
		diversityGauge: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "pse_population_diversity",
			Help: "Average pairwise allocation distance in the most recent generation",
		}),
		evolutionCounter: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pse_evolutions_total",
			Help: "Total number of completed evolutionary runs",
		}),
		evolutionLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "pse_evolution_latency_seconds",
			Help:    "Evolutionary run latency distribution",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
		}),
		championFitness: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "pse_champion_fitness",
			Help: "Fitness of the most recent run's champion",
		}),
		championSharpe: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "pse_champion_sharpe",
			Help: "Sharpe ratio of the most recent run's champion",
		}),
		championCVaR: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "pse_champion_cvar95",
			Help: "CVaR-95 of the most recent run's champion",
		}),
	}
}

// RecordSimulation records one completed Monte Carlo run.
func (r *PrometheusRecorder) RecordSimulation(latency time.Duration, scenarios int) {
	r.simulationCounter.Inc()
	r.simulationLatency.Observe(latency.Seconds())
}

// RecordScenarios records drawn scenarios by regime.
func (r *PrometheusRecorder) RecordScenarios(counts map[models.Regime]int) {
	for regime, n := range counts {
		r.scenarioCounter.WithLabelValues(string(regime)).Add(float64(n))
	}
}

// RecordGeneration records per-generation diagnostics.
func (r *PrometheusRecorder) RecordGeneration(best, average, diversity float64) {
	r.generationCounter.Inc()
	r.generationBestGauge.Set(best)
	r.generationAvgGauge.Set(average)
	r.diversityGauge.Set(diversity)
}

// RecordEvolution records one completed evolutionary run.
func (r *PrometheusRecorder) RecordEvolution(latency time.Duration, generations int) {
	r.evolutionCounter.Inc()
	r.evolutionLatency.Observe(latency.Seconds())
}

// RecordChampion records the champion's headline metrics.
func (r *PrometheusRecorder) RecordChampion(fitness, sharpe, cvar95 float64) {
	r.championFitness.Set(fitness)
	r.championSharpe.Set(sharpe)
	r.championCVaR.Set(cvar95)
}

// NopRecorder discards all measurements.
type NopRecorder struct{}

func (NopRecorder) RecordSimulation(time.Duration, int)        {}
func (NopRecorder) RecordScenarios(map[models.Regime]int)      {}
func (NopRecorder) RecordGeneration(float64, float64, float64) {}
func (NopRecorder) RecordEvolution(time.Duration, int)         {}
func (NopRecorder) RecordChampion(float64, float64, float64)   {}
