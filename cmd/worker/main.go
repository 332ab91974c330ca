package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stresslab/portfolio-engine/config"
	"github.com/stresslab/portfolio-engine/internal/evolution"
	"github.com/stresslab/portfolio-engine/internal/kafka"
	"github.com/stresslab/portfolio-engine/internal/simulation"
	"github.com/stresslab/portfolio-engine/pkg/metrics"
	"github.com/stresslab/portfolio-engine/pkg/models"
	"github.com/stresslab/portfolio-engine/pkg/utils/errors"
	"github.com/stresslab/portfolio-engine/pkg/utils/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.GetLogger("worker.main").Fatalf("Failed to load configuration: %v", err)
	}

	logger.Init(cfg.App.LogLevel, cfg.App.Environment)
	log := logger.GetLogger("worker.main")
	log.Infof("Starting %s worker", cfg.App.Name)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	recorder := metrics.NewRecorder()
	if cfg.Metrics.Prometheus.Enabled {
		go serveMetrics(cfg.Metrics.Prometheus.Port, log)
	}

	client, err := kafka.NewClient(kafka.Config{
		Brokers:      cfg.Kafka.Brokers,
		GroupID:      cfg.Kafka.GroupID,
		ProducerAcks: cfg.Kafka.ProducerAcks,
		WriteTimeout: cfg.Kafka.WriteTimeout,
	})
	if err != nil {
		log.Fatalf("Failed to create kafka client: %v", err)
	}

	requests := client.NewConsumer(cfg.Kafka.Topics.EvolutionRequests)
	results := client.NewProducer(cfg.Kafka.Topics.EvolutionResults)

	simEngine := simulation.NewEngine(models.DefaultAssetAssumptions(), cfg.RegimeTableModel(), recorder)

	log.Info("Worker started, waiting for evolution requests")
	for {
		msg, err := requests.ConsumeMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			log.Errorf("Error consuming request: %v", err)
			continue
		}
		handleRequest(ctx, msg, cfg, simEngine, recorder, results, log)
	}

	log.Info("Shutting down")
	if err := client.Close(); err != nil {
		log.Errorf("Kafka client shutdown error: %v", err)
	}
	log.Info("Shutdown complete")
}

func handleRequest(ctx context.Context, msg *kafka.Message, cfg *config.Config,
	simEngine *simulation.Engine, recorder metrics.Recorder, results *kafka.Producer, log *logger.Logger) {

	var req models.RunRequest
	if err := json.Unmarshal(msg.Value, &req); err != nil {
		log.Errorf("Failed to unmarshal run request: %v", err)
		return
	}

	log.Infow("handling evolution request", "runId", req.RunID)
	reply := models.RunResult{RunID: req.RunID, CompletedAt: time.Now()}

	if err := validateRequest(&req, cfg); err != nil {
		log.Warnf("Rejecting run %s: %v", req.RunID, err)
		reply.Error = err.Error()
	} else {
		engine := evolution.NewEngine(req.Config, simEngine, recorder)
		result, err := engine.Evolve(ctx, req.Seed)
		if err != nil {
			log.Errorf("Run %s failed: %v", req.RunID, err)
			reply.Error = err.Error()
		} else {
			reply.Result = result
		}
		reply.CompletedAt = time.Now()
	}

	if err := results.ProduceJSON(ctx, []byte(req.RunID), reply); err != nil {
		log.Errorf("Failed to produce result for run %s: %v", req.RunID, err)
	}
}

// validateRequest enforces the external contract before anything reaches the
// engines: a valid seed portfolio and sane evolution bounds. Requests that
// carry no evolution settings run with the configured defaults.
func validateRequest(req *models.RunRequest, cfg *config.Config) error {
	if req.RunID == "" {
		return errors.InvalidArgument("run request has no runId")
	}
	if req.Seed == nil {
		req.Seed = models.EqualWeightPortfolio()
	}
	if err := req.Seed.Validate(); err != nil {
		return err
	}
	if req.Config.PopulationSize == 0 && req.Config.Generations == 0 {
		req.Config = cfg.EvolutionModel()
		return nil
	}
	if req.Config.PopulationSize < 2 {
		return errors.InvalidArgumentf("populationSize must be >= 2, got %d", req.Config.PopulationSize)
	}
	if req.Config.Generations < 1 {
		return errors.InvalidArgumentf("generations must be >= 1, got %d", req.Config.Generations)
	}
	if req.Config.EliteCount >= req.Config.PopulationSize {
		return errors.InvalidArgumentf("eliteCount %d must be below populationSize %d",
			req.Config.EliteCount, req.Config.PopulationSize)
	}
	if req.Config.Simulation.NumScenarios < 1 {
		return errors.InvalidArgumentf("numScenarios must be >= 1, got %d", req.Config.Simulation.NumScenarios)
	}
	if req.Config.Simulation.HorizonMonths < 1 {
		return errors.InvalidArgumentf("horizonMonths must be >= 1, got %d", req.Config.Simulation.HorizonMonths)
	}
	return nil
}

func serveMetrics(port int, log *logger.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	addr := fmt.Sprintf(":%d", port)
	log.Infof("Serving prometheus metrics on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Errorf("Metrics server error: %v", err)
	}
}
