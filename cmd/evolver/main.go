package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/stresslab/portfolio-engine/config"
	"github.com/stresslab/portfolio-engine/internal/evolution"
	"github.com/stresslab/portfolio-engine/internal/simulation"
	"github.com/stresslab/portfolio-engine/pkg/metrics"
	"github.com/stresslab/portfolio-engine/pkg/models"
	"github.com/stresslab/portfolio-engine/pkg/utils/logger"
)

func main() {
	seedFile := flag.String("seed-file", "", "JSON file with the seed portfolio; equal-weight when omitted")
	output := flag.String("output", "-", "output path for the evolution result, '-' for stdout")
	seed := flag.Int64("seed", 0, "override the simulation seed; 0 keeps the configured value")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.GetLogger("evolver.main").Fatalf("Failed to load configuration: %v", err)
	}

	logger.Init(cfg.App.LogLevel, cfg.App.Environment)
	log := logger.GetLogger("evolver.main")
	log.Infof("Starting %s evolver", cfg.App.Name)

	seedPortfolio, err := loadSeedPortfolio(*seedFile)
	if err != nil {
		log.Fatalf("Failed to load seed portfolio: %v", err)
	}
	// Input validation is the boundary's job; the engines assume valid
	// portfolios.
	if err := seedPortfolio.Validate(); err != nil {
		log.Fatalf("Invalid seed portfolio: %v", err)
	}

	evoCfg := cfg.EvolutionModel()
	if *seed != 0 {
		evoCfg.Simulation.Seed = *seed
	}

	simEngine := simulation.NewEngine(models.DefaultAssetAssumptions(), cfg.RegimeTableModel(), metrics.NopRecorder{})
	engine := evolution.NewEngine(evoCfg, simEngine, metrics.NopRecorder{})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := engine.Evolve(ctx, seedPortfolio)
	if err != nil {
		log.Fatalf("Evolution failed: %v", err)
	}

	if err := writeResult(*output, result); err != nil {
		log.Fatalf("Failed to write result: %v", err)
	}
	log.Infof("Champion fitness %.4f (Sharpe %.3f, CVaR95 %.3f)",
		result.Champion.Fitness, result.Champion.Summary.Sharpe, result.Champion.Summary.CVaR95)
}

func loadSeedPortfolio(path string) (models.Portfolio, error) {
	if path == "" {
		return models.EqualWeightPortfolio(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p models.Portfolio
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return p, nil
}

func writeResult(path string, result *models.EvolutionResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if path == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
