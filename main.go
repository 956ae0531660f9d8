package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"mlbeam-backend/internal/config"
	"mlbeam-backend/internal/models"
	"mlbeam-backend/internal/repository"
	"mlbeam-backend/internal/server"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err) // Should not happen in development
	}
	defer func() {
		_ = logger.Sync() // Flushes buffer, if any
	}()

	// Load configuration
	cfgPath := "configs/config.yml"
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// Database connection
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0755); err != nil {
		logger.Fatal("Failed to create data directory", zap.Error(err))
	}
	db, err := repository.NewSQLiteDB(cfg.Database.Path, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	repository.MigrateDB(db, logger)

	// Seed the baseline model version and corpus on first start
	registryRepo := repository.NewRegistryRepository(db)
	corpusRepo := repository.NewCorpusRepository(db)
	if err := seedBaseline(cfg, registryRepo, corpusRepo, logger); err != nil {
		logger.Fatal("Failed to seed baseline state", zap.Error(err))
	}

	if err := os.MkdirAll(cfg.Trainer.ArtifactDir, 0755); err != nil {
		logger.Fatal("Failed to create artifact directory", zap.Error(err))
	}

	// Context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Initialize and run the server
	srv := server.NewServer(db, cfg, logger)
	if err := srv.Run(ctx, cfg.Server.Port); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}

	logger.Info("Application stopped.")
}

// seedBaseline records the original model version and loads the baseline
// dataset into the corpus. Both seeds are no-ops once the ledgers hold data.
func seedBaseline(
	cfg *config.Config,
	registryRepo repository.RegistryRepository,
	corpusRepo repository.CorpusRepository,
	logger *zap.Logger,
) error {
	baseline := &models.ModelVersion{
		VersionID:       models.BaselineVersionID,
		CreatedAt:       time.Now().UTC(),
		Description:     fmt.Sprintf("Original model trained on %d samples", cfg.Baseline.TrainingSamples),
		TrainingSamples: cfg.Baseline.TrainingSamples,
		R2Score:         cfg.Baseline.R2Score,
		OOBScore:        cfg.Baseline.OOBScore,
		ArtifactPath:    cfg.Baseline.ArtifactPath,
	}
	if err := registryRepo.SeedBaseline(baseline); err != nil {
		return err
	}

	if cfg.Baseline.CorpusPath == "" {
		return nil
	}

	data, err := os.ReadFile(cfg.Baseline.CorpusPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("Baseline corpus file not found, corpus left empty",
				zap.String("path", cfg.Baseline.CorpusPath))
			return nil
		}
		return err
	}

	var samples []models.BeamSample
	if err := json.Unmarshal(data, &samples); err != nil {
		return fmt.Errorf("failed to parse baseline corpus: %w", err)
	}

	if err := corpusRepo.SeedBaseline(samples); err != nil {
		return err
	}

	logger.Info("Baseline corpus seeded", zap.Int("samples", len(samples)))
	return nil
}
