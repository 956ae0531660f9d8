package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the application's configuration.
type Config struct {
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Trainer struct {
		Mode           string `yaml:"mode"` // "script" or "http"
		URL            string `yaml:"url"`
		Interpreter    string `yaml:"interpreter"`
		ScriptPath     string `yaml:"script_path"`
		ArtifactDir    string `yaml:"artifact_dir"`
		TimeoutSeconds int64  `yaml:"timeout_seconds"`
	} `yaml:"trainer"`
	Predictor struct {
		URL string `yaml:"url"`
	} `yaml:"predictor"`
	Baseline struct {
		CorpusPath      string  `yaml:"corpus_path"`
		ArtifactPath    string  `yaml:"artifact_path"`
		TrainingSamples int     `yaml:"training_samples"`
		R2Score         float64 `yaml:"r2_score"`
		OOBScore        float64 `yaml:"oob_score"`
	} `yaml:"baseline"`
	Retraining struct {
		// Minimum primary-score gain required before a candidate is promoted.
		// Zero means any non-regression (>= active) promotes.
		ImprovementThreshold float64 `yaml:"improvement_threshold"`
	} `yaml:"retraining"`
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
}

// LoadConfig reads configuration from the specified YAML file.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	// Set defaults
	if config.Server.Port == "" {
		config.Server.Port = "8080"
	}

	if config.Database.Path == "" {
		config.Database.Path = "./data/mlbeam.db"
	}

	if config.Trainer.Mode == "" {
		config.Trainer.Mode = "script"
	}

	if config.Trainer.Interpreter == "" {
		config.Trainer.Interpreter = "python3"
	}

	if config.Trainer.ScriptPath == "" {
		config.Trainer.ScriptPath = "scripts/retrain_model.py"
	}

	if config.Trainer.ArtifactDir == "" {
		config.Trainer.ArtifactDir = "./data/model_versions"
	}

	if config.Trainer.TimeoutSeconds == 0 {
		config.Trainer.TimeoutSeconds = 300
	}

	if config.Baseline.ArtifactPath == "" {
		config.Baseline.ArtifactPath = "./data/model_versions/v1.0.0.pkl"
	}

	if config.Baseline.TrainingSamples == 0 {
		config.Baseline.TrainingSamples = 978
	}

	if config.Baseline.R2Score == 0 {
		config.Baseline.R2Score = 0.794
	}

	if config.Baseline.OOBScore == 0 {
		config.Baseline.OOBScore = 0.794
	}

	return config, nil
}
