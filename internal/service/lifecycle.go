package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"mlbeam-backend/internal/models"
	"mlbeam-backend/internal/repository"
	"mlbeam-backend/internal/trainer"
)

// Retraining outcomes reported to the invoker.
const (
	RetrainPromoted      = "promoted"
	RetrainNoImprovement = "rejected-no-improvement"
	RetrainFailed        = "failed"
)

// RetrainReport describes the result of one retraining run.
type RetrainReport struct {
	Outcome           string  `json:"outcome"`
	Version           string  `json:"version,omitempty"`
	R2Score           float64 `json:"r2_score,omitempty"`
	OOBScore          float64 `json:"oob_score,omitempty"`
	ActiveR2Score     float64 `json:"active_r2_score,omitempty"`
	TrainingSamples   int     `json:"training_samples,omitempty"`
	AdditionalSamples int     `json:"additional_samples,omitempty"`
	Error             string  `json:"error,omitempty"`
}

// LifecycleService coordinates model retraining and rollback against the
// corpus and the registry.
type LifecycleService interface {
	Retrain(ctx context.Context) (*RetrainReport, error)
	Rollback(ctx context.Context) error
	Versions() ([]*models.ModelVersion, *models.ModelVersion, error)
	ActiveInfo() (*models.ModelVersion, error)
}

type lifecycleService struct {
	corpus   repository.CorpusRepository
	registry repository.RegistryRepository
	trainer  trainer.Trainer

	timeout              time.Duration
	improvementThreshold float64
	logger               *zap.Logger

	// Serializes retraining and rollback; acquired with TryLock so a
	// concurrent request fails fast instead of queuing.
	mu sync.Mutex
}

// NewLifecycleService creates the retraining/rollback coordinator.
func NewLifecycleService(
	corpus repository.CorpusRepository,
	registry repository.RegistryRepository,
	tr trainer.Trainer,
	timeout time.Duration,
	improvementThreshold float64,
	logger *zap.Logger,
) LifecycleService {
	return &lifecycleService{
		corpus:               corpus,
		registry:             registry,
		trainer:              tr,
		timeout:              timeout,
		improvementThreshold: improvementThreshold,
		logger:               logger,
	}
}

// Retrain snapshots the corpus, invokes the Trainer and promotes the candidate
// if its primary score does not regress against the active version. At most
// one run is in flight; concurrent callers get ErrAlreadyInProgress.
func (s *lifecycleService) Retrain(ctx context.Context) (*RetrainReport, error) {
	if !s.mu.TryLock() {
		return nil, models.ErrAlreadyInProgress
	}
	defer s.mu.Unlock()

	snapshot, err := s.corpus.Snapshot()
	if err != nil {
		return nil, err
	}

	appended := 0
	for _, e := range snapshot {
		if e.Appended() {
			appended++
		}
	}
	if appended == 0 {
		return nil, &models.RetrainingError{Cause: errors.New("no contributed samples to retrain with")}
	}

	s.logger.Info("Starting model retraining",
		zap.Int("corpus_samples", len(snapshot)),
		zap.Int("contributed_samples", appended))

	// The snapshot read is complete; no ledger state is held across the
	// trainer invocation.
	trainCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.trainer.Train(trainCtx, snapshot)
	if err != nil {
		return nil, &models.RetrainingError{
			Cause:   err,
			Timeout: errors.Is(trainCtx.Err(), context.DeadlineExceeded),
		}
	}

	active, err := s.registry.GetActive()
	if err != nil {
		return nil, err
	}

	if result.R2Score < active.R2Score+s.improvementThreshold {
		s.discardArtifact(result.ArtifactPath)
		s.logger.Info("Candidate model rejected, keeping current model",
			zap.Float64("candidate_r2", result.R2Score),
			zap.Float64("active_r2", active.R2Score))
		return &RetrainReport{
			Outcome:       RetrainNoImprovement,
			R2Score:       result.R2Score,
			OOBScore:      result.OOBScore,
			ActiveR2Score: active.R2Score,
		}, nil
	}

	candidate := &models.ModelVersion{
		VersionID:         s.nextVersionID(appended),
		CreatedAt:         time.Now().UTC(),
		Description:       fmt.Sprintf("Retrained with %d additional samples", appended),
		TrainingSamples:   result.TrainingSamples,
		AdditionalSamples: appended,
		R2Score:           result.R2Score,
		OOBScore:          result.OOBScore,
		ArtifactPath:      result.ArtifactPath,
	}

	if err := s.registry.Promote(candidate); err != nil {
		return nil, err
	}

	s.logger.Info("New model promoted",
		zap.String("version", candidate.VersionID),
		zap.Float64("r2_score", candidate.R2Score),
		zap.Float64("previous_r2", active.R2Score),
		zap.Int("training_samples", candidate.TrainingSamples))

	return &RetrainReport{
		Outcome:           RetrainPromoted,
		Version:           candidate.VersionID,
		R2Score:           candidate.R2Score,
		OOBScore:          candidate.OOBScore,
		ActiveR2Score:     active.R2Score,
		TrainingSamples:   candidate.TrainingSamples,
		AdditionalSamples: candidate.AdditionalSamples,
	}, nil
}

// Rollback purges contributed corpus entries and points the registry back at
// the baseline, in that order: a crash in between leaves a purged corpus and a
// stale pointer, which a re-run fixes. Running it at baseline is a no-op.
func (s *lifecycleService) Rollback(ctx context.Context) error {
	if !s.mu.TryLock() {
		return models.ErrAlreadyInProgress
	}
	defer s.mu.Unlock()

	if err := s.corpus.PurgeAppended(); err != nil {
		return err
	}
	if err := s.registry.ResetToBaseline(); err != nil {
		return err
	}

	s.logger.Info("Model rolled back to baseline, contributed data cleared")
	return nil
}

// Versions returns all registry records plus the active one.
func (s *lifecycleService) Versions() ([]*models.ModelVersion, *models.ModelVersion, error) {
	versions, err := s.registry.List()
	if err != nil {
		return nil, nil, err
	}
	active, err := s.registry.GetActive()
	if err != nil {
		return nil, nil, err
	}
	return versions, active, nil
}

// ActiveInfo returns the active version record.
func (s *lifecycleService) ActiveInfo() (*models.ModelVersion, error) {
	return s.registry.GetActive()
}

// nextVersionID follows the historical v1.1.<n> scheme where n is the
// contributed sample count. Registry records survive rollback while the
// counter restarts, so a taken id gets a timestamp suffix.
func (s *lifecycleService) nextVersionID(appended int) string {
	id := fmt.Sprintf("v1.1.%d", appended)
	taken, err := s.registry.Exists(id)
	if err != nil || taken {
		return fmt.Sprintf("%s.%d", id, time.Now().UnixNano())
	}
	return id
}

func (s *lifecycleService) discardArtifact(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("Failed to remove discarded candidate artifact",
			zap.String("path", path), zap.Error(err))
	}
}
