package trainer

import (
	"context"

	"mlbeam-backend/internal/models"
)

// Result is what the Trainer capability reports for a completed run. Scores
// are computed by the trainer against a held-out split it manages internally.
type Result struct {
	ArtifactPath    string  `json:"artifact_path"`
	R2Score         float64 `json:"r2_score"`
	OOBScore        float64 `json:"oob_score"`
	TrainingSamples int     `json:"training_samples"`
}

// Trainer fits a model to the given corpus snapshot and reports its evaluation
// metrics. Implementations must honor context cancellation.
type Trainer interface {
	Train(ctx context.Context, snapshot []*models.CorpusEntry) (*Result, error)
}
