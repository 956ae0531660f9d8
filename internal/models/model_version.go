package models

import "time"

// Model version statuses. Exactly one version is active at any time; the
// baseline keeps its separate flag so it stays identifiable after demotion.
const (
	ModelStatusActive   = "active"
	ModelStatusInactive = "inactive"
)

// BaselineVersionID names the original, pre-contribution model. It is created
// once at setup and is the permanent rollback target.
const BaselineVersionID = "v1.0.0"

// ModelVersion is one registry record: a named, scored model artifact.
type ModelVersion struct {
	VersionID         string    `db:"version_id" json:"version"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	Description       string    `db:"description" json:"description"`
	TrainingSamples   int       `db:"training_samples" json:"training_samples"`
	AdditionalSamples int       `db:"additional_samples" json:"additional_samples"`
	R2Score           float64   `db:"r2_score" json:"r2_score"`
	OOBScore          float64   `db:"oob_score" json:"oob_score"`
	Status            string    `db:"status" json:"status"`
	IsBaseline        bool      `db:"is_baseline" json:"is_baseline"`
	ArtifactPath      string    `db:"artifact_path" json:"artifact_path,omitempty"`
}
