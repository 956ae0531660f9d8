package repository

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"mlbeam-backend/internal/models"
)

// RegistryRepository is the versioned model registry. Version records are
// append-only; the single-row active pointer decides which one serves
// predictions. All pointer swaps happen inside a transaction together with the
// status updates, so readers always observe exactly one active version.
type RegistryRepository interface {
	GetActive() (*models.ModelVersion, error)
	GetBaseline() (*models.ModelVersion, error)
	List() ([]*models.ModelVersion, error)
	Exists(versionID string) (bool, error)
	Promote(candidate *models.ModelVersion) error
	ResetToBaseline() error
	SeedBaseline(baseline *models.ModelVersion) error
}

type registryRepository struct {
	db *sqlx.DB
}

// NewRegistryRepository creates a new model registry repository.
func NewRegistryRepository(db *sqlx.DB) RegistryRepository {
	return &registryRepository{db: db}
}

const versionColumns = `
	version_id, created_at, description, training_samples, additional_samples,
	r2_score, oob_score, status, is_baseline, artifact_path`

// GetActive returns the version the active pointer designates.
func (r *registryRepository) GetActive() (*models.ModelVersion, error) {
	v := &models.ModelVersion{}
	query := `
		SELECT v.version_id, v.created_at, v.description, v.training_samples,
		       v.additional_samples, v.r2_score, v.oob_score, v.status,
		       v.is_baseline, v.artifact_path
		FROM model_versions v
		JOIN active_model a ON a.version_id = v.version_id
	`
	if err := r.db.Get(v, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, &models.PersistenceError{Op: "registry active lookup", Err: err}
	}
	return v, nil
}

// GetBaseline returns the permanent baseline version.
func (r *registryRepository) GetBaseline() (*models.ModelVersion, error) {
	v := &models.ModelVersion{}
	query := `SELECT ` + versionColumns + ` FROM model_versions WHERE is_baseline = 1`
	if err := r.db.Get(v, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, &models.PersistenceError{Op: "registry baseline lookup", Err: err}
	}
	return v, nil
}

// List returns all version records, newest first.
func (r *registryRepository) List() ([]*models.ModelVersion, error) {
	var versions []*models.ModelVersion
	query := `SELECT ` + versionColumns + ` FROM model_versions ORDER BY created_at DESC, version_id DESC`
	if err := r.db.Select(&versions, query); err != nil {
		return nil, &models.PersistenceError{Op: "registry list", Err: err}
	}
	return versions, nil
}

// Exists reports whether a version id is already taken.
func (r *registryRepository) Exists(versionID string) (bool, error) {
	var count int
	if err := r.db.Get(&count, `SELECT COUNT(*) FROM model_versions WHERE version_id = ?`, versionID); err != nil {
		return false, &models.PersistenceError{Op: "registry lookup", Err: err}
	}
	return count > 0, nil
}

// Promote durably writes the candidate and flips the active pointer to it,
// demoting the previous active version, all in one transaction.
func (r *registryRepository) Promote(candidate *models.ModelVersion) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return &models.PersistenceError{Op: "registry promote", Err: err}
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`UPDATE model_versions SET status = ? WHERE status = ?`,
		models.ModelStatusInactive, models.ModelStatusActive,
	); err != nil {
		return &models.PersistenceError{Op: "registry promote", Err: err}
	}

	query := `
		INSERT INTO model_versions (` + versionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := tx.Exec(
		query,
		candidate.VersionID,
		candidate.CreatedAt,
		candidate.Description,
		candidate.TrainingSamples,
		candidate.AdditionalSamples,
		candidate.R2Score,
		candidate.OOBScore,
		models.ModelStatusActive,
		false,
		candidate.ArtifactPath,
	); err != nil {
		return &models.PersistenceError{Op: "registry promote", Err: err}
	}

	if _, err := tx.Exec(`UPDATE active_model SET version_id = ? WHERE id = 1`, candidate.VersionID); err != nil {
		return &models.PersistenceError{Op: "registry promote", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return &models.PersistenceError{Op: "registry promote", Err: err}
	}

	candidate.Status = models.ModelStatusActive
	return nil
}

// ResetToBaseline points the active pointer back at the baseline version.
// Historical records are kept. Running it when the baseline is already active
// is a no-op.
func (r *registryRepository) ResetToBaseline() error {
	tx, err := r.db.Beginx()
	if err != nil {
		return &models.PersistenceError{Op: "registry reset", Err: err}
	}
	defer tx.Rollback()

	var baselineID string
	if err := tx.Get(&baselineID, `SELECT version_id FROM model_versions WHERE is_baseline = 1`); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ErrNotFound
		}
		return &models.PersistenceError{Op: "registry reset", Err: err}
	}

	if _, err := tx.Exec(
		`UPDATE model_versions SET status = ? WHERE status = ?`,
		models.ModelStatusInactive, models.ModelStatusActive,
	); err != nil {
		return &models.PersistenceError{Op: "registry reset", Err: err}
	}

	if _, err := tx.Exec(
		`UPDATE model_versions SET status = ? WHERE version_id = ?`,
		models.ModelStatusActive, baselineID,
	); err != nil {
		return &models.PersistenceError{Op: "registry reset", Err: err}
	}

	if _, err := tx.Exec(`UPDATE active_model SET version_id = ? WHERE id = 1`, baselineID); err != nil {
		return &models.PersistenceError{Op: "registry reset", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return &models.PersistenceError{Op: "registry reset", Err: err}
	}
	return nil
}

// SeedBaseline inserts the baseline version and points the active pointer at
// it. It only runs against an empty registry.
func (r *registryRepository) SeedBaseline(baseline *models.ModelVersion) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return &models.PersistenceError{Op: "registry seed", Err: err}
	}
	defer tx.Rollback()

	var count int
	if err := tx.Get(&count, `SELECT COUNT(*) FROM model_versions`); err != nil {
		return &models.PersistenceError{Op: "registry seed", Err: err}
	}
	if count > 0 {
		return nil
	}

	query := `
		INSERT INTO model_versions (` + versionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1, ?)
	`
	if _, err := tx.Exec(
		query,
		baseline.VersionID,
		baseline.CreatedAt,
		baseline.Description,
		baseline.TrainingSamples,
		baseline.AdditionalSamples,
		baseline.R2Score,
		baseline.OOBScore,
		models.ModelStatusActive,
		baseline.ArtifactPath,
	); err != nil {
		return &models.PersistenceError{Op: "registry seed", Err: err}
	}

	if _, err := tx.Exec(`INSERT INTO active_model (id, version_id) VALUES (1, ?)`, baseline.VersionID); err != nil {
		return &models.PersistenceError{Op: "registry seed", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return &models.PersistenceError{Op: "registry seed", Err: err}
	}
	return nil
}
