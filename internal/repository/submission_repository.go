package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"mlbeam-backend/internal/models"
)

// SubmissionRepository is the reviewable-submissions ledger. Records are never
// deleted; the only mutation permitted is the single review transition.
type SubmissionRepository interface {
	Create(sub *models.Submission) error
	GetByID(id string) (*models.Submission, error)
	List(status string) ([]*models.Submission, error)
	Review(id, status string, reviewedAt time.Time) error
	CountByStatus() (map[string]int, error)
}

type submissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository creates a new submission repository.
func NewSubmissionRepository(db *sqlx.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

const submissionColumns = `
	id, status, submitted_at, reviewed_at,
	researcher_name, researcher_email, institution, notes,
	h_mm, d_mm, b_mm, a_mm, abyd, fck_mpa, rho, fyk_mpa,
	da_mm, plate_top_mm, plate_bottom_mm, v_kn`

// Create persists a new pending submission.
func (r *submissionRepository) Create(sub *models.Submission) error {
	query := `
		INSERT INTO submissions (` + submissionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(
		query,
		sub.ID,
		sub.Status,
		sub.SubmittedAt,
		sub.ReviewedAt,
		sub.ResearcherName,
		sub.ResearcherEmail,
		sub.Institution,
		sub.Notes,
		sub.HeightMM,
		sub.DepthMM,
		sub.WidthMM,
		sub.ShearSpanMM,
		sub.SpanDepthRatio,
		sub.ConcreteStrengthMPa,
		sub.ReinforcementRatio,
		sub.SteelYieldMPa,
		sub.AggregateSizeMM,
		sub.PlateTopMM,
		sub.PlateBottomMM,
		sub.ShearStrengthKN,
	)
	if err != nil {
		return &models.PersistenceError{Op: "submission create", Err: err}
	}
	return nil
}

// GetByID returns a single submission.
func (r *submissionRepository) GetByID(id string) (*models.Submission, error) {
	sub := &models.Submission{}
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = ?`
	if err := r.db.Get(sub, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, &models.PersistenceError{Op: "submission lookup", Err: err}
	}
	return sub, nil
}

// List returns submissions newest first, optionally filtered by status.
func (r *submissionRepository) List(status string) ([]*models.Submission, error) {
	var subs []*models.Submission
	var err error

	if status != "" {
		query := `SELECT ` + submissionColumns + ` FROM submissions WHERE status = ? ORDER BY submitted_at DESC`
		err = r.db.Select(&subs, query, status)
	} else {
		query := `SELECT ` + submissionColumns + ` FROM submissions ORDER BY submitted_at DESC`
		err = r.db.Select(&subs, query)
	}

	if err != nil {
		return nil, &models.PersistenceError{Op: "submission list", Err: err}
	}
	return subs, nil
}

// Review applies the pending -> approved/rejected transition. The WHERE clause
// acts as a compare-and-swap: of two concurrent reviews at most one matches a
// pending row, the loser gets ErrInvalidState.
func (r *submissionRepository) Review(id, status string, reviewedAt time.Time) error {
	res, err := r.db.Exec(
		`UPDATE submissions SET status = ?, reviewed_at = ? WHERE id = ? AND status = ?`,
		status, reviewedAt, id, models.StatusPending,
	)
	if err != nil {
		return &models.PersistenceError{Op: "submission review", Err: err}
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return &models.PersistenceError{Op: "submission review", Err: err}
	}
	if affected > 0 {
		return nil
	}

	// Distinguish an unknown id from an already-reviewed submission.
	var count int
	if err := r.db.Get(&count, `SELECT COUNT(*) FROM submissions WHERE id = ?`, id); err != nil {
		return &models.PersistenceError{Op: "submission review", Err: err}
	}
	if count == 0 {
		return models.ErrNotFound
	}
	return models.ErrInvalidState
}

// CountByStatus returns submission counts per status for the dashboard.
func (r *submissionRepository) CountByStatus() (map[string]int, error) {
	rows, err := r.db.Query(`SELECT status, COUNT(*) FROM submissions GROUP BY status`)
	if err != nil {
		return nil, &models.PersistenceError{Op: "submission stats", Err: err}
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, &models.PersistenceError{Op: "submission stats", Err: err}
		}
		counts[status] = count
	}
	return counts, rows.Err()
}
