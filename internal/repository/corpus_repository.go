package repository

import (
	"github.com/jmoiron/sqlx"

	"mlbeam-backend/internal/models"
)

// CorpusRepository is the training-corpus ledger. Baseline rows are seeded once
// with their original beam numbers; contributed rows live in the disjoint
// sequence space starting at models.AppendedSeqStart. Entries are immutable;
// the only removal is the rollback purge of the appended space.
type CorpusRepository interface {
	Append(entry *models.CorpusEntry) (int64, error)
	Snapshot() ([]*models.CorpusEntry, error)
	PurgeAppended() error
	SeedBaseline(samples []models.BeamSample) error
	BaselineCount() (int, error)
	AppendedCount() (int, error)
}

type corpusRepository struct {
	db *sqlx.DB
}

// NewCorpusRepository creates a new corpus repository.
func NewCorpusRepository(db *sqlx.DB) CorpusRepository {
	return &corpusRepository{db: db}
}

const corpusColumns = `
	seq, submission_id, added_at,
	h_mm, d_mm, b_mm, a_mm, abyd, fck_mpa, rho, fyk_mpa,
	da_mm, plate_top_mm, plate_bottom_mm, v_kn`

// Append inserts one contributed entry and returns its sequence number.
// Sequence assignment and insert share a transaction so concurrent appends
// never collide.
func (r *corpusRepository) Append(entry *models.CorpusEntry) (int64, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return 0, &models.PersistenceError{Op: "corpus append", Err: err}
	}
	defer tx.Rollback()

	var seq int64
	err = tx.Get(&seq,
		`SELECT COALESCE(MAX(seq) + 1, ?) FROM corpus_entries WHERE seq >= ?`,
		models.AppendedSeqStart, models.AppendedSeqStart,
	)
	if err != nil {
		return 0, &models.PersistenceError{Op: "corpus append", Err: err}
	}

	query := `
		INSERT INTO corpus_entries (` + corpusColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = tx.Exec(
		query,
		seq,
		entry.SubmissionID,
		entry.AddedAt,
		entry.HeightMM,
		entry.DepthMM,
		entry.WidthMM,
		entry.ShearSpanMM,
		entry.SpanDepthRatio,
		entry.ConcreteStrengthMPa,
		entry.ReinforcementRatio,
		entry.SteelYieldMPa,
		entry.AggregateSizeMM,
		entry.PlateTopMM,
		entry.PlateBottomMM,
		entry.ShearStrengthKN,
	)
	if err != nil {
		return 0, &models.PersistenceError{Op: "corpus append", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return 0, &models.PersistenceError{Op: "corpus append", Err: err}
	}

	entry.Seq = seq
	return seq, nil
}

// Snapshot returns all entries ordered by sequence number. A single SELECT is
// a consistent point-in-time read; concurrent appends are either wholly in or
// wholly out.
func (r *corpusRepository) Snapshot() ([]*models.CorpusEntry, error) {
	var entries []*models.CorpusEntry
	query := `SELECT ` + corpusColumns + ` FROM corpus_entries ORDER BY seq`
	if err := r.db.Select(&entries, query); err != nil {
		return nil, &models.PersistenceError{Op: "corpus snapshot", Err: err}
	}
	return entries, nil
}

// PurgeAppended removes every contributed entry. A single DELETE keeps the
// purge atomic; re-running it on an already-purged corpus is a no-op.
func (r *corpusRepository) PurgeAppended() error {
	_, err := r.db.Exec(`DELETE FROM corpus_entries WHERE seq >= ?`, models.AppendedSeqStart)
	if err != nil {
		return &models.PersistenceError{Op: "corpus purge", Err: err}
	}
	return nil
}

// SeedBaseline loads the original dataset into the low sequence space. It only
// runs against an empty corpus.
func (r *corpusRepository) SeedBaseline(samples []models.BeamSample) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return &models.PersistenceError{Op: "corpus seed", Err: err}
	}
	defer tx.Rollback()

	var count int
	if err := tx.Get(&count, `SELECT COUNT(*) FROM corpus_entries`); err != nil {
		return &models.PersistenceError{Op: "corpus seed", Err: err}
	}
	if count > 0 {
		return nil
	}

	query := `
		INSERT INTO corpus_entries (` + corpusColumns + `)
		VALUES (?, NULL, CURRENT_TIMESTAMP, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for i, s := range samples {
		_, err := tx.Exec(
			query,
			int64(i+1),
			s.HeightMM,
			s.DepthMM,
			s.WidthMM,
			s.ShearSpanMM,
			s.SpanDepthRatio,
			s.ConcreteStrengthMPa,
			s.ReinforcementRatio,
			s.SteelYieldMPa,
			s.AggregateSizeMM,
			s.PlateTopMM,
			s.PlateBottomMM,
			s.ShearStrengthKN,
		)
		if err != nil {
			return &models.PersistenceError{Op: "corpus seed", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &models.PersistenceError{Op: "corpus seed", Err: err}
	}
	return nil
}

// BaselineCount returns the number of baseline entries.
func (r *corpusRepository) BaselineCount() (int, error) {
	return r.countWhere(`seq < ?`)
}

// AppendedCount returns the number of contributed entries.
func (r *corpusRepository) AppendedCount() (int, error) {
	return r.countWhere(`seq >= ?`)
}

func (r *corpusRepository) countWhere(cond string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM corpus_entries WHERE ` + cond
	if err := r.db.Get(&count, query, models.AppendedSeqStart); err != nil {
		return 0, &models.PersistenceError{Op: "corpus count", Err: err}
	}
	return count, nil
}
