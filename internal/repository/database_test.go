package repository

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"mlbeam-backend/internal/models"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := NewSQLiteDB(path, zap.NewNop())
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	MigrateDB(db, zap.NewNop())
	return db
}

func testSample(target float64) models.BeamSample {
	return models.BeamSample{
		BeamFeatures: models.BeamFeatures{
			HeightMM:            500,
			DepthMM:             450,
			WidthMM:             300,
			ShearSpanMM:         1200,
			SpanDepthRatio:      2.7,
			ConcreteStrengthMPa: 35,
			ReinforcementRatio:  0.02,
			SteelYieldMPa:       500,
			AggregateSizeMM:     16,
			PlateTopMM:          100,
			PlateBottomMM:       100,
		},
		ShearStrengthKN: target,
	}
}

func testSubmission(id string) *models.Submission {
	return &models.Submission{
		ID:              id,
		Status:          models.StatusPending,
		SubmittedAt:     time.Now().UTC(),
		ResearcherName:  "Ada Researcher",
		ResearcherEmail: "ada@example.edu",
		Institution:     "Test University",
		BeamSample:      testSample(250),
	}
}
