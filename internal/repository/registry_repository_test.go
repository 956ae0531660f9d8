package repository

import (
	"errors"
	"testing"
	"time"

	"mlbeam-backend/internal/models"
)

func testBaselineVersion() *models.ModelVersion {
	return &models.ModelVersion{
		VersionID:       models.BaselineVersionID,
		CreatedAt:       time.Now().UTC(),
		Description:     "Original model trained on 978 samples",
		TrainingSamples: 978,
		R2Score:         0.794,
		OOBScore:        0.794,
	}
}

func testCandidate(id string, r2 float64) *models.ModelVersion {
	return &models.ModelVersion{
		VersionID:         id,
		CreatedAt:         time.Now().UTC(),
		Description:       "Retrained with 1 additional samples",
		TrainingSamples:   979,
		AdditionalSamples: 1,
		R2Score:           r2,
		OOBScore:          r2,
	}
}

func activeStatusCount(t *testing.T, repo RegistryRepository) int {
	t.Helper()

	versions, err := repo.List()
	if err != nil {
		t.Fatalf("list versions: %v", err)
	}
	count := 0
	for _, v := range versions {
		if v.Status == models.ModelStatusActive {
			count++
		}
	}
	return count
}

func TestRegistrySeedBaseline(t *testing.T) {
	repo := NewRegistryRepository(newTestDB(t))

	if err := repo.SeedBaseline(testBaselineVersion()); err != nil {
		t.Fatalf("seed baseline: %v", err)
	}

	active, err := repo.GetActive()
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	if active.VersionID != models.BaselineVersionID {
		t.Fatalf("expected baseline active, got %q", active.VersionID)
	}
	if !active.IsBaseline {
		t.Fatal("expected baseline flag set")
	}

	// Re-seeding must not duplicate anything.
	if err := repo.SeedBaseline(testBaselineVersion()); err != nil {
		t.Fatalf("re-seed baseline: %v", err)
	}
	versions, err := repo.List()
	if err != nil {
		t.Fatalf("list versions: %v", err)
	}
	if len(versions) != 1 {
		t.Fatalf("expected single version record, got %d", len(versions))
	}
}

func TestRegistryGetActiveEmpty(t *testing.T) {
	repo := NewRegistryRepository(newTestDB(t))

	if _, err := repo.GetActive(); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRegistryPromoteSwapsActive(t *testing.T) {
	repo := NewRegistryRepository(newTestDB(t))
	if err := repo.SeedBaseline(testBaselineVersion()); err != nil {
		t.Fatalf("seed baseline: %v", err)
	}

	if err := repo.Promote(testCandidate("v1.1.1", 0.81)); err != nil {
		t.Fatalf("promote: %v", err)
	}

	active, err := repo.GetActive()
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	if active.VersionID != "v1.1.1" {
		t.Fatalf("expected v1.1.1 active, got %q", active.VersionID)
	}
	if got := activeStatusCount(t, repo); got != 1 {
		t.Fatalf("expected exactly one active version, got %d", got)
	}

	baseline, err := repo.GetBaseline()
	if err != nil {
		t.Fatalf("get baseline: %v", err)
	}
	if baseline.Status != models.ModelStatusInactive {
		t.Fatalf("expected demoted baseline, got %q", baseline.Status)
	}

	// A second promotion demotes the first candidate in turn.
	if err := repo.Promote(testCandidate("v1.1.2", 0.83)); err != nil {
		t.Fatalf("second promote: %v", err)
	}
	if got := activeStatusCount(t, repo); got != 1 {
		t.Fatalf("expected exactly one active version, got %d", got)
	}

	versions, err := repo.List()
	if err != nil {
		t.Fatalf("list versions: %v", err)
	}
	if len(versions) != 3 {
		t.Fatalf("expected 3 version records, got %d", len(versions))
	}
}

func TestRegistryResetToBaseline(t *testing.T) {
	repo := NewRegistryRepository(newTestDB(t))
	if err := repo.SeedBaseline(testBaselineVersion()); err != nil {
		t.Fatalf("seed baseline: %v", err)
	}
	if err := repo.Promote(testCandidate("v1.1.1", 0.81)); err != nil {
		t.Fatalf("promote: %v", err)
	}

	if err := repo.ResetToBaseline(); err != nil {
		t.Fatalf("reset: %v", err)
	}

	active, err := repo.GetActive()
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	if active.VersionID != models.BaselineVersionID {
		t.Fatalf("expected baseline active, got %q", active.VersionID)
	}
	if got := activeStatusCount(t, repo); got != 1 {
		t.Fatalf("expected exactly one active version, got %d", got)
	}

	// Historical records survive the reset.
	exists, err := repo.Exists("v1.1.1")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if !exists {
		t.Fatal("expected demoted candidate record to survive reset")
	}

	// Resetting again is a no-op.
	if err := repo.ResetToBaseline(); err != nil {
		t.Fatalf("second reset: %v", err)
	}
	active, err = repo.GetActive()
	if err != nil {
		t.Fatalf("get active after second reset: %v", err)
	}
	if active.VersionID != models.BaselineVersionID {
		t.Fatalf("expected baseline active, got %q", active.VersionID)
	}
}
