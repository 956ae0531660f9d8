package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"mlbeam-backend/internal/models"
	"mlbeam-backend/internal/trainer"
)

func testSubmitInput(target float64) *SubmitInput {
	return &SubmitInput{
		ResearcherName:  "Dr. Maria Santos",
		ResearcherEmail: "m.santos@example.edu",
		Institution:     "Structural Engineering Lab",
		Notes:           "High-strength concrete series",
		BeamSample:      testBeamSample(target),
	}
}

func newSubmissionService(t *testing.T, env *testEnv, tr trainer.Trainer) SubmissionService {
	t.Helper()
	lifecycle := env.lifecycle(tr, time.Minute)
	return NewSubmissionService(env.submissions, env.corpus, lifecycle, zap.NewNop())
}

func TestSubmitAssignsPendingID(t *testing.T) {
	env := newTestEnv(t)
	svc := newSubmissionService(t, env, improvingTrainer(0.80))

	sub, err := svc.Submit(testSubmitInput(250))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !strings.HasPrefix(sub.ID, "sub_") {
		t.Fatalf("unexpected id shape %q", sub.ID)
	}
	if sub.Status != models.StatusPending {
		t.Fatalf("expected pending, got %q", sub.Status)
	}
	if sub.ReviewedAt != nil {
		t.Fatal("expected no review timestamp on submit")
	}

	stored, err := env.submissions.GetByID(sub.ID)
	if err != nil {
		t.Fatalf("get stored submission: %v", err)
	}
	if stored.ShearStrengthKN != 250 {
		t.Fatalf("expected target 250, got %v", stored.ShearStrengthKN)
	}
}

func TestSubmitValidation(t *testing.T) {
	env := newTestEnv(t)
	svc := newSubmissionService(t, env, improvingTrainer(0.80))

	tests := []struct {
		name   string
		mutate func(*SubmitInput)
		field  string
	}{
		{"missing name", func(in *SubmitInput) { in.ResearcherName = "" }, "researcher_name"},
		{"bad email", func(in *SubmitInput) { in.ResearcherEmail = "not-an-email" }, "researcher_email"},
		{"missing institution", func(in *SubmitInput) { in.Institution = "" }, "institution"},
		{"zero height", func(in *SubmitInput) { in.HeightMM = 0 }, "h_mm"},
		{"height over cap", func(in *SubmitInput) { in.HeightMM = 20000 }, "h_mm"},
		{"ratio over cap", func(in *SubmitInput) { in.SpanDepthRatio = 11 }, "abyd"},
		{"negative strength", func(in *SubmitInput) { in.ShearStrengthKN = -5 }, "V_Kn"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := testSubmitInput(250)
			tt.mutate(input)

			_, err := svc.Submit(input)
			var vErr *models.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			found := false
			for _, f := range vErr.Fields {
				if f.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Fatalf("expected field %q in %+v", tt.field, vErr.Fields)
			}
		})
	}
}

func TestReviewApprovePromotes(t *testing.T) {
	env := newTestEnv(t)
	env.seedRegistry(t, 0.65)
	env.seedCorpus(t, 3, 0)
	svc := newSubmissionService(t, env, improvingTrainer(0.70))

	sub, err := svc.Submit(testSubmitInput(250))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	result, err := svc.Review(context.Background(), sub.ID, models.ActionApprove)
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if result.Status != models.StatusApproved {
		t.Fatalf("expected approved, got %q", result.Status)
	}
	if result.CorpusSeq < models.AppendedSeqStart {
		t.Fatalf("expected appended-space seq, got %d", result.CorpusSeq)
	}
	if result.Retrain == nil || result.Retrain.Outcome != RetrainPromoted {
		t.Fatalf("expected promoted retrain outcome, got %+v", result.Retrain)
	}

	active, err := env.registry.GetActive()
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	if active.VersionID != result.Retrain.Version {
		t.Fatalf("active %q does not match promoted %q", active.VersionID, result.Retrain.Version)
	}

	stored, err := env.submissions.GetByID(sub.ID)
	if err != nil {
		t.Fatalf("get submission: %v", err)
	}
	if stored.ReviewedAt == nil {
		t.Fatal("expected review timestamp")
	}
}

func TestReviewApproveKeepsCorpusOnNoImprovement(t *testing.T) {
	env := newTestEnv(t)
	env.seedRegistry(t, 0.90)
	env.seedCorpus(t, 3, 0)
	svc := newSubmissionService(t, env, improvingTrainer(0.60))

	sub, err := svc.Submit(testSubmitInput(250))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	result, err := svc.Review(context.Background(), sub.ID, models.ActionApprove)
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if result.Retrain == nil || result.Retrain.Outcome != RetrainNoImprovement {
		t.Fatalf("expected no-improvement outcome, got %+v", result.Retrain)
	}

	// The contribution stays in the corpus even though the candidate lost.
	appended, err := env.corpus.AppendedCount()
	if err != nil {
		t.Fatalf("appended count: %v", err)
	}
	if appended != 1 {
		t.Fatalf("expected 1 appended entry, got %d", appended)
	}

	active, err := env.registry.GetActive()
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	if active.VersionID != models.BaselineVersionID {
		t.Fatalf("expected baseline still active, got %q", active.VersionID)
	}
}

func TestReviewApproveSurvivesTrainerFailure(t *testing.T) {
	env := newTestEnv(t)
	env.seedRegistry(t, 0.65)
	env.seedCorpus(t, 3, 0)

	tr := trainerFunc(func(ctx context.Context, snapshot []*models.CorpusEntry) (*trainer.Result, error) {
		return nil, errors.New("training script failed: exit status 1")
	})
	svc := newSubmissionService(t, env, tr)

	sub, err := svc.Submit(testSubmitInput(250))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	result, err := svc.Review(context.Background(), sub.ID, models.ActionApprove)
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if result.Status != models.StatusApproved {
		t.Fatalf("expected approved despite trainer failure, got %q", result.Status)
	}
	if result.Retrain == nil || result.Retrain.Outcome != RetrainFailed {
		t.Fatalf("expected failed retrain outcome, got %+v", result.Retrain)
	}
	if result.Retrain.Error == "" {
		t.Fatal("expected error detail in retrain report")
	}

	stored, err := env.submissions.GetByID(sub.ID)
	if err != nil {
		t.Fatalf("get submission: %v", err)
	}
	if stored.Status != models.StatusApproved {
		t.Fatalf("expected stored approval, got %q", stored.Status)
	}
}

func TestReviewRejectSkipsRetraining(t *testing.T) {
	env := newTestEnv(t)
	env.seedRegistry(t, 0.65)
	env.seedCorpus(t, 3, 0)

	trained := false
	tr := trainerFunc(func(ctx context.Context, snapshot []*models.CorpusEntry) (*trainer.Result, error) {
		trained = true
		return &trainer.Result{R2Score: 0.99}, nil
	})
	svc := newSubmissionService(t, env, tr)

	sub, err := svc.Submit(testSubmitInput(250))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	result, err := svc.Review(context.Background(), sub.ID, models.ActionReject)
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if result.Status != models.StatusRejected {
		t.Fatalf("expected rejected, got %q", result.Status)
	}
	if result.Retrain != nil {
		t.Fatalf("expected no retrain report, got %+v", result.Retrain)
	}
	if trained {
		t.Fatal("trainer must not run for a rejection")
	}

	appended, err := env.corpus.AppendedCount()
	if err != nil {
		t.Fatalf("appended count: %v", err)
	}
	if appended != 0 {
		t.Fatalf("expected empty appended corpus, got %d", appended)
	}
}

func TestReviewIsTerminal(t *testing.T) {
	env := newTestEnv(t)
	env.seedRegistry(t, 0.65)
	env.seedCorpus(t, 3, 0)
	svc := newSubmissionService(t, env, improvingTrainer(0.70))

	sub, err := svc.Submit(testSubmitInput(250))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if _, err := svc.Review(context.Background(), sub.ID, models.ActionReject); err != nil {
		t.Fatalf("first review: %v", err)
	}

	_, err = svc.Review(context.Background(), sub.ID, models.ActionApprove)
	if !errors.Is(err, models.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}

	stored, err := env.submissions.GetByID(sub.ID)
	if err != nil {
		t.Fatalf("get submission: %v", err)
	}
	if stored.Status != models.StatusRejected {
		t.Fatalf("first decision must stand, got %q", stored.Status)
	}
}

func TestReviewUnknownSubmission(t *testing.T) {
	env := newTestEnv(t)
	svc := newSubmissionService(t, env, improvingTrainer(0.70))

	_, err := svc.Review(context.Background(), "sub_0_missing", models.ActionApprove)
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReviewInvalidAction(t *testing.T) {
	env := newTestEnv(t)
	svc := newSubmissionService(t, env, improvingTrainer(0.70))

	_, err := svc.Review(context.Background(), "sub_0_any", "escalate")
	var vErr *models.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestListRejectsUnknownStatus(t *testing.T) {
	env := newTestEnv(t)
	svc := newSubmissionService(t, env, improvingTrainer(0.70))

	_, err := svc.List("archived")
	var vErr *models.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}
