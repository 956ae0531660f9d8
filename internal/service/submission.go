package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"mlbeam-backend/internal/models"
	"mlbeam-backend/internal/repository"
)

// SubmitInput carries one research contribution: contributor metadata plus the
// sample record.
type SubmitInput struct {
	ResearcherName  string `json:"researcher_name" validate:"required"`
	ResearcherEmail string `json:"researcher_email" validate:"required,email"`
	Institution     string `json:"institution" validate:"required"`
	Notes           string `json:"notes"`

	models.BeamSample
}

// ReviewResult reports the recorded decision and, for approvals, the
// retraining outcome. Approval and model promotion are independent: a
// contributor's data stays in the corpus even when the retraining run does not
// yield a better model, or fails outright.
type ReviewResult struct {
	SubmissionID string         `json:"submission_id"`
	Status       string         `json:"status"`
	CorpusSeq    int64          `json:"corpus_seq,omitempty"`
	Retrain      *RetrainReport `json:"retrain,omitempty"`
}

// SubmissionService owns the submission intake and review workflow.
type SubmissionService interface {
	Submit(input *SubmitInput) (*models.Submission, error)
	List(status string) ([]*models.Submission, error)
	Stats() (map[string]int, error)
	Review(ctx context.Context, id, action string) (*ReviewResult, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	corpus      repository.CorpusRepository
	lifecycle   LifecycleService
	validate    *validator.Validate
	logger      *zap.Logger
}

// NewSubmissionService creates the submission workflow service.
func NewSubmissionService(
	submissions repository.SubmissionRepository,
	corpus repository.CorpusRepository,
	lifecycle LifecycleService,
	logger *zap.Logger,
) SubmissionService {
	v := validator.New()
	v.RegisterTagNameFunc(jsonTagName)

	return &submissionService{
		submissions: submissions,
		corpus:      corpus,
		lifecycle:   lifecycle,
		validate:    v,
		logger:      logger,
	}
}

// Submit validates the contribution and records it as pending.
func (s *submissionService) Submit(input *SubmitInput) (*models.Submission, error) {
	if err := s.validateInput(input); err != nil {
		return nil, err
	}

	sub := &models.Submission{
		ID:              newSubmissionID(),
		Status:          models.StatusPending,
		SubmittedAt:     time.Now().UTC(),
		ResearcherName:  input.ResearcherName,
		ResearcherEmail: input.ResearcherEmail,
		Institution:     input.Institution,
		Notes:           input.Notes,
		BeamSample:      input.BeamSample,
	}

	if err := s.submissions.Create(sub); err != nil {
		return nil, err
	}

	s.logger.Info("New research submission",
		zap.String("submission_id", sub.ID),
		zap.String("institution", sub.Institution))

	return sub, nil
}

// List returns submissions, optionally filtered by status.
func (s *submissionService) List(status string) ([]*models.Submission, error) {
	switch status {
	case "", models.StatusPending, models.StatusApproved, models.StatusRejected:
	default:
		return nil, &models.ValidationError{Fields: []models.FieldError{
			{Field: "status", Reason: "must be pending, approved or rejected"},
		}}
	}
	return s.submissions.List(status)
}

// Stats returns submission counts per status.
func (s *submissionService) Stats() (map[string]int, error) {
	return s.submissions.CountByStatus()
}

// Review records the decision for a pending submission. An approval appends
// the sample to the training corpus and triggers a retraining run; a Trainer
// failure is reported in the result but never reverts the recorded approval.
func (s *submissionService) Review(ctx context.Context, id, action string) (*ReviewResult, error) {
	var status string
	switch action {
	case models.ActionApprove:
		status = models.StatusApproved
	case models.ActionReject:
		status = models.StatusRejected
	default:
		return nil, &models.ValidationError{Fields: []models.FieldError{
			{Field: "action", Reason: "must be approve or reject"},
		}}
	}

	sub, err := s.submissions.GetByID(id)
	if err != nil {
		return nil, err
	}

	if err := s.submissions.Review(id, status, time.Now().UTC()); err != nil {
		return nil, err
	}

	result := &ReviewResult{SubmissionID: id, Status: status}

	if status != models.StatusApproved {
		s.logger.Info("Submission rejected", zap.String("submission_id", id))
		return result, nil
	}

	seq, err := s.corpus.Append(&models.CorpusEntry{
		SubmissionID: &sub.ID,
		AddedAt:      time.Now().UTC(),
		BeamSample:   sub.BeamSample,
	})
	if err != nil {
		return nil, err
	}
	result.CorpusSeq = seq

	s.logger.Info("Submission approved, sample added to training corpus",
		zap.String("submission_id", id),
		zap.Int64("corpus_seq", seq))

	retrain, err := s.lifecycle.Retrain(ctx)
	if err != nil {
		// The approval stays recorded; training infrastructure health is a
		// separate concern. Report the failure to the invoker.
		s.logger.Error("Retraining failed after approval",
			zap.String("submission_id", id), zap.Error(err))
		result.Retrain = &RetrainReport{Outcome: RetrainFailed, Error: err.Error()}
		return result, nil
	}

	result.Retrain = retrain
	return result, nil
}

func (s *submissionService) validateInput(input *SubmitInput) error {
	err := s.validate.Struct(input)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make([]models.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, models.FieldError{
			Field:  fe.Field(),
			Reason: validationReason(fe),
		})
	}
	return &models.ValidationError{Fields: fields}
}

func validationReason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

func jsonTagName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

// newSubmissionID builds the historical id shape: a time component plus a
// random suffix, unique under concurrent submits.
func newSubmissionID() string {
	return fmt.Sprintf("sub_%d_%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}
