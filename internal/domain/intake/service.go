package intake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/carenote/carenote/internal/domain/patient"
	"github.com/carenote/carenote/internal/domain/recommendation"
	"github.com/carenote/carenote/internal/platform/apperror"
	"github.com/carenote/carenote/internal/platform/db"
	"github.com/carenote/carenote/internal/platform/events"
)

type Service struct {
	repo     Repository
	tx       db.Transactor
	patients *patient.Service
	bundles  *recommendation.Service
	eventLog events.Log
}

func NewService(repo Repository, tx db.Transactor, patients *patient.Service, bundles *recommendation.Service, eventLog events.Log) *Service {
	return &Service{repo: repo, tx: tx, patients: patients, bundles: bundles, eventLog: eventLog}
}

// Submit persists the intake form, opens a consultation, records the
// intake_submitted event and kicks off recommendation generation. A failed
// or unavailable recommendation never fails the submission.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	if req.PatientID == uuid.Nil {
		return nil, apperror.New(apperror.Validation, "patient_id is required")
	}
	if req.CategoryID == "" {
		return nil, apperror.New(apperror.Validation, "category_id is required")
	}
	if _, err := s.patients.Get(ctx, req.PatientID); err != nil {
		return nil, err
	}

	formData, err := json.Marshal(req.FormData)
	if err != nil {
		return nil, apperror.Wrap(apperror.Validation, err, "invalid form_data")
	}

	cons := &Consultation{
		PatientID:    req.PatientID,
		ProviderID:   req.ProviderID,
		ProviderName: req.ProviderName,
		CategoryID:   req.CategoryID,
	}
	form := &Form{
		PatientID:  req.PatientID,
		CategoryID: req.CategoryID,
		FormData:   formData,
	}
	// Consultation and form land together or not at all.
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.repo.CreateConsultation(ctx, cons); err != nil {
			return fmt.Errorf("create consultation: %w", err)
		}
		if err := s.repo.CreateForm(ctx, form); err != nil {
			return fmt.Errorf("create intake form: %w", err)
		}
		if _, err := s.eventLog.Append(ctx, cons.ID, events.TypeIntakeSubmitted, map[string]interface{}{
			"form_id":     form.ID,
			"category_id": req.CategoryID,
		}); err != nil {
			log.Warn().Err(err).Msg("failed to record intake_submitted event")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &SubmitResult{FormID: form.ID, ConsultationID: cons.ID}

	bundle, err := s.bundles.GenerateForIntake(ctx, recommendation.Request{
		FormID:         form.ID,
		PatientID:      req.PatientID,
		ConsultationID: cons.ID,
		CategoryID:     req.CategoryID,
		PromptType:     "initial",
	})
	if err != nil {
		// degraded mode: the note pipeline runs without a bundle
		log.Warn().Err(err).
			Str("consultation_id", cons.ID.String()).
			Msg("proceeding without recommendation bundle")
	} else {
		result.BundleID = &bundle.ID
	}
	return result, nil
}

func (s *Service) GetConsultation(ctx context.Context, id uuid.UUID) (*Consultation, error) {
	c, err := s.repo.GetConsultation(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.New(apperror.NotFound, "consultation %s not found", id)
		}
		return nil, fmt.Errorf("get consultation: %w", err)
	}
	return c, nil
}
