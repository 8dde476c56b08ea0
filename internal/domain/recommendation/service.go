package recommendation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/carenote/carenote/internal/platform/apperror"
	"github.com/carenote/carenote/internal/platform/events"
)

type Service struct {
	generator Generator
	repo      Repository
	eventLog  events.Log
	timeout   time.Duration
}

func NewService(gen Generator, repo Repository, eventLog events.Log, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Service{generator: gen, repo: repo, eventLog: eventLog, timeout: timeout}
}

// GenerateForIntake calls the generator under a bounded timeout, persists
// the bundle, and records the ai_generated event. Generator failure returns
// RecommendationUnavailable; callers proceed without a bundle.
func (s *Service) GenerateForIntake(ctx context.Context, req Request) (*Bundle, error) {
	genCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	bundle, err := s.generator.Generate(genCtx, req)
	if err != nil {
		log.Warn().Err(err).
			Str("consultation_id", req.ConsultationID.String()).
			Msg("recommendation generation failed")
		if apperror.IsKind(err, apperror.RecommendationUnavailable) {
			return nil, err
		}
		return nil, apperror.Wrap(apperror.RecommendationUnavailable, err, "recommendation generation failed")
	}

	bundle.FormID = req.FormID
	bundle.PatientID = req.PatientID
	bundle.ConsultationID = req.ConsultationID
	if bundle.CategoryID == "" {
		bundle.CategoryID = req.CategoryID
	}
	if err := s.repo.Create(ctx, bundle); err != nil {
		return nil, fmt.Errorf("persist recommendation bundle: %w", err)
	}

	if _, err := s.eventLog.Append(ctx, req.ConsultationID, events.TypeAIGenerated, map[string]interface{}{
		"bundle_id":     bundle.ID,
		"summary_items": len(bundle.Summary),
	}); err != nil {
		log.Warn().Err(err).Msg("failed to record ai_generated event")
	}
	return bundle, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Bundle, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.New(apperror.NotFound, "recommendation bundle %s not found", id)
		}
		return nil, fmt.Errorf("get recommendation bundle: %w", err)
	}
	return b, nil
}

func (s *Service) LatestByConsultation(ctx context.Context, consultationID uuid.UUID) (*Bundle, error) {
	b, err := s.repo.LatestByConsultation(ctx, consultationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.New(apperror.NotFound, "no recommendation bundle for consultation %s", consultationID)
		}
		return nil, fmt.Errorf("get latest bundle: %w", err)
	}
	return b, nil
}
