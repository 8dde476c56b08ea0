package synthesis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/carenote/carenote/internal/domain/patient"
	"github.com/carenote/carenote/internal/domain/recommendation"
	"github.com/carenote/carenote/internal/domain/template"
	"github.com/carenote/carenote/internal/platform/apperror"
	"github.com/carenote/carenote/internal/platform/events"
)

// ProcessRequest drives one template processing run.
type ProcessRequest struct {
	TemplateVersionID uuid.UUID         `json:"template_version_id"`
	PatientID         uuid.UUID         `json:"patient_id"`
	ConsultationID    uuid.UUID         `json:"consultation_id"`
	BundleID          *uuid.UUID        `json:"bundle_id,omitempty"`
	ProviderName      string            `json:"provider_name"`
	Extra             map[string]string `json:"extra,omitempty"`
	// Pinned accepts a superseded template version, used when
	// re-processing a note that froze its version reference.
	Pinned bool `json:"pinned"`
}

type Service struct {
	templates  *template.Service
	patients   *patient.Service
	bundles    *recommendation.Service
	processor  Processor
	eventLog   events.Log
	clinicName string
}

func NewService(templates *template.Service, patients *patient.Service, bundles *recommendation.Service, eventLog events.Log, clinicName string) *Service {
	return &Service{
		templates:  templates,
		patients:   patients,
		bundles:    bundles,
		eventLog:   eventLog,
		clinicName: clinicName,
	}
}

// Process assembles the data context and resolves the template. A missing
// or failed recommendation bundle degrades to processing without one;
// a missing patient is a hard InvalidContext error.
func (s *Service) Process(ctx context.Context, req ProcessRequest) (*ProcessedTemplate, error) {
	tpl, err := s.templates.GetVersion(ctx, req.TemplateVersionID)
	if err != nil {
		return nil, err
	}

	p, err := s.patients.Get(ctx, req.PatientID)
	if err != nil {
		if apperror.IsKind(err, apperror.NotFound) {
			return nil, apperror.New(apperror.InvalidContext, "patient %s does not exist", req.PatientID)
		}
		return nil, err
	}
	meds, err := s.patients.ActiveMedications(ctx, req.PatientID)
	if err != nil {
		return nil, err
	}

	var bundle *recommendation.Bundle
	if req.BundleID != nil {
		bundle, err = s.bundles.Get(ctx, *req.BundleID)
		if err != nil {
			return nil, err
		}
	} else if req.ConsultationID != uuid.Nil {
		bundle, err = s.bundles.LatestByConsultation(ctx, req.ConsultationID)
		if err != nil {
			if !apperror.IsKind(err, apperror.NotFound) {
				return nil, err
			}
			bundle = nil
		}
	}

	processed, err := s.processor.Process(tpl, ProcessInput{
		Patient:     p,
		Medications: meds,
		Bundle:      bundle,
		Consultation: ConsultationMeta{
			ClinicName:   s.clinicName,
			ProviderName: req.ProviderName,
			Date:         time.Now().UTC(),
		},
		Extra:  req.Extra,
		Pinned: req.Pinned,
	})
	if err != nil {
		return nil, err
	}

	if req.ConsultationID != uuid.Nil {
		if _, err := s.eventLog.Append(ctx, req.ConsultationID, events.TypeTemplateProcessed, map[string]interface{}{
			"template_version_id":  tpl.ID,
			"missing_placeholders": processed.MissingPlaceholders,
		}); err != nil {
			log.Warn().Err(err).Msg("failed to record template_processed event")
		}
	}
	return processed, nil
}
