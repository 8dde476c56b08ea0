package note

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/carenote/carenote/internal/domain/patient"
	"github.com/carenote/carenote/internal/domain/synthesis"
	"github.com/carenote/carenote/internal/domain/template"
	"github.com/carenote/carenote/internal/platform/apperror"
	"github.com/carenote/carenote/internal/platform/db"
	"github.com/carenote/carenote/internal/platform/events"
)

type Service struct {
	repo       Repository
	tx         db.Transactor
	patients   *patient.Service
	templates  *template.Service
	synth      *synthesis.Service
	resolver   *synthesis.Resolver
	eventLog   events.Log
	publisher  events.Publisher
	clinicName string
}

func NewService(
	repo Repository,
	tx db.Transactor,
	patients *patient.Service,
	templates *template.Service,
	synth *synthesis.Service,
	resolver *synthesis.Resolver,
	eventLog events.Log,
	publisher events.Publisher,
	clinicName string,
) *Service {
	return &Service{
		repo:       repo,
		tx:         tx,
		patients:   patients,
		templates:  templates,
		synth:      synth,
		resolver:   resolver,
		eventLog:   eventLog,
		publisher:  publisher,
		clinicName: clinicName,
	}
}

// CreateDraft persists a new draft note. At least one of content,
// assessment or plan must be non-empty.
func (s *Service) CreateDraft(ctx context.Context, n *ProviderNote) error {
	if n.PatientID == uuid.Nil {
		return apperror.New(apperror.Validation, "patient_id is required")
	}
	if n.ProviderID == uuid.Nil {
		return apperror.New(apperror.Validation, "provider_id is required")
	}
	if n.ConsultationID == uuid.Nil {
		return apperror.New(apperror.Validation, "consultation_id is required")
	}
	if n.TemplateVersionID == uuid.Nil {
		return apperror.New(apperror.Validation, "template_version_id is required")
	}
	if strings.TrimSpace(n.Content) == "" && strings.TrimSpace(n.Assessment) == "" && strings.TrimSpace(n.Plan) == "" {
		return apperror.New(apperror.Validation, "at least one of content, assessment or plan must be non-empty")
	}
	if _, err := s.patients.Get(ctx, n.PatientID); err != nil {
		return err
	}

	n.Status = StatusDraft
	n.IsSharedWithPatient = false
	n.Version = 1
	if err := s.repo.Create(ctx, n); err != nil {
		return fmt.Errorf("create note: %w", err)
	}

	if _, err := s.eventLog.Append(ctx, n.ConsultationID, events.TypeNoteCreated, map[string]interface{}{
		"note_id": n.ID,
	}); err != nil {
		log.Warn().Err(err).Msg("failed to record note_created event")
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*ProviderNote, error) {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.New(apperror.NotFound, "note %s not found", id)
		}
		return nil, fmt.Errorf("get note: %w", err)
	}
	return n, nil
}

// Finalize transitions draft → finalized under the optimistic version
// check. It is blocked while any required template section still carries an
// unresolved placeholder in the note text, freezing the template and bundle
// references on success.
func (s *Service) Finalize(ctx context.Context, noteID uuid.UUID) (*ProviderNote, error) {
	n, err := s.Get(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if n.Status != StatusDraft {
		return nil, apperror.New(apperror.InvalidState, "cannot finalize note in state %q", n.Status)
	}

	if unresolved, err := s.unresolvedRequiredPlaceholders(ctx, n); err != nil {
		return nil, err
	} else if len(unresolved) > 0 {
		return nil, apperror.New(apperror.Validation,
			"required sections have unresolved placeholders: %s", strings.Join(unresolved, ", "))
	}

	n.Status = StatusFinalized
	if err := s.repo.UpdateLifecycle(ctx, n); err != nil {
		if errors.Is(err, ErrVersionConflict) {
			return nil, apperror.New(apperror.ConcurrentModification, "note %s was modified concurrently", noteID)
		}
		return nil, fmt.Errorf("finalize note: %w", err)
	}
	return n, nil
}

// unresolvedRequiredPlaceholders returns the placeholder names from
// required template sections whose tokens still appear verbatim in the
// note's text fields.
func (s *Service) unresolvedRequiredPlaceholders(ctx context.Context, n *ProviderNote) ([]string, error) {
	tpl, err := s.templates.GetVersion(ctx, n.TemplateVersionID)
	if err != nil {
		return nil, err
	}

	text := n.Content + "\n" + n.Assessment + "\n" + n.Plan
	var unresolved []string
	for _, sec := range tpl.Sections {
		if !sec.Required {
			continue
		}
		for _, name := range synthesis.Placeholders(sec.Content) {
			if strings.Contains(text, "["+name+"]") {
				unresolved = append(unresolved, name)
			}
		}
	}
	return unresolved, nil
}

// Share produces a new immutable PatientView from the note's frozen
// template version, marks the note shared, and hands the view to the
// messaging publisher. Requires a finalized (or already shared) note;
// re-sharing snapshots a fresh view and never touches prior ones.
func (s *Service) Share(ctx context.Context, noteID uuid.UUID) (*PatientView, error) {
	n, err := s.Get(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if n.Status != StatusFinalized && n.Status != StatusShared {
		return nil, apperror.New(apperror.InvalidState, "cannot share note in state %q", n.Status)
	}

	p, err := s.patients.Get(ctx, n.PatientID)
	if err != nil {
		return nil, err
	}

	// Re-resolve against the pinned template version; hand-edited note
	// fields override the stored bundle content.
	extra := map[string]string{}
	if strings.TrimSpace(n.Assessment) != "" {
		extra["ASSESSMENT"] = n.Assessment
	}
	if strings.TrimSpace(n.Plan) != "" {
		extra["PLAN"] = n.Plan
	}
	processed, err := s.synth.Process(ctx, synthesis.ProcessRequest{
		TemplateVersionID: n.TemplateVersionID,
		PatientID:         n.PatientID,
		ConsultationID:    n.ConsultationID,
		BundleID:          n.RecommendationBundleID,
		Extra:             extra,
		Pinned:            true,
	})
	if err != nil {
		return nil, err
	}

	sections := s.resolver.ResolveForPatient(processed, p.Attributes(time.Now().UTC()))
	view := &PatientView{
		NoteID:         n.ID,
		ConsultationID: n.ConsultationID,
		PatientID:      n.PatientID,
		ProviderID:     n.ProviderID,
		Sections:       sections,
		Config:         ViewConfig{NoteTitle: n.Title, ClinicName: s.clinicName},
	}
	// One transaction for the lifecycle update, the view snapshot and the
	// event: a lost version check must leave no view behind. The version
	// check runs first so the losing writer never inserts anything.
	n.Status = StatusShared
	n.IsSharedWithPatient = true
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.repo.UpdateLifecycle(ctx, n); err != nil {
			return err
		}
		if err := s.repo.CreatePatientView(ctx, view); err != nil {
			return fmt.Errorf("create patient view: %w", err)
		}
		if _, err := s.eventLog.Append(ctx, n.ConsultationID, events.TypeNoteShared, map[string]interface{}{
			"note_id":         n.ID,
			"patient_view_id": view.ID,
		}); err != nil {
			log.Warn().Err(err).Msg("failed to record note_shared event")
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrVersionConflict) {
			return nil, apperror.New(apperror.ConcurrentModification, "note %s was modified concurrently", noteID)
		}
		return nil, fmt.Errorf("share note: %w", err)
	}
	s.publisher.PublishNoteShared(ctx, events.SharedNotification{
		ConsultationID: n.ConsultationID,
		PatientID:      n.PatientID,
		PatientViewID:  view.ID,
		Timestamp:      view.CreatedAt,
	})
	return view, nil
}

// GetPatientView returns the latest view shared for a consultation.
func (s *Service) GetPatientView(ctx context.Context, consultationID uuid.UUID) (*PatientView, error) {
	v, err := s.repo.LatestPatientView(ctx, consultationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.New(apperror.NotFound, "no patient view for consultation %s", consultationID)
		}
		return nil, fmt.Errorf("get patient view: %w", err)
	}
	return v, nil
}
