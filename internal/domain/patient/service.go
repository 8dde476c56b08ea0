package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/carenote/carenote/internal/platform/apperror"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, p *Patient) error {
	if p.FirstName == "" {
		return apperror.New(apperror.Validation, "first_name is required")
	}
	if p.LastName == "" {
		return apperror.New(apperror.Validation, "last_name is required")
	}
	p.Active = true
	if err := s.repo.Create(ctx, p); err != nil {
		return fmt.Errorf("create patient: %w", err)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.New(apperror.NotFound, "patient %s not found", id)
		}
		return nil, fmt.Errorf("get patient: %w", err)
	}
	return p, nil
}

func (s *Service) ActiveMedications(ctx context.Context, patientID uuid.UUID) ([]*Medication, error) {
	meds, err := s.repo.ActiveMedications(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("list medications: %w", err)
	}
	return meds, nil
}

func (s *Service) AddMedication(ctx context.Context, m *Medication) error {
	if m.PatientID == uuid.Nil {
		return apperror.New(apperror.Validation, "patient_id is required")
	}
	if m.Name == "" {
		return apperror.New(apperror.Validation, "name is required")
	}
	m.Active = true
	if err := s.repo.AddMedication(ctx, m); err != nil {
		return fmt.Errorf("add medication: %w", err)
	}
	return nil
}
