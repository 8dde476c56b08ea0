package patient

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	ActiveMedications(ctx context.Context, patientID uuid.UUID) ([]*Medication, error)
	AddMedication(ctx context.Context, m *Medication) error
}
