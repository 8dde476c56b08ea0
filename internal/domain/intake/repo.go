package intake

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	CreateForm(ctx context.Context, f *Form) error
	CreateConsultation(ctx context.Context, c *Consultation) error
	GetConsultation(ctx context.Context, id uuid.UUID) (*Consultation, error)
}
