package recommendation

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, b *Bundle) error
	GetByID(ctx context.Context, id uuid.UUID) (*Bundle, error)
	// LatestByConsultation returns the most recent bundle for a
	// consultation, or pgx.ErrNoRows.
	LatestByConsultation(ctx context.Context, consultationID uuid.UUID) (*Bundle, error)
}
