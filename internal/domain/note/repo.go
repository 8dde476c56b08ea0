package note

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrVersionConflict signals that a lifecycle update lost the optimistic
// version check.
var ErrVersionConflict = errors.New("note version conflict")

type Repository interface {
	Create(ctx context.Context, n *ProviderNote) error
	GetByID(ctx context.Context, id uuid.UUID) (*ProviderNote, error)
	// UpdateLifecycle persists n's status, sharing flag and content
	// fields iff the stored version still equals n.Version, then bumps
	// n.Version. Returns ErrVersionConflict otherwise.
	UpdateLifecycle(ctx context.Context, n *ProviderNote) error
	CreatePatientView(ctx context.Context, v *PatientView) error
	// LatestPatientView returns the most recent view for a consultation,
	// or pgx.ErrNoRows.
	LatestPatientView(ctx context.Context, consultationID uuid.UUID) (*PatientView, error)
}
