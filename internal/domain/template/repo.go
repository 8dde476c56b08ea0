package template

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// CreateVersion inserts t as a new immutable version row with its
	// sections, assigning the next version number for t.TemplateID and
	// deactivating the prior active version.
	CreateVersion(ctx context.Context, t *Template) error
	// GetVersion returns the version row with its sections ordered by
	// order_index, whether or not it is still active.
	GetVersion(ctx context.Context, id uuid.UUID) (*Template, error)
	ListActive(ctx context.Context, f Filter, limit, offset int) ([]*Summary, int, error)
}
