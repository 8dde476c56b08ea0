package intake

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carenote/carenote/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *repoPG) CreateForm(ctx context.Context, f *Form) error {
	f.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO intake_forms (id, patient_id, category_id, form_data)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at`,
		f.ID, f.PatientID, f.CategoryID, f.FormData).
		Scan(&f.CreatedAt)
}

func (r *repoPG) CreateConsultation(ctx context.Context, c *Consultation) error {
	c.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO consultations (id, patient_id, provider_id, provider_name, category_id)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at`,
		c.ID, c.PatientID, c.ProviderID, c.ProviderName, c.CategoryID).
		Scan(&c.CreatedAt)
}

func (r *repoPG) GetConsultation(ctx context.Context, id uuid.UUID) (*Consultation, error) {
	var c Consultation
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, patient_id, provider_id, provider_name, category_id, created_at
		FROM consultations WHERE id = $1`, id).
		Scan(&c.ID, &c.PatientID, &c.ProviderID, &c.ProviderName, &c.CategoryID, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
