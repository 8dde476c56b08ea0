package recommendation

import (
	"context"
	"encoding/json"

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

const bundleCols = `id, form_id, patient_id, consultation_id, category_id, summary, assessment, plan, created_at`

func scanBundle(row pgx.Row) (*Bundle, error) {
	var b Bundle
	var summary []byte
	err := row.Scan(&b.ID, &b.FormID, &b.PatientID, &b.ConsultationID, &b.CategoryID,
		&summary, &b.Assessment, &b.Plan, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(summary) > 0 {
		if err := json.Unmarshal(summary, &b.Summary); err != nil {
			return nil, err
		}
	}
	return &b, nil
}

func (r *repoPG) Create(ctx context.Context, b *Bundle) error {
	b.ID = uuid.New()
	summary, err := json.Marshal(b.Summary)
	if err != nil {
		return err
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO recommendation_bundles (id, form_id, patient_id, consultation_id, category_id, summary, assessment, plan)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at`,
		b.ID, b.FormID, b.PatientID, b.ConsultationID, b.CategoryID, summary, b.Assessment, b.Plan).
		Scan(&b.CreatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Bundle, error) {
	return scanBundle(r.conn(ctx).QueryRow(ctx,
		`SELECT `+bundleCols+` FROM recommendation_bundles WHERE id = $1`, id))
}

func (r *repoPG) LatestByConsultation(ctx context.Context, consultationID uuid.UUID) (*Bundle, error) {
	return scanBundle(r.conn(ctx).QueryRow(ctx,
		`SELECT `+bundleCols+` FROM recommendation_bundles
		WHERE consultation_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1`, consultationID))
}
