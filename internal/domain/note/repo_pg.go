package note

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

const noteCols = `id, patient_id, provider_id, consultation_id, template_version_id, recommendation_bundle_id,
	title, content, medications, assessment, plan, follow_up_days,
	status, is_shared_with_patient, version, created_at, updated_at`

func scanNote(row pgx.Row) (*ProviderNote, error) {
	var n ProviderNote
	err := row.Scan(&n.ID, &n.PatientID, &n.ProviderID, &n.ConsultationID, &n.TemplateVersionID, &n.RecommendationBundleID,
		&n.Title, &n.Content, &n.Medications, &n.Assessment, &n.Plan, &n.FollowUpDays,
		&n.Status, &n.IsSharedWithPatient, &n.Version, &n.CreatedAt, &n.UpdatedAt)
	return &n, err
}

func (r *repoPG) Create(ctx context.Context, n *ProviderNote) error {
	n.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO provider_notes
			(id, patient_id, provider_id, consultation_id, template_version_id, recommendation_bundle_id,
			 title, content, medications, assessment, plan, follow_up_days, status, is_shared_with_patient, version)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		RETURNING created_at, updated_at`,
		n.ID, n.PatientID, n.ProviderID, n.ConsultationID, n.TemplateVersionID, n.RecommendationBundleID,
		n.Title, n.Content, n.Medications, n.Assessment, n.Plan, n.FollowUpDays,
		n.Status, n.IsSharedWithPatient, n.Version).
		Scan(&n.CreatedAt, &n.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*ProviderNote, error) {
	return scanNote(r.conn(ctx).QueryRow(ctx, `SELECT `+noteCols+` FROM provider_notes WHERE id = $1`, id))
}

func (r *repoPG) UpdateLifecycle(ctx context.Context, n *ProviderNote) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE provider_notes
		SET status = $1, is_shared_with_patient = $2, content = $3, assessment = $4, plan = $5,
		    version = version + 1, updated_at = now()
		WHERE id = $6 AND version = $7`,
		n.Status, n.IsSharedWithPatient, n.Content, n.Assessment, n.Plan, n.ID, n.Version)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	n.Version++
	return nil
}

func (r *repoPG) CreatePatientView(ctx context.Context, v *PatientView) error {
	v.ID = uuid.New()
	sections, err := json.Marshal(v.Sections)
	if err != nil {
		return err
	}
	config, err := json.Marshal(v.Config)
	if err != nil {
		return err
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patient_views (id, note_id, consultation_id, patient_id, provider_id, sections, config)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at`,
		v.ID, v.NoteID, v.ConsultationID, v.PatientID, v.ProviderID, sections, config).
		Scan(&v.CreatedAt)
}

func (r *repoPG) LatestPatientView(ctx context.Context, consultationID uuid.UUID) (*PatientView, error) {
	var v PatientView
	var sections, config []byte
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, note_id, consultation_id, patient_id, provider_id, sections, config, created_at
		FROM patient_views
		WHERE consultation_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1`, consultationID).
		Scan(&v.ID, &v.NoteID, &v.ConsultationID, &v.PatientID, &v.ProviderID, &sections, &config, &v.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(sections, &v.Sections); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(config, &v.Config); err != nil {
		return nil, err
	}
	return &v, nil
}
