package template

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

func (r *repoPG) CreateVersion(ctx context.Context, t *Template) error {
	if tx := db.TxFromContext(ctx); tx != nil {
		return r.createVersion(ctx, tx, t)
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return r.createVersion(ctx, tx, t)
	})
}

func (r *repoPG) createVersion(ctx context.Context, tx pgx.Tx, t *Template) error {
	if t.TemplateID == uuid.Nil {
		t.TemplateID = uuid.New()
	}
	t.ID = uuid.New()
	t.Active = true

	// Serialize version assignment per logical template.
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1::text))`, t.TemplateID); err != nil {
		return err
	}
	if err := tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(version), 0) + 1 FROM note_templates WHERE template_id = $1`,
		t.TemplateID).Scan(&t.Version); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`UPDATE note_templates SET active = false WHERE template_id = $1 AND active`,
		t.TemplateID); err != nil {
		return err
	}
	if err := tx.QueryRow(ctx, `
		INSERT INTO note_templates (id, template_id, version, name, category, encounter_type, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at`,
		t.ID, t.TemplateID, t.Version, t.Name, t.Category, t.EncounterType, t.Active).
		Scan(&t.CreatedAt); err != nil {
		return err
	}

	for i := range t.Sections {
		s := &t.Sections[i]
		s.ID = uuid.New()
		s.TemplateVersionID = t.ID
		if _, err := tx.Exec(ctx, `
			INSERT INTO template_sections
				(id, template_version_id, section_type, title, content, visibility_rule, patient_filter_rule, required, order_index)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			s.ID, s.TemplateVersionID, s.SectionType, s.Title, s.Content,
			s.VisibilityRule, s.PatientFilterRule, s.Required, s.OrderIndex); err != nil {
			return err
		}
	}
	return nil
}

func (r *repoPG) GetVersion(ctx context.Context, id uuid.UUID) (*Template, error) {
	var t Template
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, template_id, version, name, category, encounter_type, active, created_at
		FROM note_templates WHERE id = $1`, id).
		Scan(&t.ID, &t.TemplateID, &t.Version, &t.Name, &t.Category, &t.EncounterType, &t.Active, &t.CreatedAt)
	if err != nil {
		return nil, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, template_version_id, section_type, title, content, visibility_rule, patient_filter_rule, required, order_index
		FROM template_sections
		WHERE template_version_id = $1
		ORDER BY order_index`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var s Section
		if err := rows.Scan(&s.ID, &s.TemplateVersionID, &s.SectionType, &s.Title, &s.Content,
			&s.VisibilityRule, &s.PatientFilterRule, &s.Required, &s.OrderIndex); err != nil {
			return nil, err
		}
		t.Sections = append(t.Sections, s)
	}
	return &t, rows.Err()
}

func (r *repoPG) ListActive(ctx context.Context, f Filter, limit, offset int) ([]*Summary, int, error) {
	where := `WHERE active`
	args := []interface{}{}
	if f.Category != "" {
		args = append(args, f.Category)
		where += ` AND category = $1`
	}
	if f.EncounterType != "" {
		args = append(args, f.EncounterType)
		if len(args) == 1 {
			where += ` AND encounter_type = $1`
		} else {
			where += ` AND encounter_type = $2`
		}
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM note_templates `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, template_id, version, name, category, encounter_type
		FROM note_templates ` + where + ` ORDER BY name, template_id`
	switch len(args) {
	case 0:
		query += ` LIMIT $1 OFFSET $2`
	case 1:
		query += ` LIMIT $2 OFFSET $3`
	case 2:
		query += ` LIMIT $3 OFFSET $4`
	}
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Summary
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.ID, &s.TemplateID, &s.Version, &s.Name, &s.Category, &s.EncounterType); err != nil {
			return nil, 0, err
		}
		out = append(out, &s)
	}
	return out, total, rows.Err()
}
