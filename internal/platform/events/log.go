package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carenote/carenote/internal/platform/db"
)

// Log is the append-only consultation event log. Events are never updated or
// deleted; History returns them in insertion order.
type Log interface {
	Append(ctx context.Context, consultationID uuid.UUID, eventType string, payload interface{}) (*Event, error)
	History(ctx context.Context, consultationID uuid.UUID) ([]*Event, error)
}

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type logPG struct{ pool *pgxpool.Pool }

// NewLogPG creates the Postgres-backed event log.
func NewLogPG(pool *pgxpool.Pool) Log { return &logPG{pool: pool} }

func (l *logPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return l.pool
}

func (l *logPG) Append(ctx context.Context, consultationID uuid.UUID, eventType string, payload interface{}) (*Event, error) {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal event payload: %w", err)
		}
		raw = b
	}

	e := &Event{
		ID:             uuid.New(),
		ConsultationID: consultationID,
		Type:           eventType,
		Payload:        raw,
	}
	err := l.conn(ctx).QueryRow(ctx, `
		INSERT INTO consultation_events (id, consultation_id, event_type, payload)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		e.ID, e.ConsultationID, e.Type, e.Payload).Scan(&e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// InMemoryLog keeps events per consultation in insertion order. Used in tests
// and local development.
type InMemoryLog struct {
	mu     sync.Mutex
	byCons map[uuid.UUID][]*Event
}

func NewInMemoryLog() *InMemoryLog {
	return &InMemoryLog{byCons: map[uuid.UUID][]*Event{}}
}

func (l *InMemoryLog) Append(_ context.Context, consultationID uuid.UUID, eventType string, payload interface{}) (*Event, error) {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal event payload: %w", err)
		}
		raw = b
	}
	e := &Event{
		ID:             uuid.New(),
		ConsultationID: consultationID,
		Type:           eventType,
		Payload:        raw,
		CreatedAt:      time.Now(),
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.byCons[consultationID] = append(l.byCons[consultationID], e)
	return e, nil
}

func (l *InMemoryLog) History(_ context.Context, consultationID uuid.UUID) ([]*Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*Event, len(l.byCons[consultationID]))
	copy(out, l.byCons[consultationID])
	return out, nil
}

func (l *logPG) History(ctx context.Context, consultationID uuid.UUID) ([]*Event, error) {
	rows, err := l.conn(ctx).Query(ctx, `
		SELECT id, consultation_id, event_type, payload, created_at
		FROM consultation_events
		WHERE consultation_id = $1
		ORDER BY created_at, id`,
		consultationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.ConsultationID, &e.Type, &e.Payload, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
