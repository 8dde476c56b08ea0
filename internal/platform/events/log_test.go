package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
)

func TestInMemoryLog_AppendAndHistory(t *testing.T) {
	l := NewInMemoryLog()
	consID := uuid.New()

	types := []string{TypeIntakeSubmitted, TypeAIGenerated, TypeTemplateProcessed, TypeNoteCreated, TypeNoteShared}
	for _, et := range types {
		e, err := l.Append(context.Background(), consID, et, map[string]string{"note": "x"})
		if err != nil {
			t.Fatalf("append %s: %v", et, err)
		}
		if e.ID == uuid.Nil {
			t.Error("expected event ID to be set")
		}
		if e.CreatedAt.IsZero() {
			t.Error("expected CreatedAt to be set")
		}
	}

	history, err := l.History(context.Background(), consID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != len(types) {
		t.Fatalf("expected %d events, got %d", len(types), len(history))
	}
	for i, et := range types {
		if history[i].Type != et {
			t.Errorf("event %d: expected type %q, got %q", i, et, history[i].Type)
		}
	}
}

func TestInMemoryLog_NilPayload(t *testing.T) {
	l := NewInMemoryLog()
	e, err := l.Append(context.Background(), uuid.New(), TypeIntakeSubmitted, nil)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if e.Payload != nil {
		t.Errorf("expected nil payload, got %s", e.Payload)
	}
}

func TestInMemoryLog_IsolatesConsultations(t *testing.T) {
	l := NewInMemoryLog()
	a, b := uuid.New(), uuid.New()

	l.Append(context.Background(), a, TypeIntakeSubmitted, nil)
	l.Append(context.Background(), b, TypeIntakeSubmitted, nil)
	l.Append(context.Background(), a, TypeNoteCreated, nil)

	historyA, _ := l.History(context.Background(), a)
	historyB, _ := l.History(context.Background(), b)
	if len(historyA) != 2 {
		t.Errorf("expected 2 events for first consultation, got %d", len(historyA))
	}
	if len(historyB) != 1 {
		t.Errorf("expected 1 event for second consultation, got %d", len(historyB))
	}
}

func TestInMemoryLog_PayloadRoundTrip(t *testing.T) {
	l := NewInMemoryLog()
	consID := uuid.New()

	e, err := l.Append(context.Background(), consID, TypeAIGenerated, map[string]interface{}{
		"bundle_id": "b-1",
		"items":     3,
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(e.Payload, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload["bundle_id"] != "b-1" {
		t.Errorf("expected bundle_id b-1, got %v", payload["bundle_id"])
	}
}
