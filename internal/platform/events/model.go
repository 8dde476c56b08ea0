package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types recorded against a consultation, in the order the pipeline
// produces them.
const (
	TypeIntakeSubmitted   = "intake_submitted"
	TypeAIGenerated       = "ai_generated"
	TypeTemplateProcessed = "template_processed"
	TypeNoteCreated       = "note_created"
	TypeNoteShared        = "note_shared"
)

// Event is a single append-only record in a consultation's history.
type Event struct {
	ID             uuid.UUID       `json:"id"`
	ConsultationID uuid.UUID       `json:"consultation_id"`
	Type           string          `json:"type"`
	Payload        json.RawMessage `json:"payload,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// SharedNotification is the body POSTed to the messaging webhook when a note
// is shared with a patient.
type SharedNotification struct {
	EventType      string    `json:"event_type"`
	ConsultationID uuid.UUID `json:"consultation_id"`
	PatientID      uuid.UUID `json:"patient_id"`
	PatientViewID  uuid.UUID `json:"patient_view_id"`
	Timestamp      time.Time `json:"timestamp"`
}
