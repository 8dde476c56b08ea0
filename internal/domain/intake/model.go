package intake

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Form is one submitted intake form.
type Form struct {
	ID         uuid.UUID       `db:"id" json:"id"`
	PatientID  uuid.UUID       `db:"patient_id" json:"patient_id"`
	CategoryID string          `db:"category_id" json:"category_id"`
	FormData   json.RawMessage `db:"form_data" json:"form_data"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

// Consultation anchors the note pipeline: the event log, the recommendation
// bundle and the provider note all key off its id.
type Consultation struct {
	ID           uuid.UUID `db:"id" json:"id"`
	PatientID    uuid.UUID `db:"patient_id" json:"patient_id"`
	ProviderID   uuid.UUID `db:"provider_id" json:"provider_id"`
	ProviderName string    `db:"provider_name" json:"provider_name"`
	CategoryID   string    `db:"category_id" json:"category_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// SubmitRequest is the intake boundary input.
type SubmitRequest struct {
	PatientID    uuid.UUID              `json:"patient_id"`
	ProviderID   uuid.UUID              `json:"provider_id"`
	ProviderName string                 `json:"provider_name"`
	CategoryID   string                 `json:"category_id"`
	FormData     map[string]interface{} `json:"form_data"`
}

// SubmitResult identifies the created form and consultation. BundleID is
// set when recommendation generation succeeded inline.
type SubmitResult struct {
	FormID         uuid.UUID  `json:"form_id"`
	ConsultationID uuid.UUID  `json:"consultation_id"`
	BundleID       *uuid.UUID `json:"bundle_id,omitempty"`
}
