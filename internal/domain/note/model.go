package note

import (
	"time"

	"github.com/google/uuid"

	"github.com/carenote/carenote/internal/domain/synthesis"
)

// Status is the one-way note lifecycle. A note may stop at finalized and
// never be shared.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusFinalized Status = "finalized"
	StatusShared    Status = "shared"
)

// ProviderNote maps to the provider_notes table. Version backs the
// optimistic lock on lifecycle transitions.
type ProviderNote struct {
	ID                     uuid.UUID  `db:"id" json:"id"`
	PatientID              uuid.UUID  `db:"patient_id" json:"patient_id"`
	ProviderID             uuid.UUID  `db:"provider_id" json:"provider_id"`
	ConsultationID         uuid.UUID  `db:"consultation_id" json:"consultation_id"`
	TemplateVersionID      uuid.UUID  `db:"template_version_id" json:"template_version_id"`
	RecommendationBundleID *uuid.UUID `db:"recommendation_bundle_id" json:"recommendation_bundle_id,omitempty"`
	Title                  string     `db:"title" json:"title"`
	Content                string     `db:"content" json:"content"`
	Medications            []string   `db:"medications" json:"medications"`
	Assessment             string     `db:"assessment" json:"assessment"`
	Plan                   string     `db:"plan" json:"plan"`
	FollowUpDays           *int       `db:"follow_up_days" json:"follow_up_days,omitempty"`
	Status                 Status     `db:"status" json:"status"`
	IsSharedWithPatient    bool       `db:"is_shared_with_patient" json:"is_shared_with_patient"`
	Version                int        `db:"version" json:"version"`
	CreatedAt              time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time  `db:"updated_at" json:"updated_at"`
}

// ViewConfig is the display configuration frozen into each patient view.
type ViewConfig struct {
	NoteTitle  string `json:"note_title"`
	ClinicName string `json:"clinic_name"`
}

// PatientView is an immutable snapshot of what the patient was shown at one
// sharing event. Re-sharing inserts a new row; rows are never updated.
type PatientView struct {
	ID             uuid.UUID               `db:"id" json:"id"`
	NoteID         uuid.UUID               `db:"note_id" json:"note_id"`
	ConsultationID uuid.UUID               `db:"consultation_id" json:"consultation_id"`
	PatientID      uuid.UUID               `db:"patient_id" json:"patient_id"`
	ProviderID     uuid.UUID               `db:"provider_id" json:"provider_id"`
	Sections       []synthesis.ViewSection `db:"sections" json:"sections"`
	Config         ViewConfig              `db:"config" json:"config"`
	CreatedAt      time.Time               `db:"created_at" json:"created_at"`
}
