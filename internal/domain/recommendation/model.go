package recommendation

import (
	"time"

	"github.com/google/uuid"
)

// Bundle is one AI-generated recommendation set tied to a single intake
// submission. Bundles are immutable; re-generation always inserts a new row.
type Bundle struct {
	ID             uuid.UUID     `db:"id" json:"id"`
	FormID         uuid.UUID     `db:"form_id" json:"form_id"`
	PatientID      uuid.UUID     `db:"patient_id" json:"patient_id"`
	ConsultationID uuid.UUID     `db:"consultation_id" json:"consultation_id"`
	CategoryID     string        `db:"category_id" json:"category_id"`
	Summary        []SummaryItem `db:"summary" json:"summary"`
	Assessment     string        `db:"assessment" json:"assessment"`
	Plan           string        `db:"plan" json:"plan"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
}

// SummaryItem is one summary line with a model confidence in [0,1].
type SummaryItem struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Request identifies the intake submission to generate recommendations for.
type Request struct {
	FormID         uuid.UUID `json:"form_id"`
	PatientID      uuid.UUID `json:"patient_id"`
	ConsultationID uuid.UUID `json:"consultation_id"`
	CategoryID     string    `json:"category_id"`
	PromptType     string    `json:"prompt_type"`
}
