package template

import (
	"time"

	"github.com/google/uuid"
)

// VisibilityRule controls whether a section may appear in the patient view.
type VisibilityRule string

const (
	VisibilityProviderOnly VisibilityRule = "ALWAYS_PROVIDER_ONLY"
	VisibilityShared       VisibilityRule = "ALWAYS_SHARED"
	VisibilityConditional  VisibilityRule = "CONDITIONAL"
)

func (v VisibilityRule) Valid() bool {
	switch v {
	case VisibilityProviderOnly, VisibilityShared, VisibilityConditional:
		return true
	}
	return false
}

// Template is one immutable version of a note template. TemplateID is the
// logical identity shared across versions; ID identifies this version row.
type Template struct {
	ID            uuid.UUID `db:"id" json:"id"`
	TemplateID    uuid.UUID `db:"template_id" json:"template_id"`
	Version       int       `db:"version" json:"version"`
	Name          string    `db:"name" json:"name"`
	Category      string    `db:"category" json:"category"`
	EncounterType string    `db:"encounter_type" json:"encounter_type"`
	Active        bool      `db:"active" json:"active"`
	Sections      []Section `json:"sections"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Section belongs to exactly one template version.
type Section struct {
	ID                uuid.UUID      `db:"id" json:"id"`
	TemplateVersionID uuid.UUID      `db:"template_version_id" json:"template_version_id"`
	SectionType       string         `db:"section_type" json:"section_type"`
	Title             string         `db:"title" json:"title"`
	Content           string         `db:"content" json:"content"`
	VisibilityRule    VisibilityRule `db:"visibility_rule" json:"visibility_rule"`
	PatientFilterRule *string        `db:"patient_filter_rule" json:"patient_filter_rule,omitempty"`
	Required          bool           `db:"required" json:"required"`
	OrderIndex        int            `db:"order_index" json:"order_index"`
}

// Summary is the listing shape for active templates.
type Summary struct {
	ID            uuid.UUID `db:"id" json:"id"`
	TemplateID    uuid.UUID `db:"template_id" json:"template_id"`
	Version       int       `db:"version" json:"version"`
	Name          string    `db:"name" json:"name"`
	Category      string    `db:"category" json:"category"`
	EncounterType string    `db:"encounter_type" json:"encounter_type"`
}

// Filter narrows active-template listings.
type Filter struct {
	Category      string
	EncounterType string
}

// Definition is the input for creating a new template version. A nil
// TemplateID starts a new logical template at version 1.
type Definition struct {
	TemplateID    *uuid.UUID          `json:"template_id,omitempty"`
	Name          string              `json:"name"`
	Category      string              `json:"category"`
	EncounterType string              `json:"encounter_type"`
	Sections      []SectionDefinition `json:"sections"`
}

type SectionDefinition struct {
	SectionType       string         `json:"section_type"`
	Title             string         `json:"title"`
	Content           string         `json:"content"`
	VisibilityRule    VisibilityRule `json:"visibility_rule"`
	PatientFilterRule *string        `json:"patient_filter_rule,omitempty"`
	Required          bool           `json:"required"`
	OrderIndex        int            `json:"order_index"`
}
