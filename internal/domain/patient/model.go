package patient

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Patient maps to the patients table. Tags and Programs feed the
// visibility predicate evaluator.
type Patient struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	MRN       string     `db:"mrn" json:"mrn"`
	FirstName string     `db:"first_name" json:"first_name"`
	LastName  string     `db:"last_name" json:"last_name"`
	BirthDate *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	Sex       *string    `db:"sex" json:"sex,omitempty"`
	Tags      []string   `db:"tags" json:"tags"`
	Programs  []string   `db:"programs" json:"programs"`
	Active    bool       `db:"active" json:"active"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// Medication maps to the patient_medications table.
type Medication struct {
	ID        uuid.UUID `db:"id" json:"id"`
	PatientID uuid.UUID `db:"patient_id" json:"patient_id"`
	Name      string    `db:"name" json:"name"`
	Dosage    *string   `db:"dosage" json:"dosage,omitempty"`
	Frequency *string   `db:"frequency" json:"frequency,omitempty"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

func (p *Patient) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Age returns whole years at the given instant, or -1 when the birth date
// is unknown.
func (p *Patient) Age(now time.Time) int {
	if p.BirthDate == nil {
		return -1
	}
	years := now.Year() - p.BirthDate.Year()
	anniversary := p.BirthDate.AddDate(years, 0, 0)
	if anniversary.After(now) {
		years--
	}
	return years
}

// Attributes returns the attribute set visibility predicates evaluate
// against. Absent values are omitted rather than zeroed so predicate
// evaluation can distinguish unknown from empty.
func (p *Patient) Attributes(now time.Time) map[string]interface{} {
	attrs := map[string]interface{}{
		"tags":     p.Tags,
		"programs": p.Programs,
	}
	if age := p.Age(now); age >= 0 {
		attrs["age"] = float64(age)
	}
	if p.Sex != nil {
		attrs["sex"] = *p.Sex
	}
	return attrs
}
