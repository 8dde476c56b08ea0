package synthesis

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/carenote/carenote/internal/domain/patient"
	"github.com/carenote/carenote/internal/domain/recommendation"
	"github.com/carenote/carenote/internal/domain/template"
	"github.com/carenote/carenote/internal/platform/apperror"
)

// highConfidence marks bundle summary lines the provider can trust without
// re-checking the source data.
const highConfidence = 0.7

var placeholderRe = regexp.MustCompile(`\[([A-Z][A-Z0-9_]*)\]`)

// ProcessedSection is one resolved section of a processed template.
type ProcessedSection struct {
	SectionType       string                  `json:"section_type"`
	Title             string                  `json:"title"`
	OriginalContent   string                  `json:"original_content"`
	ProcessedContent  string                  `json:"processed_content"`
	VisibilityRule    template.VisibilityRule `json:"visibility_rule"`
	PatientFilterRule *string                 `json:"patient_filter_rule,omitempty"`
	Required          bool                    `json:"required"`
}

// ProcessedTemplate is a patient-specific resolution of one template
// version. MissingPlaceholders lists every placeholder that no source could
// resolve, sorted and de-duplicated; the tokens stay verbatim in the content
// so the provider sees exactly what is pending.
type ProcessedTemplate struct {
	TemplateVersionID      string             `json:"template_version_id"`
	RecommendationBundleID *string            `json:"recommendation_bundle_id,omitempty"`
	Sections               []ProcessedSection `json:"sections"`
	MissingPlaceholders    []string           `json:"missing_placeholders"`
}

// ConsultationMeta carries the consultation-scoped values the resolver
// chain draws on. Date doubles as the deterministic "now" so identical
// inputs always produce identical output.
type ConsultationMeta struct {
	ClinicName   string
	ProviderName string
	Date         time.Time
}

// ProcessInput is the data context one template version is resolved
// against. Bundle may be nil when recommendation generation failed or was
// skipped. Pinned marks an intentionally frozen (possibly superseded)
// template version, e.g. re-processing a finalized note.
type ProcessInput struct {
	Patient      *patient.Patient
	Medications  []*patient.Medication
	Bundle       *recommendation.Bundle
	Consultation ConsultationMeta
	Extra        map[string]string
	Pinned       bool
}

// Processor resolves template placeholders against a data context. It is
// stateless; a single instance serves all requests.
type Processor struct{}

// Process resolves every section of tpl in order_index order. Placeholders
// resolve left-to-right, first matching source wins: extra context, patient
// record, recommendation bundle, consultation metadata. Unresolvable
// placeholders never abort processing.
func (Processor) Process(tpl *template.Template, in ProcessInput) (*ProcessedTemplate, error) {
	if in.Patient == nil {
		return nil, apperror.New(apperror.InvalidContext, "patient does not exist")
	}
	if !tpl.Active && !in.Pinned {
		return nil, apperror.New(apperror.TemplateInactive, "template version %s was superseded", tpl.ID)
	}

	sections := make([]template.Section, len(tpl.Sections))
	copy(sections, tpl.Sections)
	sort.SliceStable(sections, func(i, j int) bool { return sections[i].OrderIndex < sections[j].OrderIndex })

	resolve := newResolverChain(in)

	out := &ProcessedTemplate{TemplateVersionID: tpl.ID.String()}
	if in.Bundle != nil {
		id := in.Bundle.ID.String()
		out.RecommendationBundleID = &id
	}

	missing := map[string]bool{}
	for _, s := range sections {
		processed := placeholderRe.ReplaceAllStringFunc(s.Content, func(token string) string {
			name := token[1 : len(token)-1]
			if val, ok := resolve(name); ok {
				return val
			}
			missing[name] = true
			return token
		})
		out.Sections = append(out.Sections, ProcessedSection{
			SectionType:       s.SectionType,
			Title:             s.Title,
			OriginalContent:   s.Content,
			ProcessedContent:  processed,
			VisibilityRule:    s.VisibilityRule,
			PatientFilterRule: s.PatientFilterRule,
			Required:          s.Required,
		})
	}

	out.MissingPlaceholders = make([]string, 0, len(missing))
	for name := range missing {
		out.MissingPlaceholders = append(out.MissingPlaceholders, name)
	}
	sort.Strings(out.MissingPlaceholders)
	return out, nil
}

// Placeholders returns the distinct placeholder names in content, in order
// of first appearance.
func Placeholders(content string) []string {
	var names []string
	seen := map[string]bool{}
	for _, m := range placeholderRe.FindAllStringSubmatch(content, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// newResolverChain builds the lookup function for one processing run. Dates
// render as ISO-8601 regardless of runtime locale.
func newResolverChain(in ProcessInput) func(name string) (string, bool) {
	return func(name string) (string, bool) {
		if val, ok := in.Extra[name]; ok {
			return val, true
		}
		if val, ok := resolvePatient(name, in); ok {
			return val, true
		}
		if val, ok := resolveBundle(name, in.Bundle); ok {
			return val, true
		}
		return resolveConsultation(name, in.Consultation)
	}
}

func resolvePatient(name string, in ProcessInput) (string, bool) {
	p := in.Patient
	switch name {
	case "PATIENT_NAME", "FULL_NAME":
		return p.FullName(), true
	case "FIRST_NAME":
		return p.FirstName, true
	case "LAST_NAME":
		return p.LastName, true
	case "DATE_OF_BIRTH":
		if p.BirthDate == nil {
			return "", false
		}
		return p.BirthDate.Format("2006-01-02"), true
	case "AGE":
		age := p.Age(in.Consultation.Date)
		if age < 0 {
			return "", false
		}
		return fmt.Sprintf("%d", age), true
	case "SEX":
		if p.Sex == nil {
			return "", false
		}
		return *p.Sex, true
	case "MEDICATIONS":
		return renderMedications(in.Medications)
	}
	return "", false
}

func renderMedications(meds []*patient.Medication) (string, bool) {
	if len(meds) == 0 {
		return "No active medications", true
	}
	lines := make([]string, 0, len(meds))
	for _, m := range meds {
		line := "- " + m.Name
		if m.Dosage != nil && *m.Dosage != "" {
			line += " (" + *m.Dosage + ")"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n"), true
}

func resolveBundle(name string, b *recommendation.Bundle) (string, bool) {
	if b == nil {
		return "", false
	}
	switch name {
	case "SUMMARY", "AI_SUMMARY":
		lines := make([]string, 0, len(b.Summary))
		for _, item := range b.Summary {
			line := "- " + item.Text
			if item.Confidence >= highConfidence {
				line += " [high confidence]"
			}
			lines = append(lines, line)
		}
		return strings.Join(lines, "\n"), true
	case "ASSESSMENT", "AI_ASSESSMENT":
		return b.Assessment, true
	case "PLAN", "AI_PLAN":
		return b.Plan, true
	}
	return "", false
}

func resolveConsultation(name string, meta ConsultationMeta) (string, bool) {
	switch name {
	case "CLINIC_NAME":
		if meta.ClinicName == "" {
			return "", false
		}
		return meta.ClinicName, true
	case "PROVIDER_NAME":
		if meta.ProviderName == "" {
			return "", false
		}
		return meta.ProviderName, true
	case "DATE", "CONSULTATION_DATE":
		if meta.Date.IsZero() {
			return "", false
		}
		return meta.Date.Format("2006-01-02"), true
	}
	return "", false
}
