package synthesis

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/carenote/carenote/internal/domain/template"
)

// ViewSection is one patient-visible section of a resolved view.
type ViewSection struct {
	SectionType string `json:"section_type"`
	Title       string `json:"title"`
	Content     string `json:"content"`
}

// Resolver filters a processed template into the patient-facing section
// list. This is the security boundary between provider notes and patients:
// anything it cannot positively decide to share stays hidden.
type Resolver struct {
	eval   Evaluator
	logger zerolog.Logger
}

func NewResolver(eval Evaluator, logger zerolog.Logger) *Resolver {
	if eval == nil {
		eval = ExprEvaluator{}
	}
	return &Resolver{eval: eval, logger: logger}
}

// ResolveForPatient returns the sections a patient may see, in the
// processed order. Conditional rules that fail to evaluate exclude the
// section. Unrecognized visibility rule values are treated as
// provider-only. Sections whose processed content is empty are dropped.
func (r *Resolver) ResolveForPatient(processed *ProcessedTemplate, attrs map[string]interface{}) []ViewSection {
	var out []ViewSection
	for _, s := range processed.Sections {
		if !r.include(s, attrs) {
			continue
		}
		if strings.TrimSpace(s.ProcessedContent) == "" {
			continue
		}
		out = append(out, ViewSection{
			SectionType: s.SectionType,
			Title:       s.Title,
			Content:     s.ProcessedContent,
		})
	}
	return out
}

func (r *Resolver) include(s ProcessedSection, attrs map[string]interface{}) bool {
	switch s.VisibilityRule {
	case template.VisibilityProviderOnly:
		return false
	case template.VisibilityShared:
		return true
	case template.VisibilityConditional:
		if s.PatientFilterRule == nil || *s.PatientFilterRule == "" {
			r.logger.Warn().
				Str("section_type", s.SectionType).
				Msg("conditional section has no filter rule, excluding")
			return false
		}
		ok, err := r.eval.Evaluate(*s.PatientFilterRule, attrs)
		if err != nil {
			r.logger.Warn().Err(err).
				Str("section_type", s.SectionType).
				Str("rule", *s.PatientFilterRule).
				Msg("filter rule evaluation failed, excluding section")
			return false
		}
		return ok
	default:
		// New rule values must be handled here explicitly before they
		// can ever reach a patient.
		r.logger.Warn().
			Str("section_type", s.SectionType).
			Str("visibility_rule", string(s.VisibilityRule)).
			Msg("unrecognized visibility rule, treating as provider-only")
		return false
	}
}
