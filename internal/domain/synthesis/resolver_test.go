package synthesis

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/carenote/carenote/internal/domain/template"
)

func newTestResolver() *Resolver {
	return NewResolver(ExprEvaluator{}, zerolog.Nop())
}

func TestResolver_ProviderOnlyAlwaysExcluded(t *testing.T) {
	processed := &ProcessedTemplate{Sections: []ProcessedSection{
		{SectionType: "assessment", Title: "Assessment", ProcessedContent: "stable", VisibilityRule: template.VisibilityShared},
		{SectionType: "plan", Title: "Plan", ProcessedContent: "increase dosage", VisibilityRule: template.VisibilityProviderOnly},
	}}

	view := newTestResolver().ResolveForPatient(processed, testAttrs())
	for _, s := range view {
		if s.SectionType == "plan" {
			t.Fatal("provider-only section leaked into patient view")
		}
	}
	if len(view) != 1 {
		t.Errorf("expected 1 section, got %d", len(view))
	}
}

func TestResolver_ScenarioAssessmentSharedPlanHidden(t *testing.T) {
	processed := &ProcessedTemplate{Sections: []ProcessedSection{
		{SectionType: "assessment", ProcessedContent: "Patient assessment: stable", VisibilityRule: template.VisibilityShared},
		{SectionType: "plan", ProcessedContent: "increase dosage", VisibilityRule: template.VisibilityProviderOnly},
	}}

	view := newTestResolver().ResolveForPatient(processed, testAttrs())
	if len(view) != 1 {
		t.Fatalf("expected exactly one section, got %d", len(view))
	}
	if view[0].SectionType != "assessment" || view[0].Content != "Patient assessment: stable" {
		t.Errorf("unexpected view section: %+v", view[0])
	}
}

func TestResolver_ConditionalIncluded(t *testing.T) {
	processed := &ProcessedTemplate{Sections: []ProcessedSection{
		{SectionType: "adult-advice", ProcessedContent: "advice", VisibilityRule: template.VisibilityConditional, PatientFilterRule: strPtr("age >= 18")},
	}}

	view := newTestResolver().ResolveForPatient(processed, testAttrs())
	if len(view) != 1 {
		t.Errorf("expected conditional section to be included, got %d sections", len(view))
	}
}

func TestResolver_ConditionalExcludedWhenFalse(t *testing.T) {
	processed := &ProcessedTemplate{Sections: []ProcessedSection{
		{SectionType: "minor-advice", ProcessedContent: "advice", VisibilityRule: template.VisibilityConditional, PatientFilterRule: strPtr("age < 18")},
	}}

	view := newTestResolver().ResolveForPatient(processed, testAttrs())
	if len(view) != 0 {
		t.Errorf("expected section to be excluded, got %d sections", len(view))
	}
}

func TestResolver_UnknownAttributeFailsClosed(t *testing.T) {
	processed := &ProcessedTemplate{Sections: []ProcessedSection{
		{SectionType: "conditional", ProcessedContent: "x", VisibilityRule: template.VisibilityConditional, PatientFilterRule: strPtr("enrollment_tier = gold")},
	}}

	view := newTestResolver().ResolveForPatient(processed, testAttrs())
	if len(view) != 0 {
		t.Error("expected unknown attribute to exclude the section")
	}
}

func TestResolver_ConditionalWithoutRuleExcluded(t *testing.T) {
	processed := &ProcessedTemplate{Sections: []ProcessedSection{
		{SectionType: "conditional", ProcessedContent: "x", VisibilityRule: template.VisibilityConditional},
	}}

	view := newTestResolver().ResolveForPatient(processed, testAttrs())
	if len(view) != 0 {
		t.Error("expected conditional section without a rule to be excluded")
	}
}

func TestResolver_UnrecognizedRuleTreatedProviderOnly(t *testing.T) {
	processed := &ProcessedTemplate{Sections: []ProcessedSection{
		{SectionType: "mystery", ProcessedContent: "x", VisibilityRule: "SOMETIMES_SHARED"},
	}}

	view := newTestResolver().ResolveForPatient(processed, testAttrs())
	if len(view) != 0 {
		t.Error("expected unrecognized visibility rule to hide the section")
	}
}

func TestResolver_EmptySectionsDropped(t *testing.T) {
	processed := &ProcessedTemplate{Sections: []ProcessedSection{
		{SectionType: "empty", Title: "Empty", ProcessedContent: "   \n", VisibilityRule: template.VisibilityShared},
		{SectionType: "full", Title: "Full", ProcessedContent: "content", VisibilityRule: template.VisibilityShared},
	}}

	view := newTestResolver().ResolveForPatient(processed, testAttrs())
	if len(view) != 1 || view[0].SectionType != "full" {
		t.Errorf("expected empty section to be dropped, got %+v", view)
	}
}

func TestResolver_PreservesOrder(t *testing.T) {
	processed := &ProcessedTemplate{Sections: []ProcessedSection{
		{SectionType: "first", ProcessedContent: "1", VisibilityRule: template.VisibilityShared},
		{SectionType: "hidden", ProcessedContent: "x", VisibilityRule: template.VisibilityProviderOnly},
		{SectionType: "second", ProcessedContent: "2", VisibilityRule: template.VisibilityShared},
	}}

	view := newTestResolver().ResolveForPatient(processed, testAttrs())
	if len(view) != 2 || view[0].SectionType != "first" || view[1].SectionType != "second" {
		t.Errorf("unexpected order: %+v", view)
	}
}
