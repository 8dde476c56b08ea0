package synthesis

import "testing"

func testAttrs() map[string]interface{} {
	return map[string]interface{}{
		"age":      float64(42),
		"sex":      "female",
		"tags":     []string{"vip", "new-patient"},
		"programs": []string{"weight-loss"},
	}
}

func TestExprEvaluator_Evaluate(t *testing.T) {
	eval := ExprEvaluator{}

	tests := []struct {
		rule string
		want bool
	}{
		{"age >= 18", true},
		{"age > 42", false},
		{"age <= 42", true},
		{"age < 42", false},
		{"age = 42", true},
		{"age != 42", false},
		{"sex = female", true},
		{"sex = 'female'", true},
		{"sex != male", true},
		{"tags = vip", true},
		{"tags = premium", false},
		{"sex in (female, other)", true},
		{"sex in (male)", false},
		{"programs in (weight-loss, diabetes)", true},
		{"programs in (diabetes)", false},
	}
	for _, tt := range tests {
		t.Run(tt.rule, func(t *testing.T) {
			got, err := eval.Evaluate(tt.rule, testAttrs())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestExprEvaluator_Errors(t *testing.T) {
	eval := ExprEvaluator{}

	tests := []struct {
		name string
		rule string
	}{
		{"unknown attribute", "enrollment_year >= 2020"},
		{"malformed rule", "age"},
		{"unknown operator", "age ~ 42"},
		{"ordering on string", "sex > 10"},
		{"non-numeric comparison", "age >= eighteen"},
		{"in without list", "sex in female"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := eval.Evaluate(tt.rule, testAttrs()); err == nil {
				t.Errorf("expected error for rule %q", tt.rule)
			}
		})
	}
}
