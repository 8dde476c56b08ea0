package synthesis

import (
	"fmt"
	"strconv"
	"strings"
)

// Evaluator decides whether a patient filter rule holds for a patient
// attribute set. Implementations must return an error rather than guess
// when a rule cannot be evaluated; callers treat errors as "exclude".
type Evaluator interface {
	Evaluate(rule string, attrs map[string]interface{}) (bool, error)
}

// ExprEvaluator evaluates rules of the form "attribute op literal".
// Supported operators: = != > >= < <= in. Literals are numbers, quoted
// strings, bare words, or a parenthesized list for "in".
type ExprEvaluator struct{}

func (ExprEvaluator) Evaluate(rule string, attrs map[string]interface{}) (bool, error) {
	attr, op, lit, err := splitRule(rule)
	if err != nil {
		return false, err
	}

	val, ok := attrs[attr]
	if !ok {
		return false, fmt.Errorf("unknown attribute %q", attr)
	}

	switch op {
	case "=", "!=":
		eq, err := equals(val, lit)
		if err != nil {
			return false, err
		}
		if op == "!=" {
			return !eq, nil
		}
		return eq, nil
	case ">", ">=", "<", "<=":
		return compareNumeric(val, op, lit)
	case "in":
		return inList(val, lit)
	}
	return false, fmt.Errorf("unknown operator %q", op)
}

func splitRule(rule string) (attr, op, lit string, err error) {
	s := strings.TrimSpace(rule)
	fields := strings.Fields(s)
	if len(fields) < 3 {
		return "", "", "", fmt.Errorf("malformed rule %q", rule)
	}
	attr = fields[0]
	op = fields[1]
	lit = strings.TrimSpace(strings.Join(fields[2:], " "))
	return attr, op, lit, nil
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// equals compares numerically when both sides parse as numbers, otherwise
// as strings. For list-valued attributes it tests membership.
func equals(val interface{}, lit string) (bool, error) {
	lit = unquote(lit)
	switch v := val.(type) {
	case []string:
		for _, item := range v {
			if item == lit {
				return true, nil
			}
		}
		return false, nil
	case float64:
		n, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			return false, fmt.Errorf("comparing numeric attribute to non-number %q", lit)
		}
		return v == n, nil
	case int:
		n, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			return false, fmt.Errorf("comparing numeric attribute to non-number %q", lit)
		}
		return float64(v) == n, nil
	case string:
		return v == lit, nil
	case bool:
		return strconv.FormatBool(v) == lit, nil
	}
	return false, fmt.Errorf("unsupported attribute type %T", val)
}

func compareNumeric(val interface{}, op, lit string) (bool, error) {
	var a float64
	switch v := val.(type) {
	case float64:
		a = v
	case int:
		a = float64(v)
	default:
		return false, fmt.Errorf("ordering comparison on non-numeric attribute %T", val)
	}
	b, err := strconv.ParseFloat(unquote(lit), 64)
	if err != nil {
		return false, fmt.Errorf("ordering comparison against non-number %q", lit)
	}
	switch op {
	case ">":
		return a > b, nil
	case ">=":
		return a >= b, nil
	case "<":
		return a < b, nil
	case "<=":
		return a <= b, nil
	}
	return false, fmt.Errorf("unknown operator %q", op)
}

// inList tests membership of the attribute value in a parenthesized list,
// e.g. `program in (weight-loss, diabetes)`. For list-valued attributes it
// tests for a non-empty intersection.
func inList(val interface{}, lit string) (bool, error) {
	lit = strings.TrimSpace(lit)
	if !strings.HasPrefix(lit, "(") || !strings.HasSuffix(lit, ")") {
		return false, fmt.Errorf("in operator requires a parenthesized list, got %q", lit)
	}
	var members []string
	for _, part := range strings.Split(lit[1:len(lit)-1], ",") {
		members = append(members, unquote(strings.TrimSpace(part)))
	}

	contains := func(s string) bool {
		for _, m := range members {
			if m == s {
				return true
			}
		}
		return false
	}

	switch v := val.(type) {
	case string:
		return contains(v), nil
	case float64:
		return contains(strconv.FormatFloat(v, 'f', -1, 64)), nil
	case int:
		return contains(strconv.Itoa(v)), nil
	case []string:
		for _, item := range v {
			if contains(item) {
				return true, nil
			}
		}
		return false, nil
	}
	return false, fmt.Errorf("unsupported attribute type %T", val)
}
