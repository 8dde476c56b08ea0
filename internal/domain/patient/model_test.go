package patient

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestPatient_FullName(t *testing.T) {
	p := &Patient{FirstName: "Jane", LastName: "Doe"}
	if got := p.FullName(); got != "Jane Doe" {
		t.Errorf("expected 'Jane Doe', got %q", got)
	}
}

func TestPatient_Age(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		birth *time.Time
		want  int
	}{
		{"birthday passed this year", datePtr(1990, 3, 15), 36},
		{"birthday later this year", datePtr(1990, 11, 2), 35},
		{"birthday today", datePtr(2000, 8, 29), 26},
		{"unknown birth date", nil, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Patient{BirthDate: tt.birth}
			if got := p.Age(now); got != tt.want {
				t.Errorf("expected age %d, got %d", tt.want, got)
			}
		})
	}
}

func TestPatient_Attributes(t *testing.T) {
	now := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	sex := "female"
	p := &Patient{
		ID:        uuid.New(),
		BirthDate: datePtr(1980, 1, 1),
		Sex:       &sex,
		Tags:      []string{"vip"},
		Programs:  []string{"weight-loss"},
	}

	attrs := p.Attributes(now)
	if attrs["age"] != float64(46) {
		t.Errorf("expected age 46, got %v", attrs["age"])
	}
	if attrs["sex"] != "female" {
		t.Errorf("expected sex female, got %v", attrs["sex"])
	}
	tags, ok := attrs["tags"].([]string)
	if !ok || len(tags) != 1 || tags[0] != "vip" {
		t.Errorf("unexpected tags: %v", attrs["tags"])
	}
}

func TestPatient_Attributes_OmitsUnknown(t *testing.T) {
	p := &Patient{}
	attrs := p.Attributes(time.Now())
	if _, ok := attrs["age"]; ok {
		t.Error("expected age to be omitted when birth date is unknown")
	}
	if _, ok := attrs["sex"]; ok {
		t.Error("expected sex to be omitted when unset")
	}
}
