package patient

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/carenote/carenote/internal/platform/apperror"
)

type mockRepo struct {
	patients map[uuid.UUID]*Patient
	meds     map[uuid.UUID][]*Medication
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		patients: map[uuid.UUID]*Patient{},
		meds:     map[uuid.UUID][]*Medication{},
	}
}

func (m *mockRepo) Create(_ context.Context, p *Patient) error {
	p.ID = uuid.New()
	m.patients[p.ID] = p
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return p, nil
}

func (m *mockRepo) ActiveMedications(_ context.Context, patientID uuid.UUID) ([]*Medication, error) {
	return m.meds[patientID], nil
}

func (m *mockRepo) AddMedication(_ context.Context, med *Medication) error {
	med.ID = uuid.New()
	m.meds[med.PatientID] = append(m.meds[med.PatientID], med)
	return nil
}

func TestService_Create_RequiresName(t *testing.T) {
	s := NewService(newMockRepo())

	err := s.Create(context.Background(), &Patient{LastName: "Doe"})
	if apperror.KindOf(err) != apperror.Validation {
		t.Errorf("expected Validation error for missing first name, got %v", err)
	}
	err = s.Create(context.Background(), &Patient{FirstName: "Jane"})
	if apperror.KindOf(err) != apperror.Validation {
		t.Errorf("expected Validation error for missing last name, got %v", err)
	}
}

func TestService_CreateAndGet(t *testing.T) {
	s := NewService(newMockRepo())

	p := &Patient{FirstName: "Jane", LastName: "Doe"}
	if err := s.Create(context.Background(), p); err != nil {
		t.Fatalf("create: %v", err)
	}
	if !p.Active {
		t.Error("expected new patient to be active")
	}

	got, err := s.Get(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.FullName() != "Jane Doe" {
		t.Errorf("unexpected patient: %+v", got)
	}
}

func TestService_Get_NotFound(t *testing.T) {
	s := NewService(newMockRepo())

	_, err := s.Get(context.Background(), uuid.New())
	if apperror.KindOf(err) != apperror.NotFound {
		t.Errorf("expected NotFound, got %v", err)
	}
}

func TestService_AddMedication(t *testing.T) {
	s := NewService(newMockRepo())

	p := &Patient{FirstName: "Jane", LastName: "Doe"}
	if err := s.Create(context.Background(), p); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := s.AddMedication(context.Background(), &Medication{Name: "metformin"}); apperror.KindOf(err) != apperror.Validation {
		t.Errorf("expected Validation for missing patient_id, got %v", err)
	}
	if err := s.AddMedication(context.Background(), &Medication{PatientID: p.ID}); apperror.KindOf(err) != apperror.Validation {
		t.Errorf("expected Validation for missing name, got %v", err)
	}

	if err := s.AddMedication(context.Background(), &Medication{PatientID: p.ID, Name: "metformin"}); err != nil {
		t.Fatalf("add medication: %v", err)
	}
	meds, err := s.ActiveMedications(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("list medications: %v", err)
	}
	if len(meds) != 1 || meds[0].Name != "metformin" {
		t.Errorf("unexpected medications: %+v", meds)
	}
}
