package followup

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/his/his/internal/domain/audit"
	"github.com/his/his/internal/platform/auth"
	"github.com/his/his/internal/platform/errs"
)

type mockRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*FollowUp
}

func newMockRepo() *mockRepo {
	return &mockRepo{items: make(map[uuid.UUID]*FollowUp)}
}

func (m *mockRepo) Create(_ context.Context, f *FollowUp) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f.ID = uuid.New()
	cp := *f
	m.items[f.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*FollowUp, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	cp := *f
	return &cp, nil
}

func (m *mockRepo) Update(_ context.Context, f *FollowUp) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *f
	m.items[f.ID] = &cp
	return nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*FollowUp, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*FollowUp
	for _, f := range m.items {
		if f.PatientID == patientID {
			cp := *f
			out = append(out, &cp)
		}
	}
	return out, len(out), nil
}

var (
	noopAudit = audit.RecorderFunc(func(context.Context, audit.Event) {})
	actor     = auth.Actor{ID: "reception-1"}
)

func TestSchedule(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, noopAudit)
	patientID := uuid.New()

	at := time.Now().Add(48 * time.Hour)
	if err := svc.Schedule(context.Background(), actor, patientID, uuid.New(), at, "wound check"); err != nil {
		t.Fatal(err)
	}

	items, total, err := svc.ListByPatient(context.Background(), patientID, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 {
		t.Fatalf("expected 1 follow-up, got %d", total)
	}
	if items[0].Status != StatusScheduled {
		t.Errorf("expected scheduled, got %s", items[0].Status)
	}
}

func TestSchedule_PastTime(t *testing.T) {
	svc := NewService(newMockRepo(), noopAudit)
	err := svc.Schedule(context.Background(), actor, uuid.New(), uuid.New(),
		time.Now().Add(-time.Hour), "x")
	if !errs.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestComplete(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, noopAudit)
	patientID := uuid.New()
	if err := svc.Schedule(context.Background(), actor, patientID, uuid.New(),
		time.Now().Add(time.Hour), "review"); err != nil {
		t.Fatal(err)
	}
	items, _, _ := svc.ListByPatient(context.Background(), patientID, 10, 0)

	f, err := svc.Complete(context.Background(), actor, items[0].ID, "all clear")
	if err != nil {
		t.Fatal(err)
	}
	if f.Status != StatusCompleted || f.CompletedAt == nil {
		t.Errorf("expected completed with timestamp, got %+v", f)
	}

	_, err = svc.Complete(context.Background(), actor, items[0].ID, "again")
	if !errs.IsState(err) {
		t.Fatalf("expected state error on double complete, got %v", err)
	}
}

func TestComplete_NotFound(t *testing.T) {
	svc := NewService(newMockRepo(), noopAudit)
	_, err := svc.Complete(context.Background(), actor, uuid.New(), "")
	if !errs.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}
