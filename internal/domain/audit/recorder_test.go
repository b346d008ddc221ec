package audit

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

type mockRepo struct {
	mu     sync.Mutex
	events []*Event
	fail   error
}

func (m *mockRepo) Append(_ context.Context, e *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.events = append(m.events, e)
	return nil
}

func (m *mockRepo) List(_ context.Context, _ map[string]string, limit, offset int) ([]*Event, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := len(m.events)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return m.events[offset:end], total, nil
}

func TestDBRecorder_PersistsEvent(t *testing.T) {
	repo := &mockRepo{}
	rec := NewDBRecorder(repo, zerolog.New(io.Discard))

	rec.Write(context.Background(), Event{
		Actor:    "dr-jones",
		Action:   "visit.discharge",
		Entity:   "visit",
		EntityID: "V2501010001",
	})

	if len(repo.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(repo.events))
	}
	e := repo.events[0]
	if e.Action != "visit.discharge" {
		t.Errorf("expected action visit.discharge, got %q", e.Action)
	}
	if e.Recorded.IsZero() {
		t.Error("expected Recorded to be stamped")
	}
}

func TestDBRecorder_SwallowsRepoFailure(t *testing.T) {
	repo := &mockRepo{fail: errors.New("connection refused")}
	rec := NewDBRecorder(repo, zerolog.New(io.Discard))

	// Must not panic and must not surface the error anywhere.
	rec.Write(context.Background(), Event{Action: "patient.register", Entity: "patient"})

	if len(repo.events) != 0 {
		t.Fatalf("expected no events stored, got %d", len(repo.events))
	}
}

func TestDBRecorder_KeepsCallerTimestamp(t *testing.T) {
	repo := &mockRepo{}
	rec := NewDBRecorder(repo, zerolog.New(io.Discard))

	e := Event{Action: "invoice.create", Entity: "invoice"}
	e.Recorded = e.Recorded.AddDate(2025, 0, 0)
	rec.Write(context.Background(), e)

	if got := repo.events[0].Recorded; got != e.Recorded {
		t.Errorf("expected caller timestamp kept, got %v", got)
	}
}

func TestService_ListEvents(t *testing.T) {
	repo := &mockRepo{}
	rec := NewDBRecorder(repo, zerolog.New(io.Discard))
	for i := 0; i < 5; i++ {
		rec.Write(context.Background(), Event{Actor: "sys", Action: "bed.assign", Entity: "bed"})
	}

	svc := NewService(repo)
	events, total, err := svc.ListEvents(context.Background(), nil, 3, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 5 {
		t.Errorf("expected total 5, got %d", total)
	}
	if len(events) != 3 {
		t.Errorf("expected page of 3, got %d", len(events))
	}
}
