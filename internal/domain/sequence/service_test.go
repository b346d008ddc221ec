package sequence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/his/his/internal/platform/errs"
)

// -- Mock Repository --

type counterKey struct{ scope, period string }

type mockRepo struct {
	mu       sync.Mutex
	counters map[counterKey]int64
	// failures injects this many contention errors before Next succeeds.
	failures int
}

func newMockRepo() *mockRepo {
	return &mockRepo{counters: make(map[counterKey]int64)}
}

func (m *mockRepo) Next(_ context.Context, scope, period string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures > 0 {
		m.failures--
		return 0, errs.Contentionf("sequence counter contended")
	}
	k := counterKey{scope, period}
	m.counters[k]++
	return m.counters[k], nil
}

func (m *mockRepo) Get(_ context.Context, scope, period string) (*Counter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.counters[counterKey{scope, period}]
	if !ok {
		return nil, nil
	}
	return &Counter{Scope: scope, Period: period, LastValue: v, UpdatedAt: time.Now()}, nil
}

// -- Tests --

func TestAllocate_Sequential(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	want := []string{"2501010001", "2501010002", "2501010003"}
	for i, w := range want {
		got, err := svc.Allocate(ctx, ScopeMRN, "250101")
		if err != nil {
			t.Fatalf("allocate %d: %v", i, err)
		}
		if got != w {
			t.Errorf("allocation %d = %q, want %q", i, got, w)
		}
	}
}

func TestAllocate_UniqueUnderConcurrency(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	const n = 100
	results := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := svc.Allocate(ctx, ScopeMRN, "250101")
			if err != nil {
				t.Errorf("allocate: %v", err)
				return
			}
			results <- id
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[string]bool)
	for id := range results {
		if seen[id] {
			t.Fatalf("duplicate identifier issued: %s", id)
		}
		seen[id] = true
	}
	if len(seen) != n {
		t.Errorf("expected %d distinct identifiers, got %d", n, len(seen))
	}
}

func TestAllocate_IndependentPeriods(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	a, err := svc.Allocate(ctx, ScopeMRN, "250101")
	if err != nil {
		t.Fatal(err)
	}
	b, err := svc.Allocate(ctx, ScopeMRN, "250102")
	if err != nil {
		t.Fatal(err)
	}
	if a != "2501010001" || b != "2501020001" {
		t.Errorf("period rollover should restart the sequence, got %s and %s", a, b)
	}
}

func TestAllocate_IndependentScopes(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	if _, err := svc.Allocate(ctx, ScopeMRN, "250101"); err != nil {
		t.Fatal(err)
	}
	got, err := svc.Allocate(ctx, ScopeInvoice, "INV250101")
	if err != nil {
		t.Fatal(err)
	}
	if got != "INV2501010001" {
		t.Errorf("invoice scope should have its own counter, got %s", got)
	}
}

func TestAllocate_RetriesContention(t *testing.T) {
	repo := newMockRepo()
	repo.failures = 2
	svc := NewService(repo)

	got, err := svc.Allocate(context.Background(), ScopeMRN, "250101")
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if got != "2501010001" {
		t.Errorf("got %q", got)
	}
}

func TestAllocate_ContentionExhausted(t *testing.T) {
	repo := newMockRepo()
	repo.failures = 10
	svc := NewService(repo)

	_, err := svc.Allocate(context.Background(), ScopeMRN, "250101")
	if err == nil {
		t.Fatal("expected contention exhaustion")
	}
	if !errs.IsContention(err) {
		t.Errorf("expected contention kind, got %v", err)
	}
}

func TestAllocate_Validation(t *testing.T) {
	svc := NewService(newMockRepo())
	if _, err := svc.Allocate(context.Background(), "", "250101"); !errs.IsValidation(err) {
		t.Errorf("expected validation error for empty scope, got %v", err)
	}
	if _, err := svc.Allocate(context.Background(), ScopeMRN, ""); !errs.IsValidation(err) {
		t.Errorf("expected validation error for empty period, got %v", err)
	}
}
