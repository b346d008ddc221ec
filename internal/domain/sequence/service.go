package sequence

import (
	"context"
	"fmt"

	"github.com/his/his/internal/platform/errs"
)

// DefaultMaxRetries bounds the internal retry loop on counter contention.
const DefaultMaxRetries = 3

// Service issues unique, human-readable sequential identifiers scoped by a
// category and a time period: periodKey "250101" with the seventh allocation
// of scope MRN yields "2501010007". Values are never reused; a value consumed
// by an aborted transaction simply becomes a gap.
type Service struct {
	repo       Repository
	maxRetries int
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, maxRetries: DefaultMaxRetries}
}

// SetMaxRetries overrides the contention retry bound (minimum 1).
func (s *Service) SetMaxRetries(n int) {
	if n >= 1 {
		s.maxRetries = n
	}
}

// Allocate returns the next identifier for (scope, periodKey), formatted as
// periodKey followed by the zero-padded four-digit sequence value. Transient
// row contention is retried up to the bound; exhaustion surfaces as a
// retryable contention error.
func (s *Service) Allocate(ctx context.Context, scope, periodKey string) (string, error) {
	if scope == "" {
		return "", errs.Validationf("sequence scope is required")
	}
	if periodKey == "" {
		return "", errs.Validationf("sequence period key is required")
	}

	var lastErr error
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		value, err := s.repo.Next(ctx, scope, periodKey)
		if err == nil {
			return fmt.Sprintf("%s%04d", periodKey, value), nil
		}
		if !errs.IsContention(err) {
			return "", err
		}
		lastErr = err
	}
	return "", errs.Wrap(errs.KindContention, lastErr,
		fmt.Sprintf("sequence contention exhausted after %d attempts for %s/%s", s.maxRetries, scope, periodKey))
}
