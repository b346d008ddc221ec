package sequence

import "context"

// Repository increments counters. Next must be atomic: for a given
// (scope, period) no two callers may ever observe the same value, no matter
// how many run concurrently. Implementations signal transient row contention
// with an errs.Contention error so the service can retry.
type Repository interface {
	// Next creates the counter row on first use and returns the incremented
	// value (first call yields 1).
	Next(ctx context.Context, scope, period string) (int64, error)
	// Get returns the counter row, or nil when it does not exist yet.
	Get(ctx context.Context, scope, period string) (*Counter, error)
}
