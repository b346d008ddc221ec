package audit

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// DBRecorder persists events through the repository. A failed write is logged
// and dropped: callers never see an error from the trail.
type DBRecorder struct {
	repo Repository
	log  zerolog.Logger
}

func NewDBRecorder(repo Repository, log zerolog.Logger) *DBRecorder {
	return &DBRecorder{repo: repo, log: log}
}

func (r *DBRecorder) Write(ctx context.Context, e Event) {
	if e.Recorded.IsZero() {
		e.Recorded = time.Now().UTC()
	}
	if err := r.repo.Append(ctx, &e); err != nil {
		r.log.Error().Err(err).
			Str("action", e.Action).
			Str("entity", e.Entity).
			Str("entity_id", e.EntityID).
			Msg("audit write failed")
	}
}

// LogRecorder emits events to the structured log only. Used when no database
// is wired, mostly in tests and local tooling.
type LogRecorder struct {
	log zerolog.Logger
}

func NewLogRecorder(log zerolog.Logger) *LogRecorder {
	return &LogRecorder{log: log}
}

func (r *LogRecorder) Write(_ context.Context, e Event) {
	r.log.Info().
		Str("actor", e.Actor).
		Str("action", e.Action).
		Str("entity", e.Entity).
		Str("entity_id", e.EntityID).
		Msg("audit event")
}
