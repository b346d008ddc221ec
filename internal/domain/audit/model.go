package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event is one append-only record of a state-changing action.
type Event struct {
	ID       uuid.UUID              `db:"id" json:"id"`
	Actor    string                 `db:"actor" json:"actor"`
	Action   string                 `db:"action" json:"action"`
	Entity   string                 `db:"entity" json:"entity"`
	EntityID string                 `db:"entity_id" json:"entity_id"`
	Recorded time.Time              `db:"recorded" json:"recorded"`
	Details  map[string]interface{} `db:"details" json:"details,omitempty"`
}

// Recorder is the sink the domain services write to. Write never fails the
// caller: a failure to audit must not roll back the business transaction it
// describes, so implementations report persistence errors out of band.
type Recorder interface {
	Write(ctx context.Context, e Event)
}

// RecorderFunc is a function adapter for Recorder.
type RecorderFunc func(ctx context.Context, e Event)

func (f RecorderFunc) Write(ctx context.Context, e Event) { f(ctx, e) }
