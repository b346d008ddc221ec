package followup

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
)

// FollowUp is a post-discharge review appointment.
type FollowUp struct {
	ID          uuid.UUID  `json:"id"`
	PatientID   uuid.UUID  `json:"patient_id"`
	VisitID     uuid.UUID  `json:"visit_id"`
	ScheduledAt time.Time  `json:"scheduled_at"`
	Reason      string     `json:"reason"`
	Status      string     `json:"status"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
