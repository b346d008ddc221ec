package followup

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/his/his/internal/domain/audit"
	"github.com/his/his/internal/platform/auth"
	"github.com/his/his/internal/platform/errs"
)

type Service struct {
	repo  Repository
	audit audit.Recorder
}

func NewService(repo Repository, rec audit.Recorder) *Service {
	return &Service{repo: repo, audit: rec}
}

// Schedule books a follow-up. The scheduled time must be in the future.
func (s *Service) Schedule(ctx context.Context, actor auth.Actor, patientID, visitID uuid.UUID, at time.Time, reason string) error {
	if patientID == uuid.Nil {
		return errs.Validationf("patient_id is required")
	}
	if !at.After(time.Now()) {
		return errs.Validationf("scheduled time must be in the future")
	}
	f := &FollowUp{
		PatientID:   patientID,
		VisitID:     visitID,
		ScheduledAt: at,
		Reason:      reason,
		Status:      StatusScheduled,
	}
	if err := s.repo.Create(ctx, f); err != nil {
		return err
	}
	s.audit.Write(ctx, audit.Event{
		Actor: actor.ID, Action: "followup.schedule", Entity: "followup", EntityID: f.ID.String(),
		Details: map[string]interface{}{"patient_id": patientID.String(), "scheduled_at": at},
	})
	return nil
}

// Complete marks a scheduled follow-up done. Completing twice is a state
// error.
func (s *Service) Complete(ctx context.Context, actor auth.Actor, id uuid.UUID, notes string) (*FollowUp, error) {
	f, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, errs.NotFoundf("follow-up %s not found", id)
	}
	if f.Status != StatusScheduled {
		return nil, errs.Statef("follow-up %s is already %s", id, f.Status)
	}
	now := time.Now().UTC()
	f.Status = StatusCompleted
	f.CompletedAt = &now
	f.Notes = notes
	if err := s.repo.Update(ctx, f); err != nil {
		return nil, err
	}
	s.audit.Write(ctx, audit.Event{
		Actor: actor.ID, Action: "followup.complete", Entity: "followup", EntityID: f.ID.String(),
	})
	return f, nil
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*FollowUp, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}
