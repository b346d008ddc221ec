package visit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/his/his/internal/domain/audit"
	"github.com/his/his/internal/domain/sequence"
	"github.com/his/his/internal/platform/auth"
	"github.com/his/his/internal/platform/db"
	"github.com/his/his/internal/platform/errs"
)

// Allocator mints visit numbers.
type Allocator interface {
	Allocate(ctx context.Context, scope, period string) (string, error)
}

// BedReleaser frees whatever bed a visit holds. Satisfied by the ward
// service.
type BedReleaser interface {
	ReleaseBed(ctx context.Context, actor auth.Actor, visitID uuid.UUID) error
}

// FollowUpScheduler books post-discharge follow-ups. Satisfied by the
// followup service.
type FollowUpScheduler interface {
	Schedule(ctx context.Context, actor auth.Actor, patientID, visitID uuid.UUID, at time.Time, reason string) error
}

type Service struct {
	repo      Repository
	alloc     Allocator
	tx        db.TxRunner
	beds      BedReleaser
	followups FollowUpScheduler
	audit     audit.Recorder
	log       zerolog.Logger
}

func NewService(repo Repository, alloc Allocator, tx db.TxRunner, beds BedReleaser,
	followups FollowUpScheduler, rec audit.Recorder, log zerolog.Logger) *Service {
	return &Service{
		repo: repo, alloc: alloc, tx: tx, beds: beds,
		followups: followups, audit: rec, log: log,
	}
}

// CreateInput carries the fields a caller supplies for a new visit.
type CreateInput struct {
	PatientID       uuid.UUID `json:"patient_id"`
	Type            string    `json:"type"`
	Department      string    `json:"department"`
	AttendingDoctor string    `json:"attending_doctor"`
	ChiefComplaint  string    `json:"chief_complaint"`
}

// Create opens an active visit with a freshly minted visit number.
func (s *Service) Create(ctx context.Context, actor auth.Actor, in CreateInput) (*Visit, error) {
	if in.PatientID == uuid.Nil {
		return nil, errs.Validationf("patient_id is required")
	}
	if !validType(in.Type) {
		return nil, errs.Validationf("invalid visit type %q", in.Type)
	}

	now := time.Now().UTC()
	number, err := s.alloc.Allocate(ctx, sequence.ScopeVisit, "V"+now.Format("060102"))
	if err != nil {
		return nil, err
	}

	v := &Visit{
		Number:          number,
		PatientID:       in.PatientID,
		Type:            in.Type,
		Status:          StatusActive,
		Department:      in.Department,
		AttendingDoctor: in.AttendingDoctor,
		ChiefComplaint:  in.ChiefComplaint,
		AdmittedAt:      now,
	}
	if err := s.repo.Create(ctx, v); err != nil {
		return nil, err
	}

	s.audit.Write(ctx, audit.Event{
		Actor: actor.ID, Action: "visit.create", Entity: "visit", EntityID: v.ID.String(),
		Details: map[string]interface{}{"number": v.Number, "type": v.Type, "patient_id": v.PatientID.String()},
	})
	return v, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Visit, error) {
	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, errs.NotFoundf("visit %s not found", id)
	}
	return v, nil
}

// VisitStatusForUpdate reports the lifecycle status of a visit with the
// visit row locked, joining any transaction carried by ctx. Bed allocation
// reads through this so the status cannot flip under it before commit;
// locking the visit first also matches the visit-then-bed lock order
// Discharge takes, so the two cannot deadlock.
func (s *Service) VisitStatusForUpdate(ctx context.Context, id uuid.UUID) (string, error) {
	v, err := s.repo.GetForUpdate(ctx, id)
	if err != nil {
		return "", err
	}
	if v == nil {
		return "", errs.NotFoundf("visit %s not found", id)
	}
	return v.Status, nil
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Visit, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ListActive(ctx context.Context, limit, offset int) ([]*Visit, int, error) {
	return s.repo.ListActive(ctx, limit, offset)
}

// Discharge closes an active visit. Status flip and bed release commit in
// one transaction; a second discharge fails the state guard before either.
// The follow-up is booked only after the commit so an aborted discharge
// never leaves one behind, and a booking failure is logged, not returned.
func (s *Service) Discharge(ctx context.Context, actor auth.Actor, visitID uuid.UUID, summary string, followUpAt *time.Time) (*Visit, error) {
	var v *Visit
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		v, err = s.repo.GetForUpdate(ctx, visitID)
		if err != nil {
			return err
		}
		if v == nil {
			return errs.NotFoundf("visit %s not found", visitID)
		}
		if !v.Active() {
			return errs.Statef("visit %s is already %s", v.Number, v.Status)
		}

		now := time.Now().UTC()
		v.Status = StatusDischarged
		v.DischargedAt = &now
		v.DischargeSummary = summary
		if err := s.repo.Update(ctx, v); err != nil {
			return err
		}
		return s.beds.ReleaseBed(ctx, actor, visitID)
	})
	if err != nil {
		return nil, err
	}

	if followUpAt != nil {
		if err := s.followups.Schedule(ctx, actor, v.PatientID, v.ID, *followUpAt, "post-discharge review"); err != nil {
			s.log.Error().Err(err).
				Str("visit", v.Number).
				Msg("follow-up scheduling failed")
		}
	}

	s.audit.Write(ctx, audit.Event{
		Actor: actor.ID, Action: "visit.discharge", Entity: "visit", EntityID: v.ID.String(),
		Details: map[string]interface{}{"number": v.Number},
	})
	return v, nil
}

// Refer closes an active visit with a referral out. Any held bed is freed in
// the same transaction.
func (s *Service) Refer(ctx context.Context, actor auth.Actor, visitID uuid.UUID, reason string) (*Visit, error) {
	if reason == "" {
		return nil, errs.Validationf("referral reason is required")
	}
	var v *Visit
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		v, err = s.repo.GetForUpdate(ctx, visitID)
		if err != nil {
			return err
		}
		if v == nil {
			return errs.NotFoundf("visit %s not found", visitID)
		}
		if !v.Active() {
			return errs.Statef("visit %s is already %s", v.Number, v.Status)
		}

		now := time.Now().UTC()
		v.Status = StatusReferred
		v.DischargedAt = &now
		v.ReferralReason = reason
		if err := s.repo.Update(ctx, v); err != nil {
			return err
		}
		return s.beds.ReleaseBed(ctx, actor, visitID)
	})
	if err != nil {
		return nil, err
	}

	s.audit.Write(ctx, audit.Event{
		Actor: actor.ID, Action: "visit.refer", Entity: "visit", EntityID: v.ID.String(),
		Details: map[string]interface{}{"number": v.Number, "reason": reason},
	})
	return v, nil
}
