package ward

import (
	"context"

	"github.com/google/uuid"

	"github.com/his/his/internal/domain/audit"
	"github.com/his/his/internal/platform/auth"
	"github.com/his/his/internal/platform/db"
	"github.com/his/his/internal/platform/errs"
)

// VisitGate is the slice of the visit domain bed allocation depends on.
// The read must lock the visit row in the caller's transaction: a plain
// read would let a concurrent discharge commit between the status check
// and the bed write, leaving a bed held by a closed visit.
type VisitGate interface {
	VisitStatusForUpdate(ctx context.Context, visitID uuid.UUID) (string, error)
}

type Service struct {
	repo   Repository
	tx     db.TxRunner
	visits VisitGate
	audit  audit.Recorder
}

func NewService(repo Repository, tx db.TxRunner, visits VisitGate, rec audit.Recorder) *Service {
	return &Service{repo: repo, tx: tx, visits: visits, audit: rec}
}

func (s *Service) CreateWard(ctx context.Context, actor auth.Actor, w *Ward) error {
	if w.Name == "" {
		return errs.Validationf("ward name is required")
	}
	if err := s.repo.CreateWard(ctx, w); err != nil {
		return err
	}
	s.audit.Write(ctx, audit.Event{
		Actor: actor.ID, Action: "ward.create", Entity: "ward", EntityID: w.ID.String(),
		Details: map[string]interface{}{"name": w.Name},
	})
	return nil
}

func (s *Service) CreateBed(ctx context.Context, actor auth.Actor, b *Bed) error {
	if b.Number == "" {
		return errs.Validationf("bed number is required")
	}
	if b.DailyRate < 0 {
		return errs.Validationf("daily rate must not be negative")
	}
	w, err := s.repo.GetWard(ctx, b.WardID)
	if err != nil {
		return err
	}
	if w == nil {
		return errs.NotFoundf("ward %s not found", b.WardID)
	}
	if err := s.repo.CreateBed(ctx, b); err != nil {
		return err
	}
	s.audit.Write(ctx, audit.Event{
		Actor: actor.ID, Action: "bed.create", Entity: "bed", EntityID: b.ID.String(),
		Details: map[string]interface{}{"ward_id": b.WardID.String(), "number": b.Number},
	})
	return nil
}

func (s *Service) ListWards(ctx context.Context) ([]*WardSummary, error) {
	return s.repo.ListWards(ctx)
}

func (s *Service) ListBeds(ctx context.Context, wardID uuid.UUID, availableOnly bool) ([]*Bed, error) {
	return s.repo.ListBedsByWard(ctx, wardID, availableOnly)
}

func (s *Service) Stats(ctx context.Context) (*OccupancyStats, error) {
	return s.repo.Stats(ctx)
}

// AssignBed moves the visit onto the given bed. The visit row is locked
// before the bed row (the same order Discharge takes), so the visit cannot
// be closed under the assignment. The target bed row is locked before the
// occupancy check, so of two concurrent assigns to a free bed exactly one
// commits; the loser sees Occupied and gets a conflict. A bed previously
// held by the visit is freed in the same transaction.
func (s *Service) AssignBed(ctx context.Context, actor auth.Actor, visitID, bedID uuid.UUID) error {
	var freed *uuid.UUID
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		status, err := s.visits.VisitStatusForUpdate(ctx, visitID)
		if err != nil {
			return err
		}
		if status != "active" {
			return errs.Statef("visit %s is %s, beds can only be assigned to active visits", visitID, status)
		}

		bed, err := s.repo.GetBedForUpdate(ctx, bedID)
		if err != nil {
			return err
		}
		if bed == nil {
			return errs.NotFoundf("bed %s not found", bedID)
		}
		if bed.Maintenance {
			return errs.Conflictf("bed %s is under maintenance", bed.Number)
		}
		if bed.Occupied {
			if bed.VisitID != nil && *bed.VisitID == visitID {
				return nil
			}
			return errs.Conflictf("bed %s is occupied", bed.Number)
		}

		prev, err := s.repo.GetBedByVisitForUpdate(ctx, visitID)
		if err != nil {
			return err
		}
		if prev != nil && prev.ID != bedID {
			if err := s.repo.SetBedOccupancy(ctx, prev.ID, false, nil); err != nil {
				return err
			}
			id := prev.ID
			freed = &id
		}

		return s.repo.SetBedOccupancy(ctx, bedID, true, &visitID)
	})
	if err != nil {
		return err
	}

	details := map[string]interface{}{"visit_id": visitID.String()}
	if freed != nil {
		details["freed_bed_id"] = freed.String()
	}
	s.audit.Write(ctx, audit.Event{
		Actor: actor.ID, Action: "bed.assign", Entity: "bed", EntityID: bedID.String(),
		Details: details,
	})
	return nil
}

// ReleaseBed frees whatever bed the visit holds. Releasing a visit with no
// bed is a no-op.
func (s *Service) ReleaseBed(ctx context.Context, actor auth.Actor, visitID uuid.UUID) error {
	var released *uuid.UUID
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		bed, err := s.repo.GetBedByVisitForUpdate(ctx, visitID)
		if err != nil {
			return err
		}
		if bed == nil {
			return nil
		}
		if err := s.repo.SetBedOccupancy(ctx, bed.ID, false, nil); err != nil {
			return err
		}
		id := bed.ID
		released = &id
		return nil
	})
	if err != nil {
		return err
	}
	if released != nil {
		s.audit.Write(ctx, audit.Event{
			Actor: actor.ID, Action: "bed.release", Entity: "bed", EntityID: released.String(),
			Details: map[string]interface{}{"visit_id": visitID.String()},
		})
	}
	return nil
}
