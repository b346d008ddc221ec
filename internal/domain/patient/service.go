package patient

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/his/his/internal/domain/audit"
	"github.com/his/his/internal/domain/sequence"
	"github.com/his/his/internal/domain/visit"
	"github.com/his/his/internal/platform/auth"
	"github.com/his/his/internal/platform/errs"
)

// Allocator mints medical record numbers.
type Allocator interface {
	Allocate(ctx context.Context, scope, period string) (string, error)
}

// VisitOpener opens a visit for a freshly registered patient. Satisfied by
// the visit service.
type VisitOpener interface {
	Create(ctx context.Context, actor auth.Actor, in visit.CreateInput) (*visit.Visit, error)
}

type Service struct {
	repo   Repository
	alloc  Allocator
	visits VisitOpener
	audit  audit.Recorder
}

func NewService(repo Repository, alloc Allocator, visits VisitOpener, rec audit.Recorder) *Service {
	return &Service{repo: repo, alloc: alloc, visits: visits, audit: rec}
}

// Register stores a patient with a freshly minted MRN.
func (s *Service) Register(ctx context.Context, actor auth.Actor, p *Patient) (*Patient, error) {
	if p.FirstName == "" {
		return nil, errs.Validationf("first_name is required")
	}

	mrn, err := s.alloc.Allocate(ctx, sequence.ScopeMRN, time.Now().UTC().Format("060102"))
	if err != nil {
		return nil, err
	}
	p.MRN = mrn

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.audit.Write(ctx, audit.Event{
		Actor: actor.ID, Action: "patient.register", Entity: "patient", EntityID: p.ID.String(),
		Details: map[string]interface{}{"mrn": p.MRN},
	})
	return p, nil
}

// RegistrationResult pairs a registered patient with the visit opened for
// them.
type RegistrationResult struct {
	Patient *Patient     `json:"patient"`
	Visit   *visit.Visit `json:"visit"`
}

// RegisterOPD registers the patient and opens an outpatient visit in one
// call, the front-desk flow.
func (s *Service) RegisterOPD(ctx context.Context, actor auth.Actor, p *Patient, department, doctor, complaint string) (*RegistrationResult, error) {
	return s.registerWithVisit(ctx, actor, p, visit.TypeOPD, department, doctor, complaint)
}

// RegisterEmergency admits an unidentified or urgent arrival. A missing name
// is defaulted so triage never blocks on demographics.
func (s *Service) RegisterEmergency(ctx context.Context, actor auth.Actor, p *Patient, complaint string) (*RegistrationResult, error) {
	if p.FirstName == "" {
		p.FirstName = "Unknown"
	}
	return s.registerWithVisit(ctx, actor, p, visit.TypeEmergency, "emergency", "", complaint)
}

func (s *Service) registerWithVisit(ctx context.Context, actor auth.Actor, p *Patient, visitType, department, doctor, complaint string) (*RegistrationResult, error) {
	registered, err := s.Register(ctx, actor, p)
	if err != nil {
		return nil, err
	}
	v, err := s.visits.Create(ctx, actor, visit.CreateInput{
		PatientID:       registered.ID,
		Type:            visitType,
		Department:      department,
		AttendingDoctor: doctor,
		ChiefComplaint:  complaint,
	})
	if err != nil {
		return nil, err
	}
	return &RegistrationResult{Patient: registered, Visit: v}, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, errs.NotFoundf("patient %s not found", id)
	}
	return p, nil
}

func (s *Service) GetByMRN(ctx context.Context, mrn string) (*Patient, error) {
	p, err := s.repo.GetByMRN(ctx, mrn)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, errs.NotFoundf("patient with MRN %s not found", mrn)
	}
	return p, nil
}

func (s *Service) Search(ctx context.Context, query string, limit, offset int) ([]*Patient, int, error) {
	return s.repo.Search(ctx, query, limit, offset)
}
