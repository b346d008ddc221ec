package followup

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, f *FollowUp) error
	GetByID(ctx context.Context, id uuid.UUID) (*FollowUp, error)
	Update(ctx context.Context, f *FollowUp) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*FollowUp, int, error)
}
