package visit

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists visits. Lookups return (nil, nil) when the row does
// not exist.
type Repository interface {
	Create(ctx context.Context, v *Visit) error
	GetByID(ctx context.Context, id uuid.UUID) (*Visit, error)
	// GetForUpdate locks the visit row for the duration of the enclosing
	// transaction; lifecycle transitions read through it.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Visit, error)
	Update(ctx context.Context, v *Visit) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Visit, int, error)
	ListActive(ctx context.Context, limit, offset int) ([]*Visit, int, error)
}
