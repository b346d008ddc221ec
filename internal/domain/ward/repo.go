package ward

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists wards and beds. Lookups return (nil, nil) when the row
// does not exist; the service maps that to a not-found error.
type Repository interface {
	CreateWard(ctx context.Context, w *Ward) error
	GetWard(ctx context.Context, id uuid.UUID) (*Ward, error)
	ListWards(ctx context.Context) ([]*WardSummary, error)

	CreateBed(ctx context.Context, b *Bed) error
	GetBed(ctx context.Context, id uuid.UUID) (*Bed, error)
	// GetBedForUpdate locks the bed row for the duration of the enclosing
	// transaction.
	GetBedForUpdate(ctx context.Context, id uuid.UUID) (*Bed, error)
	// GetBedByVisitForUpdate locks and returns the bed currently held by the
	// visit, or (nil, nil) when the visit holds none.
	GetBedByVisitForUpdate(ctx context.Context, visitID uuid.UUID) (*Bed, error)
	ListBedsByWard(ctx context.Context, wardID uuid.UUID, availableOnly bool) ([]*Bed, error)
	SetBedOccupancy(ctx context.Context, bedID uuid.UUID, occupied bool, visitID *uuid.UUID) error

	Stats(ctx context.Context) (*OccupancyStats, error)
}
