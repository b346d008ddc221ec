package ward

import (
	"time"

	"github.com/google/uuid"
)

// Ward is a named group of beds.
type Ward struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code,omitempty"`
	Floor     int       `json:"floor"`
	CreatedAt time.Time `json:"created_at"`
}

// Bed belongs to exactly one ward. VisitID links the current occupant; it is
// set iff Occupied is true.
type Bed struct {
	ID          uuid.UUID  `json:"id"`
	WardID      uuid.UUID  `json:"ward_id"`
	Number      string     `json:"number"`
	Occupied    bool       `json:"occupied"`
	Maintenance bool       `json:"maintenance"`
	DailyRate   float64    `json:"daily_rate"`
	VisitID     *uuid.UUID `json:"visit_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// WardSummary is a ward with its bed counts, for listings.
type WardSummary struct {
	Ward
	TotalBeds int `json:"total_beds"`
	FreeBeds  int `json:"free_beds"`
}

// OccupancyStats covers all beds not under maintenance.
type OccupancyStats struct {
	TotalBeds       int     `json:"total_beds"`
	OccupiedBeds    int     `json:"occupied_beds"`
	MaintenanceBeds int     `json:"maintenance_beds"`
	OccupancyRate   float64 `json:"occupancy_rate"`
}
