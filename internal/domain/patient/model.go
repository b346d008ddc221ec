package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient is the demographic record. MRN is the human-facing medical record
// number; the uuid is the row identity.
type Patient struct {
	ID               uuid.UUID  `json:"id"`
	MRN              string     `json:"mrn"`
	FirstName        string     `json:"first_name"`
	LastName         string     `json:"last_name"`
	DateOfBirth      *time.Time `json:"date_of_birth,omitempty"`
	Gender           string     `json:"gender,omitempty"`
	Phone            string     `json:"phone,omitempty"`
	Address          string     `json:"address,omitempty"`
	BloodGroup       string     `json:"blood_group,omitempty"`
	EmergencyContact string     `json:"emergency_contact,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}
