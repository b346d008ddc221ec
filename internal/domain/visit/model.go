package visit

import (
	"time"

	"github.com/google/uuid"
)

// Visit types.
const (
	TypeOPD       = "opd"
	TypeIPD       = "ipd"
	TypeEmergency = "emergency"
)

// Visit statuses. Active is the only state that accepts further transitions;
// discharged and referred are terminal.
const (
	StatusActive     = "active"
	StatusDischarged = "discharged"
	StatusReferred   = "referred"
)

// Visit is one episode of care for a patient.
type Visit struct {
	ID               uuid.UUID  `json:"id"`
	Number           string     `json:"number"`
	PatientID        uuid.UUID  `json:"patient_id"`
	Type             string     `json:"type"`
	Status           string     `json:"status"`
	Department       string     `json:"department,omitempty"`
	AttendingDoctor  string     `json:"attending_doctor,omitempty"`
	ChiefComplaint   string     `json:"chief_complaint,omitempty"`
	AdmittedAt       time.Time  `json:"admitted_at"`
	// DischargedAt marks the end of the episode. It is set whenever the
	// visit leaves active, for referrals as much as discharges: null means
	// active and nothing else.
	DischargedAt     *time.Time `json:"discharged_at,omitempty"`
	DischargeSummary string     `json:"discharge_summary,omitempty"`
	ReferralReason   string     `json:"referral_reason,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Active reports whether the visit still accepts lifecycle transitions.
func (v *Visit) Active() bool { return v.Status == StatusActive }

func validType(t string) bool {
	return t == TypeOPD || t == TypeIPD || t == TypeEmergency
}
