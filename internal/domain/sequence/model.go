package sequence

import "time"

// Counter maps to the sequence_counters table. One row per (scope, period)
// pair — e.g. scope "MRN", period "250101" — holding the last issued value.
// Rows are created lazily on first allocation and never deleted.
type Counter struct {
	Scope     string    `db:"scope" json:"scope"`
	Period    string    `db:"period" json:"period"`
	LastValue int64     `db:"last_value" json:"last_value"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Scopes in use across the system.
const (
	ScopeMRN     = "MRN"
	ScopeVisit   = "VISIT"
	ScopeInvoice = "INV"
	ScopePayment = "PAY"
)
