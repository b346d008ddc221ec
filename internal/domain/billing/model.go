package billing

import (
	"time"

	"github.com/google/uuid"
)

// Invoice statuses. Draft and overdue are not produced by the payment flow
// itself (invoices are issued as sent; overdue is a billing-desk call), but
// the data model admits them.
const (
	InvoiceDraft         = "draft"
	InvoiceSent          = "sent"
	InvoicePartiallyPaid = "partially_paid"
	InvoicePaid          = "paid"
	InvoiceOverdue       = "overdue"
	InvoiceCancelled     = "cancelled"
)

// Payment methods accepted at the cash counter.
var validMethods = map[string]bool{
	"cash":       true,
	"card":       true,
	"upi":        true,
	"netbanking": true,
	"cheque":     true,
	"insurance":  true,
}

// Insurance claim statuses.
const (
	ClaimDraft             = "draft"
	ClaimSubmitted         = "submitted"
	ClaimUnderReview       = "under_review"
	ClaimApproved          = "approved"
	ClaimPartiallyApproved = "partially_approved"
	ClaimRejected          = "rejected"
	ClaimPaid              = "paid"
)

// Invoice is the bill for a visit. Amounts satisfy
// Total = Subtotal + Tax - Discount at all times.
type Invoice struct {
	ID         uuid.UUID      `json:"id"`
	Number     string         `json:"number"`
	VisitID    uuid.UUID      `json:"visit_id"`
	Status     string         `json:"status"`
	Subtotal   float64        `json:"subtotal"`
	Tax        float64        `json:"tax"`
	Discount   float64        `json:"discount"`
	Total      float64        `json:"total"`
	PaidAmount float64        `json:"paid_amount"`
	Items      []*InvoiceItem `json:"items,omitempty"`
	Payments   []*Payment     `json:"payments,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Balance is the amount still owed.
func (i *Invoice) Balance() float64 {
	return i.Total - i.PaidAmount
}

// InvoiceItem is one billed line. TotalPrice is UnitPrice * Quantity, stored
// denormalized so the printed bill never recomputes.
type InvoiceItem struct {
	ID          uuid.UUID `json:"id"`
	InvoiceID   uuid.UUID `json:"invoice_id"`
	Description string    `json:"description"`
	Quantity    int       `json:"quantity"`
	UnitPrice   float64   `json:"unit_price"`
	TotalPrice  float64   `json:"total_price"`
}

// Payment is one received amount against an invoice.
type Payment struct {
	ID        uuid.UUID `json:"id"`
	Number    string    `json:"number"`
	InvoiceID uuid.UUID `json:"invoice_id"`
	Amount    float64   `json:"amount"`
	Method    string    `json:"method"`
	Reference string    `json:"reference,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// InsuranceClaim tracks reimbursement for an invoice with an insurer.
type InsuranceClaim struct {
	ID              uuid.UUID  `json:"id"`
	InvoiceID       uuid.UUID  `json:"invoice_id"`
	PolicyNumber    string     `json:"policy_number"`
	Provider        string     `json:"provider"`
	ClaimAmount     float64    `json:"claim_amount"`
	ApprovedAmount  *float64   `json:"approved_amount,omitempty"`
	Status          string     `json:"status"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	SubmittedAt     *time.Time `json:"submitted_at,omitempty"`
	ProcessedAt     *time.Time `json:"processed_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// deriveInvoiceStatus decides the invoice status after a payment lands.
// Fully covered goes to paid, a partial payment to partially_paid, anything
// else keeps the prior status. Pure so the transition is testable in
// isolation.
func deriveInvoiceStatus(paid, total float64, prior string) string {
	switch {
	case paid >= total:
		return InvoicePaid
	case paid > 0:
		return InvoicePartiallyPaid
	default:
		return prior
	}
}
