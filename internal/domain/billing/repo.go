package billing

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists the ledger. Lookups return (nil, nil) when the row
// does not exist.
type Repository interface {
	// CreateInvoice inserts the invoice and its items; callers run it inside
	// a transaction so the header and lines land together.
	CreateInvoice(ctx context.Context, inv *Invoice) error
	// GetInvoice loads the invoice with its items and payments.
	GetInvoice(ctx context.Context, id uuid.UUID) (*Invoice, error)
	// GetInvoiceForUpdate locks the invoice header row for the duration of
	// the enclosing transaction. Items and payments are not loaded.
	GetInvoiceForUpdate(ctx context.Context, id uuid.UUID) (*Invoice, error)
	// SettleInvoice writes the paid amount and status reached after a
	// payment.
	SettleInvoice(ctx context.Context, id uuid.UUID, paidAmount float64, status string) error
	ListInvoicesByVisit(ctx context.Context, visitID uuid.UUID) ([]*Invoice, error)

	CreatePayment(ctx context.Context, p *Payment) error

	CreateClaim(ctx context.Context, c *InsuranceClaim) error
	GetClaim(ctx context.Context, id uuid.UUID) (*InsuranceClaim, error)
	GetClaimForUpdate(ctx context.Context, id uuid.UUID) (*InsuranceClaim, error)
	UpdateClaim(ctx context.Context, c *InsuranceClaim) error
}
