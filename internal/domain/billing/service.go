package billing

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/his/his/internal/domain/audit"
	"github.com/his/his/internal/domain/sequence"
	"github.com/his/his/internal/platform/auth"
	"github.com/his/his/internal/platform/db"
	"github.com/his/his/internal/platform/errs"
)

// Allocator mints invoice and receipt numbers.
type Allocator interface {
	Allocate(ctx context.Context, scope, period string) (string, error)
}

type Service struct {
	repo    Repository
	alloc   Allocator
	tx      db.TxRunner
	audit   audit.Recorder
	taxRate float64
}

// NewService builds the ledger service. taxRatePercent is the flat tax
// applied to every invoice subtotal.
func NewService(repo Repository, alloc Allocator, tx db.TxRunner, rec audit.Recorder, taxRatePercent float64) *Service {
	return &Service{repo: repo, alloc: alloc, tx: tx, audit: rec, taxRate: taxRatePercent}
}

// ItemInput is one requested invoice line.
type ItemInput struct {
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

// CreateInvoice bills a visit. Line totals, subtotal, tax and total are
// computed here, never taken from the caller, so the arithmetic invariant
// holds by construction.
func (s *Service) CreateInvoice(ctx context.Context, actor auth.Actor, visitID uuid.UUID, items []ItemInput, discount float64) (*Invoice, error) {
	if visitID == uuid.Nil {
		return nil, errs.Validationf("visit_id is required")
	}
	if len(items) == 0 {
		return nil, errs.Validationf("invoice needs at least one line item")
	}
	if discount < 0 {
		return nil, errs.Validationf("discount must not be negative")
	}

	var subtotal float64
	lines := make([]*InvoiceItem, 0, len(items))
	for _, in := range items {
		if in.Description == "" {
			return nil, errs.Validationf("line item description is required")
		}
		if in.Quantity <= 0 {
			return nil, errs.Validationf("line item quantity must be positive")
		}
		if in.UnitPrice < 0 {
			return nil, errs.Validationf("line item unit price must not be negative")
		}
		lineTotal := in.UnitPrice * float64(in.Quantity)
		subtotal += lineTotal
		lines = append(lines, &InvoiceItem{
			Description: in.Description,
			Quantity:    in.Quantity,
			UnitPrice:   in.UnitPrice,
			TotalPrice:  lineTotal,
		})
	}

	tax := subtotal * s.taxRate / 100
	if discount > subtotal+tax {
		return nil, errs.Validationf("discount exceeds invoice amount")
	}

	number, err := s.alloc.Allocate(ctx, sequence.ScopeInvoice, "INV"+time.Now().UTC().Format("060102"))
	if err != nil {
		return nil, err
	}

	inv := &Invoice{
		Number:   number,
		VisitID:  visitID,
		Status:   InvoiceSent,
		Subtotal: subtotal,
		Tax:      tax,
		Discount: discount,
		Total:    subtotal + tax - discount,
		Items:    lines,
	}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		return s.repo.CreateInvoice(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	s.audit.Write(ctx, audit.Event{
		Actor: actor.ID, Action: "invoice.create", Entity: "invoice", EntityID: inv.ID.String(),
		Details: map[string]interface{}{"number": inv.Number, "total": inv.Total},
	})
	return inv, nil
}

func (s *Service) GetInvoice(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	inv, err := s.repo.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, errs.NotFoundf("invoice %s not found", id)
	}
	return inv, nil
}

func (s *Service) ListInvoicesByVisit(ctx context.Context, visitID uuid.UUID) ([]*Invoice, error) {
	return s.repo.ListInvoicesByVisit(ctx, visitID)
}

// RecordPayment appends a payment and moves the invoice forward. The invoice
// row stays locked from read to settle, so concurrent payments serialize and
// each increment lands on the previous paid amount.
func (s *Service) RecordPayment(ctx context.Context, actor auth.Actor, invoiceID uuid.UUID, amount float64, method, reference string) (*Payment, error) {
	if amount <= 0 {
		return nil, errs.Validationf("payment amount must be positive")
	}
	if !validMethods[method] {
		return nil, errs.Validationf("unknown payment method %q", method)
	}

	number, err := s.alloc.Allocate(ctx, sequence.ScopePayment, "PAY"+time.Now().UTC().Format("060102"))
	if err != nil {
		return nil, err
	}

	p := &Payment{
		Number:    number,
		InvoiceID: invoiceID,
		Amount:    amount,
		Method:    method,
		Reference: reference,
	}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		inv, err := s.repo.GetInvoiceForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		if inv == nil {
			return errs.NotFoundf("invoice %s not found", invoiceID)
		}
		if inv.Status == InvoiceCancelled {
			return errs.Statef("invoice %s is cancelled", inv.Number)
		}

		if err := s.repo.CreatePayment(ctx, p); err != nil {
			return err
		}
		paid := inv.PaidAmount + amount
		return s.repo.SettleInvoice(ctx, invoiceID, paid, deriveInvoiceStatus(paid, inv.Total, inv.Status))
	})
	if err != nil {
		return nil, err
	}

	s.audit.Write(ctx, audit.Event{
		Actor: actor.ID, Action: "payment.record", Entity: "invoice", EntityID: invoiceID.String(),
		Details: map[string]interface{}{"number": p.Number, "amount": amount, "method": method},
	})
	return p, nil
}

// CreateClaim opens a draft claim against an invoice.
func (s *Service) CreateClaim(ctx context.Context, actor auth.Actor, c *InsuranceClaim) (*InsuranceClaim, error) {
	if c.InvoiceID == uuid.Nil {
		return nil, errs.Validationf("invoice_id is required")
	}
	if c.PolicyNumber == "" {
		return nil, errs.Validationf("policy_number is required")
	}
	if c.ClaimAmount <= 0 {
		return nil, errs.Validationf("claim amount must be positive")
	}
	inv, err := s.repo.GetInvoice(ctx, c.InvoiceID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, errs.NotFoundf("invoice %s not found", c.InvoiceID)
	}

	c.Status = ClaimDraft
	if err := s.repo.CreateClaim(ctx, c); err != nil {
		return nil, err
	}
	s.audit.Write(ctx, audit.Event{
		Actor: actor.ID, Action: "claim.create", Entity: "claim", EntityID: c.ID.String(),
		Details: map[string]interface{}{"invoice_id": c.InvoiceID.String(), "amount": c.ClaimAmount},
	})
	return c, nil
}

func (s *Service) GetClaim(ctx context.Context, id uuid.UUID) (*InsuranceClaim, error) {
	c, err := s.repo.GetClaim(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, errs.NotFoundf("claim %s not found", id)
	}
	return c, nil
}

// SubmitClaim sends a draft claim to the insurer.
func (s *Service) SubmitClaim(ctx context.Context, actor auth.Actor, claimID uuid.UUID) (*InsuranceClaim, error) {
	var c *InsuranceClaim
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		c, err = s.repo.GetClaimForUpdate(ctx, claimID)
		if err != nil {
			return err
		}
		if c == nil {
			return errs.NotFoundf("claim %s not found", claimID)
		}
		if c.Status != ClaimDraft {
			return errs.Statef("claim %s is %s, only draft claims can be submitted", claimID, c.Status)
		}
		now := time.Now().UTC()
		c.Status = ClaimSubmitted
		c.SubmittedAt = &now
		return s.repo.UpdateClaim(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	s.audit.Write(ctx, audit.Event{
		Actor: actor.ID, Action: "claim.submit", Entity: "claim", EntityID: claimID.String(),
	})
	return c, nil
}

// ClaimDecision is the insurer's verdict on a submitted claim.
type ClaimDecision struct {
	Outcome         string   `json:"outcome"`
	ApprovedAmount  *float64 `json:"approved_amount,omitempty"`
	RejectionReason string   `json:"rejection_reason,omitempty"`
}

// ProcessClaim records the insurer's decision. Approvals carry an approved
// amount no larger than the claim; rejections carry a reason.
func (s *Service) ProcessClaim(ctx context.Context, actor auth.Actor, claimID uuid.UUID, d ClaimDecision) (*InsuranceClaim, error) {
	switch d.Outcome {
	case ClaimApproved, ClaimPartiallyApproved:
		if d.ApprovedAmount == nil {
			return nil, errs.Validationf("approved_amount is required for %s", d.Outcome)
		}
	case ClaimRejected:
		if d.RejectionReason == "" {
			return nil, errs.Validationf("rejection_reason is required")
		}
	default:
		return nil, errs.Validationf("invalid outcome %q", d.Outcome)
	}

	var c *InsuranceClaim
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		c, err = s.repo.GetClaimForUpdate(ctx, claimID)
		if err != nil {
			return err
		}
		if c == nil {
			return errs.NotFoundf("claim %s not found", claimID)
		}
		if c.Status != ClaimSubmitted && c.Status != ClaimUnderReview {
			return errs.Statef("claim %s is %s, only submitted claims can be processed", claimID, c.Status)
		}
		if d.ApprovedAmount != nil {
			if *d.ApprovedAmount <= 0 {
				return errs.Validationf("approved amount must be positive")
			}
			if *d.ApprovedAmount > c.ClaimAmount {
				return errs.Validationf("approved amount %.2f exceeds claim amount %.2f",
					*d.ApprovedAmount, c.ClaimAmount)
			}
		}

		now := time.Now().UTC()
		c.Status = d.Outcome
		c.ApprovedAmount = d.ApprovedAmount
		c.RejectionReason = d.RejectionReason
		c.ProcessedAt = &now
		return s.repo.UpdateClaim(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	s.audit.Write(ctx, audit.Event{
		Actor: actor.ID, Action: "claim.process", Entity: "claim", EntityID: claimID.String(),
		Details: map[string]interface{}{"outcome": d.Outcome},
	})
	return c, nil
}

// MarkClaimPaid records the insurer payout landing.
func (s *Service) MarkClaimPaid(ctx context.Context, actor auth.Actor, claimID uuid.UUID) (*InsuranceClaim, error) {
	var c *InsuranceClaim
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		c, err = s.repo.GetClaimForUpdate(ctx, claimID)
		if err != nil {
			return err
		}
		if c == nil {
			return errs.NotFoundf("claim %s not found", claimID)
		}
		if c.Status != ClaimApproved && c.Status != ClaimPartiallyApproved {
			return errs.Statef("claim %s is %s, only approved claims can be marked paid", claimID, c.Status)
		}
		c.Status = ClaimPaid
		return s.repo.UpdateClaim(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	s.audit.Write(ctx, audit.Event{
		Actor: actor.ID, Action: "claim.paid", Entity: "claim", EntityID: claimID.String(),
	})
	return c, nil
}
