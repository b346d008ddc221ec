package billing

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/his/his/internal/platform/db"
	"github.com/his/his/internal/platform/errs"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const invoiceCols = `id, number, visit_id, status, subtotal, tax, discount, total,
	paid_amount, created_at, updated_at`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.Number, &inv.VisitID, &inv.Status, &inv.Subtotal,
		&inv.Tax, &inv.Discount, &inv.Total, &inv.PaidAmount, &inv.CreatedAt, &inv.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *repoPG) CreateInvoice(ctx context.Context, inv *Invoice) error {
	inv.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO invoices (id, number, visit_id, status, subtotal, tax, discount, total, paid_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0)
		RETURNING created_at, updated_at`,
		inv.ID, inv.Number, inv.VisitID, inv.Status, inv.Subtotal, inv.Tax,
		inv.Discount, inv.Total).Scan(&inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return err
	}
	for _, item := range inv.Items {
		item.ID = uuid.New()
		item.InvoiceID = inv.ID
		if _, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO invoice_items (id, invoice_id, description, quantity, unit_price, total_price)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			item.ID, item.InvoiceID, item.Description, item.Quantity,
			item.UnitPrice, item.TotalPrice); err != nil {
			return err
		}
	}
	return nil
}

func (r *repoPG) GetInvoice(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	inv, err := scanInvoice(r.conn(ctx).QueryRow(ctx,
		`SELECT `+invoiceCols+` FROM invoices WHERE id = $1`, id))
	if err != nil || inv == nil {
		return inv, err
	}

	itemRows, err := r.conn(ctx).Query(ctx, `
		SELECT id, invoice_id, description, quantity, unit_price, total_price
		FROM invoice_items WHERE invoice_id = $1`, id)
	if err != nil {
		return nil, err
	}
	defer itemRows.Close()
	for itemRows.Next() {
		var it InvoiceItem
		if err := itemRows.Scan(&it.ID, &it.InvoiceID, &it.Description,
			&it.Quantity, &it.UnitPrice, &it.TotalPrice); err != nil {
			return nil, err
		}
		inv.Items = append(inv.Items, &it)
	}
	if err := itemRows.Err(); err != nil {
		return nil, err
	}

	payRows, err := r.conn(ctx).Query(ctx, `
		SELECT id, number, invoice_id, amount, method, reference, created_at
		FROM payments WHERE invoice_id = $1 ORDER BY created_at`, id)
	if err != nil {
		return nil, err
	}
	defer payRows.Close()
	for payRows.Next() {
		var p Payment
		if err := payRows.Scan(&p.ID, &p.Number, &p.InvoiceID, &p.Amount,
			&p.Method, &p.Reference, &p.CreatedAt); err != nil {
			return nil, err
		}
		inv.Payments = append(inv.Payments, &p)
	}
	return inv, payRows.Err()
}

// Deadlock and serialization failures on the locked rows come back as
// retryable contention, same as the sequence counter.
func wrapContention(err error, msg string) error {
	if err != nil && db.IsContention(err) {
		return errs.Wrap(errs.KindContention, err, msg)
	}
	return err
}

func (r *repoPG) GetInvoiceForUpdate(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	inv, err := scanInvoice(r.conn(ctx).QueryRow(ctx,
		`SELECT `+invoiceCols+` FROM invoices WHERE id = $1 FOR UPDATE`, id))
	return inv, wrapContention(err, "invoice row contended")
}

func (r *repoPG) SettleInvoice(ctx context.Context, id uuid.UUID, paidAmount float64, status string) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE invoices SET paid_amount = $2, status = $3, updated_at = NOW()
		WHERE id = $1`,
		id, paidAmount, status)
	return wrapContention(err, "invoice row contended")
}

func (r *repoPG) ListInvoicesByVisit(ctx context.Context, visitID uuid.UUID) ([]*Invoice, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+invoiceCols+` FROM invoices WHERE visit_id = $1 ORDER BY created_at`, visitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (r *repoPG) CreatePayment(ctx context.Context, p *Payment) error {
	p.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO payments (id, number, invoice_id, amount, method, reference)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`,
		p.ID, p.Number, p.InvoiceID, p.Amount, p.Method, p.Reference).Scan(&p.CreatedAt)
}

const claimCols = `id, invoice_id, policy_number, provider, claim_amount, approved_amount,
	status, rejection_reason, submitted_at, processed_at, created_at, updated_at`

func scanClaim(row pgx.Row) (*InsuranceClaim, error) {
	var c InsuranceClaim
	err := row.Scan(&c.ID, &c.InvoiceID, &c.PolicyNumber, &c.Provider, &c.ClaimAmount,
		&c.ApprovedAmount, &c.Status, &c.RejectionReason, &c.SubmittedAt,
		&c.ProcessedAt, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repoPG) CreateClaim(ctx context.Context, c *InsuranceClaim) error {
	c.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO insurance_claims (id, invoice_id, policy_number, provider, claim_amount, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		c.ID, c.InvoiceID, c.PolicyNumber, c.Provider, c.ClaimAmount, c.Status).
		Scan(&c.CreatedAt, &c.UpdatedAt)
}

func (r *repoPG) GetClaim(ctx context.Context, id uuid.UUID) (*InsuranceClaim, error) {
	return scanClaim(r.conn(ctx).QueryRow(ctx,
		`SELECT `+claimCols+` FROM insurance_claims WHERE id = $1`, id))
}

func (r *repoPG) GetClaimForUpdate(ctx context.Context, id uuid.UUID) (*InsuranceClaim, error) {
	c, err := scanClaim(r.conn(ctx).QueryRow(ctx,
		`SELECT `+claimCols+` FROM insurance_claims WHERE id = $1 FOR UPDATE`, id))
	return c, wrapContention(err, "claim row contended")
}

func (r *repoPG) UpdateClaim(ctx context.Context, c *InsuranceClaim) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE insurance_claims SET
			status=$2, approved_amount=$3, rejection_reason=$4,
			submitted_at=$5, processed_at=$6, updated_at=NOW()
		WHERE id = $1`,
		c.ID, c.Status, c.ApprovedAmount, c.RejectionReason, c.SubmittedAt, c.ProcessedAt)
	return wrapContention(err, "claim row contended")
}
