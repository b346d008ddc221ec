package visit

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/his/his/internal/platform/db"
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

const visitCols = `id, number, patient_id, type, status, department, attending_doctor,
	chief_complaint, admitted_at, discharged_at, discharge_summary, referral_reason,
	created_at, updated_at`

func scanVisit(row pgx.Row) (*Visit, error) {
	var v Visit
	err := row.Scan(&v.ID, &v.Number, &v.PatientID, &v.Type, &v.Status, &v.Department,
		&v.AttendingDoctor, &v.ChiefComplaint, &v.AdmittedAt, &v.DischargedAt,
		&v.DischargeSummary, &v.ReferralReason, &v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *repoPG) Create(ctx context.Context, v *Visit) error {
	v.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO visits (id, number, patient_id, type, status, department,
			attending_doctor, chief_complaint, admitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`,
		v.ID, v.Number, v.PatientID, v.Type, v.Status, v.Department,
		v.AttendingDoctor, v.ChiefComplaint, v.AdmittedAt).Scan(&v.CreatedAt, &v.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Visit, error) {
	return scanVisit(r.conn(ctx).QueryRow(ctx,
		`SELECT `+visitCols+` FROM visits WHERE id = $1`, id))
}

func (r *repoPG) GetForUpdate(ctx context.Context, id uuid.UUID) (*Visit, error) {
	return scanVisit(r.conn(ctx).QueryRow(ctx,
		`SELECT `+visitCols+` FROM visits WHERE id = $1 FOR UPDATE`, id))
}

func (r *repoPG) Update(ctx context.Context, v *Visit) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE visits SET
			status=$2, department=$3, attending_doctor=$4, chief_complaint=$5,
			discharged_at=$6, discharge_summary=$7, referral_reason=$8, updated_at=NOW()
		WHERE id = $1`,
		v.ID, v.Status, v.Department, v.AttendingDoctor, v.ChiefComplaint,
		v.DischargedAt, v.DischargeSummary, v.ReferralReason)
	return err
}

func (r *repoPG) list(ctx context.Context, where string, countArgs []interface{}, limit, offset int) ([]*Visit, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM visits `+where, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args := append(countArgs, limit, offset)
	n := len(countArgs)
	rows, err := r.conn(ctx).Query(ctx,
		fmt.Sprintf(`SELECT %s FROM visits %s ORDER BY admitted_at DESC LIMIT $%d OFFSET $%d`,
			visitCols, where, n+1, n+2), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []*Visit
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, v)
	}
	return out, total, rows.Err()
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Visit, int, error) {
	return r.list(ctx, `WHERE patient_id = $1`, []interface{}{patientID}, limit, offset)
}

func (r *repoPG) ListActive(ctx context.Context, limit, offset int) ([]*Visit, int, error) {
	return r.list(ctx, `WHERE status = $1`, []interface{}{StatusActive}, limit, offset)
}
