package followup

import (
	"context"
	"errors"

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

const cols = `id, patient_id, visit_id, scheduled_at, reason, status, completed_at, notes, created_at`

func scanFollowUp(row pgx.Row) (*FollowUp, error) {
	var f FollowUp
	err := row.Scan(&f.ID, &f.PatientID, &f.VisitID, &f.ScheduledAt, &f.Reason,
		&f.Status, &f.CompletedAt, &f.Notes, &f.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *repoPG) Create(ctx context.Context, f *FollowUp) error {
	f.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO follow_ups (id, patient_id, visit_id, scheduled_at, reason, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`,
		f.ID, f.PatientID, f.VisitID, f.ScheduledAt, f.Reason, f.Status).Scan(&f.CreatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*FollowUp, error) {
	return scanFollowUp(r.conn(ctx).QueryRow(ctx,
		`SELECT `+cols+` FROM follow_ups WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, f *FollowUp) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE follow_ups SET status=$2, completed_at=$3, notes=$4
		WHERE id = $1`,
		f.ID, f.Status, f.CompletedAt, f.Notes)
	return err
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*FollowUp, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM follow_ups WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+cols+` FROM follow_ups WHERE patient_id = $1
		 ORDER BY scheduled_at LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []*FollowUp
	for rows.Next() {
		f, err := scanFollowUp(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, f)
	}
	return out, total, rows.Err()
}
