package ward

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

func (r *repoPG) CreateWard(ctx context.Context, w *Ward) error {
	w.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO wards (id, name, code, floor)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		w.ID, w.Name, w.Code, w.Floor).Scan(&w.CreatedAt)
}

func (r *repoPG) GetWard(ctx context.Context, id uuid.UUID) (*Ward, error) {
	var w Ward
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, name, code, floor, created_at FROM wards WHERE id = $1`,
		id).Scan(&w.ID, &w.Name, &w.Code, &w.Floor, &w.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *repoPG) ListWards(ctx context.Context) ([]*WardSummary, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT w.id, w.name, w.code, w.floor, w.created_at,
			COUNT(b.id) FILTER (WHERE NOT b.maintenance),
			COUNT(b.id) FILTER (WHERE NOT b.maintenance AND NOT b.occupied)
		FROM wards w
		LEFT JOIN beds b ON b.ward_id = w.id
		GROUP BY w.id
		ORDER BY w.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*WardSummary
	for rows.Next() {
		var s WardSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Code, &s.Floor, &s.CreatedAt,
			&s.TotalBeds, &s.FreeBeds); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

const bedCols = `id, ward_id, number, occupied, maintenance, daily_rate, visit_id, created_at, updated_at`

func scanBed(row pgx.Row) (*Bed, error) {
	var b Bed
	err := row.Scan(&b.ID, &b.WardID, &b.Number, &b.Occupied, &b.Maintenance,
		&b.DailyRate, &b.VisitID, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repoPG) CreateBed(ctx context.Context, b *Bed) error {
	b.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO beds (id, ward_id, number, maintenance, daily_rate)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`,
		b.ID, b.WardID, b.Number, b.Maintenance, b.DailyRate).Scan(&b.CreatedAt, &b.UpdatedAt)
}

func (r *repoPG) GetBed(ctx context.Context, id uuid.UUID) (*Bed, error) {
	return scanBed(r.conn(ctx).QueryRow(ctx,
		`SELECT `+bedCols+` FROM beds WHERE id = $1`, id))
}

// Two bed moves locking opposite rows can deadlock; postgres kills one with
// a deadlock or serialization failure. Surface those as retryable
// contention instead of a plain failure.
func wrapContention(err error, msg string) error {
	if err != nil && db.IsContention(err) {
		return errs.Wrap(errs.KindContention, err, msg)
	}
	return err
}

func (r *repoPG) GetBedForUpdate(ctx context.Context, id uuid.UUID) (*Bed, error) {
	b, err := scanBed(r.conn(ctx).QueryRow(ctx,
		`SELECT `+bedCols+` FROM beds WHERE id = $1 FOR UPDATE`, id))
	return b, wrapContention(err, "bed row contended")
}

func (r *repoPG) GetBedByVisitForUpdate(ctx context.Context, visitID uuid.UUID) (*Bed, error) {
	b, err := scanBed(r.conn(ctx).QueryRow(ctx,
		`SELECT `+bedCols+` FROM beds WHERE visit_id = $1 FOR UPDATE`, visitID))
	return b, wrapContention(err, "bed row contended")
}

func (r *repoPG) ListBedsByWard(ctx context.Context, wardID uuid.UUID, availableOnly bool) ([]*Bed, error) {
	query := `SELECT ` + bedCols + ` FROM beds WHERE ward_id = $1`
	if availableOnly {
		query += ` AND NOT occupied AND NOT maintenance`
	}
	query += ` ORDER BY number`
	rows, err := r.conn(ctx).Query(ctx, query, wardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Bed
	for rows.Next() {
		b, err := scanBed(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *repoPG) SetBedOccupancy(ctx context.Context, bedID uuid.UUID, occupied bool, visitID *uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE beds SET occupied = $2, visit_id = $3, updated_at = NOW()
		WHERE id = $1`,
		bedID, occupied, visitID)
	return wrapContention(err, "bed row contended")
}

func (r *repoPG) Stats(ctx context.Context) (*OccupancyStats, error) {
	var s OccupancyStats
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FILTER (WHERE NOT maintenance),
			COUNT(*) FILTER (WHERE occupied AND NOT maintenance),
			COUNT(*) FILTER (WHERE maintenance)
		FROM beds`).Scan(&s.TotalBeds, &s.OccupiedBeds, &s.MaintenanceBeds)
	if err != nil {
		return nil, err
	}
	if s.TotalBeds > 0 {
		s.OccupancyRate = float64(s.OccupiedBeds) / float64(s.TotalBeds)
	}
	return &s, nil
}
