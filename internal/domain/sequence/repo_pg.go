package sequence

import (
	"context"
	"errors"

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

// Next increments the counter in one statement. The upsert takes a row lock
// for its duration, so concurrent callers serialize on the specific
// (scope, period) row and each sees a distinct value.
func (r *repoPG) Next(ctx context.Context, scope, period string) (int64, error) {
	var value int64
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO sequence_counters (scope, period, last_value)
		VALUES ($1, $2, 1)
		ON CONFLICT (scope, period)
		DO UPDATE SET last_value = sequence_counters.last_value + 1, updated_at = NOW()
		RETURNING last_value`,
		scope, period).Scan(&value)
	if err != nil {
		if db.IsContention(err) {
			return 0, errs.Wrap(errs.KindContention, err, "sequence counter contended")
		}
		return 0, err
	}
	return value, nil
}

func (r *repoPG) Get(ctx context.Context, scope, period string) (*Counter, error) {
	var c Counter
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT scope, period, last_value, updated_at
		FROM sequence_counters WHERE scope = $1 AND period = $2`,
		scope, period).Scan(&c.Scope, &c.Period, &c.LastValue, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
