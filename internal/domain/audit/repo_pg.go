package audit

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

// Append deliberately uses the pool, never a caller transaction: an audit row
// must survive even when written alongside a transaction that later aborts,
// and must never be able to abort one.
func (r *repoPG) Append(ctx context.Context, e *Event) error {
	e.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO audit_events (id, actor, action, entity, entity_id, recorded, details)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.Actor, e.Action, e.Entity, e.EntityID, e.Recorded, e.Details)
	return err
}

const eventCols = `id, actor, action, entity, entity_id, recorded, details`

func (r *repoPG) scanRow(row pgx.Row) (*Event, error) {
	var e Event
	err := row.Scan(&e.ID, &e.Actor, &e.Action, &e.Entity, &e.EntityID, &e.Recorded, &e.Details)
	return &e, err
}

func (r *repoPG) List(ctx context.Context, params map[string]string, limit, offset int) ([]*Event, int, error) {
	query := `SELECT ` + eventCols + ` FROM audit_events WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM audit_events WHERE 1=1`
	var args []interface{}
	idx := 1

	if p, ok := params["actor"]; ok {
		query += fmt.Sprintf(` AND actor = $%d`, idx)
		countQuery += fmt.Sprintf(` AND actor = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["entity"]; ok {
		query += fmt.Sprintf(` AND entity = $%d`, idx)
		countQuery += fmt.Sprintf(` AND entity = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["entity_id"]; ok {
		query += fmt.Sprintf(` AND entity_id = $%d`, idx)
		countQuery += fmt.Sprintf(` AND entity_id = $%d`, idx)
		args = append(args, p)
		idx++
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY recorded DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Event
	for rows.Next() {
		e, err := r.scanRow(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, e)
	}
	return items, total, nil
}
