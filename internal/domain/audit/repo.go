package audit

import "context"

type Repository interface {
	Append(ctx context.Context, e *Event) error
	List(ctx context.Context, params map[string]string, limit, offset int) ([]*Event, int, error)
}
