package ward

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/his/his/internal/platform/errs"
)

func TestWrapContention(t *testing.T) {
	for _, code := range []string{"40001", "40P01", "55P03"} {
		err := wrapContention(&pgconn.PgError{Code: code}, "bed row contended")
		if !errs.IsContention(err) {
			t.Errorf("code %s: expected contention, got %v", code, err)
		}
	}

	plain := errors.New("connection reset")
	if got := wrapContention(plain, "bed row contended"); got != plain {
		t.Errorf("expected non-contention error passed through, got %v", got)
	}
	if got := wrapContention(nil, "bed row contended"); got != nil {
		t.Errorf("expected nil passed through, got %v", got)
	}
}
