package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestTxFromContext_Nil(t *testing.T) {
	tx := TxFromContext(context.Background())
	if tx != nil {
		t.Error("expected nil tx from empty context")
	}
}

func TestTxFromContext_WithWrongType(t *testing.T) {
	ctx := context.WithValue(context.Background(), txKey, "not a tx")
	tx := TxFromContext(ctx)
	if tx != nil {
		t.Error("expected nil tx for wrong value type")
	}
}

func TestIsContention(t *testing.T) {
	cases := []struct {
		code string
		want bool
	}{
		{"40001", true}, // serialization_failure
		{"40P01", true}, // deadlock_detected
		{"55P03", true}, // lock_not_available
		{"23505", false},
		{"", false},
	}
	for _, c := range cases {
		err := &pgconn.PgError{Code: c.code}
		if got := IsContention(err); got != c.want {
			t.Errorf("IsContention(%q) = %v, want %v", c.code, got, c.want)
		}
	}

	if IsContention(errors.New("plain")) {
		t.Error("plain error should not be contention")
	}
	if IsContention(nil) {
		t.Error("nil should not be contention")
	}
}
