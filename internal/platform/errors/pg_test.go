package errors

import (
	stderrs "errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestSQLStateCode(t *testing.T) {
	tests := []struct {
		state string
		want  ErrorCode
	}{
		{"23505", ErrorCodeDuplicateKey},
		{"23503", ErrorCodeInvalidArgument},
		{"23514", ErrorCodeValidation},
		{"22P02", ErrorCodeInvalidArgument},
		{"57P03", ErrorCodeUnavailable},
		{"40001", ErrorCodeDB},
	}
	for _, tt := range tests {
		t.Run(tt.state, func(t *testing.T) {
			wrapped := fmt.Errorf("insert detection: %w", &pgconn.PgError{Code: tt.state})
			got, ok := SQLStateCode(wrapped)
			if !ok || got != tt.want {
				t.Fatalf("SQLStateCode(%s) = %v, %v", tt.state, got, ok)
			}
		})
	}
	if _, ok := SQLStateCode(stderrs.New("conn reset")); ok {
		t.Fatal("plain error classified as PgError")
	}
}

func TestFromPostgresf(t *testing.T) {
	if FromPostgresf(nil, "x") != nil {
		t.Fatal("nil err should stay nil")
	}

	dup := FromPostgresf(&pgconn.PgError{Code: "23505", ConstraintName: "detection_configs_name_key"}, "create detection %q", "cpu")
	if !IsCode(dup, ErrorCodeDuplicateKey) {
		t.Fatalf("code = %v", CodeOf(dup))
	}
	if pgErr, ok := PgError(dup); !ok || pgErr.ConstraintName != "detection_configs_name_key" {
		t.Fatal("PgError lost in wrap")
	}

	other := FromPostgresf(stderrs.New("broken pipe"), "list detections")
	if !IsCode(other, ErrorCodeDB) || HTTPStatus(other) != 500 {
		t.Fatalf("code = %v status = %d", CodeOf(other), HTTPStatus(other))
	}
}
