package dbx

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsUniqueViolation(t *testing.T) {
	pgDup := &pgconn.PgError{Code: "23505", ConstraintName: "users_unique_key_digest_key"}
	pgOther := &pgconn.PgError{Code: "23514"}

	tests := []struct {
		err  error
		name string
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "pg unique", err: pgDup, want: true},
		{name: "pg wrapped", err: fmt.Errorf("db error: %w", pgDup), want: true},
		{name: "pg check", err: pgOther, want: false},
		{name: "sqlite text", err: errors.New("constraint failed: UNIQUE constraint failed: users.email (2067)"), want: true},
		{name: "other", err: errors.New("boom"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUniqueViolation(tt.err))
		})
	}
}

func TestIsUniqueViolation_RealSqlite(t *testing.T) {
	db := setupDB(t)
	_, err := db.ExecContext(context.Background(), `INSERT INTO t(id, v) VALUES (1, 'a')`)
	require.NoError(t, err)

	_, err = db.ExecContext(context.Background(), `INSERT INTO t(id, v) VALUES (1, 'b')`)
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
}
