package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dmitrijs2005/peerlink/internal/common"
	"github.com/dmitrijs2005/peerlink/internal/dbx"
	"github.com/dmitrijs2005/peerlink/internal/server/models"
)

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
// The SQL sticks to what PostgreSQL and SQLite both accept.
type PostgresRepository struct {
	db       dbx.DBTX
	rowLocks bool
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db, rowLocks: true}
}

// NewSQLiteRepository is the same store for SQLite, which has no row locks:
// its transactions already hold the single database write lock.
func NewSQLiteRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `email, display_name, password_hash, unique_key_digest, connected_to, is_connected`

func scanUser(row *sql.Row) (*models.User, error) {
	var (
		u          models.User
		password   sql.NullString
		digest     sql.NullString
		connection sql.NullString
	)
	err := row.Scan(&u.Email, &u.DisplayName, &password, &digest, &connection, &u.IsConnected)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	u.PasswordHash = password.String
	u.UniqueKeyDigest = digest.String
	u.ConnectedTo = connection.String
	return &u, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Create inserts a registered account. ErrorAlreadyExists when the email is taken.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) error {
	query :=
		`INSERT INTO users (email, display_name, password_hash)
		 VALUES ($1, $2, $3)`

	_, err := r.db.ExecContext(ctx, query, user.Email, user.DisplayName, nullString(user.PasswordHash))
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// ClaimAccount sets the password of a record that has none yet, i.e. one
// created by key generation. ErrorAlreadyExists when the record is already
// registered or does not exist.
func (r *PostgresRepository) ClaimAccount(ctx context.Context, email, passwordHash string) error {
	query :=
		`UPDATE users SET password_hash = $2
		 WHERE email = $1 AND password_hash IS NULL`

	res, err := r.db.ExecContext(ctx, query, email, passwordHash)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if err := dbx.RequireOneRow(res); err != nil {
		if errors.Is(err, common.ErrConflict) {
			return common.ErrorAlreadyExists
		}
		return err
	}
	return nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) GetByUniqueKeyDigest(ctx context.Context, digest string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE unique_key_digest = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, digest))
}

func (r *PostgresRepository) UniqueKeyTaken(ctx context.Context, digest string) (bool, error) {
	query := `SELECT COUNT(*) FROM users WHERE unique_key_digest = $1`

	var n int
	if err := r.db.QueryRowContext(ctx, query, digest).Scan(&n); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

// UpsertKey stores a new key digest for email, creating the record when
// missing. An empty displayName keeps the stored one. A digest already held
// by another user yields common.ErrConflict.
func (r *PostgresRepository) UpsertKey(ctx context.Context, email, digest, displayName string) error {
	query :=
		`INSERT INTO users (email, display_name, unique_key_digest)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (email) DO UPDATE SET
			unique_key_digest = EXCLUDED.unique_key_digest,
			display_name = CASE WHEN EXCLUDED.display_name = '' THEN users.display_name ELSE EXCLUDED.display_name END`

	_, err := r.db.ExecContext(ctx, query, email, displayName, digest)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrConflict
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, email, passwordHash string) error {
	query := `UPDATE users SET password_hash = $2 WHERE email = $1`

	res, err := r.db.ExecContext(ctx, query, email, passwordHash)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if err := dbx.RequireOneRow(res); err != nil {
		if errors.Is(err, common.ErrConflict) {
			return common.ErrorNotFound
		}
		return err
	}
	return nil
}

// AddPendingRequest set-adds requester to target's pending set and reports
// whether it was newly added.
func (r *PostgresRepository) AddPendingRequest(ctx context.Context, target, requester string) (bool, error) {
	query :=
		`INSERT INTO connection_requests (target_email, requester_email)
		 VALUES ($1, $2)
		 ON CONFLICT (target_email, requester_email) DO NOTHING`

	res, err := r.db.ExecContext(ctx, query, target, requester)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return affected(res)
}

// RemovePendingRequest reports whether requester was pending on target.
func (r *PostgresRepository) RemovePendingRequest(ctx context.Context, target, requester string) (bool, error) {
	query := `DELETE FROM connection_requests WHERE target_email = $1 AND requester_email = $2`

	res, err := r.db.ExecContext(ctx, query, target, requester)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return affected(res)
}

// ListPendingRequests returns requester emails, oldest request first.
func (r *PostgresRepository) ListPendingRequests(ctx context.Context, target string) ([]string, error) {
	query :=
		`SELECT requester_email FROM connection_requests
		 WHERE target_email = $1
		 ORDER BY created_at, requester_email`

	rows, err := r.db.QueryContext(ctx, query, target)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []string{}
	for rows.Next() {
		var requester string
		if err := rows.Scan(&requester); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, requester)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// Link connects email to peer only while email is unconnected.
// common.ErrConflict when the guard does not hold.
func (r *PostgresRepository) Link(ctx context.Context, email, peer string) error {
	query :=
		`UPDATE users SET connected_to = $2, is_connected = TRUE
		 WHERE email = $1 AND is_connected = FALSE`

	res, err := r.db.ExecContext(ctx, query, email, peer)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.RequireOneRow(res)
}

// Unlink clears the connection of email only while it still points at peer.
// common.ErrConflict when the guard does not hold.
func (r *PostgresRepository) Unlink(ctx context.Context, email, peer string) error {
	query :=
		`UPDATE users SET connected_to = NULL, is_connected = FALSE
		 WHERE email = $1 AND connected_to = $2`

	res, err := r.db.ExecContext(ctx, query, email, peer)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.RequireOneRow(res)
}

// ForceUnlink clears the connection of email whatever it points at.
// ErrorNotFound when there is no such record.
func (r *PostgresRepository) ForceUnlink(ctx context.Context, email string) error {
	query := `UPDATE users SET connected_to = NULL, is_connected = FALSE WHERE email = $1`

	res, err := r.db.ExecContext(ctx, query, email)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if err := dbx.RequireOneRow(res); err != nil {
		if errors.Is(err, common.ErrConflict) {
			return common.ErrorNotFound
		}
		return err
	}
	return nil
}

// LockUsers takes row locks on the existing records of emails, in email
// order, until the surrounding transaction ends. Two transactions locking
// the same pair therefore never wait on each other in a cycle.
func (r *PostgresRepository) LockUsers(ctx context.Context, emails ...string) error {
	if !r.rowLocks || len(emails) == 0 {
		return nil
	}
	sorted := slices.Clone(emails)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	args := make([]any, len(sorted))
	marks := make([]string, len(sorted))
	for i, e := range sorted {
		args[i] = e
		marks[i] = fmt.Sprintf("$%d", i+1)
	}
	query := `SELECT email FROM users WHERE email IN (` + strings.Join(marks, ", ") + `) ORDER BY email FOR UPDATE`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	return n > 0, nil
}
