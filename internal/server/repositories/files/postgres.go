package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/peerlink/internal/common"
	"github.com/dmitrijs2005/peerlink/internal/dbx"
	"github.com/dmitrijs2005/peerlink/internal/server/models"
)

// PostgresRepository implements file metadata storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const fileColumns = `id, sender_email, receiver_email, name, storage_key, size, shared_at, is_read`

type scanner interface {
	Scan(dest ...any) error
}

func scanFile(s scanner) (*models.SharedFile, error) {
	f := &models.SharedFile{}
	err := s.Scan(&f.ID, &f.Sender, &f.Receiver, &f.Name, &f.StorageKey, &f.Size, &f.SharedAt, &f.IsRead)
	return f, err
}

// Create inserts a metadata row. SharedAt must be set by the caller.
func (r *PostgresRepository) Create(ctx context.Context, file *models.SharedFile) error {
	query := `
		INSERT INTO shared_files (id, sender_email, receiver_email, name, storage_key, size, shared_at, is_read)
		VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE)`

	_, err := r.db.ExecContext(ctx, query,
		file.ID, file.Sender, file.Receiver, file.Name, file.StorageKey, file.Size, file.SharedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// ListForReceiver returns the files shared with receiver, newest first.
func (r *PostgresRepository) ListForReceiver(ctx context.Context, receiver string) ([]*models.SharedFile, error) {
	query := `SELECT ` + fileColumns + ` FROM shared_files
		WHERE receiver_email = $1
		ORDER BY shared_at DESC, id`

	rows, err := r.db.QueryContext(ctx, query, receiver)
	if err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	defer rows.Close()

	result := []*models.SharedFile{}
	for rows.Next() {
		item, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan file: %w", err)
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	return result, nil
}

// GetByID returns one file row, common.ErrorNotFound when missing.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.SharedFile, error) {
	query := `SELECT ` + fileColumns + ` FROM shared_files WHERE id = $1`

	f, err := scanFile(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return f, nil
}

// MarkRead flags the file as downloaded by its receiver.
// Exactly one row must be affected.
func (r *PostgresRepository) MarkRead(ctx context.Context, id string) error {
	query := `UPDATE shared_files SET is_read = TRUE WHERE id = $1`
	return r.execOne(ctx, query, id)
}

// Delete removes the metadata row. Exactly one row must be affected.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM shared_files WHERE id = $1`
	return r.execOne(ctx, query, id)
}

func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
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
