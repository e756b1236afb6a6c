// Package files persists metadata of files shared between connected users.
package files

import (
	"context"

	"github.com/dmitrijs2005/peerlink/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, file *models.SharedFile) error
	ListForReceiver(ctx context.Context, receiver string) ([]*models.SharedFile, error)
	GetByID(ctx context.Context, id string) (*models.SharedFile, error)
	MarkRead(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}
