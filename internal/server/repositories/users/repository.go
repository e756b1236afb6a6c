// Package users persists user records and their pending connection requests.
package users

import (
	"context"

	"github.com/dmitrijs2005/peerlink/internal/server/models"
)

// Repository is the user record store. Every method is a single statement,
// so it is atomic on its own; multi-record work is made atomic by binding
// the repository to a transaction.
type Repository interface {
	Create(ctx context.Context, user *models.User) error
	ClaimAccount(ctx context.Context, email, passwordHash string) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUniqueKeyDigest(ctx context.Context, digest string) (*models.User, error)
	UniqueKeyTaken(ctx context.Context, digest string) (bool, error)
	UpsertKey(ctx context.Context, email, digest, displayName string) error
	UpdatePassword(ctx context.Context, email, passwordHash string) error

	AddPendingRequest(ctx context.Context, target, requester string) (bool, error)
	RemovePendingRequest(ctx context.Context, target, requester string) (bool, error)
	ListPendingRequests(ctx context.Context, target string) ([]string, error)

	LockUsers(ctx context.Context, emails ...string) error
	Link(ctx context.Context, email, peer string) error
	Unlink(ctx context.Context, email, peer string) error
	ForceUnlink(ctx context.Context, email string) error
}
