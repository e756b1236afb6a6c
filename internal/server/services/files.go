package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/peerlink/internal/common"
	"github.com/dmitrijs2005/peerlink/internal/cryptox"
	"github.com/dmitrijs2005/peerlink/internal/logging"
	"github.com/dmitrijs2005/peerlink/internal/server/blob"
	"github.com/dmitrijs2005/peerlink/internal/server/config"
	"github.com/dmitrijs2005/peerlink/internal/server/models"
	"github.com/dmitrijs2005/peerlink/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// presignTTL is the lifetime of presigned download URLs.
const presignTTL = 15 * time.Minute

// FileContent is a decrypted shared file.
type FileContent struct {
	File *models.SharedFile
	Data []byte
}

// FileService shares encrypted files between connected users. Content is
// sealed with AES-256-GCM under one key derived from the configured
// passphrase and salt, and stored in the blob store.
type FileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       blob.Store
	logger      logging.Logger
	key         []byte
	now         func() time.Time
}

func NewFileService(db *sql.DB, m repomanager.RepositoryManager, store blob.Store, cfg *config.Config, logger logging.Logger) *FileService {
	return &FileService{
		db:          db,
		repomanager: m,
		store:       store,
		logger:      logger.With("module", "files"),
		key:         cryptox.DeriveKey([]byte(cfg.FilePassphrase), []byte(cfg.FileSalt)),
		now:         time.Now,
	}
}

// Share encrypts data and stores it for receiver. The sender must be
// connected to the receiver. Returns the new file id.
func (s *FileService) Share(ctx context.Context, sender, receiver, name string, data []byte) (string, error) {
	if sender == "" || receiver == "" || name == "" || len(data) == 0 {
		return "", fmt.Errorf("%w: sender, receiver, name and data are required", common.ErrInvalidInput)
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, sender)
	if err != nil {
		return "", classify(err)
	}
	if !user.IsConnected || user.ConnectedTo != receiver {
		return "", common.ErrNotConnectedPeers
	}

	sealed, err := cryptox.Seal(s.key, data)
	if err != nil {
		return "", fmt.Errorf("%w: seal: %w", common.ErrorInternal, err)
	}

	now := s.now().UTC()
	file := &models.SharedFile{
		ID:         uuid.NewString(),
		Sender:     sender,
		Receiver:   receiver,
		Name:       name,
		StorageKey: blob.NewStorageKey(now),
		Size:       int64(len(data)),
		SharedAt:   now,
	}

	if err := s.store.Put(ctx, file.StorageKey, sealed); err != nil {
		return "", common.StoreError(err)
	}
	if err := s.repomanager.Files(s.db).Create(ctx, file); err != nil {
		if delErr := s.store.Delete(ctx, file.StorageKey); delErr != nil {
			s.logger.Error(ctx, "orphaned blob after failed insert", "key", file.StorageKey, "error", delErr)
		}
		return "", classify(err)
	}

	s.logger.Info(ctx, "file shared", "id", file.ID, "sender", sender, "receiver", receiver, "size", file.Size)
	return file.ID, nil
}

// ListShared returns the files shared with receiver, newest first.
func (s *FileService) ListShared(ctx context.Context, receiver string) ([]*models.SharedFile, error) {
	files, err := s.repomanager.Files(s.db).ListForReceiver(ctx, receiver)
	if err != nil {
		return nil, classify(err)
	}
	return files, nil
}

// Get returns the decrypted file to its sender or receiver. A download by
// the receiver marks the file read. Anyone else gets ErrorNotFound.
func (s *FileService) Get(ctx context.Context, requester, id string) (*FileContent, error) {
	file, err := s.fileFor(ctx, requester, id)
	if err != nil {
		return nil, err
	}

	sealed, err := s.store.Get(ctx, file.StorageKey)
	if err != nil {
		return nil, classify(err)
	}
	data, err := cryptox.Open(s.key, sealed)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", common.ErrorInternal, file.ID, err)
	}

	if requester == file.Receiver && !file.IsRead {
		if err := s.repomanager.Files(s.db).MarkRead(ctx, file.ID); err != nil {
			return nil, classify(err)
		}
		file.IsRead = true
	}

	return &FileContent{File: file, Data: data}, nil
}

// Delete removes a file. Only the sender may delete.
func (s *FileService) Delete(ctx context.Context, requester, id string) error {
	file, err := s.fileFor(ctx, requester, id)
	if err != nil {
		return err
	}
	if requester != file.Sender {
		return common.ErrForbidden
	}

	if err := s.store.Delete(ctx, file.StorageKey); err != nil && !errors.Is(err, common.ErrorNotFound) {
		return common.StoreError(err)
	}
	if err := s.repomanager.Files(s.db).Delete(ctx, file.ID); err != nil {
		return classify(err)
	}

	s.logger.Info(ctx, "file deleted", "id", file.ID, "sender", requester)
	return nil
}

// PresignedURL returns a time-limited URL of the ciphertext.
func (s *FileService) PresignedURL(ctx context.Context, requester, id string) (string, error) {
	file, err := s.fileFor(ctx, requester, id)
	if err != nil {
		return "", err
	}
	url, err := s.store.PresignGet(ctx, file.StorageKey, presignTTL)
	if err != nil {
		return "", classify(err)
	}
	return url, nil
}

func (s *FileService) fileFor(ctx context.Context, requester, id string) (*models.SharedFile, error) {
	if requester == "" || id == "" {
		return nil, fmt.Errorf("%w: requester and id are required", common.ErrInvalidInput)
	}
	file, err := s.repomanager.Files(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, classify(err)
	}
	if requester != file.Sender && requester != file.Receiver {
		return nil, common.ErrorNotFound
	}
	return file, nil
}
