package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"github.com/dmitrijs2005/peerlink/internal/common"
	"github.com/dmitrijs2005/peerlink/internal/cryptox"
	"github.com/dmitrijs2005/peerlink/internal/dbx"
	"github.com/dmitrijs2005/peerlink/internal/logging"
	"github.com/dmitrijs2005/peerlink/internal/server/config"
	"github.com/dmitrijs2005/peerlink/internal/server/events"
	"github.com/dmitrijs2005/peerlink/internal/server/repositories/repomanager"
)

// maxKeyAttempts bounds the re-roll loop of GenerateKey.
const maxKeyAttempts = 8

// Status is the read-only connection view of one user.
type Status struct {
	ConnectedTo     string
	PendingRequests []string
	IsConnected     bool
}

// DisconnectResult reports the former peer. Partial is set when only the
// caller's side could be cleared because the peer record was missing or no
// longer pointed back.
type DisconnectResult struct {
	Peer    string
	Partial bool
}

// ConnectionService owns the connection lifecycle between users:
// key issuing, pending requests, accept/reject and disconnect.
//
// Two-record changes (accept, disconnect) run in one transaction that first
// locks both records in email order, and every write is a conditional
// update, so a concurrent change made elsewhere aborts the transaction
// instead of being overwritten.
type ConnectionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	publisher   events.Publisher
	logger      logging.Logger
	keySecret   []byte
	newKey      func() (string, error)
}

// NewConnectionService constructs a ConnectionService. A nil publisher
// disables events.
func NewConnectionService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config,
	publisher events.Publisher, logger logging.Logger) *ConnectionService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &ConnectionService{
		db:          db,
		repomanager: m,
		publisher:   publisher,
		logger:      logger.With("module", "connections"),
		keySecret:   []byte(cfg.KeySecret),
		newKey: func() (string, error) {
			return common.GenerateDigits(common.UniqueKeyLength)
		},
	}
}

// GenerateKey issues a fresh unique key for email and stores its digest,
// creating the record if needed. The previous key stops resolving at once.
// An empty displayName keeps the stored one.
func (s *ConnectionService) GenerateKey(ctx context.Context, email, displayName string) (string, error) {
	if email == "" {
		return "", fmt.Errorf("%w: email is required", common.ErrInvalidInput)
	}

	repo := s.repomanager.Users(s.db)
	for attempt := 0; attempt < maxKeyAttempts; attempt++ {
		key, err := s.newKey()
		if err != nil {
			return "", fmt.Errorf("generate key: %w", err)
		}
		digest := s.digest(key)

		taken, err := repo.UniqueKeyTaken(ctx, digest)
		if err != nil {
			return "", classify(err)
		}
		if taken {
			continue
		}

		err = repo.UpsertKey(ctx, email, digest, displayName)
		if errors.Is(err, common.ErrConflict) {
			// taken between the check and the write
			continue
		}
		if err != nil {
			return "", classify(err)
		}

		s.publish(ctx, events.Event{Kind: events.KindKeyRotated, Actor: email})
		return key, nil
	}

	s.logger.Error(ctx, "unique key space exhausted", "email", email, "attempts", maxKeyAttempts)
	return "", common.ErrKeySpaceExhausted
}

// SendRequest records requester as pending on the user owning targetKey
// and returns that user's email.
func (s *ConnectionService) SendRequest(ctx context.Context, requester, targetKey string) (string, error) {
	if requester == "" || targetKey == "" {
		return "", fmt.Errorf("%w: requester and key are required", common.ErrInvalidInput)
	}
	if !common.IsDigits(targetKey, common.UniqueKeyLength) {
		return "", fmt.Errorf("%w: key must be %d digits", common.ErrInvalidInput, common.UniqueKeyLength)
	}

	repo := s.repomanager.Users(s.db)

	target, err := repo.GetByUniqueKeyDigest(ctx, s.digest(targetKey))
	if err != nil {
		return "", classify(err)
	}
	if target.Email == requester {
		return "", common.ErrSelfRequest
	}
	if target.IsConnected {
		return "", common.ErrAlreadyConnected
	}

	added, err := repo.AddPendingRequest(ctx, target.Email, requester)
	if err != nil {
		return "", classify(err)
	}
	if !added {
		return "", common.ErrDuplicateRequest
	}

	s.publish(ctx, events.Event{Kind: events.KindRequestSent, Actor: requester, Peer: target.Email})
	return target.Email, nil
}

// AcceptRequest links accepter and requester. Other pending requests of the
// accepter are left in place.
func (s *ConnectionService) AcceptRequest(ctx context.Context, accepter, requester string) (string, error) {
	if accepter == "" || requester == "" {
		return "", fmt.Errorf("%w: accepter and requester are required", common.ErrInvalidInput)
	}
	if accepter == requester {
		return "", common.ErrSelfRequest
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		if err := repo.LockUsers(ctx, accepter, requester); err != nil {
			return err
		}

		user, err := repo.GetByEmail(ctx, accepter)
		if err != nil {
			return err
		}
		if user.IsConnected {
			return common.ErrAlreadyConnected
		}

		pending, err := repo.ListPendingRequests(ctx, accepter)
		if err != nil {
			return err
		}
		if !slices.Contains(pending, requester) {
			return common.ErrNoPendingRequest
		}

		// re-read right before the writes
		peer, err := repo.GetByEmail(ctx, requester)
		if err != nil {
			return err
		}
		if peer.IsConnected {
			return common.ErrPeerAlreadyConnected
		}

		removed, err := repo.RemovePendingRequest(ctx, accepter, requester)
		if err != nil {
			return err
		}
		if !removed {
			return common.ErrNoPendingRequest
		}

		if err := repo.Link(ctx, accepter, requester); err != nil {
			if errors.Is(err, common.ErrConflict) {
				return common.ErrAlreadyConnected
			}
			return err
		}
		if err := repo.Link(ctx, requester, accepter); err != nil {
			if errors.Is(err, common.ErrConflict) {
				return common.ErrPeerAlreadyConnected
			}
			return err
		}
		return nil
	})
	if err != nil {
		return "", classify(err)
	}

	s.publish(ctx, events.Event{Kind: events.KindAccepted, Actor: accepter, Peer: requester})
	return requester, nil
}

// RejectRequest drops requester from accepter's pending set.
func (s *ConnectionService) RejectRequest(ctx context.Context, accepter, requester string) error {
	if accepter == "" || requester == "" {
		return fmt.Errorf("%w: accepter and requester are required", common.ErrInvalidInput)
	}

	repo := s.repomanager.Users(s.db)

	if _, err := repo.GetByEmail(ctx, accepter); err != nil {
		return classify(err)
	}

	removed, err := repo.RemovePendingRequest(ctx, accepter, requester)
	if err != nil {
		return classify(err)
	}
	if !removed {
		return common.ErrNoPendingRequest
	}

	s.publish(ctx, events.Event{Kind: events.KindRejected, Actor: accepter, Peer: requester})
	return nil
}

// Disconnect clears the connection on both sides. A missing or asymmetric
// peer is not an error: the caller's side is cleared and the result is
// marked partial.
func (s *ConnectionService) Disconnect(ctx context.Context, email string) (*DisconnectResult, error) {
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", common.ErrInvalidInput)
	}

	result := &DisconnectResult{}
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		user, err := repo.GetByEmail(ctx, email)
		if err != nil {
			return err
		}
		if !user.IsConnected {
			return common.ErrNoActiveConnection
		}
		result.Peer = user.ConnectedTo

		// a crossed disconnect waits here and then fails the Unlink guard
		if err := repo.LockUsers(ctx, email, result.Peer); err != nil {
			return err
		}

		if err := repo.Unlink(ctx, email, result.Peer); err != nil {
			if errors.Is(err, common.ErrConflict) {
				return common.ErrNoActiveConnection
			}
			return err
		}

		peer, err := repo.GetByEmail(ctx, result.Peer)
		switch {
		case errors.Is(err, common.ErrorNotFound):
			result.Partial = true
			return nil
		case err != nil:
			return err
		case peer.ConnectedTo != email:
			result.Partial = true
			return nil
		}

		err = repo.Unlink(ctx, result.Peer, email)
		if errors.Is(err, common.ErrConflict) {
			result.Partial = true
			return nil
		}
		return err
	})
	if err != nil {
		return nil, classify(err)
	}

	if result.Partial {
		s.logger.Warn(ctx, "partial disconnect: peer record missing or not pointing back",
			"email", email, "peer", result.Peer)
	}
	s.publish(ctx, events.Event{Kind: events.KindDisconnected, Actor: email, Peer: result.Peer, Partial: result.Partial})
	return result, nil
}

// ForceDisconnect clears the connection of email alone, whatever it points
// at, and returns the former peer. It repairs records left asymmetric; the
// peer's record is not touched.
func (s *ConnectionService) ForceDisconnect(ctx context.Context, email string) (string, error) {
	if email == "" {
		return "", fmt.Errorf("%w: email is required", common.ErrInvalidInput)
	}

	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		return "", classify(err)
	}
	if err := repo.ForceUnlink(ctx, email); err != nil {
		return "", classify(err)
	}

	s.logger.Warn(ctx, "forced disconnect", "email", email, "peer", user.ConnectedTo)
	s.publish(ctx, events.Event{Kind: events.KindDisconnected, Actor: email, Peer: user.ConnectedTo, Partial: true})
	return user.ConnectedTo, nil
}

// GetStatus returns the connection state and pending requesters of email.
func (s *ConnectionService) GetStatus(ctx context.Context, email string) (*Status, error) {
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", common.ErrInvalidInput)
	}

	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, classify(err)
	}
	pending, err := repo.ListPendingRequests(ctx, email)
	if err != nil {
		return nil, classify(err)
	}

	return &Status{
		IsConnected:     user.IsConnected,
		ConnectedTo:     user.ConnectedTo,
		PendingRequests: pending,
	}, nil
}

func (s *ConnectionService) digest(key string) string {
	return cryptox.KeyDigest(s.keySecret, key)
}

func (s *ConnectionService) publish(ctx context.Context, e events.Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.Warn(ctx, "event publish failed", "kind", string(e.Kind), "error", err)
	}
}
