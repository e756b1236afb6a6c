// Package common defines shared constants and sentinel errors used across
// the peerlink server layers. Callers should use errors.Is to match these
// values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal       = errors.New("internal error")
	ErrorUnauthorized   = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrStoreUnavailable = errors.New("store unavailable")

	// Validation errors.
	ErrInvalidInput = errors.New("invalid input")

	// Connection state errors.
	ErrAlreadyConnected     = errors.New("already connected")
	ErrPeerAlreadyConnected = fmt.Errorf("peer %w", ErrAlreadyConnected)
	ErrSelfRequest          = fmt.Errorf("%w: cannot connect to yourself", ErrInvalidInput)
	ErrDuplicateRequest     = errors.New("duplicate request")
	ErrNoPendingRequest     = errors.New("no pending request from this user")
	ErrNoActiveConnection   = errors.New("no active connection")
	ErrNotConnectedPeers    = errors.New("users are not connected")
	ErrKeySpaceExhausted    = errors.New("could not allocate a free unique key")

	// Conditional update matched no row.
	ErrConflict = errors.New("conflicting concurrent update")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// StoreError marks err as an unexpected store failure while keeping the
// original cause reachable through errors.Is / errors.As.
func StoreError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}
