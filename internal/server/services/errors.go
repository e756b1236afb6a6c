// Package services contains server-side business logic: the connection
// manager, accounts, and file sharing between connected users.
package services

import (
	"errors"

	"github.com/dmitrijs2005/peerlink/internal/common"
	"github.com/dmitrijs2005/peerlink/internal/server/blob"
)

// outcomes are returned to callers as they are; anything else is a store fault.
var outcomes = []error{
	common.ErrorNotFound,
	common.ErrorAlreadyExists,
	common.ErrorInternal,
	common.ErrorUnauthorized,
	common.ErrForbidden,
	common.ErrInvalidInput,
	common.ErrAlreadyConnected,
	common.ErrDuplicateRequest,
	common.ErrNoPendingRequest,
	common.ErrNoActiveConnection,
	common.ErrNotConnectedPeers,
	common.ErrKeySpaceExhausted,
	blob.ErrPresignUnsupported,
}

// classify passes business outcomes through and wraps everything else
// with common.ErrStoreUnavailable.
func classify(err error) error {
	if err == nil {
		return nil
	}
	for _, o := range outcomes {
		if errors.Is(err, o) {
			return err
		}
	}
	return common.StoreError(err)
}
