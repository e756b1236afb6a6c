// Package models defines server-side data models persisted in the database.
package models

// User is the per-user record. It carries account data and the connection
// state owned by the connection manager.
type User struct {
	Email       string
	DisplayName string
	// PasswordHash is empty for records created by key generation before
	// the account was registered.
	PasswordHash string
	// UniqueKeyDigest is the keyed digest of the current unique key; the
	// key itself is never stored.
	UniqueKeyDigest string
	ConnectedTo     string
	IsConnected     bool
	// PendingRequests holds requester emails; filled only by callers that
	// load the pending set.
	PendingRequests []string
}

// HasPassword reports whether the record belongs to a registered account.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}
