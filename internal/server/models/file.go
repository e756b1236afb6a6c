package models

import "time"

// SharedFile describes a file one connected user sent to another.
// The encrypted content lives in object storage under StorageKey.
type SharedFile struct {
	ID         string
	Sender     string
	Receiver   string
	Name       string
	StorageKey string
	Size       int64
	SharedAt   time.Time
	IsRead     bool
}
