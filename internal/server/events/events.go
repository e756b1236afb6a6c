// Package events publishes connection state changes after they are committed.
package events

import (
	"context"
	"time"
)

// Kind names a committed connection state change.
type Kind string

const (
	KindRequestSent  Kind = "request_sent"
	KindAccepted     Kind = "accepted"
	KindRejected     Kind = "rejected"
	KindDisconnected Kind = "disconnected"
	KindKeyRotated   Kind = "key_rotated"
)

// SubjectPrefix is prepended to the kind to form the NATS subject.
const SubjectPrefix = "peerlink.connections."

// Event is the JSON payload of a published change.
type Event struct {
	Kind    Kind      `json:"kind"`
	Actor   string    `json:"actor"`
	Peer    string    `json:"peer,omitempty"`
	Partial bool      `json:"partial,omitempty"`
	At      time.Time `json:"at"`
}

// Subject returns the subject the event is published on.
func (e Event) Subject() string {
	return SubjectPrefix + string(e.Kind)
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }
