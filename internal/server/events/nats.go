package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/peerlink/internal/logging"
	"github.com/nats-io/nats.go"
)

// conn is the part of *nats.Conn the publisher needs.
type conn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// NATSPublisher publishes events as JSON on core NATS.
type NATSPublisher struct {
	conn conn
}

// NewNATSPublisher connects to url. Reconnects are handled by the client
// and logged through logger.
func NewNATSPublisher(url string, logger logging.Logger) (*NATSPublisher, error) {
	ctx := context.Background()
	opts := []nats.Option{
		nats.Name("peerlink-server"),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn(ctx, "NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info(ctx, "NATS reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info(ctx, "NATS connection closed")
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSPublisher{conn: nc}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, e Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if err := p.conn.Publish(e.Subject(), payload); err != nil {
		return fmt.Errorf("publish %s: %w", e.Subject(), err)
	}
	return nil
}

// Close drains buffered messages and closes the connection.
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}
