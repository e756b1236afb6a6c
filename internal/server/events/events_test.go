package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/peerlink/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	subjects []string
	payloads [][]byte
	err      error
	drained  bool
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.subjects = append(f.subjects, subject)
	f.payloads = append(f.payloads, data)
	return nil
}

func (f *fakeConn) Drain() error {
	f.drained = true
	return nil
}

func TestEvent_Subject(t *testing.T) {
	assert.Equal(t, "peerlink.connections.accepted", Event{Kind: KindAccepted}.Subject())
	assert.Equal(t, "peerlink.connections.key_rotated", Event{Kind: KindKeyRotated}.Subject())
}

func TestNATSPublisher_Publish(t *testing.T) {
	fc := &fakeConn{}
	p := &NATSPublisher{conn: fc}

	at := time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC)
	err := p.Publish(context.Background(), Event{Kind: KindDisconnected, Actor: "alice@example.com", Peer: "bob@example.com", Partial: true, At: at})
	require.NoError(t, err)

	require.Equal(t, []string{"peerlink.connections.disconnected"}, fc.subjects)
	var got map[string]any
	require.NoError(t, json.Unmarshal(fc.payloads[0], &got))
	assert.Equal(t, "disconnected", got["kind"])
	assert.Equal(t, "alice@example.com", got["actor"])
	assert.Equal(t, "bob@example.com", got["peer"])
	assert.Equal(t, true, got["partial"])
	assert.Equal(t, "2026-10-14T08:00:00Z", got["at"])

	require.NoError(t, p.Close())
	assert.True(t, fc.drained)
}

func TestNATSPublisher_FillsTimestampAndOmitsEmpty(t *testing.T) {
	fc := &fakeConn{}
	p := &NATSPublisher{conn: fc}

	require.NoError(t, p.Publish(context.Background(), Event{Kind: KindKeyRotated, Actor: "alice@example.com"}))

	var got map[string]any
	require.NoError(t, json.Unmarshal(fc.payloads[0], &got))
	assert.NotContains(t, got, "peer")
	assert.NotContains(t, got, "partial")
	assert.NotEqual(t, "0001-01-01T00:00:00Z", got["at"])
}

func TestNATSPublisher_Errors(t *testing.T) {
	p := &NATSPublisher{conn: &fakeConn{err: errors.New("nats down")}}
	err := p.Publish(context.Background(), Event{Kind: KindAccepted})
	require.ErrorContains(t, err, "publish peerlink.connections.accepted: nats down")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, p.Publish(ctx, Event{Kind: KindAccepted}), context.Canceled)
}

func TestNewNATSPublisher_ConnectError(t *testing.T) {
	_, err := NewNATSPublisher("nats://127.0.0.1:1", logging.Nop{})
	require.ErrorContains(t, err, "failed to connect to NATS")
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	require.NoError(t, p.Publish(context.Background(), Event{Kind: KindAccepted}))
	require.NoError(t, p.Close())
}
