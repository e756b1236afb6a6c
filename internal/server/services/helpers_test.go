package services

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/peerlink/internal/logging"
	"github.com/dmitrijs2005/peerlink/internal/server/config"
	"github.com/dmitrijs2005/peerlink/internal/server/events"
	"github.com/dmitrijs2005/peerlink/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/require"
)

// newTestDB opens a migrated in-memory SQLite database.
func newTestDB(t *testing.T) (*sql.DB, repomanager.RepositoryManager) {
	t.Helper()
	ctx := context.Background()

	db, err := repomanager.Open(ctx, config.DriverSqlite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rm, err := repomanager.New(config.DriverSqlite)
	require.NoError(t, err)
	require.NoError(t, rm.RunMigrations(ctx, db))
	return db, rm
}

// pgxManager is the PostgreSQL manager, for tests running on sqlmock.
func pgxManager(t *testing.T) repomanager.RepositoryManager {
	t.Helper()
	rm, err := repomanager.New(config.DriverPgx)
	require.NoError(t, err)
	return rm
}

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:                   "jwt-secret",
		KeySecret:                   "key-secret",
		AccessTokenValidityDuration: time.Hour,
		FilePassphrase:              "passphrase",
		FileSalt:                    "salt",
	}
}

// recordingPublisher keeps published events in memory.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) kinds() []events.Kind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Kind, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Kind)
	}
	return out
}

// sequenceKeys returns keys in order, then fails.
func sequenceKeys(keys ...string) func() (string, error) {
	i := 0
	return func() (string, error) {
		if i >= len(keys) {
			return "", errors.New("no more keys")
		}
		k := keys[i]
		i++
		return k, nil
	}
}

var nopLogger logging.Logger = logging.Nop{}
