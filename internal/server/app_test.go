package server

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/peerlink/internal/server/blob"
	"github.com/dmitrijs2005/peerlink/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func localConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.HTTPAddr = "127.0.0.1:0"
	c.GRPCHealthAddr = "127.0.0.1:0"
	c.DatabaseDriver = config.DriverSqlite
	c.DatabaseDSN = ":memory:"
	c.BlobBackend = config.BlobBackendMemory
	return c
}

func TestNewApp_RejectsInvalidConfig(t *testing.T) {
	c := localConfig()
	c.SecretKey = ""

	_, err := NewApp(context.Background(), c, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestNewApp_BadDSN(t *testing.T) {
	c := localConfig()
	c.DatabaseDriver = config.DriverPgx
	c.DatabaseDSN = "postgres://nobody@127.0.0.1:1/none?sslmode=disable&connect_timeout=1"

	_, err := NewApp(context.Background(), c, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db init error")
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	var logs bytes.Buffer
	app, err := NewApp(context.Background(), localConfig(), &logs)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(150 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop after cancel")
	}
}

func TestNewBlobStore(t *testing.T) {
	c := localConfig()
	s, err := newBlobStore(context.Background(), c)
	require.NoError(t, err)
	assert.IsType(t, &blob.MemoryStore{}, s)

	c.BlobBackend = "ftp"
	_, err = newBlobStore(context.Background(), c)
	assert.Error(t, err)
}
