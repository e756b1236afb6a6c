// Package server wires the peerlink server together: configuration,
// logging, the SQL store and migrations, the blob store, connection events,
// the services, and the HTTP and gRPC health listeners.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/peerlink/internal/logging"
	"github.com/dmitrijs2005/peerlink/internal/server/blob"
	"github.com/dmitrijs2005/peerlink/internal/server/config"
	"github.com/dmitrijs2005/peerlink/internal/server/events"
	"github.com/dmitrijs2005/peerlink/internal/server/httpapi"
	"github.com/dmitrijs2005/peerlink/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/peerlink/internal/server/services"

	gs "github.com/dmitrijs2005/peerlink/internal/server/grpc"
)

type App struct {
	config    *config.Config
	logger    logging.Logger
	db        *sql.DB
	publisher events.Publisher
	http      *httpapi.Server
	health    *gs.HealthServer
}

// NewApp validates c, opens and migrates the database and builds every
// component. Logs go to w.
func NewApp(ctx context.Context, c *config.Config, w io.Writer) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := logging.New(c.LogFormat, c.LogLevel, w)

	rm, err := repomanager.New(c.DatabaseDriver)
	if err != nil {
		return nil, err
	}

	db, err := repomanager.Open(ctx, c.DatabaseDriver, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	store, err := newBlobStore(ctx, c)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("blob store init error: %w", err)
	}

	var publisher events.Publisher = events.Nop{}
	if c.NATSURL != "" {
		p, err := events.NewNATSPublisher(c.NATSURL, logger)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("nats init error: %w", err)
		}
		publisher = p
	}

	us := services.NewUserService(db, rm, c, logger)
	cs := services.NewConnectionService(db, rm, c, publisher, logger)
	fs := services.NewFileService(db, rm, store, c, logger)

	return &App{
		config:    c,
		logger:    logger,
		db:        db,
		publisher: publisher,
		http:      httpapi.NewServer(c, logger, us, cs, fs),
		health:    gs.NewHealthServer(c.GRPCHealthAddr, logger, db.PingContext),
	}, nil
}

func newBlobStore(ctx context.Context, c *config.Config) (blob.Store, error) {
	opts := blob.S3Options{
		AccessKey: c.S3RootUser,
		SecretKey: c.S3RootPassword,
		Region:    c.S3Region,
		Endpoint:  c.S3BaseEndpoint,
		Bucket:    c.S3Bucket,
	}
	switch c.BlobBackend {
	case config.BlobBackendS3:
		return blob.NewS3Store(ctx, opts)
	case config.BlobBackendMinio:
		return blob.NewMinioStore(ctx, opts)
	case config.BlobBackendMemory:
		return blob.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown blob backend %q", c.BlobBackend)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves both listeners until ctx is cancelled, a signal arrives or one
// listener fails, then releases the database and event connections.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	run := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil {
				app.logger.Error(ctx, "listener stopped", "listener", name, "error", err)
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				mu.Unlock()
				cancelFunc()
			}
		}()
	}

	run("http", app.http.Run)
	run("grpc_health", app.health.Run)

	wg.Wait()

	if err := app.Close(); err != nil {
		errs = append(errs, err)
	}
	app.logger.Info(ctx, "App stopped")
	return errors.Join(errs...)
}

// Close releases the event publisher and the database.
func (app *App) Close() error {
	return errors.Join(app.publisher.Close(), app.db.Close())
}
