// Package httpapi exposes the peerlink services as a JSON API over net/http.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/peerlink/internal/logging"
	"github.com/dmitrijs2005/peerlink/internal/server/config"
	"github.com/dmitrijs2005/peerlink/internal/server/models"
	"github.com/dmitrijs2005/peerlink/internal/server/services"
)

const shutdownTimeout = 5 * time.Second

// UserService is the account surface used by the handlers.
type UserService interface {
	Register(ctx context.Context, email, password string) error
	Login(ctx context.Context, email, password string) (string, error)
	VerifyPassword(ctx context.Context, email, password string) error
	ChangePassword(ctx context.Context, email, newPassword string) error
}

// ConnectionService is the connection surface used by the handlers.
type ConnectionService interface {
	GenerateKey(ctx context.Context, email, displayName string) (string, error)
	SendRequest(ctx context.Context, requester, targetKey string) (string, error)
	AcceptRequest(ctx context.Context, accepter, requester string) (string, error)
	RejectRequest(ctx context.Context, accepter, requester string) error
	Disconnect(ctx context.Context, email string) (*services.DisconnectResult, error)
	GetStatus(ctx context.Context, email string) (*services.Status, error)
}

// FileService is the file sharing surface used by the handlers.
type FileService interface {
	Share(ctx context.Context, sender, receiver, name string, data []byte) (string, error)
	ListShared(ctx context.Context, receiver string) ([]*models.SharedFile, error)
	Get(ctx context.Context, requester, id string) (*services.FileContent, error)
	Delete(ctx context.Context, requester, id string) error
	PresignedURL(ctx context.Context, requester, id string) (string, error)
}

type Server struct {
	address   string
	logger    logging.Logger
	users     UserService
	conns     ConnectionService
	files     FileService
	jwtSecret []byte
	origins   []string
	limiter   *requestLimiter
}

func NewServer(cfg *config.Config, l logging.Logger, us UserService, cs ConnectionService, fs FileService) *Server {
	return &Server{
		address:   cfg.HTTPAddr,
		logger:    l.With("module", "http_server"),
		users:     us,
		conns:     cs,
		files:     fs,
		jwtSecret: []byte(cfg.SecretKey),
		origins:   cfg.AllowedOrigins,
		limiter:   newRequestLimiter(cfg.KeyLookupRate, cfg.KeyLookupBurst),
	}
}

// Handler returns the routed API wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.handleHealth)

	mux.HandleFunc("POST /api/register", s.handleRegister)
	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.Handle("POST /api/verify_password", s.requireAuth(s.handleVerifyPassword))
	mux.Handle("POST /api/change_password", s.requireAuth(s.handleChangePassword))

	mux.Handle("POST /api/generate_key", s.requireAuth(s.handleGenerateKey))
	mux.Handle("POST /api/send-request", s.requireAuth(s.rateLimited(s.handleSendRequest)))
	mux.Handle("POST /api/accept-request", s.requireAuth(s.handleAcceptRequest))
	mux.Handle("POST /api/reject-request", s.requireAuth(s.handleRejectRequest))
	mux.Handle("POST /api/disconnect", s.requireAuth(s.handleDisconnect))
	mux.Handle("GET /api/status", s.requireAuth(s.handleStatus))

	mux.Handle("POST /api/files/share", s.requireAuth(s.handleShareFile))
	mux.Handle("GET /api/files/shared", s.requireAuth(s.handleListShared))
	mux.Handle("GET /api/files/{id}", s.requireAuth(s.handleGetFile))
	mux.Handle("GET /api/files/{id}/url", s.requireAuth(s.handleFileURL))
	mux.Handle("DELETE /api/files/{id}", s.requireAuth(s.handleDeleteFile))

	return s.logRequests(s.cors(mux))
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "http shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
