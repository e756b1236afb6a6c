package httpapi

import (
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/dmitrijs2005/peerlink/internal/common"
	"github.com/dmitrijs2005/peerlink/internal/server/auth"
)

// authedHandler receives the authenticated email.
type authedHandler func(w http.ResponseWriter, r *http.Request, user string)

// requireAuth checks the bearer access token.
func (s *Server) requireAuth(next authedHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(common.AuthorizationHeaderName)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "missing token")
			return
		}

		userID, err := auth.GetUserIDFromToken(token, s.jwtSecret)
		if err != nil {
			s.fail(w, r, err)
			return
		}

		next(w, r, userID)
	})
}

// rateLimited caps connection requests per authenticated user.
func (s *Server) rateLimited(next authedHandler) authedHandler {
	return func(w http.ResponseWriter, r *http.Request, user string) {
		if !s.limiter.allow(user) {
			s.logger.Warn(r.Context(), "connection request rate exceeded", "user", user)
			writeError(w, http.StatusTooManyRequests, "too many connection requests")
			return
		}
		next(w, r, user)
	}
}

// cors answers preflights and sets the allow headers for listed origins.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.originAllowed(origin) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
			h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
			h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		}
		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) originAllowed(origin string) bool {
	return slices.Contains(s.origins, "*") || slices.Contains(s.origins, origin)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.size += n
	return n, err
}

// logRequests logs one line per request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.logger.Info(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"bytes", rec.size,
			"ms", time.Since(start).Milliseconds(),
		)
	})
}
