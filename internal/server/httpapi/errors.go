package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/peerlink/internal/common"
	"github.com/dmitrijs2005/peerlink/internal/server/blob"
)

// statusFor maps service errors to HTTP status codes. Order matters:
// wrapped sentinels are matched by their most specific parent first.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrInvalidInput),
		errors.Is(err, common.ErrNoPendingRequest),
		errors.Is(err, common.ErrNoActiveConnection),
		errors.Is(err, common.ErrNotConnectedPeers):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrAlreadyConnected),
		errors.Is(err, common.ErrDuplicateRequest),
		errors.Is(err, common.ErrorAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, blob.ErrPresignUnsupported):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as a JSON error. Server-side failures are logged and
// answered with a generic message.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	msg := err.Error()
	switch code {
	case http.StatusInternalServerError:
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		msg = "internal error"
	case http.StatusServiceUnavailable:
		s.logger.Error(r.Context(), "store unavailable", "path", r.URL.Path, "error", err)
		msg = common.ErrStoreUnavailable.Error()
	case http.StatusUnauthorized:
		msg = common.ErrorUnauthorized.Error()
		if errors.Is(err, common.ErrTokenExpired) {
			msg = common.ErrTokenExpired.Error()
		}
	}
	writeError(w, code, msg)
}

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads at most limit bytes of JSON into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, limit int64) error {
	body := http.MaxBytesReader(w, r.Body, limit)
	defer body.Close()

	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", common.ErrInvalidInput)
		}
		return fmt.Errorf("%w: malformed json: %w", common.ErrInvalidInput, err)
	}
	return nil
}
