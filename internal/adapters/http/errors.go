package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ogurasousui/personnel-core/internal/core/fault"
)

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func statusFor(kind fault.Kind) int {
	switch kind {
	case fault.Unauthenticated:
		return http.StatusUnauthorized
	case fault.Forbidden:
		return http.StatusForbidden
	case fault.NotFound:
		return http.StatusNotFound
	case fault.BadRequest:
		return http.StatusBadRequest
	case fault.Conflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError は種別に応じたステータスで JSON エラーを返します。Internal の詳細はログのみに残します。
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.DeadlineExceeded) {
		s.logger.WarnContext(r.Context(), "request timed out", slog.Any("error", err))
		writeJSON(w, http.StatusGatewayTimeout, errorBody{Error: "timeout", Message: "request timed out"})
		return
	}

	kind := fault.KindOf(err)
	if kind == fault.Internal {
		s.logger.ErrorContext(r.Context(), "request failed", slog.Any("error", err))
	}
	writeJSON(w, statusFor(kind), errorBody{Error: kind.String(), Message: fault.PublicMessage(err)})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}
