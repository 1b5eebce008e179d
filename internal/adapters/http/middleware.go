package http

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/ogurasousui/personnel-core/internal/core/fault"
	"github.com/ogurasousui/personnel-core/internal/core/session"
)

const (
	headerRequestID = "X-Request-Id"
	headerUserID    = "X-User-Id"
)

var errRateLimited = errors.New("rate limit exceeded")

type requestInfoKey struct{}

type principalKey struct{}

// requestInfo はアクセスログ用にミドルウェア間で共有する値です。
type requestInfo struct {
	id        string
	accountID int64
}

func infoFrom(ctx context.Context) *requestInfo {
	info, _ := ctx.Value(requestInfoKey{}).(*requestInfo)
	return info
}

func principalFrom(ctx context.Context) (session.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(session.Principal)
	return p, ok
}

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(headerRequestID))
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(headerRequestID, id)
		ctx := context.WithValue(r.Context(), requestInfoKey{}, &requestInfo{id: id})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := ""
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			route = rctx.RoutePattern()
		}
		elapsed := time.Since(start)
		if s.deps.Metrics != nil {
			s.deps.Metrics.ObserveRequest(r.Method, route, status, elapsed)
		}

		attrs := []any{
			slog.String("method", r.Method),
			slog.String("route", route),
			slog.Int("status", status),
			slog.Duration("duration", elapsed),
		}
		if info := infoFrom(r.Context()); info != nil {
			attrs = append(attrs, slog.String("request_id", info.id))
			if info.accountID != 0 {
				attrs = append(attrs, slog.Int64("account_id", info.accountID))
			}
		}
		s.logger.InfoContext(r.Context(), "http request", attrs...)
	})
}

// authenticate はヘッダーからセッションを解決し、Principal をコンテキストに格納します。
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := s.sessionToken(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		p, err := s.deps.Sessions.Resolve(r.Context(), token)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		if info := infoFrom(r.Context()); info != nil {
			info.accountID = p.AccountID
		}
		ctx := context.WithValue(r.Context(), principalKey{}, p)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) sessionToken(r *http.Request) (string, error) {
	if raw := r.Header.Get("Authorization"); raw != "" && s.deps.Signer != nil {
		bearer, ok := strings.CutPrefix(raw, "Bearer ")
		if !ok {
			return "", session.ErrInvalidSession
		}
		sub, err := s.deps.Signer.Subject(strings.TrimSpace(bearer))
		if err != nil {
			return "", fault.Wrap(fault.Unauthenticated, err, "invalid session")
		}
		return sub, nil
	}
	if s.deps.RequireSigned {
		return "", session.ErrMissingToken
	}
	return r.Header.Get(headerUserID), nil
}

// rateLimit は認証済みならアカウント、未認証ならクライアント IP ごとに制限します。
func (s *Server) rateLimit(next http.Handler) http.Handler {
	if s.deps.Limiter == nil || s.deps.RateLimit <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := "ip:" + clientIP(r)
		if p, ok := principalFrom(r.Context()); ok {
			key = "acct:" + strconv.FormatInt(p.AccountID, 10)
		}

		d := s.deps.Limiter.Allow(r.Context(), key, s.deps.RateLimit)
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		if !d.Allowed {
			if s.deps.Metrics != nil {
				s.deps.Metrics.IncRateLimited()
			}
			retry := int(time.Until(d.ResetAt).Seconds()) + 1
			if retry < 1 {
				retry = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "rate_limited", Message: errRateLimited.Error()})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
