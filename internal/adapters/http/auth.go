package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/ogurasousui/personnel-core/internal/core/account"
	"github.com/ogurasousui/personnel-core/internal/core/fault"
)

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type loginResponse struct {
	AccountID int64      `json:"accountId"`
	Role      string     `json:"role"`
	Token     string     `json:"token,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

type meResponse struct {
	AccountID  int64  `json:"accountId"`
	Role       string `json:"role"`
	Privileged bool   `json:"privileged"`
	EmployeeID *int64 `json:"employeeId"`
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.writeError(w, r, fault.Wrap(fault.BadRequest, err, "malformed JSON body"))
		return
	}

	p, err := s.deps.Credentials.VerifyCredentials(r.Context(), req.Identifier, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := loginResponse{AccountID: p.AccountID, Role: string(p.Role)}
	if s.deps.Signer != nil {
		token, expires, err := s.deps.Signer.Issue(p)
		if err != nil {
			s.writeError(w, r, fault.Wrap(fault.Internal, err, "issue token"))
			return
		}
		resp.Token = token
		resp.ExpiresAt = &expires
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())
	resp := meResponse{AccountID: p.AccountID, Role: string(p.Role), Privileged: p.Privileged()}

	employeeID, err := s.deps.Employees.EmployeeIDForAccount(r.Context(), p.AccountID)
	switch {
	case err == nil:
		resp.EmployeeID = &employeeID
	case errors.Is(err, account.ErrNoEmployee):
	default:
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Database: "ok"}
	status := http.StatusOK

	if s.deps.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.DB.Ping(ctx); err != nil {
			s.logger.WarnContext(r.Context(), "health: database ping failed", "error", err)
			resp = healthResponse{Status: "degraded", Database: "down"}
			status = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, status, resp)
}
