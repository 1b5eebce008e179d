package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ogurasousui/personnel-core/internal/core/fault"
	"github.com/ogurasousui/personnel-core/internal/core/records"
	"github.com/ogurasousui/personnel-core/internal/core/resource"
	"github.com/ogurasousui/personnel-core/internal/core/session"
)

const maxBodyBytes = 1 << 20

type listResponse struct {
	Items []records.Record `json:"items"`
	Count int              `json:"count"`
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	p, kind, ok := s.recordTarget(w, r)
	if !ok {
		return
	}

	filter, err := parseFilter(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	rows, err := s.deps.Records.List(r.Context(), p, kind, filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if rows == nil {
		rows = []records.Record{}
	}
	writeJSON(w, http.StatusOK, listResponse{Items: rows, Count: len(rows)})
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	p, kind, ok := s.recordTarget(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	rec, err := s.deps.Records.Get(r.Context(), p, kind, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	p, kind, ok := s.recordTarget(w, r)
	if !ok {
		return
	}
	fields, err := decodeFields(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	rec, err := s.deps.Records.Create(r.Context(), p, kind, fields)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/records/"+string(kind)+"/"+strconv.FormatInt(rec.ID(), 10))
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	p, kind, ok := s.recordTarget(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	fields, err := decodeFields(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	rec, err := s.deps.Records.Update(r.Context(), p, kind, id, fields)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	p, kind, ok := s.recordTarget(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.deps.Records.Delete(r.Context(), p, kind, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.deps.Deletion.DeleteAccount(r.Context(), p, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) recordTarget(w http.ResponseWriter, r *http.Request) (session.Principal, resource.Kind, bool) {
	p, _ := principalFrom(r.Context())
	kind, ok := resource.Parse(chi.URLParam(r, "kind"))
	if !ok {
		s.writeError(w, r, records.ErrUnknownKind)
		return session.Principal{}, "", false
	}
	return p, kind, true
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fault.Newf(fault.BadRequest, "invalid id %q", raw)
	}
	return id, nil
}

func parseFilter(r *http.Request) (records.Filter, error) {
	q := r.URL.Query()
	var filter records.Filter

	if raw := q.Get("employeeId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return records.Filter{}, fault.Newf(fault.BadRequest, "invalid employeeId %q", raw)
		}
		filter.OwnerID = &id
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return records.Filter{}, records.ErrInvalidPageSize
		}
		filter.Limit = n
	}
	if raw := q.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return records.Filter{}, records.ErrInvalidOffset
		}
		filter.Offset = n
	}
	return filter, nil
}

// decodeFields は JSON オブジェクトを数値精度を保ったまま読み込みます。
func decodeFields(r *http.Request) (map[string]any, error) {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		return nil, fault.New(fault.BadRequest, "content type must be application/json")
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]any{}, nil
		}
		return nil, fault.Wrap(fault.BadRequest, err, "malformed JSON body")
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}
