package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ogurasousui/personnel-core/internal/core/policy"
	"github.com/ogurasousui/personnel-core/internal/core/records"
	"github.com/ogurasousui/personnel-core/internal/core/report"
	"github.com/ogurasousui/personnel-core/internal/core/resource"
)

func (s *Server) handleRecordReport(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())
	kind, ok := resource.Parse(chi.URLParam(r, "kind"))
	if !ok {
		s.writeError(w, r, records.ErrUnknownKind)
		return
	}
	if _, err := s.deps.Policy.Enforce(r.Context(), p, policy.ActionList, resource.Reports, nil); err != nil {
		s.writeError(w, r, err)
		return
	}

	filter, err := parseFilter(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	rows, err := s.deps.Records.Export(r.Context(), p, kind, filter.OwnerID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeCSV(w, string(kind)+".csv", report.ToDelimitedText(rows))
}

func (s *Server) handleBienniumReport(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())
	if _, err := s.deps.Policy.Enforce(r.Context(), p, policy.ActionList, resource.Reports, nil); err != nil {
		s.writeError(w, r, err)
		return
	}

	asOf, days, err := s.windowParams(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	rows, err := s.deps.Biennia.Projected(r.Context(), p, asOf, days)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeCSV(w, "biennia.csv", report.ToDelimitedText(rows))
}

func writeCSV(w http.ResponseWriter, filename, body string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}
