package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/ogurasousui/personnel-core/internal/core/biennium"
	"github.com/ogurasousui/personnel-core/internal/core/fault"
	"github.com/ogurasousui/personnel-core/internal/core/records"
)

type dueDTO struct {
	EmployeeID    int64  `json:"employeeId"`
	Name          string `json:"name"`
	HireDate      string `json:"hireDate"`
	DueDate       string `json:"dueDate"`
	DaysRemaining int    `json:"daysRemaining"`
}

type periodDTO struct {
	ID              int64   `json:"id"`
	EmployeeID      int64   `json:"employeeId"`
	Name            string  `json:"name"`
	PeriodStart     string  `json:"periodStart"`
	PeriodEnd       string  `json:"periodEnd"`
	Fulfilled       bool    `json:"fulfilled"`
	FulfillmentDate *string `json:"fulfillmentDate"`
}

func toDueDTOs(rows []biennium.Due) []dueDTO {
	out := make([]dueDTO, 0, len(rows))
	for _, d := range rows {
		out = append(out, dueDTO{
			EmployeeID:    d.EmployeeID,
			Name:          d.Name,
			HireDate:      d.HireDate.Format(records.DateLayout),
			DueDate:       d.DueDate.Format(records.DateLayout),
			DaysRemaining: d.DaysRemaining,
		})
	}
	return out
}

func toPeriodDTOs(rows []biennium.Period) []periodDTO {
	out := make([]periodDTO, 0, len(rows))
	for _, p := range rows {
		dto := periodDTO{
			ID:          p.ID,
			EmployeeID:  p.EmployeeID,
			Name:        p.Name,
			PeriodStart: p.PeriodStart.Format(records.DateLayout),
			PeriodEnd:   p.PeriodEnd.Format(records.DateLayout),
			Fulfilled:   p.Fulfilled,
		}
		if p.FulfillmentDate != nil {
			v := p.FulfillmentDate.Format(records.DateLayout)
			dto.FulfillmentDate = &v
		}
		out = append(out, dto)
	}
	return out
}

func (s *Server) handleUpcoming(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())
	asOf, days, err := s.windowParams(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	rows, err := s.deps.Biennia.Upcoming(r.Context(), p, asOf, days)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDueDTOs(rows))
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())
	asOf, days, err := s.windowParams(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	rows, err := s.deps.Biennia.Recent(r.Context(), p, asOf, days)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPeriodDTOs(rows))
}

func (s *Server) handleProjected(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())
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
	writeJSON(w, http.StatusOK, toDueDTOs(rows))
}

// windowParams は asOf (YYYY-MM-DD, 省略時は今日) と days を読み取ります。
func (s *Server) windowParams(r *http.Request) (time.Time, *int, error) {
	q := r.URL.Query()

	asOf := s.deps.Biennia.Now()
	if raw := q.Get("asOf"); raw != "" {
		t, err := time.Parse(records.DateLayout, raw)
		if err != nil {
			return time.Time{}, nil, fault.Newf(fault.BadRequest, "asOf must be YYYY-MM-DD, got %q", raw)
		}
		asOf = t
	}

	var days *int
	if raw := q.Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return time.Time{}, nil, fault.Newf(fault.BadRequest, "days must be an integer, got %q", raw)
		}
		days = &n
	}
	return asOf, days, nil
}
