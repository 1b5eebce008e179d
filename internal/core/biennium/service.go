package biennium

import (
	"context"
	"sort"
	"time"

	"github.com/ogurasousui/personnel-core/internal/core/fault"
	"github.com/ogurasousui/personnel-core/internal/core/session"
)

const (
	DefaultUpcomingDays = 60
	DefaultRecentDays   = 30
	MaxWindowDays       = 365
)

var (
	// ErrNegativeWindow は期間日数が負の場合に返却されます。
	ErrNegativeWindow = fault.New(fault.BadRequest, "window days must not be negative")
	// ErrPrivilegedOnly は職員が横断ビューを要求した場合に返却されます。
	ErrPrivilegedOnly = fault.New(fault.Forbidden, "biennium overview is administrative only")
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// Employee は予測に使う在職者です。
type Employee struct {
	ID       int64
	Name     string
	HireDate time.Time
}

// Due は期日が近い二年手当です。
type Due struct {
	EmployeeID    int64
	Name          string
	HireDate      time.Time
	DueDate       time.Time
	DaysRemaining int
}

// Period は二年手当の 1 期間です。
type Period struct {
	ID              int64
	EmployeeID      int64
	Name            string
	PeriodStart     time.Time
	PeriodEnd       time.Time
	Fulfilled       bool
	FulfillmentDate *time.Time
}

// Repository は二年手当の参照を行うインターフェースです。
type Repository interface {
	// DueBetween は在職者の期間のうち、達成日 (未設定なら期間末) が [from, to] に入るものを返します。
	DueBetween(ctx context.Context, from, to time.Time) ([]Due, error)
	// StartedSince は期間開始日が since 以降の期間を新しい順に返します。
	StartedSince(ctx context.Context, since time.Time) ([]Period, error)
	ActiveEmployees(ctx context.Context) ([]Employee, error)
}

// Service は二年手当の期日計算をまとめます。
type Service struct {
	repo  Repository
	clock Clock
}

// NewService は Service を生成します。
func NewService(repo Repository, clock Clock) *Service {
	if clock == nil {
		clock = realClock{}
	}
	return &Service{repo: repo, clock: clock}
}

// Now は基準日を返します。
func (s *Service) Now() time.Time {
	return dateOf(s.clock.Now())
}

// Upcoming は asOf から windowDays 日以内に期日を迎える期間を残日数の昇順で返します。
func (s *Service) Upcoming(ctx context.Context, p session.Principal, asOf time.Time, windowDays *int) ([]Due, error) {
	if !p.Privileged() {
		return nil, ErrPrivilegedOnly
	}
	days, err := normalizeWindow(windowDays, DefaultUpcomingDays)
	if err != nil {
		return nil, err
	}

	from := dateOf(asOf)
	to := from.AddDate(0, 0, days)
	rows, err := s.repo.DueBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}

	out := make([]Due, 0, len(rows))
	for _, r := range rows {
		r.DaysRemaining = DaysBetween(from, r.DueDate)
		if r.DaysRemaining < 0 || r.DaysRemaining > days {
			continue
		}
		out = append(out, r)
	}
	sortDue(out)
	return out, nil
}

// Recent は asOf - windowDays 以降に開始した期間を新しい順に返します。
func (s *Service) Recent(ctx context.Context, p session.Principal, asOf time.Time, windowDays *int) ([]Period, error) {
	if !p.Privileged() {
		return nil, ErrPrivilegedOnly
	}
	days, err := normalizeWindow(windowDays, DefaultRecentDays)
	if err != nil {
		return nil, err
	}

	since := dateOf(asOf).AddDate(0, 0, -days)
	rows, err := s.repo.StartedSince(ctx, since)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].PeriodStart.After(rows[j].PeriodStart)
	})
	return rows, nil
}

// Projected は在職者ごとに NextBiennium を計算し、窓内に入るものを返します。
func (s *Service) Projected(ctx context.Context, p session.Principal, asOf time.Time, windowDays *int) ([]Due, error) {
	if !p.Privileged() {
		return nil, ErrPrivilegedOnly
	}
	days, err := normalizeWindow(windowDays, DefaultUpcomingDays)
	if err != nil {
		return nil, err
	}

	employees, err := s.repo.ActiveEmployees(ctx)
	if err != nil {
		return nil, err
	}

	from := dateOf(asOf)
	var out []Due
	for _, e := range employees {
		next := NextBiennium(e.HireDate, from)
		remaining := DaysBetween(from, next)
		if remaining < 0 || remaining > days {
			continue
		}
		out = append(out, Due{
			EmployeeID:    e.ID,
			Name:          e.Name,
			HireDate:      e.HireDate,
			DueDate:       next,
			DaysRemaining: remaining,
		})
	}
	sortDue(out)
	return out, nil
}

func sortDue(rows []Due) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].DaysRemaining != rows[j].DaysRemaining {
			return rows[i].DaysRemaining < rows[j].DaysRemaining
		}
		return rows[i].EmployeeID < rows[j].EmployeeID
	})
}

func normalizeWindow(raw *int, def int) (int, error) {
	if raw == nil {
		return def, nil
	}
	if *raw < 0 {
		return 0, ErrNegativeWindow
	}
	if *raw > MaxWindowDays {
		return MaxWindowDays, nil
	}
	return *raw, nil
}

// Header は CSV 出力用の列名です。
func (d Due) Header() []string {
	return []string{"employee_id", "name", "hire_date", "next_biennium", "days_remaining"}
}

// Cells は Header と同じ順序の値です。
func (d Due) Cells() []any {
	return []any{d.EmployeeID, d.Name, d.HireDate, d.DueDate, d.DaysRemaining}
}
