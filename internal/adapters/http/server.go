package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ogurasousui/personnel-core/internal/core/biennium"
	"github.com/ogurasousui/personnel-core/internal/core/policy"
	"github.com/ogurasousui/personnel-core/internal/core/records"
	"github.com/ogurasousui/personnel-core/internal/core/resource"
	"github.com/ogurasousui/personnel-core/internal/core/session"
	"github.com/ogurasousui/personnel-core/internal/platform/auth"
	"github.com/ogurasousui/personnel-core/internal/platform/metrics"
	"github.com/ogurasousui/personnel-core/internal/platform/ratelimit"
	"github.com/ogurasousui/personnel-core/internal/platform/telemetry"
)

// SessionResolver はリクエストのトークンを Principal に変換します。
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (session.Principal, error)
}

// CredentialVerifier はログイン時の資格情報を検証します。
type CredentialVerifier interface {
	VerifyCredentials(ctx context.Context, identifier, secret string) (session.Principal, error)
}

// RecordService は種別横断の CRUD です。
type RecordService interface {
	List(ctx context.Context, p session.Principal, kind resource.Kind, filter records.Filter) ([]records.Record, error)
	Export(ctx context.Context, p session.Principal, kind resource.Kind, ownerID *int64) ([]records.Record, error)
	Get(ctx context.Context, p session.Principal, kind resource.Kind, id int64) (records.Record, error)
	Create(ctx context.Context, p session.Principal, kind resource.Kind, fields map[string]any) (records.Record, error)
	Update(ctx context.Context, p session.Principal, kind resource.Kind, id int64, fields map[string]any) (records.Record, error)
	Delete(ctx context.Context, p session.Principal, kind resource.Kind, id int64) error
}

// BienniumService は二年手当の横断ビューです。
type BienniumService interface {
	Now() time.Time
	Upcoming(ctx context.Context, p session.Principal, asOf time.Time, windowDays *int) ([]biennium.Due, error)
	Recent(ctx context.Context, p session.Principal, asOf time.Time, windowDays *int) ([]biennium.Period, error)
	Projected(ctx context.Context, p session.Principal, asOf time.Time, windowDays *int) ([]biennium.Due, error)
}

// AccountDeleter はアカウントの連鎖削除です。
type AccountDeleter interface {
	DeleteAccount(ctx context.Context, p session.Principal, accountID int64) error
}

// Authorizer はレポートなど横断操作の認可に使います。
type Authorizer interface {
	Enforce(ctx context.Context, p session.Principal, action policy.Action, kind resource.Kind, target *int64) (policy.Decision, error)
}

// EmployeeLinker はアカウントに紐づく職員 ID を返します。
type EmployeeLinker interface {
	EmployeeIDForAccount(ctx context.Context, accountID int64) (int64, error)
}

// Pinger はデータベース疎通確認です。
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps は Server の依存関係です。Signer, Limiter, Metrics は任意です。
type Deps struct {
	Sessions      SessionResolver
	Credentials   CredentialVerifier
	Records       RecordService
	Biennia       BienniumService
	Deletion      AccountDeleter
	Policy        Authorizer
	Employees     EmployeeLinker
	DB            Pinger
	Signer        *auth.Signer
	RequireSigned bool
	Limiter       ratelimit.Limiter
	RateLimit     int
	Metrics       *metrics.Registry
	Logger        *slog.Logger
	ServiceName   string
}

// Server は協調サービス向けの HTTP API です。
type Server struct {
	deps   Deps
	logger *slog.Logger
}

// NewServer は Server を生成します。
func NewServer(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if deps.ServiceName == "" {
		deps.ServiceName = "personnel-core"
	}
	return &Server{deps: deps, logger: logger}
}

// Router はルーティング済みのハンドラーを返します。
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestID)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)
	r.Use(telemetry.HTTPMiddleware(s.deps.ServiceName))

	r.Get("/health", s.handleHealth)
	if s.deps.Metrics != nil {
		r.Handle("/metrics", s.deps.Metrics.Handler())
	}

	r.With(s.rateLimit).Post("/auth/login", s.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)
		r.Use(s.rateLimit)

		r.Get("/me", s.handleMe)

		r.Route("/records/{kind}", func(r chi.Router) {
			r.Get("/", s.handleListRecords)
			r.Post("/", s.handleCreateRecord)
			r.Get("/{id}", s.handleGetRecord)
			r.Patch("/{id}", s.handleUpdateRecord)
			r.Delete("/{id}", s.handleDeleteRecord)
		})

		r.Delete("/accounts/{id}", s.handleDeleteAccount)

		r.Route("/biennia", func(r chi.Router) {
			r.Get("/upcoming", s.handleUpcoming)
			r.Get("/recent", s.handleRecent)
			r.Get("/projected", s.handleProjected)
		})

		r.Get("/reports/biennia.csv", s.handleBienniumReport)
		r.Get("/reports/{kind}.csv", s.handleRecordReport)
	})

	return r
}
