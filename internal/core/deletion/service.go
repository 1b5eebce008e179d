package deletion

import (
	"context"
	"log/slog"
	"time"

	"github.com/ogurasousui/personnel-core/internal/core/fault"
	"github.com/ogurasousui/personnel-core/internal/core/resource"
	"github.com/ogurasousui/personnel-core/internal/core/session"
)

// ErrPrivilegedOnly は管理者以外が削除を要求した場合に返却されます。
var ErrPrivilegedOnly = fault.New(fault.Forbidden, "deletion is administrative only")

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

// Repository は連鎖削除の各ステップを実行します。すべて同一トランザクション内で呼ばれます。
type Repository interface {
	// LockAccount はアカウント行をロックします。存在しなければ account.ErrAccountNotFound です。
	LockAccount(ctx context.Context, accountID int64) error
	// EmployeeForAccount は紐づく従業員 ID を返します。無ければ nil です。
	EmployeeForAccount(ctx context.Context, accountID int64) (*int64, error)
	// LockEmployee は従業員行をロックします。存在しなければ records.ErrRecordNotFound です。
	LockEmployee(ctx context.Context, employeeID int64) error
	DeleteDependents(ctx context.Context, kind resource.Kind, employeeID int64) (int64, error)
	DeleteEmployee(ctx context.Context, employeeID int64) error
	DeleteAccount(ctx context.Context, accountID int64) error
}

// Service はアカウント・従業員の全か無かの削除を行います。
type Service struct {
	repo    Repository
	tx      TransactionManager
	timeout time.Duration
	logger  *slog.Logger
}

// NewService は Service を生成します。timeout が 0 の場合は呼び出し元の期限のみに従います。
func NewService(repo Repository, tx TransactionManager, timeout time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, tx: tx, timeout: timeout, logger: logger}
}

// DeleteAccount はアカウントと、紐づく従業員および従属レコードを 1 トランザクションで削除します。
func (s *Service) DeleteAccount(ctx context.Context, p session.Principal, accountID int64) error {
	if !p.Privileged() {
		return ErrPrivilegedOnly
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.tx.WithinReadWrite(ctx, func(ctx context.Context) error {
		if err := s.repo.LockAccount(ctx, accountID); err != nil {
			return err
		}

		employeeID, err := s.repo.EmployeeForAccount(ctx, accountID)
		if err != nil {
			return err
		}

		if employeeID != nil {
			if err := s.removeEmployee(ctx, *employeeID); err != nil {
				return err
			}
		}

		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.repo.DeleteAccount(ctx, accountID); err != nil {
			return err
		}
		s.logger.DebugContext(ctx, "account deleted", slog.Int64("account_id", accountID))
		return nil
	})
}

// DeleteEmployee は従業員と従属レコードを削除します。アカウントは残ります。
func (s *Service) DeleteEmployee(ctx context.Context, p session.Principal, employeeID int64) error {
	if !p.Privileged() {
		return ErrPrivilegedOnly
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.tx.WithinReadWrite(ctx, func(ctx context.Context) error {
		if err := s.repo.LockEmployee(ctx, employeeID); err != nil {
			return err
		}
		return s.removeEmployee(ctx, employeeID)
	})
}

func (s *Service) removeEmployee(ctx context.Context, employeeID int64) error {
	for _, kind := range resource.Dependents() {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := s.repo.DeleteDependents(ctx, kind, employeeID)
		if err != nil {
			return err
		}
		s.logger.DebugContext(ctx, "dependent rows deleted",
			slog.String("kind", string(kind)),
			slog.Int64("employee_id", employeeID),
			slog.Int64("rows", n),
		)
	}

	if err := s.repo.DeleteEmployee(ctx, employeeID); err != nil {
		return err
	}
	s.logger.DebugContext(ctx, "employee deleted", slog.Int64("employee_id", employeeID))
	return nil
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}
