package policy

import (
	"context"
	"errors"

	"github.com/ogurasousui/personnel-core/internal/core/account"
	"github.com/ogurasousui/personnel-core/internal/core/fault"
	"github.com/ogurasousui/personnel-core/internal/core/resource"
	"github.com/ogurasousui/personnel-core/internal/core/session"
)

// Effect は認可判定の結果です。
type Effect int

const (
	Deny Effect = iota
	Allow
	AllowNarrowedToSelf
)

func (e Effect) String() string {
	switch e {
	case Allow:
		return "allow"
	case AllowNarrowedToSelf:
		return "allow_narrowed"
	default:
		return "deny"
	}
}

// Decision は Authorize の戻り値です。EmployeeID は職員の場合に解決済みの本人 ID を持ちます。
type Decision struct {
	Effect     Effect
	EmployeeID int64
	Reason     string
}

// Narrowed は一覧を本人に絞り込む必要があるかを返します。
func (d Decision) Narrowed() bool {
	return d.Effect == AllowNarrowedToSelf
}

// ErrForbidden は判定が Deny の場合に Enforce が返します。
var ErrForbidden = fault.New(fault.Forbidden, "operation not permitted")

// OwnerResolver はアカウントに紐づく従業員 ID を解決します。
type OwnerResolver interface {
	EmployeeIDForAccount(ctx context.Context, accountID int64) (int64, error)
}

// Observer は判定結果の記録先です。
type Observer interface {
	ObserveDecision(role account.Role, kind resource.Kind, effect Effect)
}

type noopObserver struct{}

func (noopObserver) ObserveDecision(account.Role, resource.Kind, Effect) {}

// Engine はポリシー表に従って認可を判定します。
type Engine struct {
	table    *Table
	owners   OwnerResolver
	observer Observer
}

// NewEngine は Engine を生成します。
func NewEngine(table *Table, owners OwnerResolver, observer Observer) *Engine {
	if observer == nil {
		observer = noopObserver{}
	}
	return &Engine{table: table, owners: owners, observer: observer}
}

// Authorize は principal が kind に対して action を行えるかを判定します。
// target は対象レコードの所有従業員 ID です。判定は所有者照合を操作権限より先に行います。
func (e *Engine) Authorize(ctx context.Context, p session.Principal, action Action, kind resource.Kind, target *int64) (Decision, error) {
	d, err := e.decide(ctx, p, action, kind, target)
	if err != nil {
		return Decision{}, err
	}
	e.observer.ObserveDecision(p.Role, kind, d.Effect)
	return d, nil
}

// Enforce は Authorize を行い、Deny を Forbidden エラーに変換します。
func (e *Engine) Enforce(ctx context.Context, p session.Principal, action Action, kind resource.Kind, target *int64) (Decision, error) {
	d, err := e.Authorize(ctx, p, action, kind, target)
	if err != nil {
		return Decision{}, err
	}
	if d.Effect == Deny {
		return d, fault.Wrap(fault.Forbidden, ErrForbidden, d.Reason)
	}
	return d, nil
}

// Permits は所有者を問わず、ロールが kind に対して action を行える可能性があるかを返します。
func (e *Engine) Permits(role account.Role, kind resource.Kind, action Action) bool {
	return e.table.Scope(role, kind, action) != ScopeNone
}

func (e *Engine) decide(ctx context.Context, p session.Principal, action Action, kind resource.Kind, target *int64) (Decision, error) {
	scope := e.table.Scope(p.Role, kind, action)
	switch scope {
	case ScopeAll:
		return Decision{Effect: Allow, Reason: "unrestricted"}, nil
	case ScopeNone:
		return Decision{Effect: Deny, Reason: string(kind) + " is administrative only"}, nil
	}

	own, err := e.owners.EmployeeIDForAccount(ctx, p.AccountID)
	if err != nil {
		if errors.Is(err, account.ErrNoEmployee) {
			return Decision{}, account.ErrNoEmployee
		}
		return Decision{}, fault.Wrap(fault.Internal, err, "resolve own employee")
	}

	if target != nil && *target != own {
		return Decision{Effect: Deny, EmployeeID: own, Reason: "record belongs to another employee"}, nil
	}

	if target == nil && action.readOnly() {
		return Decision{Effect: AllowNarrowedToSelf, EmployeeID: own, Reason: "narrowed to own records"}, nil
	}

	return Decision{Effect: Allow, EmployeeID: own, Reason: "own record"}, nil
}
