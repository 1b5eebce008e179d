package records

import (
	"context"
	"strings"

	"github.com/ogurasousui/personnel-core/internal/core/account"
	"github.com/ogurasousui/personnel-core/internal/core/fault"
	"github.com/ogurasousui/personnel-core/internal/core/policy"
	"github.com/ogurasousui/personnel-core/internal/core/resource"
	"github.com/ogurasousui/personnel-core/internal/core/session"
)

const (
	defaultListPageSize = 50
	maxListPageSize     = 200
)

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

// Authorizer はアクセスポリシーの抽象です。
type Authorizer interface {
	Enforce(ctx context.Context, p session.Principal, action policy.Action, kind resource.Kind, target *int64) (policy.Decision, error)
	Permits(role account.Role, kind resource.Kind, action policy.Action) bool
}

// Cascader はアカウント・従業員の連鎖削除を担います。
type Cascader interface {
	DeleteAccount(ctx context.Context, p session.Principal, accountID int64) error
	DeleteEmployee(ctx context.Context, p session.Principal, employeeID int64) error
}

// Filter は一覧取得時の入力です。
type Filter struct {
	OwnerID *int64
	Limit   int
	Offset  int
}

// Service は種別横断の CRUD ユースケースをまとめます。
type Service struct {
	schemas  *Registry
	repo     Repository
	policy   Authorizer
	tx       TransactionManager
	cascader Cascader
	hasher   Hasher
}

// Option は Service の任意設定です。
type Option func(*Service)

// WithTransactionManager はトランザクション制御を設定します。
func WithTransactionManager(tx TransactionManager) Option {
	return func(s *Service) {
		if tx != nil {
			s.tx = tx
		}
	}
}

// WithCascader は連鎖削除の委譲先を設定します。
func WithCascader(c Cascader) Option {
	return func(s *Service) { s.cascader = c }
}

// WithHasher は秘密値のハッシュ化を設定します。
func WithHasher(h Hasher) Option {
	return func(s *Service) { s.hasher = h }
}

// NewService は Service を生成します。
func NewService(schemas *Registry, repo Repository, authz Authorizer, opts ...Option) *Service {
	s := &Service{
		schemas: schemas,
		repo:    repo,
		policy:  authz,
		tx:      noopTransactionManager{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schema は種別のスキーマを返します。
func (s *Service) Schema(kind resource.Kind) (Schema, error) {
	return s.schemas.Lookup(kind)
}

// List は一覧を返します。職員の場合は本人の行に絞り込みます。
func (s *Service) List(ctx context.Context, p session.Principal, kind resource.Kind, filter Filter) ([]Record, error) {
	schema, err := s.schemas.Lookup(kind)
	if err != nil {
		return nil, err
	}

	limit, err := normalizePageSize(filter.Limit)
	if err != nil {
		return nil, err
	}
	if filter.Offset < 0 {
		return nil, ErrInvalidOffset
	}
	if filter.OwnerID != nil && !schema.Owned() {
		return nil, ErrNotOwned
	}

	decision, err := s.policy.Enforce(ctx, p, policy.ActionList, kind, filter.OwnerID)
	if err != nil {
		return nil, err
	}

	owner := filter.OwnerID
	if decision.Narrowed() {
		own := decision.EmployeeID
		owner = &own
	}

	var out []Record
	err = s.tx.WithinReadOnly(ctx, func(ctx context.Context) error {
		rows, err := s.repo.List(ctx, schema, Query{OwnerID: owner, Limit: limit, Offset: filter.Offset})
		if err != nil {
			return err
		}
		out = rows
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Export は条件に合う全行を 1 つの読み取りトランザクション内でページ送りしながら返します。
func (s *Service) Export(ctx context.Context, p session.Principal, kind resource.Kind, ownerID *int64) ([]Record, error) {
	schema, err := s.schemas.Lookup(kind)
	if err != nil {
		return nil, err
	}
	if ownerID != nil && !schema.Owned() {
		return nil, ErrNotOwned
	}

	decision, err := s.policy.Enforce(ctx, p, policy.ActionList, kind, ownerID)
	if err != nil {
		return nil, err
	}
	if decision.Narrowed() {
		own := decision.EmployeeID
		ownerID = &own
	}

	var out []Record
	err = s.tx.WithinReadOnly(ctx, func(ctx context.Context) error {
		out = nil
		for offset := 0; ; offset += maxListPageSize {
			page, err := s.repo.List(ctx, schema, Query{OwnerID: ownerID, Limit: maxListPageSize, Offset: offset})
			if err != nil {
				return err
			}
			out = append(out, page...)
			if len(page) < maxListPageSize {
				return nil
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Get は 1 行を返します。
func (s *Service) Get(ctx context.Context, p session.Principal, kind resource.Kind, id int64) (Record, error) {
	schema, err := s.schemas.Lookup(kind)
	if err != nil {
		return Record{}, err
	}
	if err := s.permits(p, kind, policy.ActionRead); err != nil {
		return Record{}, err
	}

	var out Record
	err = s.tx.WithinReadOnly(ctx, func(ctx context.Context) error {
		owner, err := s.repo.Owner(ctx, schema, id)
		if err != nil {
			return err
		}
		if _, err := s.policy.Enforce(ctx, p, policy.ActionRead, kind, owner); err != nil {
			return err
		}
		out, err = s.repo.Get(ctx, schema, id)
		return err
	})
	if err != nil {
		return Record{}, err
	}
	return out, nil
}

// Create は新しい行を作成します。職員の場合、所有者は本人に固定されます。
func (s *Service) Create(ctx context.Context, p session.Principal, kind resource.Kind, fields map[string]any) (Record, error) {
	schema, err := s.schemas.Lookup(kind)
	if err != nil {
		return Record{}, err
	}
	if err := s.permits(p, kind, policy.ActionCreate); err != nil {
		return Record{}, err
	}

	values, err := schema.coerce(fields, s.hasher)
	if err != nil {
		return Record{}, err
	}

	target := ownerFrom(schema, values)
	decision, err := s.policy.Enforce(ctx, p, policy.ActionCreate, kind, target)
	if err != nil {
		return Record{}, err
	}
	if schema.Owned() && !schema.OwnerIsRowID() && !p.Privileged() {
		values[schema.OwnerField] = decision.EmployeeID
	}

	schema.applyDefaults(values)
	if missing := schema.missingRequired(values); len(missing) > 0 {
		return Record{}, fault.Newf(fault.BadRequest, "missing required fields: %s", strings.Join(missing, ", "))
	}

	var out Record
	err = s.tx.WithinReadWrite(ctx, func(ctx context.Context) error {
		id, err := s.repo.Insert(ctx, schema, schema.assignments(values))
		if err != nil {
			return err
		}
		if err := s.clearExclusive(ctx, schema, values, ownerFrom(schema, values), id); err != nil {
			return err
		}
		out, err = s.repo.Get(ctx, schema, id)
		return err
	})
	if err != nil {
		return Record{}, err
	}
	return out, nil
}

// Update は指定フィールドのみを更新します。
func (s *Service) Update(ctx context.Context, p session.Principal, kind resource.Kind, id int64, fields map[string]any) (Record, error) {
	if len(fields) == 0 {
		return Record{}, ErrEmptyUpdate
	}

	schema, err := s.schemas.Lookup(kind)
	if err != nil {
		return Record{}, err
	}
	if err := s.permits(p, kind, policy.ActionUpdate); err != nil {
		return Record{}, err
	}

	values, err := schema.coerce(fields, s.hasher)
	if err != nil {
		return Record{}, err
	}

	var out Record
	err = s.tx.WithinReadWrite(ctx, func(ctx context.Context) error {
		current, err := s.repo.Owner(ctx, schema, id)
		if err != nil {
			return err
		}
		decision, err := s.policy.Enforce(ctx, p, policy.ActionUpdate, kind, current)
		if err != nil {
			return err
		}

		owner := current
		if next := ownerFrom(schema, values); next != nil {
			if !p.Privileged() && *next != decision.EmployeeID {
				return ErrOwnerMismatch
			}
			owner = next
		}

		if err := s.repo.Update(ctx, schema, id, schema.assignments(values)); err != nil {
			return err
		}
		if err := s.clearExclusive(ctx, schema, values, owner, id); err != nil {
			return err
		}
		out, err = s.repo.Get(ctx, schema, id)
		return err
	})
	if err != nil {
		return Record{}, err
	}
	return out, nil
}

// Delete は行を削除します。アカウントと従業員は連鎖削除へ委譲します。
func (s *Service) Delete(ctx context.Context, p session.Principal, kind resource.Kind, id int64) error {
	schema, err := s.schemas.Lookup(kind)
	if err != nil {
		return err
	}
	if err := s.permits(p, kind, policy.ActionDelete); err != nil {
		return err
	}

	if schema.Cascade {
		if s.cascader == nil {
			return fault.Newf(fault.Internal, "no cascade handler for %s", kind)
		}
		if kind == resource.Accounts {
			return s.cascader.DeleteAccount(ctx, p, id)
		}
		return s.cascader.DeleteEmployee(ctx, p, id)
	}

	return s.tx.WithinReadWrite(ctx, func(ctx context.Context) error {
		owner, err := s.repo.Owner(ctx, schema, id)
		if err != nil {
			return err
		}
		if _, err := s.policy.Enforce(ctx, p, policy.ActionDelete, kind, owner); err != nil {
			return err
		}
		return s.repo.Delete(ctx, schema, id)
	})
}

func (s *Service) permits(p session.Principal, kind resource.Kind, action policy.Action) error {
	if s.policy.Permits(p.Role, kind, action) {
		return nil
	}
	return fault.Wrap(fault.Forbidden, policy.ErrForbidden, string(kind)+" is administrative only")
}

func (s *Service) clearExclusive(ctx context.Context, schema Schema, values fieldValues, owner *int64, id int64) error {
	if schema.ExclusiveActive == "" || owner == nil {
		return nil
	}
	if on, _ := values[schema.ExclusiveActive].(bool); !on {
		return nil
	}
	return s.repo.ClearExclusive(ctx, schema, *owner, id)
}

func ownerFrom(schema Schema, values fieldValues) *int64 {
	if !schema.Owned() || schema.OwnerIsRowID() {
		return nil
	}
	if v, ok := values[schema.OwnerField].(int64); ok {
		return &v
	}
	return nil
}

func normalizePageSize(pageSize int) (int, error) {
	if pageSize <= 0 {
		return defaultListPageSize, nil
	}
	if pageSize > maxListPageSize {
		return 0, ErrInvalidPageSize
	}
	return pageSize, nil
}
