package policy

import (
	"fmt"

	"github.com/ogurasousui/personnel-core/internal/core/account"
	"github.com/ogurasousui/personnel-core/internal/core/resource"
)

// Action はリソースに対する操作です。
type Action string

const (
	ActionList   Action = "list"
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

func (a Action) readOnly() bool {
	return a == ActionList || a == ActionRead
}

// Scope は操作が及ぶ範囲です。
type Scope int

const (
	ScopeNone Scope = iota
	ScopeSelf
	ScopeAll
)

// Rule は (role, kind) ごとの操作範囲の定義です。
type Rule struct {
	Role   account.Role
	Kind   resource.Kind
	Scopes map[Action]Scope
}

type ruleKey struct {
	role account.Role
	kind resource.Kind
}

// Table は起動時に構築される不変のポリシー表です。
type Table struct {
	rules map[ruleKey]map[Action]Scope
}

// NewTable はルール一覧から Table を構築します。同じ (role, kind) の重複はエラーです。
func NewTable(rules []Rule) (*Table, error) {
	t := &Table{rules: make(map[ruleKey]map[Action]Scope, len(rules))}
	for _, r := range rules {
		if !r.Role.Valid() {
			return nil, fmt.Errorf("policy: invalid role %q", r.Role)
		}
		key := ruleKey{role: r.Role, kind: r.Kind}
		if _, dup := t.rules[key]; dup {
			return nil, fmt.Errorf("policy: duplicate rule for %s/%s", r.Role, r.Kind)
		}
		scopes := make(map[Action]Scope, len(r.Scopes))
		for action, scope := range r.Scopes {
			scopes[action] = scope
		}
		t.rules[key] = scopes
	}
	return t, nil
}

// Scope は登録が無ければ ScopeNone を返します。
func (t *Table) Scope(role account.Role, kind resource.Kind, action Action) Scope {
	if t == nil {
		return ScopeNone
	}
	scopes, ok := t.rules[ruleKey{role: role, kind: kind}]
	if !ok {
		return ScopeNone
	}
	return scopes[action]
}

func every(scope Scope) map[Action]Scope {
	return map[Action]Scope{
		ActionList:   scope,
		ActionRead:   scope,
		ActionCreate: scope,
		ActionUpdate: scope,
		ActionDelete: scope,
	}
}

func readOwn() map[Action]Scope {
	return map[Action]Scope{
		ActionList: ScopeSelf,
		ActionRead: ScopeSelf,
	}
}

// DefaultRules は管理者・職員の標準マトリクスです。
//
//   - 管理者: 全種別・全操作が ScopeAll
//   - 職員 (セルフサービス): 研修、学歴、特別休暇、代休、出張、書類、連絡先
//   - 職員 (自分の閲覧のみ): 本人情報、二年手当、評定、記録、懲戒、職歴
//   - 職員 (不可): アカウント、職位、証明書テンプレート、レポート
func DefaultRules() []Rule {
	var rules []Rule
	for _, kind := range resource.All() {
		rules = append(rules, Rule{Role: account.RolePrivileged, Kind: kind, Scopes: every(ScopeAll)})
	}

	selfService := []resource.Kind{
		resource.Trainings,
		resource.Studies,
		resource.AdministrativeLeave,
		resource.CompensatoryLeave,
		resource.Assignments,
		resource.Documents,
		resource.Contacts,
	}
	for _, kind := range selfService {
		rules = append(rules, Rule{Role: account.RoleStandard, Kind: kind, Scopes: every(ScopeSelf)})
	}

	viewOnly := []resource.Kind{
		resource.Employees,
		resource.Biennia,
		resource.Evaluations,
		resource.Annotations,
		resource.DisciplinaryCases,
		resource.PositionHistory,
	}
	for _, kind := range viewOnly {
		rules = append(rules, Rule{Role: account.RoleStandard, Kind: kind, Scopes: readOwn()})
	}

	return rules
}
