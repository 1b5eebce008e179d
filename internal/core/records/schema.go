package records

import (
	"fmt"

	"github.com/ogurasousui/personnel-core/internal/core/resource"
)

// FieldType はフィールドの値型です。
type FieldType int

const (
	TypeText FieldType = iota
	TypeEnum
	TypeDate
	TypeInt
	TypeDecimal
	TypeBool
	// TypeSecret はハッシュ化して保存し、読み出し時には返却しません。
	TypeSecret
)

// Field は API 名とカラムの対応です。
type Field struct {
	Name     string
	Column   string
	Type     FieldType
	Required bool
	Default  any
	Enum     []string
}

// ColumnName は Column が空なら Name を返します。
func (f Field) ColumnName() string {
	if f.Column != "" {
		return f.Column
	}
	return f.Name
}

// Schema は種別ごとのテーブル定義です。
type Schema struct {
	Kind   resource.Kind
	Table  string
	Fields []Field
	// OwnerField は所有従業員を指すフィールド名です。従業員種別では "id" 自身を所有者とします。
	OwnerField string
	OrderBy    string
	OrderDesc  bool
	// ExclusiveActive が設定されている場合、true にすると同一所有者の他行を false に戻します。
	ExclusiveActive string
	// Cascade が true の種別は削除をカスケード処理へ委譲します。
	Cascade bool
}

// Field は API 名でフィールドを探します。
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Owned は所有者による絞り込みが可能な種別かを返します。
func (s Schema) Owned() bool {
	return s.OwnerField != ""
}

// OwnerIsRowID は行 ID 自体が所有従業員 ID である種別かを返します。
func (s Schema) OwnerIsRowID() bool {
	return s.OwnerField == "id"
}

// OwnerColumn は所有者カラム名を返します。
func (s Schema) OwnerColumn() string {
	if s.OwnerIsRowID() {
		return "id"
	}
	if f, ok := s.Field(s.OwnerField); ok {
		return f.ColumnName()
	}
	return ""
}

// Readable は SELECT 対象のフィールドです。秘密値は含みません。
func (s Schema) Readable() []Field {
	out := make([]Field, 0, len(s.Fields))
	for _, f := range s.Fields {
		if f.Type == TypeSecret {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Registry は種別からスキーマを引く不変の表です。
type Registry struct {
	schemas map[resource.Kind]Schema
}

// NewRegistry は重複と所有者フィールドの整合を検証して Registry を構築します。
func NewRegistry(schemas ...Schema) (*Registry, error) {
	r := &Registry{schemas: make(map[resource.Kind]Schema, len(schemas))}
	for _, s := range schemas {
		if _, dup := r.schemas[s.Kind]; dup {
			return nil, fmt.Errorf("records: duplicate schema %s", s.Kind)
		}
		if s.Table == "" {
			return nil, fmt.Errorf("records: schema %s has no table", s.Kind)
		}
		if s.Owned() && !s.OwnerIsRowID() {
			f, ok := s.Field(s.OwnerField)
			if !ok || f.Type != TypeInt {
				return nil, fmt.Errorf("records: schema %s owner field %q must be an int field", s.Kind, s.OwnerField)
			}
		}
		if s.ExclusiveActive != "" {
			f, ok := s.Field(s.ExclusiveActive)
			if !ok || f.Type != TypeBool || !s.Owned() {
				return nil, fmt.Errorf("records: schema %s exclusive flag %q must be an owned bool field", s.Kind, s.ExclusiveActive)
			}
		}
		r.schemas[s.Kind] = s
	}
	return r, nil
}

// Lookup は種別のスキーマを返します。未登録は ErrUnknownKind です。
func (r *Registry) Lookup(kind resource.Kind) (Schema, error) {
	s, ok := r.schemas[kind]
	if !ok {
		return Schema{}, ErrUnknownKind
	}
	return s, nil
}
