package records

import (
	"encoding/json"
	"math"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ogurasousui/personnel-core/internal/core/fault"
)

// Hasher は秘密値をハッシュ化します。
type Hasher interface {
	Hash(secret string) (string, error)
}

// Assignment は 1 カラムへの代入です。
type Assignment struct {
	Column string
	Value  any
}

// fieldValues は検証済みの入力値を API 名で保持します。
type fieldValues map[string]any

func (s Schema) coerce(input map[string]any, hasher Hasher) (fieldValues, error) {
	out := make(fieldValues, len(input))

	names := make([]string, 0, len(input))
	for name := range input {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		f, ok := s.Field(name)
		if !ok {
			return nil, fault.Newf(fault.BadRequest, "unknown field %q for %s", name, s.Kind)
		}
		v, err := coerceValue(f, input[name], hasher)
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}

func coerceValue(f Field, raw any, hasher Hasher) (any, error) {
	if raw == nil {
		if f.Required || f.Type == TypeSecret {
			return nil, fault.Newf(fault.BadRequest, "field %q cannot be null", f.Name)
		}
		return nil, nil
	}

	switch f.Type {
	case TypeText:
		s, ok := raw.(string)
		if !ok {
			return nil, invalid(f, "expected text")
		}
		s = strings.TrimSpace(s)
		if s == "" && f.Required {
			return nil, fault.Newf(fault.BadRequest, "field %q is required", f.Name)
		}
		return s, nil
	case TypeEnum:
		s, ok := raw.(string)
		if !ok || !slices.Contains(f.Enum, s) {
			return nil, invalid(f, "expected one of "+strings.Join(f.Enum, ", "))
		}
		return s, nil
	case TypeDate:
		return coerceDate(f, raw)
	case TypeInt:
		return coerceInt(f, raw)
	case TypeDecimal:
		return coerceDecimal(f, raw)
	case TypeBool:
		return coerceBool(f, raw)
	case TypeSecret:
		s, ok := raw.(string)
		if !ok || s == "" {
			return nil, invalid(f, "expected non-empty text")
		}
		if hasher == nil {
			return nil, fault.New(fault.Internal, "no secret hasher configured")
		}
		hashed, err := hasher.Hash(s)
		if err != nil {
			return nil, fault.Wrap(fault.Internal, err, "hash secret")
		}
		return hashed, nil
	default:
		return nil, invalid(f, "unsupported type")
	}
}

func coerceDate(f Field, raw any) (any, error) {
	switch v := raw.(type) {
	case time.Time:
		return v.UTC().Truncate(24 * time.Hour), nil
	case string:
		t, err := time.Parse(DateLayout, strings.TrimSpace(v))
		if err != nil {
			return nil, invalid(f, "expected date YYYY-MM-DD")
		}
		return t, nil
	default:
		return nil, invalid(f, "expected date YYYY-MM-DD")
	}
}

func coerceInt(f Field, raw any) (any, error) {
	switch v := raw.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return nil, invalid(f, "expected integer")
		}
		return int64(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return nil, invalid(f, "expected integer")
		}
		return n, nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, invalid(f, "expected integer")
		}
		return n, nil
	default:
		return nil, invalid(f, "expected integer")
	}
}

func coerceDecimal(f Field, raw any) (any, error) {
	switch v := raw.(type) {
	case decimal.Decimal:
		return v, nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		if err != nil {
			return nil, invalid(f, "expected number")
		}
		return d, nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return nil, invalid(f, "expected number")
		}
		return d, nil
	default:
		return nil, invalid(f, "expected number")
	}
}

func coerceBool(f Field, raw any) (any, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return nil, invalid(f, "expected boolean")
		}
		return b, nil
	case float64:
		if v == 0 || v == 1 {
			return v == 1, nil
		}
	}
	return nil, invalid(f, "expected boolean")
}

func invalid(f Field, msg string) error {
	return fault.Newf(fault.BadRequest, "field %q: %s", f.Name, msg)
}

// assignments はスキーマ順にカラム代入へ変換します。
func (s Schema) assignments(values fieldValues) []Assignment {
	out := make([]Assignment, 0, len(values))
	for _, f := range s.Fields {
		v, ok := values[f.Name]
		if !ok {
			continue
		}
		out = append(out, Assignment{Column: f.ColumnName(), Value: v})
	}
	return out
}

func (s Schema) applyDefaults(values fieldValues) {
	for _, f := range s.Fields {
		if _, ok := values[f.Name]; ok || f.Default == nil {
			continue
		}
		values[f.Name] = f.Default
	}
}

func (s Schema) missingRequired(values fieldValues) []string {
	var missing []string
	for _, f := range s.Fields {
		if !f.Required {
			continue
		}
		if v, ok := values[f.Name]; !ok || v == nil {
			missing = append(missing, f.Name)
		}
	}
	return missing
}
