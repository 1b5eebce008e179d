package records

import (
	"bytes"
	"encoding/json"
	"time"
)

// DateLayout は日付フィールドの入出力形式です。
const DateLayout = "2006-01-02"

// Record はスキーマ順に並んだ 1 行です。秘密値は含みません。
type Record struct {
	id     int64
	names  []string
	values []any
}

// NewRecord は Record を生成します。names と values は同じ長さである必要があります。
func NewRecord(id int64, names []string, values []any) Record {
	return Record{id: id, names: names, values: values}
}

// ID は行 ID を返します。
func (r Record) ID() int64 { return r.id }

// Value は API 名で値を返します。
func (r Record) Value(name string) (any, bool) {
	if name == "id" {
		return r.id, true
	}
	for i, n := range r.names {
		if n == name {
			return r.values[i], true
		}
	}
	return nil, false
}

// Header は id を先頭にした列名です。
func (r Record) Header() []string {
	out := make([]string, 0, len(r.names)+1)
	out = append(out, "id")
	return append(out, r.names...)
}

// Cells は Header と同じ順序の値です。
func (r Record) Cells() []any {
	out := make([]any, 0, len(r.values)+1)
	out = append(out, r.id)
	return append(out, r.values...)
}

// MarshalJSON はスキーマ順を保ったオブジェクトを出力します。
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	header := r.Header()
	cells := r.Cells()
	for i, name := range header {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(jsonValue(cells[i]))
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func jsonValue(v any) any {
	switch t := v.(type) {
	case time.Time:
		return t.Format(DateLayout)
	case *time.Time:
		if t == nil {
			return nil
		}
		return t.Format(DateLayout)
	default:
		return v
	}
}
