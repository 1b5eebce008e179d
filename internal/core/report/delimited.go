package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	delimiter = ','
	dateOnly  = "2006-01-02"
)

// Row は出力対象の 1 行です。全行で Header は同一である前提です。
type Row interface {
	Header() []string
	Cells() []any
}

// ToDelimitedText はヘッダー行と各行をカンマ区切りで出力します。
// 空入力はヘッダーも含めて空文字列を返します。行末の改行は付けません。
func ToDelimitedText[R Row](rows []R) string {
	if len(rows) == 0 {
		return ""
	}

	var b strings.Builder
	writeLine(&b, stringCells(rows[0].Header()))
	for _, r := range rows {
		b.WriteByte('\n')
		writeLine(&b, r.Cells())
	}
	return b.String()
}

func stringCells(header []string) []any {
	out := make([]any, len(header))
	for i, h := range header {
		out[i] = h
	}
	return out
}

func writeLine(b *strings.Builder, cells []any) {
	for i, c := range cells {
		if i > 0 {
			b.WriteByte(delimiter)
		}
		b.WriteString(escape(format(c)))
	}
}

func escape(s string) string {
	if !strings.ContainsAny(s, ",\"\r\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func format(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case *string:
		if t == nil {
			return ""
		}
		return *t
	case time.Time:
		return t.Format(dateOnly)
	case *time.Time:
		if t == nil {
			return ""
		}
		return t.Format(dateOnly)
	case decimal.Decimal:
		return t.String()
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	case *int64:
		if t == nil {
			return ""
		}
		return strconv.FormatInt(*t, 10)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
