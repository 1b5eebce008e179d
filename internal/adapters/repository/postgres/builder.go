package postgres

import (
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/ogurasousui/personnel-core/internal/core/records"
)

// 識別子はスキーマ定義からのみ取り、値は常にバインドパラメータで渡します。

func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

func selectColumns(schema records.Schema) string {
	cols := []string{ident("id")}
	for _, f := range schema.Readable() {
		cols = append(cols, ident(f.ColumnName()))
	}
	return strings.Join(cols, ", ")
}

func orderClause(schema records.Schema) string {
	dir := " ASC"
	if schema.OrderDesc {
		dir = " DESC"
	}
	order := schema.OrderBy
	if order == "" || order == "id" {
		return " ORDER BY " + ident("id") + dir
	}
	return " ORDER BY " + ident(order) + dir + ", " + ident("id") + dir
}

func buildList(schema records.Schema, q records.Query) (string, []any) {
	var (
		b    strings.Builder
		args []any
	)
	b.WriteString("SELECT ")
	b.WriteString(selectColumns(schema))
	b.WriteString(" FROM ")
	b.WriteString(ident(schema.Table))
	if q.OwnerID != nil {
		args = append(args, *q.OwnerID)
		b.WriteString(" WHERE ")
		b.WriteString(ident(schema.OwnerColumn()))
		b.WriteString(" = ")
		b.WriteString(placeholder(len(args)))
	}
	b.WriteString(orderClause(schema))
	args = append(args, q.Limit)
	b.WriteString(" LIMIT ")
	b.WriteString(placeholder(len(args)))
	args = append(args, q.Offset)
	b.WriteString(" OFFSET ")
	b.WriteString(placeholder(len(args)))
	return b.String(), args
}

func buildGet(schema records.Schema) string {
	return "SELECT " + selectColumns(schema) + " FROM " + ident(schema.Table) + " WHERE " + ident("id") + " = $1"
}

func buildOwner(schema records.Schema) string {
	col := "id"
	if schema.Owned() {
		col = schema.OwnerColumn()
	}
	return "SELECT " + ident(col) + " FROM " + ident(schema.Table) + " WHERE " + ident("id") + " = $1"
}

func buildInsert(schema records.Schema, values []records.Assignment) (string, []any) {
	cols := make([]string, 0, len(values))
	marks := make([]string, 0, len(values))
	args := make([]any, 0, len(values))
	for i, v := range values {
		cols = append(cols, ident(v.Column))
		marks = append(marks, placeholder(i+1))
		args = append(args, v.Value)
	}
	sql := "INSERT INTO " + ident(schema.Table) +
		" (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(marks, ", ") + ") RETURNING " + ident("id")
	return sql, args
}

func buildUpdate(schema records.Schema, id int64, values []records.Assignment) (string, []any) {
	sets := make([]string, 0, len(values))
	args := make([]any, 0, len(values)+1)
	for i, v := range values {
		sets = append(sets, ident(v.Column)+" = "+placeholder(i+1))
		args = append(args, v.Value)
	}
	args = append(args, id)
	sql := "UPDATE " + ident(schema.Table) + " SET " + strings.Join(sets, ", ") +
		" WHERE " + ident("id") + " = " + placeholder(len(args))
	return sql, args
}

func buildDelete(table string) string {
	return "DELETE FROM " + ident(table) + " WHERE " + ident("id") + " = $1"
}

func buildClearExclusive(schema records.Schema) string {
	flag := ident(schema.ExclusiveActive)
	return "UPDATE " + ident(schema.Table) + " SET " + flag + " = FALSE WHERE " +
		ident(schema.OwnerColumn()) + " = $1 AND " + ident("id") + " <> $2 AND " + flag
}

func buildDeleteByOwner(schema records.Schema) string {
	return "DELETE FROM " + ident(schema.Table) + " WHERE " + ident(schema.OwnerColumn()) + " = $1"
}
