package postgres

import (
	"testing"

	"github.com/ogurasousui/personnel-core/internal/core/records"
	"github.com/ogurasousui/personnel-core/internal/core/resource"
)

func lookup(t *testing.T, kind resource.Kind) records.Schema {
	t.Helper()
	s, err := records.DefaultRegistry().Lookup(kind)
	if err != nil {
		t.Fatalf("lookup %s: %v", kind, err)
	}
	return s
}

func TestBuildList(t *testing.T) {
	t.Parallel()

	schema := lookup(t, resource.Positions)
	owner := int64(4)

	sql, args := buildList(schema, records.Query{Limit: 10, Offset: 20})
	want := `SELECT "id", "name", "grade", "level", "active" FROM "positions" ORDER BY "name" ASC, "id" ASC LIMIT $1 OFFSET $2`
	if sql != want {
		t.Fatalf("unexpected sql:\n got: %s\nwant: %s", sql, want)
	}
	if len(args) != 2 || args[0] != 10 || args[1] != 20 {
		t.Fatalf("unexpected args %v", args)
	}

	docs := lookup(t, resource.Documents)
	sql, args = buildList(docs, records.Query{OwnerID: &owner, Limit: 5})
	want = `SELECT "id", "employee_id", "document_type", "document_name", "storage_path", "description" FROM "documents" WHERE "employee_id" = $1 ORDER BY "id" DESC LIMIT $2 OFFSET $3`
	if sql != want {
		t.Fatalf("unexpected sql:\n got: %s\nwant: %s", sql, want)
	}
	if len(args) != 3 || args[0] != owner {
		t.Fatalf("unexpected args %v", args)
	}
}

func TestBuildList_EmployeesNarrowByID(t *testing.T) {
	t.Parallel()

	owner := int64(9)
	sql, _ := buildList(lookup(t, resource.Employees), records.Query{OwnerID: &owner, Limit: 1})
	want := `SELECT "id", "account_id", "given_names", "paternal_surname", "maternal_surname", "birth_date", "gender", "hire_date", "active" FROM "employees" WHERE "id" = $1 ORDER BY "paternal_surname" ASC, "id" ASC LIMIT $2 OFFSET $3`
	if sql != want {
		t.Fatalf("unexpected sql:\n got: %s\nwant: %s", sql, want)
	}
}

func TestBuildWrites(t *testing.T) {
	t.Parallel()

	schema := lookup(t, resource.Accounts)
	values := []records.Assignment{
		{Column: "email", Value: "a@b.cl"},
		{Column: "password_hash", Value: "x"},
	}

	sql, args := buildInsert(schema, values)
	if sql != `INSERT INTO "accounts" ("email", "password_hash") VALUES ($1, $2) RETURNING "id"` {
		t.Fatalf("unexpected insert %s", sql)
	}
	if len(args) != 2 {
		t.Fatalf("unexpected args %v", args)
	}

	sql, args = buildUpdate(schema, 3, values)
	if sql != `UPDATE "accounts" SET "email" = $1, "password_hash" = $2 WHERE "id" = $3` {
		t.Fatalf("unexpected update %s", sql)
	}
	if args[2] != int64(3) {
		t.Fatalf("expected id as last arg, got %v", args)
	}

	if got := buildGet(schema); got != `SELECT "id", "external_id", "email", "role", "active" FROM "accounts" WHERE "id" = $1` {
		t.Fatalf("secret column leaked into select: %s", got)
	}
}

func TestBuildClearExclusive(t *testing.T) {
	t.Parallel()

	got := buildClearExclusive(lookup(t, resource.PositionHistory))
	want := `UPDATE "position_history" SET "active" = FALSE WHERE "employee_id" = $1 AND "id" <> $2 AND "active"`
	if got != want {
		t.Fatalf("unexpected sql %s", got)
	}
}

func TestIdentQuotesHostileNames(t *testing.T) {
	t.Parallel()

	if got := ident(`x"; DROP TABLE accounts; --`); got != `"x""; DROP TABLE accounts; --"` {
		t.Fatalf("identifier not quoted: %s", got)
	}
}
