package sqlguard

import (
	"strings"
	"testing"

	"github.com/sqlassist/sqlassist/internal/errs"
)

func TestValidateAcceptsSelect(t *testing.T) {
	queries := []string{
		"SELECT * FROM main.supply_chain.orders LIMIT 10",
		"  select product, SUM(qty) from t group by product",
		"\n\tSELECT 1",
		"SELECT updated_at FROM t",
		"SELECT 1; SELECT 2",
	}
	for _, q := range queries {
		v, err := Validate(q)
		if err != nil {
			t.Fatalf("Validate(%q) error = %v", q, err)
		}
		if v.String() != q {
			t.Fatalf("Validate(%q).String() = %q, want input unchanged", q, v.String())
		}
	}
}

func TestValidateRejectsDeniedTokens(t *testing.T) {
	cases := []struct {
		sql   string
		token string
	}{
		{"DROP TABLE orders", "DROP"},
		{"select * from t; delete from t", "DELETE"},
		{"SELECT * FROM t -- comment", "--"},
		{"SELECT /* hint */ 1", "/*"},
		{"SELECT 1 */", "*/"},
		{"SELECT * FROM t WHERE name = 'x'; exec xp_cmdshell 'dir'", "EXEC"},
		{"SELECT xp_cmdshell('dir')", "xp_"},
		{"SELECT SP_WHO()", "sp_"},
		{"UPDATE t SET a = 1", "UPDATE"},
		{"WITH x AS (SELECT 1) INSERT INTO t SELECT * FROM x", "INSERT"},
		{"TRUNCATE TABLE orders", "TRUNCATE"},
		{"SELECT 1; CREATE TABLE t (a INT)", "CREATE"},
		{"ALTER TABLE orders ADD COLUMN a INT", "ALTER"},
		{"GRANT SELECT ON t TO public", "GRANT"},
		{"REVOKE SELECT ON t FROM public", "REVOKE"},
		{"SELECT 1; EXECUTE proc", "EXECUTE"},
	}
	for _, tc := range cases {
		_, err := Validate(tc.sql)
		if err == nil {
			t.Fatalf("Validate(%q) expected error", tc.sql)
		}
		if !errs.IsKind(err, errs.UnsafeQuery) {
			t.Fatalf("Validate(%q) kind = %q", tc.sql, errs.KindOf(err))
		}
		want := "'" + tc.token + "'"
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("Validate(%q) error = %q, want token %s", tc.sql, err, want)
		}
	}
}

func TestValidateRejectsEveryDenylistEntry(t *testing.T) {
	for _, entry := range Denylist {
		for _, query := range []string{
			"SELECT a FROM t WHERE b = '" + entry + "x'",
			"select a from t where b = '" + strings.ToLower(entry) + "x'",
		} {
			_, err := Validate(query)
			if !errs.IsKind(err, errs.UnsafeQuery) {
				t.Fatalf("Validate(%q) error = %v, want unsafe query", query, err)
			}
			want := "'" + strings.TrimSpace(entry) + "'"
			if !strings.Contains(err.Error(), want) {
				t.Fatalf("Validate(%q) error = %q, want token %s", query, err, want)
			}
		}
	}
}

func TestValidateReportsFirstDenylistEntry(t *testing.T) {
	_, err := Validate("DELETE FROM t; DROP TABLE t")
	if err == nil || !strings.Contains(err.Error(), "'DROP'") {
		t.Fatalf("Validate() error = %v, want DROP reported first", err)
	}
}

func TestValidateRequiresSelectPrefix(t *testing.T) {
	for _, q := range []string{"SHOW TABLES", "WITH x AS (SELECT 1) SELECT * FROM x", ""} {
		_, err := Validate(q)
		if err == nil {
			t.Fatalf("Validate(%q) expected error", q)
		}
		if !strings.Contains(err.Error(), "Query must start with SELECT") {
			t.Fatalf("Validate(%q) error = %q", q, err)
		}
	}
}

func TestValidateIsIdempotent(t *testing.T) {
	v, err := Validate("SELECT a FROM t")
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	again, err := Validate(v.String())
	if err != nil {
		t.Fatalf("Validate(again) error = %v", err)
	}
	if again != v {
		t.Fatalf("Validate(again) = %q, want %q", again, v)
	}
}

func TestZeroValidated(t *testing.T) {
	var v Validated
	if !v.IsZero() {
		t.Fatal("IsZero() = false for zero value")
	}
	if MustValidate("SELECT 1").IsZero() {
		t.Fatal("IsZero() = true for validated query")
	}
}
