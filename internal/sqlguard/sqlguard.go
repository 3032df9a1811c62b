// Package sqlguard is a lexical safety gate for generated SQL. It only ever
// accepts read queries and never rewrites the statement it was given.
//
// The gate is a denylist of substrings plus a SELECT prefix check. It does not
// parse SQL and does not look at statement separators, so "SELECT 1; SELECT 2"
// passes.
package sqlguard

import (
	"fmt"
	"strings"

	"github.com/sqlassist/sqlassist/internal/errs"
)

// Denylist is scanned in order; the first entry found in the uppercased query wins.
var Denylist = []string{
	"DROP ", "DELETE ", "TRUNCATE ", "INSERT ", "UPDATE ",
	"CREATE ", "ALTER ", "GRANT ", "REVOKE ", "EXEC ",
	"EXECUTE ", "--", "/*", "*/", "xp_", "sp_",
}

// Validated is a query that passed Validate. The zero value holds no query.
type Validated struct {
	sql string
}

func (v Validated) String() string { return v.sql }

func (v Validated) IsZero() bool { return v.sql == "" }

func Validate(sql string) (Validated, error) {
	upper := strings.ToUpper(sql)
	for _, entry := range Denylist {
		if strings.Contains(upper, strings.ToUpper(entry)) {
			return Validated{}, errs.New(errs.UnsafeQuery, fmt.Sprintf(
				"SQL query contains potentially dangerous operation: '%s'. Only SELECT queries are allowed for safety.",
				strings.TrimSpace(entry),
			))
		}
	}
	if !strings.HasPrefix(strings.TrimSpace(upper), "SELECT") {
		return Validated{}, errs.New(errs.UnsafeQuery, "Only SELECT queries are allowed. Query must start with SELECT.")
	}
	return Validated{sql: sql}, nil
}

// MustValidate is Validate for fixed queries known to be safe. It panics when
// the query is rejected.
func MustValidate(sql string) Validated {
	v, err := Validate(sql)
	if err != nil {
		panic(err)
	}
	return v
}
