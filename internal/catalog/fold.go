package catalog

import (
	"database/sql/driver"
	"fmt"

	"golang.org/x/text/cases"
	"modernc.org/sqlite"
)

// foldFunc is the SQL name of the Unicode case-folding function. SQLite's
// built-in LOWER only folds ASCII.
const foldFunc = "casefold"

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(foldFunc, 1, sqlFold)
}

// fold returns the caseless form of s used for title matching on both sides
// of a comparison.
func fold(s string) string {
	// Casers are stateful and must not be shared between goroutines.
	return cases.Fold().String(s)
}

func sqlFold(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return fold(v), nil
	case []byte:
		return fold(string(v)), nil
	default:
		return nil, fmt.Errorf("%s: unsupported argument type %T", foldFunc, v)
	}
}
