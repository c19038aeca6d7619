package db

import (
	"database/sql/driver"
	"strings"

	"modernc.org/sqlite"
)

// FoldFunc is the SQLite scalar function registered by this package. SQLite's
// built-in LOWER() only folds ASCII, so "MÜNCHEN" would never match
// "münchen".
const FoldFunc = "casefold"

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(FoldFunc, 1, foldValue)
}

// Fold lower-cases s the same way the casefold SQL function does.
func Fold(s string) string {
	return strings.ToLower(s)
}

func foldValue(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return Fold(v), nil
	case []byte:
		return Fold(string(v)), nil
	default:
		return v, nil
	}
}

// FoldExpr wraps a column expression in the case-folding function of the
// given database/sql driver. Postgres LOWER() is Unicode-aware already.
func FoldExpr(sqlDriverName, expr string) string {
	if sqlDriverName == "sqlite" {
		return FoldFunc + "(" + expr + ")"
	}
	return "LOWER(" + expr + ")"
}
