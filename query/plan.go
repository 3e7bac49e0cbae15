// Package query turns structured requests into dialect-correct parameterized
// SQL and executes them. A Plan is pure data; the Serializer resolves field
// keys through the schema registry and renders SQL through the dialect
// strategy, so the same Plan works against SQLite, PostgreSQL, and MySQL.
package query

// Plan is a structured query request. Where maps field keys to either a
// literal (implicit equality) or an Ops value; Include maps relation keys to
// true for join expansion.
type Plan struct {
	Where   map[string]any
	Include map[string]bool
	OrderBy []Order
	Limit   *int
	Offset  *int
}

// Order is one ORDER BY term.
type Order struct {
	Field string
	Desc  bool
}

// Ops is the operator object form of a where entry. Every set field emits
// one SQL fragment; multiple set fields on the same column compose with AND.
// IsNull is a tri-state convenience: true emits IS NULL, false IS NOT NULL,
// nil nothing.
type Ops struct {
	Equals     any
	Not        any
	Gt         any
	Gte        any
	Lt         any
	Lte        any
	In         []any
	NotIn      []any
	StartsWith *string
	EndsWith   *string
	Contains   *string
	IsNull     *bool
}

// Limit returns a Plan limit pointer for literal ints.
func Limit(n int) *int { return &n }

// Offset returns a Plan offset pointer for literal ints.
func Offset(n int) *int { return &n }

// Str returns a string pointer for Ops pattern fields.
func Str(s string) *string { return &s }

// NullFlag returns a bool pointer for Ops.IsNull.
func NullFlag(b bool) *bool { return &b }
