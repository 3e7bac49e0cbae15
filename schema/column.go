// Package schema provides the typed data model for strata: immutable column
// descriptors, tables, lazily-resolved relations, and the registry that binds
// them together. The model is dialect-agnostic; SQL rendering lives in the
// dialect package.
package schema

import "fmt"

// Kind is the portable column type. Each dialect maps a Kind to its own
// native column type.
type Kind int

const (
	KindNumber Kind = iota
	KindString
	KindBool
	KindDate
	KindJSON
	KindJSONB
	KindUUID
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindBool:
		return "boolean"
	case KindDate:
		return "date"
	case KindJSON:
		return "json"
	case KindJSONB:
		return "jsonb"
	case KindUUID:
		return "uuid"
	default:
		return "unknown"
	}
}

// ParseKind converts a string to a Kind
func ParseKind(s string) (Kind, error) {
	switch s {
	case "number":
		return KindNumber, nil
	case "string":
		return KindString, nil
	case "boolean", "bool":
		return KindBool, nil
	case "date":
		return KindDate, nil
	case "json":
		return KindJSON, nil
	case "jsonb":
		return KindJSONB, nil
	case "uuid":
		return KindUUID, nil
	default:
		return 0, fmt.Errorf("unknown column kind: %s", s)
	}
}

// DefaultKind distinguishes the absence of a default, a literal value, and a
// database-side generator. Keeping this a tagged variant makes default
// equality well-defined during diffing without comparing executable code.
type DefaultKind int

const (
	DefaultNone DefaultKind = iota
	DefaultLiteral
	DefaultGenerator
)

// String returns the string representation of the default kind
func (d DefaultKind) String() string {
	switch d {
	case DefaultNone:
		return "none"
	case DefaultLiteral:
		return "literal"
	case DefaultGenerator:
		return "generator"
	default:
		return "unknown"
	}
}

// GeneratorID names a database-side default generator. Two generator
// defaults are equal when their IDs are equal.
type GeneratorID string

const (
	// GeneratorUUID produces a random UUID (gen_random_uuid / (UUID())).
	GeneratorUUID GeneratorID = "uuid"
	// GeneratorNow produces the current timestamp (CURRENT_TIMESTAMP).
	GeneratorNow GeneratorID = "now"
)

// DefaultSpec is the tagged default-value variant carried by a Column.
type DefaultSpec struct {
	Kind      DefaultKind
	Literal   any
	Generator GeneratorID
}

// ReferentialAction is the ON DELETE behavior of a foreign key.
type ReferentialAction int

const (
	NoAction ReferentialAction = iota
	Cascade
	Restrict
	SetNull
)

// String returns the string representation of the action
func (a ReferentialAction) String() string {
	switch a {
	case Cascade:
		return "cascade"
	case Restrict:
		return "restrict"
	case SetNull:
		return "set_null"
	default:
		return "no_action"
	}
}

// ParseReferentialAction converts a string to a ReferentialAction
func ParseReferentialAction(s string) (ReferentialAction, error) {
	switch s {
	case "cascade":
		return Cascade, nil
	case "restrict":
		return Restrict, nil
	case "set_null":
		return SetNull, nil
	case "", "no_action":
		return NoAction, nil
	default:
		return 0, fmt.Errorf("unknown referential action: %s", s)
	}
}

// ForeignKey names the table and column a column references.
type ForeignKey struct {
	Table  string
	Column string
}

// Column is an immutable column descriptor. Every builder method returns a
// new value; a Column stored in a Table never changes after registration.
//
// IsPrimaryKey semantically implies NOT NULL and UNIQUE; DDL generation must
// not emit those modifiers alongside a PRIMARY KEY clause.
type Column struct {
	SQLName      string
	Kind         Kind
	IsPrimaryKey bool
	IsNotNull    bool
	IsUnique     bool
	Default      DefaultSpec
	Ref          *ForeignKey
	OnDeleteAct  ReferentialAction
}

// Number declares a numeric column.
func Number(sqlName string) Column { return Column{SQLName: sqlName, Kind: KindNumber} }

// String declares a text column.
func String(sqlName string) Column { return Column{SQLName: sqlName, Kind: KindString} }

// Bool declares a boolean column.
func Bool(sqlName string) Column { return Column{SQLName: sqlName, Kind: KindBool} }

// Date declares a timestamp column.
func Date(sqlName string) Column { return Column{SQLName: sqlName, Kind: KindDate} }

// JSON declares a JSON text column.
func JSON(sqlName string) Column { return Column{SQLName: sqlName, Kind: KindJSON} }

// JSONB declares a binary JSON column.
func JSONB(sqlName string) Column { return Column{SQLName: sqlName, Kind: KindJSONB} }

// UUID declares a UUID column.
func UUID(sqlName string) Column { return Column{SQLName: sqlName, Kind: KindUUID} }

// PrimaryKey returns a copy of the column marked as the table's primary key.
func (c Column) PrimaryKey() Column {
	c.IsPrimaryKey = true
	return c
}

// NotNull returns a copy of the column with a NOT NULL constraint.
func (c Column) NotNull() Column {
	c.IsNotNull = true
	return c
}

// Unique returns a copy of the column with a UNIQUE constraint.
func (c Column) Unique() Column {
	c.IsUnique = true
	return c
}

// WithDefault returns a copy of the column with a literal default value.
func (c Column) WithDefault(v any) Column {
	c.Default = DefaultSpec{Kind: DefaultLiteral, Literal: v}
	return c
}

// GeneratedBy returns a copy of the column whose default is produced by a
// database-side generator.
func (c Column) GeneratedBy(g GeneratorID) Column {
	c.Default = DefaultSpec{Kind: DefaultGenerator, Generator: g}
	return c
}

// References returns a copy of the column carrying a foreign key to
// table.column.
func (c Column) References(table, column string) Column {
	c.Ref = &ForeignKey{Table: table, Column: column}
	return c
}

// OnDelete returns a copy of the column with the given ON DELETE action.
// Only meaningful together with References.
func (c Column) OnDelete(a ReferentialAction) Column {
	c.OnDeleteAct = a
	return c
}

// HasDefault returns true when the column carries a literal or generated
// default.
func (c Column) HasDefault() bool { return c.Default.Kind != DefaultNone }
