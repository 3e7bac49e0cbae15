// Package dialect encapsulates everything that differs between SQLite,
// PostgreSQL, and MySQL: identifier quoting, value (de)serialization, LIKE
// pattern rendering, type mapping, DDL generation, and pagination. Each
// database is a strategy value implementing Dialect; nothing outside this
// package branches on a database name.
package dialect

import (
	"fmt"
	"strings"

	"github.com/strata-db/strata/schema"
	"github.com/strata-db/strata/snapshot"
	"github.com/strata-db/strata/strataerr"
)

// Name identifies a supported database.
type Name string

const (
	SQLite   Name = "sqlite"
	Postgres Name = "postgres"
	MySQL    Name = "mysql"
)

// LikeMode selects how a LIKE pattern wraps the user's value.
type LikeMode int

const (
	LikeStartsWith LikeMode = iota
	LikeEndsWith
	LikeContains
)

// Dialect is the per-database strategy. Implementations are stateless and
// safe for concurrent use.
type Dialect interface {
	// Name returns the dialect identifier.
	Name() Name
	// DriverName returns the database/sql driver to open connections with.
	DriverName() string

	// QuoteIdentifier wraps a table or column name in the dialect's
	// identifier quotes, escaping embedded quote characters.
	QuoteIdentifier(name string) string
	// Placeholder renders the n-th (1-based) bind placeholder.
	Placeholder(n int) string

	// TypeFor maps a column kind to the dialect's native column type.
	TypeFor(k schema.Kind) (string, error)
	// SerializeValue converts an application value of the given kind into
	// what the driver expects (booleans to 0/1 for SQLite, times to strings
	// where the driver wants text, JSON to encoded text).
	SerializeValue(k schema.Kind, v any) (any, error)
	// ConvertBool normalizes a boolean read back from the driver: SQLite
	// returns 0/1, the others native booleans.
	ConvertBool(raw any) (bool, error)

	// LikePattern escapes the dialect's wildcard characters in value and
	// wraps it according to mode. The result is bound as a parameter.
	LikePattern(mode LikeMode, value string) string
	// LikeEscapeClause returns the clause appended after `LIKE ?` when the
	// dialect needs an explicit ESCAPE character, or "".
	LikeEscapeClause() string

	// NoLimitToken is the LIMIT value expressing "offset without limit".
	NoLimitToken() string
	// SupportsReturning reports whether INSERT/UPDATE/DELETE accept a
	// RETURNING clause.
	SupportsReturning() bool

	// CreateTable renders a CREATE TABLE IF NOT EXISTS statement, without a
	// trailing semicolon.
	CreateTable(t snapshot.TableSnapshot) (string, error)
	// DropTable renders a DROP TABLE IF EXISTS statement.
	DropTable(t snapshot.TableSnapshot) string
	// AddColumn renders ALTER TABLE ... ADD COLUMN with any literal default
	// embedded so the statement replays without application code.
	AddColumn(table string, c snapshot.ColumnSnapshot) (string, error)
	// DropColumn renders ALTER TABLE ... DROP COLUMN.
	DropColumn(table string, c snapshot.ColumnSnapshot) string
	// AlterColumn renders an in-place column redefinition for hand-written
	// migrations. The automatic differ never produces one.
	AlterColumn(table string, c snapshot.ColumnSnapshot) (string, error)
}

// ForName returns the dialect registered under name.
func ForName(name string) (Dialect, error) {
	switch Name(strings.ToLower(name)) {
	case SQLite:
		return SQLiteDialect(), nil
	case Postgres, "postgresql":
		return PostgresDialect(), nil
	case MySQL:
		return MySQLDialect(), nil
	default:
		return nil, strataerr.NewValidation(name, "unknown dialect")
	}
}

// Infer sniffs the dialect from a connection URL prefix. This is a
// convenience default only; configuration can always name the dialect
// explicitly and overrides inference.
func Infer(url string) (Dialect, error) {
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return PostgresDialect(), nil
	case strings.HasPrefix(url, "mysql://"):
		return MySQLDialect(), nil
	case strings.HasPrefix(url, "sqlite://"), strings.HasPrefix(url, "file:"),
		strings.HasSuffix(url, ".db"), strings.HasSuffix(url, ".sqlite"):
		return SQLiteDialect(), nil
	default:
		return nil, strataerr.NewValidation(url, "cannot infer dialect from connection URL")
	}
}

// escapeLikeValue escapes backslash, percent, and underscore so user input
// matches literally inside a LIKE pattern. All three dialects use backslash
// as the escape character here.
func escapeLikeValue(value string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(value)
}

func wrapLike(mode LikeMode, escaped string) string {
	switch mode {
	case LikeStartsWith:
		return escaped + "%"
	case LikeEndsWith:
		return "%" + escaped
	default:
		return "%" + escaped + "%"
	}
}

func quoteDouble(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteBacktick(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func unsupported(d Name, kind string) error {
	return &strataerr.UnsupportedTypeError{Kind: kind, Dialect: string(d)}
}

func fmtOnDelete(action string) (string, error) {
	switch action {
	case "cascade":
		return "ON DELETE CASCADE", nil
	case "restrict":
		return "ON DELETE RESTRICT", nil
	case "set_null":
		return "ON DELETE SET NULL", nil
	case "":
		return "", nil
	default:
		return "", fmt.Errorf("unknown on-delete action: %s", action)
	}
}
