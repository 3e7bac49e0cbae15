// Package introspect reads live column metadata back out of a database and
// compares it against an expected snapshot. Table names are validated as
// strict SQL identifiers before any query is built; metadata catalogs cannot
// parameterize every position a name appears in, so nothing unchecked is ever
// interpolated.
package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/strata-db/strata/dialect"
	"github.com/strata-db/strata/schema"
	"github.com/strata-db/strata/snapshot"
	"github.com/strata-db/strata/strataerr"
)

// Querier is the read-only database surface the inspector needs.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Inspector reads live schema metadata for one dialect.
type Inspector struct {
	db Querier
	d  dialect.Dialect
}

// New creates an inspector over db.
func New(db Querier, d dialect.Dialect) *Inspector {
	return &Inspector{db: db, d: d}
}

// Columns returns the live column names of table, sorted. The table name
// must be a plain identifier; anything else is rejected before a query is
// constructed.
func (i *Inspector) Columns(ctx context.Context, table string) ([]string, error) {
	if !schema.ValidIdentifier(table) {
		return nil, strataerr.NewValidation(table, "not a valid SQL identifier")
	}

	query, args := i.columnsQuery(table)
	rows, err := i.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("introspecting %s: %w", table, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("introspecting %s: %w", table, err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("introspecting %s: %w", table, err)
	}
	sort.Strings(names)
	return names, nil
}

// TableExists reports whether the table has at least one column in the
// catalog.
func (i *Inspector) TableExists(ctx context.Context, table string) (bool, error) {
	names, err := i.Columns(ctx, table)
	if err != nil {
		return false, err
	}
	return len(names) > 0, nil
}

// columnsQuery builds the per-dialect catalog query. The validated table
// name is still passed as a bind parameter everywhere the catalog accepts
// one.
func (i *Inspector) columnsQuery(table string) (string, []any) {
	switch i.d.Name() {
	case dialect.SQLite:
		return "SELECT name FROM pragma_table_info(" + i.d.Placeholder(1) + ")", []any{table}
	case dialect.Postgres:
		return "SELECT column_name FROM information_schema.columns " +
			"WHERE table_schema = current_schema() AND table_name = " + i.d.Placeholder(1) +
			" ORDER BY ordinal_position", []any{table}
	default:
		return "SELECT column_name FROM information_schema.columns " +
			"WHERE table_schema = DATABASE() AND table_name = " + i.d.Placeholder(1) +
			" ORDER BY ordinal_position", []any{table}
	}
}

// Drift is the difference between an expected table definition and the live
// database: Missing columns exist in the definition but not the database,
// Unexpected the reverse.
type Drift struct {
	Table      string
	Missing    []string
	Unexpected []string
}

// Clean reports whether the live table matches the expected definition.
func (d Drift) Clean() bool { return len(d.Missing) == 0 && len(d.Unexpected) == 0 }

// CheckDrift compares a snapshot table against the live database by column
// name. Attribute-level drift (a type changed underneath us) is out of reach
// of a portable catalog query and not reported.
func (i *Inspector) CheckDrift(ctx context.Context, expected snapshot.TableSnapshot) (Drift, error) {
	live, err := i.Columns(ctx, expected.Name)
	if err != nil {
		return Drift{}, err
	}
	liveSet := make(map[string]bool, len(live))
	for _, name := range live {
		liveSet[name] = true
	}

	drift := Drift{Table: expected.Name}
	expectedSet := make(map[string]bool, len(expected.Columns))
	for _, c := range expected.Columns {
		expectedSet[c.SQLName] = true
		if !liveSet[c.SQLName] {
			drift.Missing = append(drift.Missing, c.SQLName)
		}
	}
	for _, name := range live {
		if !expectedSet[name] {
			drift.Unexpected = append(drift.Unexpected, name)
		}
	}
	sort.Strings(drift.Missing)
	sort.Strings(drift.Unexpected)
	return drift, nil
}
