package migrate

import (
	"context"
	"fmt"
	"time"

	"github.com/strata-db/strata/dialect"
	"github.com/strata-db/strata/schema"
	"github.com/strata-db/strata/snapshot"
)

// StateTableName is the table TableState keeps its records in.
const StateTableName = "strata_migrations"

// TableState keeps applied-migration records in a database table, the
// conventional choice when the database itself is the source of truth for
// what has run against it.
type TableState struct {
	db Execer
	d  dialect.Dialect
}

// NewTableState creates a table-backed state on db.
func NewTableState(db Execer, d dialect.Dialect) *TableState {
	return &TableState{db: db, d: d}
}

// stateTable is the snapshot definition of the state table, rendered through
// the same DDL path migrations use.
func stateTable() snapshot.TableSnapshot {
	return snapshot.TableSnapshot{
		Name: StateTableName,
		Columns: map[string]snapshot.ColumnSnapshot{
			"version":   {SQLName: "version", Kind: schema.KindString.String(), PrimaryKey: true},
			"name":      {SQLName: "name", Kind: schema.KindString.String(), NotNull: true},
			"appliedAt": {SQLName: "applied_at", Kind: schema.KindDate.String(), NotNull: true},
		},
	}
}

// Init creates the state table when absent.
func (s *TableState) Init(ctx context.Context) error {
	ddl, err := s.d.CreateTable(stateTable())
	if err != nil {
		return fmt.Errorf("rendering state table: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("creating state table: %w", err)
	}
	return nil
}

// Applied returns every record in version order.
func (s *TableState) Applied(ctx context.Context) ([]Record, error) {
	q := fmt.Sprintf("SELECT %s, %s, %s FROM %s ORDER BY %s ASC",
		s.d.QuoteIdentifier("version"),
		s.d.QuoteIdentifier("name"),
		s.d.QuoteIdentifier("applied_at"),
		s.d.QuoteIdentifier(StateTableName),
		s.d.QuoteIdentifier("version"))

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("reading state table: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var appliedAt any
		if err := rows.Scan(&r.Version, &r.Name, &appliedAt); err != nil {
			return nil, fmt.Errorf("scanning state record: %w", err)
		}
		r.AppliedAt = parseAppliedAt(appliedAt)
		records = append(records, r)
	}
	return records, rows.Err()
}

// MarkApplied inserts a record.
func (s *TableState) MarkApplied(ctx context.Context, r Record) error {
	appliedAt, err := s.d.SerializeValue(schema.KindDate, r.AppliedAt)
	if err != nil {
		return fmt.Errorf("serializing applied_at: %w", err)
	}
	q := fmt.Sprintf("INSERT INTO %s (%s, %s, %s) VALUES (%s, %s, %s)",
		s.d.QuoteIdentifier(StateTableName),
		s.d.QuoteIdentifier("version"),
		s.d.QuoteIdentifier("name"),
		s.d.QuoteIdentifier("applied_at"),
		s.d.Placeholder(1), s.d.Placeholder(2), s.d.Placeholder(3))
	if _, err := s.db.ExecContext(ctx, q, r.Version, r.Name, appliedAt); err != nil {
		return fmt.Errorf("recording migration %s: %w", r.Version, err)
	}
	return nil
}

// Remove deletes the record for version.
func (s *TableState) Remove(ctx context.Context, version string) error {
	q := fmt.Sprintf("DELETE FROM %s WHERE %s = %s",
		s.d.QuoteIdentifier(StateTableName),
		s.d.QuoteIdentifier("version"),
		s.d.Placeholder(1))
	res, err := s.db.ExecContext(ctx, q, version)
	if err != nil {
		return fmt.Errorf("removing migration record %s: %w", version, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("migration %s not recorded as applied", version)
	}
	return nil
}

// parseAppliedAt accepts whatever shape the driver returns for the timestamp
// column. An unparseable value degrades to the zero time rather than failing
// a status listing.
func parseAppliedAt(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case []byte:
		return parseTimeText(string(t))
	case string:
		return parseTimeText(t)
	default:
		return time.Time{}
	}
}

func parseTimeText(s string) time.Time {
	for _, layout := range []string{
		time.RFC3339Nano,
		"2006-01-02 15:04:05.999999-07",
		"2006-01-02 15:04:05.999999",
		"2006-01-02 15:04:05",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
