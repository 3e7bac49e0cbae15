package query

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/strata-db/strata/dialect"
	"github.com/strata-db/strata/schema"
)

// ErrNotFound is returned by FindFirst when no row matches.
var ErrNotFound = errors.New("record not found")

// DBTX is the subset of *sql.DB and *sql.Tx the executor needs, so the same
// operations run standalone or inside a caller-managed transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Executor runs serialized plans against a live connection and maps rows back
// into Records.
type Executor struct {
	db  DBTX
	reg *schema.Registry
	d   dialect.Dialect
	ser *Serializer
}

// NewExecutor builds an executor over db for the given registry and dialect.
func NewExecutor(db DBTX, reg *schema.Registry, d dialect.Dialect) *Executor {
	return &Executor{db: db, reg: reg, d: d, ser: NewSerializer(reg, d)}
}

// Serializer exposes the executor's serializer for callers that want the SQL
// without running it.
func (e *Executor) Serializer() *Serializer { return e.ser }

// FindMany runs a Select plan and returns every matching row.
func (e *Executor) FindMany(ctx context.Context, tableKey string, p Plan) ([]Record, error) {
	stmt, err := e.ser.Select(tableKey, p)
	if err != nil {
		return nil, err
	}
	rows, err := e.db.QueryContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", tableKey, err)
	}
	defer rows.Close()

	m, err := newRowMapper(e.reg, tableKey, e.d)
	if err != nil {
		return nil, err
	}
	return m.scanAll(rows)
}

// FindFirst runs a Select plan limited to one row, returning ErrNotFound when
// nothing matches.
func (e *Executor) FindFirst(ctx context.Context, tableKey string, p Plan) (Record, error) {
	one := 1
	p.Limit = &one
	records, err := e.FindMany(ctx, tableKey, p)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}
	return records[0], nil
}

// Insert writes one row and returns it as stored, database defaults included.
// On MySQL, which has no RETURNING, the row is re-read by primary key.
func (e *Executor) Insert(ctx context.Context, tableKey string, values map[string]any) (Record, error) {
	stmt, err := e.ser.Insert(tableKey, values)
	if err != nil {
		return nil, err
	}

	if e.d.SupportsReturning() {
		rows, err := e.db.QueryContext(ctx, stmt.SQL, stmt.Args...)
		if err != nil {
			return nil, fmt.Errorf("inserting into %s: %w", tableKey, err)
		}
		defer rows.Close()
		m, err := newRowMapper(e.reg, tableKey, e.d)
		if err != nil {
			return nil, err
		}
		records, err := m.scanAll(rows)
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			return nil, fmt.Errorf("inserting into %s: no row returned", tableKey)
		}
		return records[0], nil
	}

	res, err := e.db.ExecContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, fmt.Errorf("inserting into %s: %w", tableKey, err)
	}
	return e.reloadInserted(ctx, tableKey, values, res)
}

// reloadInserted re-reads a freshly inserted row on non-RETURNING dialects.
// An auto-increment id comes from LastInsertId; otherwise the caller must
// have supplied the primary key in values.
func (e *Executor) reloadInserted(ctx context.Context, tableKey string, values map[string]any, res sql.Result) (Record, error) {
	t, err := e.reg.MustTable(tableKey)
	if err != nil {
		return nil, err
	}
	pkKey, pkCol, ok := t.PrimaryKey()
	if !ok {
		// Without a primary key there is nothing unambiguous to re-read.
		return Record(values), nil
	}

	var pkValue any
	if v, supplied := values[pkKey]; supplied {
		pkValue = v
	} else if pkCol.Kind == schema.KindNumber {
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("reading inserted id for %s: %w", tableKey, err)
		}
		pkValue = id
	} else {
		return Record(values), nil
	}

	return e.FindFirst(ctx, tableKey, Plan{Where: map[string]any{pkKey: pkValue}})
}

// UpdateMany applies changes to every row matching where and returns the
// updated rows. On MySQL the matching primary keys are collected first, the
// update executed, and the rows re-read, which approximates RETURNING without
// being atomic against concurrent writers.
func (e *Executor) UpdateMany(ctx context.Context, tableKey string, where, changes map[string]any) ([]Record, error) {
	if e.d.SupportsReturning() {
		stmt, err := e.ser.Update(tableKey, where, changes)
		if err != nil {
			return nil, err
		}
		rows, err := e.db.QueryContext(ctx, stmt.SQL, stmt.Args...)
		if err != nil {
			return nil, fmt.Errorf("updating %s: %w", tableKey, err)
		}
		defer rows.Close()
		m, err := newRowMapper(e.reg, tableKey, e.d)
		if err != nil {
			return nil, err
		}
		return m.scanAll(rows)
	}

	t, err := e.reg.MustTable(tableKey)
	if err != nil {
		return nil, err
	}
	pkKey, _, ok := t.PrimaryKey()
	if !ok {
		return nil, fmt.Errorf("updating %s: table has no primary key to track updated rows", tableKey)
	}

	matched, err := e.FindMany(ctx, tableKey, Plan{Where: where})
	if err != nil {
		return nil, err
	}
	if len(matched) == 0 {
		return nil, nil
	}
	ids := make([]any, 0, len(matched))
	for _, r := range matched {
		ids = append(ids, r[pkKey])
	}

	stmt, err := e.ser.Update(tableKey, where, changes)
	if err != nil {
		return nil, err
	}
	if _, err := e.db.ExecContext(ctx, stmt.SQL, stmt.Args...); err != nil {
		return nil, fmt.Errorf("updating %s: %w", tableKey, err)
	}

	return e.FindMany(ctx, tableKey, Plan{
		Where:   map[string]any{pkKey: Ops{In: ids}},
		OrderBy: []Order{{Field: pkKey}},
	})
}

// DeleteMany removes every row matching where and returns the count removed.
func (e *Executor) DeleteMany(ctx context.Context, tableKey string, where map[string]any) (int64, error) {
	stmt, err := e.ser.Delete(tableKey, where)
	if err != nil {
		return 0, err
	}
	res, err := e.db.ExecContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return 0, fmt.Errorf("deleting from %s: %w", tableKey, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("deleting from %s: %w", tableKey, err)
	}
	return n, nil
}

// Count returns the number of rows matching where.
func (e *Executor) Count(ctx context.Context, tableKey string, where map[string]any) (int64, error) {
	t, err := e.reg.MustTable(tableKey)
	if err != nil {
		return 0, err
	}
	b := &binder{d: e.d}
	qt := e.d.QuoteIdentifier(t.SQLName)
	q := "SELECT COUNT(*) FROM " + qt

	cond, err := e.ser.whereClause(t, qt, where, b)
	if err != nil {
		return 0, err
	}
	if cond != "" {
		q += " WHERE " + cond
	}

	var n int64
	if err := e.db.QueryRowContext(ctx, q, b.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting %s: %w", tableKey, err)
	}
	return n, nil
}
