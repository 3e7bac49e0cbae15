package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/strata-db/strata/strataerr"
)

// Insert renders an INSERT for the given field-key→value map. On dialects
// with RETURNING support the statement yields the full inserted row,
// database-generated defaults included.
func (s *Serializer) Insert(tableKey string, values map[string]any) (Statement, error) {
	t, err := s.reg.MustTable(tableKey)
	if err != nil {
		return Statement{}, strataerr.NewValidation(tableKey, "unknown table key")
	}
	if len(values) == 0 {
		return Statement{}, strataerr.NewValidation(tableKey, "insert with no values")
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	b := &binder{d: s.d}
	names := make([]string, 0, len(keys))
	phs := make([]string, 0, len(keys))
	for _, key := range keys {
		col, ok := t.Column(key)
		if !ok {
			return Statement{}, strataerr.NewValidation(key, "unknown column key in insert")
		}
		sv, err := s.d.SerializeValue(col.Kind, values[key])
		if err != nil {
			return Statement{}, err
		}
		names = append(names, s.d.QuoteIdentifier(col.SQLName))
		phs = append(phs, b.add(sv))
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		s.d.QuoteIdentifier(t.SQLName), strings.Join(names, ", "), strings.Join(phs, ", "))
	if s.d.SupportsReturning() {
		sql += " RETURNING " + s.returningList(tableKey)
	}
	return Statement{SQL: sql, Args: b.args}, nil
}

// Update renders an UPDATE applying changes to every row matching where.
func (s *Serializer) Update(tableKey string, where, changes map[string]any) (Statement, error) {
	t, err := s.reg.MustTable(tableKey)
	if err != nil {
		return Statement{}, strataerr.NewValidation(tableKey, "unknown table key")
	}
	if len(changes) == 0 {
		return Statement{}, strataerr.NewValidation(tableKey, "update with no changes")
	}

	keys := make([]string, 0, len(changes))
	for k := range changes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	b := &binder{d: s.d}
	sets := make([]string, 0, len(keys))
	for _, key := range keys {
		col, ok := t.Column(key)
		if !ok {
			return Statement{}, strataerr.NewValidation(key, "unknown column key in update")
		}
		sv, err := s.d.SerializeValue(col.Kind, changes[key])
		if err != nil {
			return Statement{}, err
		}
		sets = append(sets, fmt.Sprintf("%s = %s", s.d.QuoteIdentifier(col.SQLName), b.add(sv)))
	}

	qt := s.d.QuoteIdentifier(t.SQLName)
	sql := fmt.Sprintf("UPDATE %s SET %s", qt, strings.Join(sets, ", "))

	cond, err := s.whereClause(t, qt, where, b)
	if err != nil {
		return Statement{}, err
	}
	if cond != "" {
		sql += " WHERE " + cond
	}
	if s.d.SupportsReturning() {
		sql += " RETURNING " + s.returningList(tableKey)
	}
	return Statement{SQL: sql, Args: b.args}, nil
}

// Delete renders a DELETE for every row matching where. An empty where
// deletes the whole table; callers gate that themselves.
func (s *Serializer) Delete(tableKey string, where map[string]any) (Statement, error) {
	t, err := s.reg.MustTable(tableKey)
	if err != nil {
		return Statement{}, strataerr.NewValidation(tableKey, "unknown table key")
	}

	b := &binder{d: s.d}
	qt := s.d.QuoteIdentifier(t.SQLName)
	sql := "DELETE FROM " + qt

	cond, err := s.whereClause(t, qt, where, b)
	if err != nil {
		return Statement{}, err
	}
	if cond != "" {
		sql += " WHERE " + cond
	}
	return Statement{SQL: sql, Args: b.args}, nil
}

// returningList renders every column of the table for a RETURNING clause, in
// field-key order to match the scanner's expectations.
func (s *Serializer) returningList(tableKey string) string {
	t, _ := s.reg.Table(tableKey)
	names := make([]string, 0, len(t.Columns))
	for _, key := range t.FieldKeys() {
		names = append(names, s.d.QuoteIdentifier(t.Columns[key].SQLName))
	}
	return strings.Join(names, ", ")
}
