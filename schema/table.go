package schema

import "sort"

// Table groups columns under an on-the-wire table name. Field keys are the
// application-facing identifiers; Column.SQLName is what appears in SQL. The
// two may differ, and every layer translates between them.
type Table struct {
	SQLName string
	Columns map[string]Column
}

// NewTable creates a table from a field-key→Column map.
func NewTable(sqlName string, columns map[string]Column) *Table {
	cols := make(map[string]Column, len(columns))
	for k, c := range columns {
		cols[k] = c
	}
	return &Table{SQLName: sqlName, Columns: cols}
}

// Column returns the column registered under the given field key.
func (t *Table) Column(fieldKey string) (Column, bool) {
	c, ok := t.Columns[fieldKey]
	return c, ok
}

// PrimaryKey returns the field key and column of the table's primary key.
func (t *Table) PrimaryKey() (string, Column, bool) {
	for _, key := range t.FieldKeys() {
		if c := t.Columns[key]; c.IsPrimaryKey {
			return key, c, true
		}
	}
	return "", Column{}, false
}

// FieldKeys returns the table's field keys in sorted order for deterministic
// iteration.
func (t *Table) FieldKeys() []string {
	keys := make([]string, 0, len(t.Columns))
	for k := range t.Columns {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FieldKeyBySQLName reverse-maps an on-the-wire column name to its field key.
func (t *Table) FieldKeyBySQLName(sqlName string) (string, bool) {
	for k, c := range t.Columns {
		if c.SQLName == sqlName {
			return k, true
		}
	}
	return "", false
}
