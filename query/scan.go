package query

import (
	"database/sql"
	"strings"

	"github.com/strata-db/strata/dialect"
	"github.com/strata-db/strata/schema"
)

// Record is a row keyed by field keys. Included relations appear as nested
// Records under their relation key.
type Record = map[string]any

// rowMapper translates driver column names back into field keys and
// normalizes driver values per column kind.
type rowMapper struct {
	d    dialect.Dialect
	base *schema.Table
	rels map[string]schema.Relation
}

func newRowMapper(reg *schema.Registry, tableKey string, d dialect.Dialect) (*rowMapper, error) {
	t, err := reg.MustTable(tableKey)
	if err != nil {
		return nil, err
	}
	return &rowMapper{d: d, base: t, rels: reg.Relations(tableKey)}, nil
}

// scanAll drains rows into Records. Join columns arrive aliased as
// "<relKey>__<fieldKey>" and are folded into a nested Record; a nested
// Record whose columns are all NULL (an unmatched LEFT JOIN) becomes nil.
func (m *rowMapper) scanAll(rows *sql.Rows) ([]Record, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var results []Record
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		record, err := m.mapRow(columns, values)
		if err != nil {
			return nil, err
		}
		results = append(results, record)
	}
	return results, rows.Err()
}

func (m *rowMapper) mapRow(columns []string, values []any) (Record, error) {
	record := make(Record)
	nested := make(map[string]Record)
	nestedNonNull := make(map[string]bool)

	for i, name := range columns {
		// A "__" in the name is only a join alias when the prefix names a
		// relation and the suffix one of its columns; base columns may
		// legally contain "__" themselves.
		if relKey, sub, ok := splitAlias(name); ok {
			if col, match := m.relColumn(relKey, sub); match {
				v, err := m.normalize(col, values[i])
				if err != nil {
					return nil, err
				}
				if nested[relKey] == nil {
					nested[relKey] = make(Record)
				}
				nested[relKey][sub] = v
				if v != nil {
					nestedNonNull[relKey] = true
				}
				continue
			}
		}

		fieldKey, found := m.base.FieldKeyBySQLName(name)
		if !found {
			// Columns outside the schema pass through under their raw name.
			record[name] = values[i]
			continue
		}
		v, err := m.normalize(m.base.Columns[fieldKey], values[i])
		if err != nil {
			return nil, err
		}
		record[fieldKey] = v
	}

	for relKey, sub := range nested {
		if nestedNonNull[relKey] {
			record[relKey] = sub
		} else {
			record[relKey] = nil
		}
	}
	return record, nil
}

func (m *rowMapper) relColumn(relKey, fieldKey string) (schema.Column, bool) {
	rel, found := m.rels[relKey]
	if !found {
		return schema.Column{}, false
	}
	return rel.Target().Column(fieldKey)
}

// normalize converts driver representations back to application values:
// booleans from 0/1, text kinds from []byte.
func (m *rowMapper) normalize(col schema.Column, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch col.Kind {
	case schema.KindBool:
		return m.d.ConvertBool(v)
	case schema.KindString, schema.KindDate, schema.KindJSON, schema.KindJSONB, schema.KindUUID:
		if b, ok := v.([]byte); ok {
			return string(b), nil
		}
		return v, nil
	default:
		return v, nil
	}
}

func splitAlias(name string) (relKey, fieldKey string, ok bool) {
	i := strings.Index(name, "__")
	if i <= 0 || i+2 >= len(name) {
		return "", "", false
	}
	return name[:i], name[i+2:], true
}
