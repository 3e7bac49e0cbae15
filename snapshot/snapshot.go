// Package snapshot captures a fully-resolved, serializable description of a
// schema at a point in time and diffs two such captures into an ordered list
// of migration operations. Snapshots are pure data: lazy relation accessors
// are resolved to concrete table/column names before serialization.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/strata-db/strata/schema"
)

// Snapshot describes every table of a schema for one dialect.
type Snapshot struct {
	Dialect string                   `json:"dialect"`
	Tables  map[string]TableSnapshot `json:"tables"`
}

// TableSnapshot describes one table. The map key is the column's field key;
// diffing matches columns by SQLName, not field key.
type TableSnapshot struct {
	Name    string                    `json:"name"`
	Columns map[string]ColumnSnapshot `json:"columns"`
}

// ColumnSnapshot mirrors schema.Column with relations resolved to names.
type ColumnSnapshot struct {
	SQLName          string `json:"sqlName"`
	Kind             string `json:"kind"`
	PrimaryKey       bool   `json:"primaryKey,omitempty"`
	NotNull          bool   `json:"notNull,omitempty"`
	Unique           bool   `json:"unique,omitempty"`
	HasDefault       bool   `json:"hasDefault,omitempty"`
	DefaultKind      string `json:"defaultKind,omitempty"`
	DefaultValue     any    `json:"defaultValue,omitempty"`
	Generator        string `json:"generator,omitempty"`
	ReferencesTable  string `json:"referencesTable,omitempty"`
	ReferencesColumn string `json:"referencesColumn,omitempty"`
	OnDelete         string `json:"onDelete,omitempty"`
}

// Empty returns a snapshot with no tables, the diff baseline for a project's
// first migration.
func Empty(dialect string) *Snapshot {
	return &Snapshot{Dialect: dialect, Tables: make(map[string]TableSnapshot)}
}

// Take captures the registry's current schema. One-relations are resolved
// through their lazy accessors and folded into the owning foreign key
// column's ReferencesTable/ReferencesColumn.
func Take(reg *schema.Registry, dialect string) (*Snapshot, error) {
	snap := Empty(dialect)

	for _, tableKey := range reg.TableKeys() {
		t, _ := reg.Table(tableKey)
		ts, err := TableOf(t, reg.Relations(tableKey))
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", tableKey, err)
		}
		snap.Tables[tableKey] = ts
	}

	return snap, nil
}

// TableOf converts a live table plus its relation map into a TableSnapshot.
func TableOf(t *schema.Table, relations map[string]schema.Relation) (TableSnapshot, error) {
	ts := TableSnapshot{Name: t.SQLName, Columns: make(map[string]ColumnSnapshot, len(t.Columns))}

	for key, col := range t.Columns {
		ts.Columns[key] = columnOf(col)
	}

	for relKey, rel := range relations {
		if rel.Kind != schema.RelationOne {
			continue
		}
		cs, ok := ts.Columns[rel.ForeignKey]
		if !ok {
			return TableSnapshot{}, fmt.Errorf("relation %s: foreign key column %s not found", relKey, rel.ForeignKey)
		}
		target := rel.Target()
		if target == nil {
			return TableSnapshot{}, fmt.Errorf("relation %s: target table did not resolve", relKey)
		}
		_, pk, ok := target.PrimaryKey()
		if !ok {
			return TableSnapshot{}, fmt.Errorf("relation %s: target table %s has no primary key", relKey, target.SQLName)
		}
		cs.ReferencesTable = target.SQLName
		cs.ReferencesColumn = pk.SQLName
		ts.Columns[rel.ForeignKey] = cs
	}

	return ts, nil
}

func columnOf(c schema.Column) ColumnSnapshot {
	cs := ColumnSnapshot{
		SQLName:    c.SQLName,
		Kind:       c.Kind.String(),
		PrimaryKey: c.IsPrimaryKey,
		NotNull:    c.IsNotNull,
		Unique:     c.IsUnique,
		HasDefault: c.HasDefault(),
	}
	switch c.Default.Kind {
	case schema.DefaultLiteral:
		cs.DefaultKind = "literal"
		cs.DefaultValue = c.Default.Literal
	case schema.DefaultGenerator:
		cs.DefaultKind = "generator"
		cs.Generator = string(c.Default.Generator)
	}
	if c.Ref != nil {
		cs.ReferencesTable = c.Ref.Table
		cs.ReferencesColumn = c.Ref.Column
	}
	if c.OnDeleteAct != schema.NoAction {
		cs.OnDelete = c.OnDeleteAct.String()
	}
	return cs
}

// WriteFile serializes the snapshot as indented JSON.
func (s *Snapshot) WriteFile(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

// ReadFile loads a snapshot previously written by WriteFile.
func ReadFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}
	if s.Tables == nil {
		s.Tables = make(map[string]TableSnapshot)
	}
	return &s, nil
}

// PrimaryKey returns the table's primary key column, if any.
func (t TableSnapshot) PrimaryKey() (ColumnSnapshot, bool) {
	for _, key := range sortedKeys(t.Columns) {
		if c := t.Columns[key]; c.PrimaryKey {
			return c, true
		}
	}
	return ColumnSnapshot{}, false
}
