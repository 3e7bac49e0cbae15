package schema

import (
	"fmt"
	"sort"
)

// Registry is the resolved schema source handed to the query serializer and
// the snapshot layer: table keys to tables, plus per-table relation maps.
type Registry struct {
	tables    map[string]*Table
	relations map[string]map[string]Relation
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tables:    make(map[string]*Table),
		relations: make(map[string]map[string]Relation),
	}
}

// AddTable registers a table under its key. Re-registering a key replaces the
// previous table.
func (r *Registry) AddTable(key string, t *Table) {
	r.tables[key] = t
}

// AddRelation registers a relation on the named table.
func (r *Registry) AddRelation(tableKey, relationKey string, rel Relation) {
	m, ok := r.relations[tableKey]
	if !ok {
		m = make(map[string]Relation)
		r.relations[tableKey] = m
	}
	m[relationKey] = rel
}

// Table returns the table registered under key.
func (r *Registry) Table(key string) (*Table, bool) {
	t, ok := r.tables[key]
	return t, ok
}

// MustTable returns the table registered under key or an error naming it.
func (r *Registry) MustTable(key string) (*Table, error) {
	t, ok := r.tables[key]
	if !ok {
		return nil, fmt.Errorf("unknown table: %s", key)
	}
	return t, nil
}

// Relations returns the relation map for a table key. The returned map must
// not be mutated.
func (r *Registry) Relations(tableKey string) map[string]Relation {
	return r.relations[tableKey]
}

// TableKeys returns all registered table keys in sorted order.
func (r *Registry) TableKeys() []string {
	keys := make([]string, 0, len(r.tables))
	for k := range r.tables {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RelationKeys returns a table's relation keys in sorted order.
func (r *Registry) RelationKeys(tableKey string) []string {
	m := r.relations[tableKey]
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
