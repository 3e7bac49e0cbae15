package schema

// RelationKind distinguishes one- and many-relations.
type RelationKind int

const (
	// RelationOne points from a foreign key column on the owning table to the
	// target table's primary key.
	RelationOne RelationKind = iota
	// RelationMany is the inverse: the foreign key lives on the target table.
	RelationMany
)

// String returns the string representation of the relation kind
func (k RelationKind) String() string {
	if k == RelationMany {
		return "many"
	}
	return "one"
}

// Relation links two tables. Target is a zero-argument resolver rather than a
// direct pointer so two tables can reference each other, or a table itself,
// without forward declarations; it is invoked only when a query or snapshot
// actually needs the target.
type Relation struct {
	Kind RelationKind
	// ForeignKey is the field key of the foreign key column: on the owning
	// table for one-relations, on the target table for many-relations.
	ForeignKey string
	Target     func() *Table
}

// One declares a relation whose foreign key column lives on the owning table.
func One(foreignKey string, target func() *Table) Relation {
	return Relation{Kind: RelationOne, ForeignKey: foreignKey, Target: target}
}

// Many declares the inverse relation; the foreign key lives on the target.
func Many(foreignKey string, target func() *Table) Relation {
	return Relation{Kind: RelationMany, ForeignKey: foreignKey, Target: target}
}
