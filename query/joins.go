package query

import (
	"fmt"
	"sort"

	"github.com/strata-db/strata/schema"
	"github.com/strata-db/strata/strataerr"
)

// buildJoins renders one LEFT JOIN per included relation, plus the aliased
// select-list columns of each joined table. Relation keys are processed in
// sorted order for deterministic SQL.
func (s *Serializer) buildJoins(tableKey string, t *schema.Table, include map[string]bool) ([]string, []string, error) {
	if len(include) == 0 {
		return nil, nil, nil
	}
	rels := s.reg.Relations(tableKey)

	keys := make([]string, 0, len(include))
	for k, on := range include {
		if on {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var joins, cols []string
	for _, relKey := range keys {
		rel, ok := rels[relKey]
		if !ok {
			return nil, nil, strataerr.NewValidation(relKey, "unknown relation key in include")
		}
		target := rel.Target()
		if target == nil {
			return nil, nil, strataerr.NewValidation(relKey, "relation target resolved to nil")
		}

		cond, ok, err := s.joinCondition(t, rel, target)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			// No foreign key on the target points back at us. The join is
			// skipped rather than guessed; callers see only base columns.
			continue
		}

		qt := s.d.QuoteIdentifier(target.SQLName)
		joins = append(joins, fmt.Sprintf(" LEFT JOIN %s ON %s", qt, cond))
		for _, fk := range target.FieldKeys() {
			c := target.Columns[fk]
			alias := s.d.QuoteIdentifier(relKey + "__" + fk)
			cols = append(cols, fmt.Sprintf("%s.%s AS %s", qt, s.d.QuoteIdentifier(c.SQLName), alias))
		}
	}
	return joins, cols, nil
}

// joinCondition resolves the ON clause for a relation. One-relations join the
// owning table's foreign key to the target's primary key. Many-relations need
// the reverse: a column on the target that references the owning table; when
// none can be found the second return is false.
func (s *Serializer) joinCondition(t *schema.Table, rel schema.Relation, target *schema.Table) (string, bool, error) {
	qBase := s.d.QuoteIdentifier(t.SQLName)
	qTarget := s.d.QuoteIdentifier(target.SQLName)

	if rel.Kind == schema.RelationOne {
		fkCol, ok := t.Column(rel.ForeignKey)
		if !ok {
			return "", false, strataerr.NewValidation(rel.ForeignKey, "one-relation foreign key is not a column of the owning table")
		}
		_, pk, ok := target.PrimaryKey()
		if !ok {
			return "", false, strataerr.NewValidation(target.SQLName, "relation target has no primary key")
		}
		return fmt.Sprintf("%s.%s = %s.%s",
			qBase, s.d.QuoteIdentifier(fkCol.SQLName),
			qTarget, s.d.QuoteIdentifier(pk.SQLName)), true, nil
	}

	_, pk, ok := t.PrimaryKey()
	if !ok {
		return "", false, strataerr.NewValidation(t.SQLName, "many-relation owner has no primary key")
	}

	// Prefer the declared foreign key field; fall back to scanning the target
	// for a reference to the owning table.
	if fkCol, found := target.Column(rel.ForeignKey); found {
		return fmt.Sprintf("%s.%s = %s.%s",
			qTarget, s.d.QuoteIdentifier(fkCol.SQLName),
			qBase, s.d.QuoteIdentifier(pk.SQLName)), true, nil
	}
	for _, fk := range target.FieldKeys() {
		c := target.Columns[fk]
		if c.Ref != nil && c.Ref.Table == t.SQLName {
			return fmt.Sprintf("%s.%s = %s.%s",
				qTarget, s.d.QuoteIdentifier(c.SQLName),
				qBase, s.d.QuoteIdentifier(pk.SQLName)), true, nil
		}
	}
	return "", false, nil
}
