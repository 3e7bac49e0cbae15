package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lib/pq"

	"github.com/strata-db/strata/dialect"
	"github.com/strata-db/strata/schema"
	"github.com/strata-db/strata/strataerr"
)

// Serializer renders Plans into parameterized SQL for one dialect. It is
// stateless beyond its registry and dialect and safe for concurrent use.
type Serializer struct {
	reg *schema.Registry
	d   dialect.Dialect
}

// NewSerializer builds a serializer over the given registry and dialect.
func NewSerializer(reg *schema.Registry, d dialect.Dialect) *Serializer {
	return &Serializer{reg: reg, d: d}
}

// Statement is a rendered SQL string with its ordered bind values.
type Statement struct {
	SQL  string
	Args []any
}

// binder accumulates bind values and hands out dialect placeholders.
type binder struct {
	d    dialect.Dialect
	args []any
}

func (b *binder) add(v any) string {
	b.args = append(b.args, v)
	return b.d.Placeholder(len(b.args))
}

// Select renders a SELECT for the table registered under tableKey.
func (s *Serializer) Select(tableKey string, p Plan) (Statement, error) {
	t, err := s.reg.MustTable(tableKey)
	if err != nil {
		return Statement{}, strataerr.NewValidation(tableKey, "unknown table key")
	}

	b := &binder{d: s.d}
	base := s.d.QuoteIdentifier(t.SQLName)

	cols := make([]string, 0, len(t.Columns))
	for _, key := range t.FieldKeys() {
		c := t.Columns[key]
		cols = append(cols, base+"."+s.d.QuoteIdentifier(c.SQLName))
	}

	joins, joinCols, err := s.buildJoins(tableKey, t, p.Include)
	if err != nil {
		return Statement{}, err
	}
	cols = append(cols, joinCols...)

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(cols, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(base)
	for _, j := range joins {
		sb.WriteString(j)
	}

	where, err := s.whereClause(t, base, p.Where, b)
	if err != nil {
		return Statement{}, err
	}
	if where != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
	}

	order, err := s.orderClause(t, base, p.OrderBy)
	if err != nil {
		return Statement{}, err
	}
	sb.WriteString(order)
	sb.WriteString(s.paginationClause(p.Limit, p.Offset))

	return Statement{SQL: sb.String(), Args: b.args}, nil
}

// whereClause renders the conjunction of all where entries in sorted field-key
// order so output is deterministic.
func (s *Serializer) whereClause(t *schema.Table, qualifier string, where map[string]any, b *binder) (string, error) {
	if len(where) == 0 {
		return "", nil
	}
	keys := make([]string, 0, len(where))
	for k := range where {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var frags []string
	for _, key := range keys {
		col, ok := t.Column(key)
		if !ok {
			return "", strataerr.NewValidation(key, "unknown column key in where")
		}
		qc := qualifier + "." + s.d.QuoteIdentifier(col.SQLName)
		sub, err := s.columnFragments(qc, col, where[key], b)
		if err != nil {
			return "", err
		}
		frags = append(frags, sub...)
	}
	return strings.Join(frags, " AND "), nil
}

// columnFragments renders the fragments for one where entry. A non-Ops value
// is implicit equality; an Ops value emits one fragment per set operator, in
// a fixed order.
func (s *Serializer) columnFragments(qc string, col schema.Column, value any, b *binder) ([]string, error) {
	ops, isOps := value.(Ops)
	if !isOps {
		if p, ok := value.(*Ops); ok {
			ops, isOps = *p, true
		}
	}
	if !isOps {
		ph, err := s.bindValue(col, value, b)
		if err != nil {
			return nil, err
		}
		return []string{fmt.Sprintf("%s = %s", qc, ph)}, nil
	}

	var frags []string
	comparison := func(op string, v any) error {
		ph, err := s.bindValue(col, v, b)
		if err != nil {
			return err
		}
		frags = append(frags, fmt.Sprintf("%s %s %s", qc, op, ph))
		return nil
	}

	if ops.Equals != nil {
		if err := comparison("=", ops.Equals); err != nil {
			return nil, err
		}
	}
	if ops.Not != nil {
		if err := comparison("!=", ops.Not); err != nil {
			return nil, err
		}
	}
	if ops.Gt != nil {
		if err := comparison(">", ops.Gt); err != nil {
			return nil, err
		}
	}
	if ops.Gte != nil {
		if err := comparison(">=", ops.Gte); err != nil {
			return nil, err
		}
	}
	if ops.Lt != nil {
		if err := comparison("<", ops.Lt); err != nil {
			return nil, err
		}
	}
	if ops.Lte != nil {
		if err := comparison("<=", ops.Lte); err != nil {
			return nil, err
		}
	}
	if ops.In != nil {
		frag, err := s.listFragment(qc, col, ops.In, false, b)
		if err != nil {
			return nil, err
		}
		frags = append(frags, frag)
	}
	if ops.NotIn != nil {
		frag, err := s.listFragment(qc, col, ops.NotIn, true, b)
		if err != nil {
			return nil, err
		}
		frags = append(frags, frag)
	}
	if ops.StartsWith != nil {
		frags = append(frags, s.likeFragment(qc, dialect.LikeStartsWith, *ops.StartsWith, b))
	}
	if ops.EndsWith != nil {
		frags = append(frags, s.likeFragment(qc, dialect.LikeEndsWith, *ops.EndsWith, b))
	}
	if ops.Contains != nil {
		frags = append(frags, s.likeFragment(qc, dialect.LikeContains, *ops.Contains, b))
	}
	if ops.IsNull != nil {
		if *ops.IsNull {
			frags = append(frags, qc+" IS NULL")
		} else {
			frags = append(frags, qc+" IS NOT NULL")
		}
	}
	if len(frags) == 0 {
		return nil, strataerr.NewValidation(col.SQLName, "operator object sets no operator")
	}
	return frags, nil
}

// listFragment renders IN/NOT IN. PostgreSQL binds the whole list as one
// array parameter via ANY; the others expand one placeholder per element.
// An empty list degenerates to a constant predicate.
func (s *Serializer) listFragment(qc string, col schema.Column, values []any, negate bool, b *binder) (string, error) {
	if len(values) == 0 {
		if negate {
			return "1 = 1", nil
		}
		return "1 = 0", nil
	}

	serialized := make([]any, len(values))
	for i, v := range values {
		sv, err := s.d.SerializeValue(col.Kind, v)
		if err != nil {
			return "", err
		}
		serialized[i] = sv
	}

	if s.d.Name() == dialect.Postgres {
		ph := b.add(pq.Array(serialized))
		if negate {
			return fmt.Sprintf("%s != ALL(%s)", qc, ph), nil
		}
		return fmt.Sprintf("%s = ANY(%s)", qc, ph), nil
	}

	phs := make([]string, len(serialized))
	for i, sv := range serialized {
		phs[i] = b.add(sv)
	}
	op := "IN"
	if negate {
		op = "NOT IN"
	}
	return fmt.Sprintf("%s %s (%s)", qc, op, strings.Join(phs, ", ")), nil
}

func (s *Serializer) likeFragment(qc string, mode dialect.LikeMode, value string, b *binder) string {
	ph := b.add(s.d.LikePattern(mode, value))
	return fmt.Sprintf("%s LIKE %s%s", qc, ph, s.d.LikeEscapeClause())
}

func (s *Serializer) bindValue(col schema.Column, v any, b *binder) (string, error) {
	sv, err := s.d.SerializeValue(col.Kind, v)
	if err != nil {
		return "", err
	}
	return b.add(sv), nil
}

func (s *Serializer) orderClause(t *schema.Table, qualifier string, orderBy []Order) (string, error) {
	if len(orderBy) == 0 {
		return "", nil
	}
	terms := make([]string, 0, len(orderBy))
	for _, o := range orderBy {
		col, ok := t.Column(o.Field)
		if !ok {
			return "", strataerr.NewValidation(o.Field, "unknown column key in orderBy")
		}
		term := qualifier + "." + s.d.QuoteIdentifier(col.SQLName)
		if o.Desc {
			term += " DESC"
		} else {
			term += " ASC"
		}
		terms = append(terms, term)
	}
	return " ORDER BY " + strings.Join(terms, ", "), nil
}

// paginationClause renders LIMIT/OFFSET. An offset without a limit needs the
// dialect's no-limit token because none of the three databases accept a bare
// OFFSET.
func (s *Serializer) paginationClause(limit, offset *int) string {
	switch {
	case limit != nil && offset != nil:
		return fmt.Sprintf(" LIMIT %d OFFSET %d", *limit, *offset)
	case limit != nil:
		return fmt.Sprintf(" LIMIT %d", *limit)
	case offset != nil:
		return fmt.Sprintf(" LIMIT %s OFFSET %d", s.d.NoLimitToken(), *offset)
	default:
		return ""
	}
}
