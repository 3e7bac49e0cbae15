package dialect

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/strata-db/strata/schema"
	"github.com/strata-db/strata/snapshot"
	"github.com/strata-db/strata/strataerr"
)

// profile is the table-driven part of a dialect: everything DDL rendering
// needs that differs per database.
type profile struct {
	name        Name
	driver      string
	quote       func(string) string
	types       map[schema.Kind]string
	numberPK    string // full clause for an auto-incrementing numeric PK
	uuidDefault string // UUID generation expression, "" when unavailable
	boolLiteral func(bool) string
	dateLiteral func(time.Time) string
	noLimit     string
	returning   bool
}

func (p profile) typeFor(k schema.Kind) (string, error) {
	t, ok := p.types[k]
	if !ok {
		return "", unsupported(p.name, k.String())
	}
	return t, nil
}

// createTable renders CREATE TABLE IF NOT EXISTS with the primary key column
// first and the remaining columns ordered by sql name.
func createTable(p profile, t snapshot.TableSnapshot) (string, error) {
	cols := orderedColumns(t)
	defs := make([]string, 0, len(cols))
	for _, c := range cols {
		def, err := renderColumn(p, c)
		if err != nil {
			return "", fmt.Errorf("table %s: %w", t.Name, err)
		}
		defs = append(defs, def)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", p.quote(t.Name), strings.Join(defs, ", ")), nil
}

func dropTable(p profile, t snapshot.TableSnapshot) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", p.quote(t.Name))
}

func addColumn(p profile, table string, c snapshot.ColumnSnapshot) (string, error) {
	def, err := renderColumn(p, c)
	if err != nil {
		return "", fmt.Errorf("table %s: %w", table, err)
	}
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", p.quote(table), def), nil
}

func dropColumn(p profile, table string, c snapshot.ColumnSnapshot) string {
	return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", p.quote(table), p.quote(c.SQLName))
}

// renderColumn renders one column definition. A PRIMARY KEY clause subsumes
// NOT NULL and UNIQUE, so those modifiers are never emitted alongside it.
func renderColumn(p profile, c snapshot.ColumnSnapshot) (string, error) {
	kind, err := schema.ParseKind(c.Kind)
	if err != nil {
		return "", unsupported(p.name, c.Kind)
	}

	if c.PrimaryKey {
		if kind == schema.KindNumber {
			return p.quote(c.SQLName) + " " + p.numberPK, nil
		}
		typ, err := p.typeFor(kind)
		if err != nil {
			return "", err
		}
		def := p.quote(c.SQLName) + " " + typ + " PRIMARY KEY"
		if kind == schema.KindUUID && p.uuidDefault != "" {
			def += " DEFAULT " + p.uuidDefault
		}
		return def, nil
	}

	typ, err := p.typeFor(kind)
	if err != nil {
		return "", err
	}

	parts := []string{p.quote(c.SQLName), typ}
	if c.NotNull {
		parts = append(parts, "NOT NULL")
	}
	if c.Unique {
		parts = append(parts, "UNIQUE")
	}

	switch c.DefaultKind {
	case "literal":
		lit, err := renderLiteralDefault(p, kind, c.DefaultValue)
		if err != nil {
			return "", fmt.Errorf("column %s: %w", c.SQLName, err)
		}
		parts = append(parts, "DEFAULT "+lit)
	case "generator":
		expr, err := generatorExpr(p, c.Generator)
		if err != nil {
			return "", fmt.Errorf("column %s: %w", c.SQLName, err)
		}
		if expr != "" {
			parts = append(parts, "DEFAULT "+expr)
		}
	}

	if c.ReferencesTable != "" {
		parts = append(parts, fmt.Sprintf("REFERENCES %s(%s)", p.quote(c.ReferencesTable), p.quote(c.ReferencesColumn)))
		onDelete, err := fmtOnDelete(c.OnDelete)
		if err != nil {
			return "", fmt.Errorf("column %s: %w", c.SQLName, err)
		}
		if onDelete != "" {
			parts = append(parts, onDelete)
		}
	}

	return strings.Join(parts, " "), nil
}

// renderLiteralDefault embeds a literal default directly in DDL so migration
// files replay without the original application code. Numbers are unquoted,
// booleans dialect-native, dates quoted timestamp literals, JSON a quoted
// escaped document.
func renderLiteralDefault(p profile, kind schema.Kind, v any) (string, error) {
	switch kind {
	case schema.KindNumber:
		switch v.(type) {
		case int, int32, int64, float32, float64, uint, uint32, uint64:
			return fmt.Sprintf("%v", v), nil
		case json.Number:
			return fmt.Sprintf("%v", v), nil
		default:
			return "", fmt.Errorf("expected numeric default, got %T", v)
		}

	case schema.KindString:
		s, ok := v.(string)
		if !ok {
			return "", fmt.Errorf("expected string default, got %T", v)
		}
		return quoteString(s), nil

	case schema.KindBool:
		b, ok := v.(bool)
		if !ok {
			return "", fmt.Errorf("expected boolean default, got %T", v)
		}
		return p.boolLiteral(b), nil

	case schema.KindDate:
		switch d := v.(type) {
		case time.Time:
			return quoteString(p.dateLiteral(d)), nil
		case string:
			return quoteString(d), nil
		default:
			return "", fmt.Errorf("expected time or string default, got %T", v)
		}

	case schema.KindJSON, schema.KindJSONB:
		var doc string
		switch j := v.(type) {
		case string:
			doc = j
		default:
			data, err := json.Marshal(v)
			if err != nil {
				return "", fmt.Errorf("encoding json default: %w", err)
			}
			doc = string(data)
		}
		return quoteString(doc), nil

	case schema.KindUUID:
		s, ok := v.(string)
		if !ok {
			return "", fmt.Errorf("expected string default for uuid, got %T", v)
		}
		return quoteString(s), nil

	default:
		return "", unsupported(p.name, kind.String())
	}
}

func generatorExpr(p profile, generator string) (string, error) {
	switch schema.GeneratorID(generator) {
	case schema.GeneratorNow:
		return "CURRENT_TIMESTAMP", nil
	case schema.GeneratorUUID:
		// "" means the dialect has no UUID generation expression; the
		// column still records HasDefault so the snapshot diff stays stable.
		return p.uuidDefault, nil
	default:
		return "", strataerr.NewValidation(generator, "unknown default generator")
	}
}

// orderedColumns returns the primary key first, remaining columns sorted by
// sql name, for deterministic DDL.
func orderedColumns(t snapshot.TableSnapshot) []snapshot.ColumnSnapshot {
	cols := make([]snapshot.ColumnSnapshot, 0, len(t.Columns))
	for _, c := range t.Columns {
		cols = append(cols, c)
	}
	sort.Slice(cols, func(i, j int) bool {
		if cols[i].PrimaryKey != cols[j].PrimaryKey {
			return cols[i].PrimaryKey
		}
		return cols[i].SQLName < cols[j].SQLName
	})
	return cols
}
