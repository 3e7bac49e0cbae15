package dialect

import (
	"fmt"
	"strings"
	"time"

	"github.com/strata-db/strata/schema"
	"github.com/strata-db/strata/snapshot"
)

// postgres is the PostgreSQL strategy: positional $n placeholders, native
// booleans and timestamps, BIGSERIAL auto-increment, LIMIT ALL.
type postgres struct {
	p profile
}

// PostgresDialect returns the PostgreSQL strategy.
func PostgresDialect() Dialect {
	return &postgres{p: profile{
		name:   Postgres,
		driver: "pgx",
		quote:  quoteDouble,
		types: map[schema.Kind]string{
			schema.KindNumber: "BIGINT",
			schema.KindString: "TEXT",
			schema.KindBool:   "BOOLEAN",
			schema.KindDate:   "TIMESTAMPTZ",
			schema.KindJSON:   "JSON",
			schema.KindJSONB:  "JSONB",
			schema.KindUUID:   "UUID",
		},
		numberPK:    "BIGSERIAL PRIMARY KEY",
		uuidDefault: "gen_random_uuid()",
		boolLiteral: func(b bool) string {
			if b {
				return "true"
			}
			return "false"
		},
		dateLiteral: func(t time.Time) string { return t.UTC().Format("2006-01-02 15:04:05.999999-07") },
		noLimit:     "ALL",
		returning:   true,
	}}
}

func (d *postgres) Name() Name { return Postgres }

func (d *postgres) DriverName() string { return d.p.driver }

func (d *postgres) SupportsReturning() bool { return d.p.returning }

func (d *postgres) QuoteIdentifier(name string) string { return quoteDouble(name) }

func (d *postgres) Placeholder(n int) string { return fmt.Sprintf("$%d", n) }

func (d *postgres) TypeFor(k schema.Kind) (string, error) { return d.p.typeFor(k) }

func (d *postgres) SerializeValue(k schema.Kind, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if out, handled, err := serializeCommon(k, v); handled {
		return out, err
	}
	switch k {
	case schema.KindBool:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("cannot serialize %T as boolean", v)
		}
		return b, nil
	case schema.KindDate:
		// pgx handles time.Time natively.
		switch v.(type) {
		case time.Time, string:
			return v, nil
		default:
			return nil, fmt.Errorf("cannot serialize %T as date", v)
		}
	default:
		return nil, unsupported(Postgres, k.String())
	}
}

func (d *postgres) ConvertBool(raw any) (bool, error) { return convertBool(raw) }

func (d *postgres) LikePattern(mode LikeMode, value string) string {
	return wrapLike(mode, escapeLikeValue(value))
}

// PostgreSQL's default LIKE escape character is already backslash.
func (d *postgres) LikeEscapeClause() string { return "" }

func (d *postgres) NoLimitToken() string { return d.p.noLimit }

func (d *postgres) CreateTable(t snapshot.TableSnapshot) (string, error) { return createTable(d.p, t) }

func (d *postgres) DropTable(t snapshot.TableSnapshot) string { return dropTable(d.p, t) }

func (d *postgres) AddColumn(table string, c snapshot.ColumnSnapshot) (string, error) {
	return addColumn(d.p, table, c)
}

func (d *postgres) DropColumn(table string, c snapshot.ColumnSnapshot) string {
	return dropColumn(d.p, table, c)
}

// AlterColumn emits the statement sequence PostgreSQL needs to redefine a
// column in place: type, nullability, then default.
func (d *postgres) AlterColumn(table string, c snapshot.ColumnSnapshot) (string, error) {
	kind, err := schema.ParseKind(c.Kind)
	if err != nil {
		return "", unsupported(Postgres, c.Kind)
	}
	typ, err := d.p.typeFor(kind)
	if err != nil {
		return "", err
	}

	qt := quoteDouble(table)
	qc := quoteDouble(c.SQLName)

	stmts := []string{fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s", qt, qc, typ)}

	if c.NotNull || c.PrimaryKey {
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET NOT NULL", qt, qc))
	} else {
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP NOT NULL", qt, qc))
	}

	switch c.DefaultKind {
	case "literal":
		lit, err := renderLiteralDefault(d.p, kind, c.DefaultValue)
		if err != nil {
			return "", err
		}
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET DEFAULT %s", qt, qc, lit))
	case "generator":
		expr, err := generatorExpr(d.p, c.Generator)
		if err != nil {
			return "", err
		}
		if expr != "" {
			stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET DEFAULT %s", qt, qc, expr))
		}
	default:
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP DEFAULT", qt, qc))
	}

	return strings.Join(stmts, ";\n"), nil
}
