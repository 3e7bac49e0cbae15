package dialect

import (
	"fmt"
	"time"

	"github.com/strata-db/strata/schema"
	"github.com/strata-db/strata/snapshot"
	"github.com/strata-db/strata/strataerr"
)

// sqlite is the SQLite strategy. Booleans travel as 0/1, dates and UUIDs as
// text, and there is no in-place ALTER COLUMN.
type sqlite struct {
	p profile
}

// SQLiteDialect returns the SQLite strategy.
func SQLiteDialect() Dialect {
	return &sqlite{p: profile{
		name:   SQLite,
		driver: "sqlite3",
		quote:  quoteDouble,
		types: map[schema.Kind]string{
			schema.KindNumber: "INTEGER",
			schema.KindString: "TEXT",
			schema.KindBool:   "INTEGER",
			schema.KindDate:   "TEXT",
			schema.KindJSON:   "TEXT",
			schema.KindJSONB:  "TEXT",
			schema.KindUUID:   "TEXT",
		},
		numberPK:    "INTEGER PRIMARY KEY",
		uuidDefault: "", // SQLite has no built-in UUID generator
		boolLiteral: func(b bool) string {
			if b {
				return "1"
			}
			return "0"
		},
		dateLiteral: func(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) },
		noLimit:     "-1",
		returning:   true,
	}}
}

func (d *sqlite) Name() Name { return SQLite }

func (d *sqlite) DriverName() string { return d.p.driver }

func (d *sqlite) SupportsReturning() bool { return d.p.returning }

func (d *sqlite) QuoteIdentifier(name string) string { return quoteDouble(name) }

func (d *sqlite) Placeholder(int) string { return "?" }

func (d *sqlite) TypeFor(k schema.Kind) (string, error) { return d.p.typeFor(k) }

func (d *sqlite) SerializeValue(k schema.Kind, v any) (any, error) {
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
		if b {
			return int64(1), nil
		}
		return int64(0), nil
	case schema.KindDate:
		return serializeDate(v, d.p.dateLiteral)
	default:
		return nil, unsupported(SQLite, k.String())
	}
}

func (d *sqlite) ConvertBool(raw any) (bool, error) { return convertBool(raw) }

func (d *sqlite) LikePattern(mode LikeMode, value string) string {
	return wrapLike(mode, escapeLikeValue(value))
}

// SQLite's LIKE has no default escape character, so the serializer appends
// an explicit ESCAPE clause.
func (d *sqlite) LikeEscapeClause() string { return ` ESCAPE '\'` }

func (d *sqlite) NoLimitToken() string { return d.p.noLimit }

func (d *sqlite) CreateTable(t snapshot.TableSnapshot) (string, error) { return createTable(d.p, t) }

func (d *sqlite) DropTable(t snapshot.TableSnapshot) string { return dropTable(d.p, t) }

func (d *sqlite) AddColumn(table string, c snapshot.ColumnSnapshot) (string, error) {
	return addColumn(d.p, table, c)
}

func (d *sqlite) DropColumn(table string, c snapshot.ColumnSnapshot) string {
	return dropColumn(d.p, table, c)
}

func (d *sqlite) AlterColumn(string, snapshot.ColumnSnapshot) (string, error) {
	return "", &strataerr.MigrationError{Err: fmt.Errorf("sqlite cannot alter a column in place; drop and re-add it")}
}
