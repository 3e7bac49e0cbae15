package dialect

import (
	"fmt"
	"time"

	"github.com/strata-db/strata/schema"
	"github.com/strata-db/strata/snapshot"
)

// mysqlDialect is the MySQL strategy: backtick quoting, TINYINT(1) booleans,
// no RETURNING, and the max-uint64 LIMIT token for "offset without limit".
type mysqlDialect struct {
	p profile
}

// MySQLDialect returns the MySQL strategy.
func MySQLDialect() Dialect {
	return &mysqlDialect{p: profile{
		name:   MySQL,
		driver: "mysql",
		quote:  quoteBacktick,
		types: map[schema.Kind]string{
			schema.KindNumber: "BIGINT",
			schema.KindString: "VARCHAR(255)",
			schema.KindBool:   "TINYINT(1)",
			schema.KindDate:   "DATETIME(3)",
			schema.KindJSON:   "JSON",
			schema.KindJSONB:  "JSON", // MySQL's JSON type is binary-encoded internally
			schema.KindUUID:   "CHAR(36)",
		},
		numberPK:    "BIGINT AUTO_INCREMENT PRIMARY KEY",
		uuidDefault: "(UUID())",
		boolLiteral: func(b bool) string {
			if b {
				return "1"
			}
			return "0"
		},
		dateLiteral: func(t time.Time) string { return t.UTC().Format("2006-01-02 15:04:05.000") },
		noLimit:     "18446744073709551615",
		returning:   false,
	}}
}

func (d *mysqlDialect) Name() Name { return MySQL }

func (d *mysqlDialect) DriverName() string { return d.p.driver }

func (d *mysqlDialect) SupportsReturning() bool { return d.p.returning }

func (d *mysqlDialect) QuoteIdentifier(name string) string { return quoteBacktick(name) }

func (d *mysqlDialect) Placeholder(int) string { return "?" }

func (d *mysqlDialect) TypeFor(k schema.Kind) (string, error) { return d.p.typeFor(k) }

func (d *mysqlDialect) SerializeValue(k schema.Kind, v any) (any, error) {
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
		return nil, unsupported(MySQL, k.String())
	}
}

func (d *mysqlDialect) ConvertBool(raw any) (bool, error) { return convertBool(raw) }

func (d *mysqlDialect) LikePattern(mode LikeMode, value string) string {
	return wrapLike(mode, escapeLikeValue(value))
}

// MySQL's default LIKE escape character is already backslash.
func (d *mysqlDialect) LikeEscapeClause() string { return "" }

func (d *mysqlDialect) NoLimitToken() string { return d.p.noLimit }

func (d *mysqlDialect) CreateTable(t snapshot.TableSnapshot) (string, error) {
	return createTable(d.p, t)
}

func (d *mysqlDialect) DropTable(t snapshot.TableSnapshot) string { return dropTable(d.p, t) }

func (d *mysqlDialect) AddColumn(table string, c snapshot.ColumnSnapshot) (string, error) {
	return addColumn(d.p, table, c)
}

func (d *mysqlDialect) DropColumn(table string, c snapshot.ColumnSnapshot) string {
	return dropColumn(d.p, table, c)
}

// AlterColumn uses MODIFY COLUMN, which takes a full column redefinition.
func (d *mysqlDialect) AlterColumn(table string, c snapshot.ColumnSnapshot) (string, error) {
	def, err := renderColumn(d.p, c)
	if err != nil {
		return "", fmt.Errorf("table %s: %w", table, err)
	}
	return fmt.Sprintf("ALTER TABLE %s MODIFY COLUMN %s", quoteBacktick(table), def), nil
}
