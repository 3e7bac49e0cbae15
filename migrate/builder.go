package migrate

import (
	"errors"
	"strings"

	"github.com/strata-db/strata/dialect"
	"github.com/strata-db/strata/snapshot"
)

// Builder composes a hand-written migration script statement by statement.
// Unlike the automatic differ it exposes AlterColumn, for changes the differ
// would express as drop-and-recreate. Errors accumulate; Script returns the
// first one.
type Builder struct {
	d     dialect.Dialect
	stmts []string
	errs  []error
}

// NewBuilder creates a builder for the given dialect.
func NewBuilder(d dialect.Dialect) *Builder {
	return &Builder{d: d}
}

// CreateTable appends a CREATE TABLE statement.
func (b *Builder) CreateTable(t snapshot.TableSnapshot) *Builder {
	stmt, err := b.d.CreateTable(t)
	return b.append(stmt, err)
}

// DropTable appends a DROP TABLE statement.
func (b *Builder) DropTable(t snapshot.TableSnapshot) *Builder {
	return b.append(b.d.DropTable(t), nil)
}

// AddColumn appends an ALTER TABLE ... ADD COLUMN statement.
func (b *Builder) AddColumn(table string, c snapshot.ColumnSnapshot) *Builder {
	stmt, err := b.d.AddColumn(table, c)
	return b.append(stmt, err)
}

// DropColumn appends an ALTER TABLE ... DROP COLUMN statement.
func (b *Builder) DropColumn(table string, c snapshot.ColumnSnapshot) *Builder {
	return b.append(b.d.DropColumn(table, c), nil)
}

// AlterColumn appends an in-place column redefinition. SQLite rejects this;
// use DropColumn followed by AddColumn there.
func (b *Builder) AlterColumn(table string, c snapshot.ColumnSnapshot) *Builder {
	stmt, err := b.d.AlterColumn(table, c)
	return b.append(stmt, err)
}

// Raw appends a literal SQL statement, unterminated.
func (b *Builder) Raw(stmt string) *Builder {
	stmt = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(stmt), ";"))
	if stmt == "" {
		return b.append("", errors.New("empty raw statement"))
	}
	return b.append(stmt, nil)
}

// Script renders the accumulated statements as a runnable migration script.
func (b *Builder) Script() (string, error) {
	if len(b.errs) > 0 {
		return "", b.errs[0]
	}
	if len(b.stmts) == 0 {
		return "", errors.New("builder has no statements")
	}
	var sb strings.Builder
	for _, stmt := range b.stmts {
		sb.WriteString(stmt)
		sb.WriteString(";\n")
	}
	return sb.String(), nil
}

func (b *Builder) append(stmt string, err error) *Builder {
	if err != nil {
		b.errs = append(b.errs, err)
		return b
	}
	b.stmts = append(b.stmts, stmt)
	return b
}
