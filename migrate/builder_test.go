package migrate

import (
	"strings"
	"testing"

	"github.com/strata-db/strata/dialect"
	"github.com/strata-db/strata/snapshot"
	"github.com/strata-db/strata/strataerr"
)

func TestBuilderComposesScript(t *testing.T) {
	script, err := NewBuilder(dialect.PostgresDialect()).
		CreateTable(snapshot.TableSnapshot{
			Name: "tags",
			Columns: map[string]snapshot.ColumnSnapshot{
				"id": {SQLName: "id", Kind: "number", PrimaryKey: true},
			},
		}).
		AddColumn("users", snapshot.ColumnSnapshot{SQLName: "bio", Kind: "string"}).
		Raw("CREATE INDEX users_bio ON users (bio)").
		Script()
	if err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(script), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d statements:\n%s", len(lines), script)
	}
	for _, line := range lines {
		if !strings.HasSuffix(line, ";") {
			t.Fatalf("statement not terminated: %q", line)
		}
	}
	if !strings.Contains(script, `ALTER TABLE "users" ADD COLUMN "bio" TEXT;`) {
		t.Fatalf("script = %s", script)
	}
}

func TestBuilderAlterColumn(t *testing.T) {
	script, err := NewBuilder(dialect.MySQLDialect()).
		AlterColumn("users", snapshot.ColumnSnapshot{SQLName: "age", Kind: "number", NotNull: true}).
		Script()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(script, "ALTER TABLE `users` MODIFY COLUMN `age` BIGINT NOT NULL;") {
		t.Fatalf("script = %s", script)
	}
}

func TestBuilderSQLiteAlterColumnFails(t *testing.T) {
	_, err := NewBuilder(dialect.SQLiteDialect()).
		AlterColumn("users", snapshot.ColumnSnapshot{SQLName: "age", Kind: "number"}).
		Script()
	if !strataerr.IsMigration(err) {
		t.Fatalf("expected MigrationError, got %v", err)
	}
}

func TestBuilderEmptyScriptFails(t *testing.T) {
	if _, err := NewBuilder(dialect.SQLiteDialect()).Script(); err == nil {
		t.Fatal("expected error for empty builder")
	}
}
