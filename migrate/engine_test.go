package migrate

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strata-db/strata/dialect"
	"github.com/strata-db/strata/schema"
	"github.com/strata-db/strata/strataerr"
)

func userRegistry() *schema.Registry {
	reg := schema.NewRegistry()
	reg.AddTable("users", schema.NewTable("users", map[string]schema.Column{
		"id":    schema.Number("id").PrimaryKey(),
		"email": schema.String("email").NotNull().Unique(),
	}))
	return reg
}

func fixedClock() func() time.Time {
	return func() time.Time {
		return time.Date(2024, 3, 1, 12, 30, 45, 0, time.UTC)
	}
}

func newCreateEngine(t *testing.T) (*Engine, string) {
	t.Helper()
	dir := t.TempDir()
	state := NewJournalState(filepath.Join(dir, "journal.json"))
	e := NewEngine(nil, dialect.SQLiteDialect(), dir, state, WithClock(fixedClock()))
	return e, dir
}

func TestCreateWritesMigrationArtifacts(t *testing.T) {
	e, dir := newCreateEngine(t)

	res, err := e.Create(userRegistry(), "add users table")
	require.NoError(t, err)
	require.False(t, res.NoChanges)
	assert.Equal(t, "20240301123045000", res.Version)
	assert.Equal(t, "add_users_table", res.Slug)
	assert.Equal(t, 1, res.Operations)

	migDir := filepath.Join(dir, "20240301123045000_add_users_table")
	up, err := os.ReadFile(filepath.Join(migDir, "up.sql"))
	require.NoError(t, err)
	assert.Equal(t, `CREATE TABLE IF NOT EXISTS "users" ("id" INTEGER PRIMARY KEY, "email" TEXT NOT NULL UNIQUE);`+"\n", string(up))

	down, err := os.ReadFile(filepath.Join(migDir, "down.sql"))
	require.NoError(t, err)
	assert.Equal(t, `DROP TABLE IF EXISTS "users";`+"\n", string(down))

	if _, err := os.Stat(filepath.Join(migDir, "snapshot.json")); err != nil {
		t.Fatalf("snapshot not written: %v", err)
	}
}

func TestCreateIsIdempotentWhenNothingChanged(t *testing.T) {
	e, dir := newCreateEngine(t)

	_, err := e.Create(userRegistry(), "add users")
	require.NoError(t, err)

	res, err := e.Create(userRegistry(), "no changes run")
	require.NoError(t, err)
	assert.True(t, res.NoChanges)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	dirs := 0
	for _, entry := range entries {
		if entry.IsDir() {
			dirs++
		}
	}
	assert.Equal(t, 1, dirs, "no-change run must not write a directory")
}

func TestCreateDiffsAgainstLatestSnapshot(t *testing.T) {
	e, _ := newCreateEngine(t)

	_, err := e.Create(userRegistry(), "add users")
	require.NoError(t, err)

	reg := userRegistry()
	users, _ := reg.Table("users")
	cols := map[string]schema.Column{}
	for k, c := range users.Columns {
		cols[k] = c
	}
	cols["bio"] = schema.String("bio")
	reg.AddTable("users", schema.NewTable("users", cols))

	// Same millisecond: the collision suffix keeps versions unique.
	res, err := e.Create(reg, "add bio")
	require.NoError(t, err)
	assert.Equal(t, "20240301123045000-1", res.Version)
	assert.Equal(t, 1, res.Operations)

	up, err := os.ReadFile(filepath.Join(res.Dir, "up.sql"))
	require.NoError(t, err)
	assert.Contains(t, string(up), `ALTER TABLE "users" ADD COLUMN "bio" TEXT`)
}

func TestCreateRejectsUnsanitizableName(t *testing.T) {
	e, dir := newCreateEngine(t)

	_, err := e.Create(userRegistry(), "!!!")
	require.True(t, strataerr.IsValidation(err))

	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries, "failed create must write nothing")
}

func TestCreateRenderFailureWritesNothing(t *testing.T) {
	dir := t.TempDir()
	state := NewJournalState(filepath.Join(dir, "journal.json"))
	e := NewEngine(nil, dialect.MySQLDialect(), dir, state, WithClock(fixedClock()))

	reg := schema.NewRegistry()
	reg.AddTable("docs", schema.NewTable("docs", map[string]schema.Column{
		"id":    schema.Number("id").PrimaryKey(),
		"count": schema.Number("count").WithDefault("oops"),
	}))

	_, err := e.Create(reg, "add docs")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "numeric default")

	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries, "failed render must write nothing")
}

func TestCreateDigitLeadingSlugRoundTrips(t *testing.T) {
	e, dir := newCreateEngine(t)

	res, err := e.Create(userRegistry(), "2 fast")
	require.NoError(t, err)
	assert.Equal(t, "20240301123045000", res.Version)
	assert.Equal(t, "2_fast", res.Slug)

	migrations, err := List(dir)
	require.NoError(t, err)
	require.Len(t, migrations, 1)
	assert.Equal(t, res.Version, migrations[0].Version)
	assert.Equal(t, res.Slug, migrations[0].Slug)
}

func applyEngine(t *testing.T, transactional bool) (*Engine, string, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	dir := t.TempDir()
	state := NewJournalState(filepath.Join(dir, "journal.json"))
	e := NewEngine(conn, dialect.SQLiteDialect(), dir, state,
		WithClock(fixedClock()), WithTransactional(transactional))
	return e, dir, mock
}

func writeMigration(t *testing.T, dir, name, up, down string) {
	t.Helper()
	migDir := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(migDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(migDir, "up.sql"), []byte(up), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(migDir, "down.sql"), []byte(down), 0o644))
}

func TestApplyRunsPendingInOrder(t *testing.T) {
	e, dir, mock := applyEngine(t, false)
	writeMigration(t, dir, "20240101000000000_first", "CREATE TABLE a (x INTEGER);\n", "DROP TABLE a;\n")
	writeMigration(t, dir, "20240201000000000_second", "CREATE TABLE b (y INTEGER);\n", "DROP TABLE b;\n")

	mock.ExpectExec("CREATE TABLE a (x INTEGER)").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE b (y INTEGER)").WillReturnResult(sqlmock.NewResult(0, 0))

	applied, err := e.Apply(context.Background())
	require.NoError(t, err)
	require.Len(t, applied, 2)
	assert.Equal(t, "first", applied[0].Slug)
	assert.Equal(t, "second", applied[1].Slug)
	require.NoError(t, mock.ExpectationsWereMet())

	// A second run sees nothing pending.
	applied, err = e.Apply(context.Background())
	require.NoError(t, err)
	assert.Empty(t, applied)
}

func TestApplyFailureKeepsEarlierMigrations(t *testing.T) {
	e, dir, mock := applyEngine(t, false)
	writeMigration(t, dir, "20240101000000000_first", "CREATE TABLE a (x INTEGER);\n", "DROP TABLE a;\n")
	writeMigration(t, dir, "20240201000000000_second", "CREATE TABLE broken;\n", "DROP TABLE broken;\n")

	mock.ExpectExec("CREATE TABLE a (x INTEGER)").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE broken").WillReturnError(assert.AnError)

	applied, err := e.Apply(context.Background())
	require.Error(t, err)
	require.True(t, strataerr.IsMigration(err))
	assert.Contains(t, err.Error(), "20240201000000000_second")
	require.Len(t, applied, 1, "first migration stays applied")

	status, statusErr := e.Status(context.Background())
	require.NoError(t, statusErr)
	require.Len(t, status, 2)
	assert.True(t, status[0].Applied)
	assert.False(t, status[1].Applied)
}

func TestApplyTransactionalWrapsEachMigration(t *testing.T) {
	e, dir, mock := applyEngine(t, true)
	writeMigration(t, dir, "20240101000000000_first",
		"CREATE TABLE a (x INTEGER);\nCREATE INDEX a_x ON a (x);\n", "DROP TABLE a;\n")

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE a (x INTEGER)").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX a_x ON a (x)").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	_, err := e.Apply(context.Background())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyTransactionalRollsBackFailedMigration(t *testing.T) {
	e, dir, mock := applyEngine(t, true)
	writeMigration(t, dir, "20240101000000000_first",
		"CREATE TABLE a (x INTEGER);\nCREATE TABLE broken;\n", "DROP TABLE a;\n")

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE a (x INTEGER)").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE broken").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	applied, err := e.Apply(context.Background())
	require.Error(t, err)
	assert.Empty(t, applied)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRollbackUndoesMostRecent(t *testing.T) {
	e, dir, mock := applyEngine(t, false)
	writeMigration(t, dir, "20240101000000000_first", "CREATE TABLE a (x INTEGER);\n", "DROP TABLE a;\n")
	writeMigration(t, dir, "20240201000000000_second", "CREATE TABLE b (y INTEGER);\n", "DROP TABLE b;\n")

	mock.ExpectExec("CREATE TABLE a (x INTEGER)").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE b (y INTEGER)").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DROP TABLE b").WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := e.Apply(context.Background())
	require.NoError(t, err)

	m, err := e.Rollback(context.Background())
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "second", m.Slug)
	require.NoError(t, mock.ExpectationsWereMet())

	status, err := e.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, status[0].Applied)
	assert.False(t, status[1].Applied, "rolled-back migration is pending again")
}

func TestRollbackWithNothingApplied(t *testing.T) {
	e, _, _ := applyEngine(t, false)
	m, err := e.Rollback(context.Background())
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestRollbackMissingMigrationFile(t *testing.T) {
	e, dir, mock := applyEngine(t, false)
	writeMigration(t, dir, "20240101000000000_first", "CREATE TABLE a (x INTEGER);\n", "DROP TABLE a;\n")
	mock.ExpectExec("CREATE TABLE a (x INTEGER)").WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := e.Apply(context.Background())
	require.NoError(t, err)

	// Simulate a manually deleted migration directory.
	require.NoError(t, os.RemoveAll(filepath.Join(dir, "20240101000000000_first")))

	_, err = e.Rollback(context.Background())
	require.True(t, strataerr.IsMigration(err))
	assert.Contains(t, err.Error(), "missing migration file")
}

func TestSplitStatements(t *testing.T) {
	stmts := splitStatements("CREATE TABLE a (x INTEGER);\n\nDROP TABLE b;\n;\n")
	if len(stmts) != 2 {
		t.Fatalf("got %d statements: %q", len(stmts), stmts)
	}
	if !strings.HasPrefix(stmts[0], "CREATE TABLE a") || !strings.HasPrefix(stmts[1], "DROP TABLE b") {
		t.Fatalf("unexpected statements: %q", stmts)
	}
}
