package query

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strata-db/strata/dialect"
	"github.com/strata-db/strata/schema"
)

func newMockExecutor(t *testing.T) (*Executor, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewExecutor(conn, testRegistry(), dialect.SQLiteDialect()), mock
}

func TestFindManyMapsRowsToFieldKeys(t *testing.T) {
	e, mock := newMockExecutor(t)

	mock.ExpectQuery(`SELECT "users"."active", "users"."email", "users"."id", "users"."full_name" FROM "users" WHERE "users"."active" = ?`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"active", "email", "full_name", "id"}).
			AddRow(int64(1), "ada@example.com", "Ada", int64(1)).
			AddRow(int64(0), "grace@example.com", "Grace", int64(2)))

	records, err := e.FindMany(context.Background(), "users", Plan{
		Where: map[string]any{"active": true},
	})
	require.NoError(t, err)
	require.Len(t, records, 2)

	// sql names map back to field keys, booleans back to bool.
	assert.Equal(t, "Ada", records[0]["name"])
	assert.Equal(t, true, records[0]["active"])
	assert.Equal(t, false, records[1]["active"])
	assert.NotContains(t, records[0], "full_name")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindFirstNotFound(t *testing.T) {
	e, mock := newMockExecutor(t)

	mock.ExpectQuery(`SELECT "users"."active", "users"."email", "users"."id", "users"."full_name" FROM "users" WHERE "users"."id" = ? LIMIT 1`).
		WithArgs(99).
		WillReturnRows(sqlmock.NewRows([]string{"active", "email", "full_name", "id"}))

	_, err := e.FindFirst(context.Background(), "users", Plan{
		Where: map[string]any{"id": 99},
	})
	assert.True(t, errors.Is(err, ErrNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindManyNestsIncludedRelation(t *testing.T) {
	e, mock := newMockExecutor(t)

	mock.ExpectQuery(`SELECT "posts"."author_id", "posts"."id", "posts"."title", "users"."active" AS "author__active", "users"."email" AS "author__email", "users"."id" AS "author__id", "users"."full_name" AS "author__name" FROM "posts" LEFT JOIN "users" ON "posts"."author_id" = "users"."id"`).
		WillReturnRows(sqlmock.NewRows([]string{"author_id", "id", "title", "author__active", "author__email", "author__id", "author__name"}).
			AddRow(int64(1), int64(10), "hello", int64(1), "ada@example.com", int64(1), "Ada").
			AddRow(nil, int64(11), "orphan", nil, nil, nil, nil))

	records, err := e.FindMany(context.Background(), "posts", Plan{
		Include: map[string]bool{"author": true},
	})
	require.NoError(t, err)
	require.Len(t, records, 2)

	author, ok := records[0]["author"].(Record)
	require.True(t, ok, "author should be a nested record")
	assert.Equal(t, "ada@example.com", author["email"])
	assert.Equal(t, true, author["active"])

	// An unmatched LEFT JOIN collapses to nil instead of an all-nil record.
	assert.Nil(t, records[1]["author"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindManyKeepsBaseColumnNamedLikeAlias(t *testing.T) {
	// "user__name" looks like a join alias but "user" names no relation, so
	// the column must map as a plain base column instead of being dropped.
	reg := schema.NewRegistry()
	reg.AddTable("audits", schema.NewTable("audits", map[string]schema.Column{
		"id":    schema.Number("id").PrimaryKey(),
		"actor": schema.String("user__name"),
	}))

	conn, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	e := NewExecutor(conn, reg, dialect.SQLiteDialect())

	mock.ExpectQuery(`SELECT "audits"."user__name", "audits"."id" FROM "audits"`).
		WillReturnRows(sqlmock.NewRows([]string{"user__name", "id"}).
			AddRow("alice", int64(1)))

	records, err := e.FindMany(context.Background(), "audits", Plan{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "alice", records[0]["actor"])
	assert.Equal(t, int64(1), records[0]["id"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertReturnsStoredRow(t *testing.T) {
	e, mock := newMockExecutor(t)

	mock.ExpectQuery(`INSERT INTO "users" ("email") VALUES (?) RETURNING "active", "email", "id", "full_name"`).
		WithArgs("ada@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"active", "email", "full_name", "id"}).
			AddRow(int64(0), "ada@example.com", nil, int64(5)))

	record, err := e.Insert(context.Background(), "users", map[string]any{"email": "ada@example.com"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), record["id"])
	assert.Equal(t, false, record["active"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateManyReturnsUpdatedRows(t *testing.T) {
	e, mock := newMockExecutor(t)

	mock.ExpectQuery(`UPDATE "users" SET "full_name" = ? WHERE "users"."active" = ? RETURNING "active", "email", "id", "full_name"`).
		WithArgs("Anonymous", int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"active", "email", "full_name", "id"}).
			AddRow(int64(1), "ada@example.com", "Anonymous", int64(1)))

	records, err := e.UpdateMany(context.Background(), "users",
		map[string]any{"active": true},
		map[string]any{"name": "Anonymous"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Anonymous", records[0]["name"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteManyReturnsAffectedCount(t *testing.T) {
	e, mock := newMockExecutor(t)

	mock.ExpectExec(`DELETE FROM "users" WHERE "users"."active" = ?`).
		WithArgs(int64(0)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := e.DeleteMany(context.Background(), "users", map[string]any{"active": false})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCount(t *testing.T) {
	e, mock := newMockExecutor(t)

	mock.ExpectQuery(`SELECT COUNT(*) FROM "users" WHERE "users"."active" = ?`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(7)))

	n, err := e.Count(context.Background(), "users", map[string]any{"active": true})
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	require.NoError(t, mock.ExpectationsWereMet())
}
