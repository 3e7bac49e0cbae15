package schema

import "testing"

func usersTable() *Table {
	return NewTable("users", map[string]Column{
		"id":    Number("id").PrimaryKey(),
		"email": String("email").NotNull().Unique(),
		"name":  String("full_name"),
	})
}

func TestNewTableCopiesColumnMap(t *testing.T) {
	cols := map[string]Column{"id": Number("id").PrimaryKey()}
	table := NewTable("users", cols)

	cols["rogue"] = String("rogue")
	if _, ok := table.Column("rogue"); ok {
		t.Fatal("table shares the caller's column map")
	}
}

func TestTablePrimaryKey(t *testing.T) {
	key, col, ok := usersTable().PrimaryKey()
	if !ok || key != "id" || col.SQLName != "id" {
		t.Fatalf("PrimaryKey() = %q, %+v, %v", key, col, ok)
	}

	noPK := NewTable("logs", map[string]Column{"msg": String("msg")})
	if _, _, ok := noPK.PrimaryKey(); ok {
		t.Fatal("expected no primary key")
	}
}

func TestFieldKeyBySQLName(t *testing.T) {
	table := usersTable()
	key, ok := table.FieldKeyBySQLName("full_name")
	if !ok || key != "name" {
		t.Fatalf("FieldKeyBySQLName(full_name) = %q, %v", key, ok)
	}
	if _, ok := table.FieldKeyBySQLName("missing"); ok {
		t.Fatal("expected lookup miss")
	}
}

func TestCircularRelationsResolveLazily(t *testing.T) {
	reg := NewRegistry()

	// users and posts reference each other; each thunk resolves through the
	// registry, so declaration order does not matter.
	reg.AddTable("posts", NewTable("posts", map[string]Column{
		"id":       Number("id").PrimaryKey(),
		"authorId": Number("author_id").References("users", "id"),
	}))
	reg.AddTable("users", usersTable())

	reg.AddRelation("posts", "author", One("authorId", func() *Table {
		t, _ := reg.Table("users")
		return t
	}))
	reg.AddRelation("users", "posts", Many("authorId", func() *Table {
		t, _ := reg.Table("posts")
		return t
	}))

	author := reg.Relations("posts")["author"]
	if got := author.Target(); got == nil || got.SQLName != "users" {
		t.Fatalf("one-relation target = %+v", got)
	}
	posts := reg.Relations("users")["posts"]
	if got := posts.Target(); got == nil || got.SQLName != "posts" {
		t.Fatalf("many-relation target = %+v", got)
	}
}

func TestSelfReferenceResolves(t *testing.T) {
	reg := NewRegistry()
	reg.AddTable("categories", NewTable("categories", map[string]Column{
		"id":       Number("id").PrimaryKey(),
		"parentId": Number("parent_id").References("categories", "id"),
	}))
	reg.AddRelation("categories", "parent", One("parentId", func() *Table {
		t, _ := reg.Table("categories")
		return t
	}))

	rel := reg.Relations("categories")["parent"]
	if got := rel.Target(); got == nil || got.SQLName != "categories" {
		t.Fatalf("self-reference target = %+v", got)
	}
}
