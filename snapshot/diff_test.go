package snapshot

import "testing"

func usersSnapshot(extra map[string]ColumnSnapshot) *Snapshot {
	cols := map[string]ColumnSnapshot{
		"id":    {SQLName: "id", Kind: "number", PrimaryKey: true},
		"email": {SQLName: "email", Kind: "string", NotNull: true, Unique: true},
	}
	for k, c := range extra {
		cols[k] = c
	}
	return &Snapshot{
		Dialect: "sqlite",
		Tables:  map[string]TableSnapshot{"users": {Name: "users", Columns: cols}},
	}
}

func TestDiffEmptyToSchemaCreatesTables(t *testing.T) {
	ops := Diff(Empty("sqlite"), usersSnapshot(nil))
	if len(ops) != 1 {
		t.Fatalf("got %d operations, want 1", len(ops))
	}
	if ops[0].Type != OpCreateTable || ops[0].TableKey != "users" {
		t.Fatalf("unexpected operation: %+v", ops[0])
	}
	if len(ops[0].Table.Columns) != 2 {
		t.Fatalf("create table carries %d columns, want 2", len(ops[0].Table.Columns))
	}
}

func TestDiffIdenticalSnapshotsIsEmpty(t *testing.T) {
	if ops := Diff(usersSnapshot(nil), usersSnapshot(nil)); len(ops) != 0 {
		t.Fatalf("got %d operations, want 0: %+v", len(ops), ops)
	}
}

func TestDiffDroppedTable(t *testing.T) {
	ops := Diff(usersSnapshot(nil), Empty("sqlite"))
	if len(ops) != 1 || ops[0].Type != OpDropTable {
		t.Fatalf("unexpected operations: %+v", ops)
	}
	// The drop carries the displaced table so Invert can recreate it.
	if ops[0].Table.Name != "users" || len(ops[0].Table.Columns) != 2 {
		t.Fatalf("dropped table definition not retained: %+v", ops[0].Table)
	}
}

func TestDiffAddedColumn(t *testing.T) {
	cur := usersSnapshot(map[string]ColumnSnapshot{
		"bio": {SQLName: "bio", Kind: "string"},
	})
	ops := Diff(usersSnapshot(nil), cur)
	if len(ops) != 1 || ops[0].Type != OpAddColumn {
		t.Fatalf("unexpected operations: %+v", ops)
	}
	if ops[0].TableName != "users" || ops[0].Column.SQLName != "bio" {
		t.Fatalf("unexpected operation: %+v", ops[0])
	}
}

func TestDiffSingleAttributeChangeIsDropThenAdd(t *testing.T) {
	prev := usersSnapshot(map[string]ColumnSnapshot{
		"age": {SQLName: "age", Kind: "number"},
	})
	cur := usersSnapshot(map[string]ColumnSnapshot{
		"age": {SQLName: "age", Kind: "number", NotNull: true},
	})

	ops := Diff(prev, cur)
	if len(ops) != 2 {
		t.Fatalf("got %d operations, want 2: %+v", len(ops), ops)
	}
	if ops[0].Type != OpDropColumn || ops[1].Type != OpAddColumn {
		t.Fatalf("wrong order: %v then %v", ops[0].Type, ops[1].Type)
	}
	// Drop carries the old definition, add the new one.
	if ops[0].Column.NotNull || !ops[1].Column.NotNull {
		t.Fatalf("definitions swapped: drop=%+v add=%+v", ops[0].Column, ops[1].Column)
	}
}

func TestDiffMatchesColumnsBySQLNameNotFieldKey(t *testing.T) {
	prev := usersSnapshot(nil)
	cur := usersSnapshot(nil)

	// Rename the field key but keep the sql name; not a schema change.
	tbl := cur.Tables["users"]
	email := tbl.Columns["email"]
	delete(tbl.Columns, "email")
	tbl.Columns["emailAddress"] = email
	cur.Tables["users"] = tbl

	if ops := Diff(prev, cur); len(ops) != 0 {
		t.Fatalf("field key rename produced operations: %+v", ops)
	}
}

func TestDiffLiteralDefaultsSurviveJSONRoundTrip(t *testing.T) {
	// An int default read back from disk becomes float64; the diff must not
	// see that as a change.
	prev := usersSnapshot(map[string]ColumnSnapshot{
		"score": {SQLName: "score", Kind: "number", HasDefault: true, DefaultKind: "literal", DefaultValue: 10},
	})
	cur := usersSnapshot(map[string]ColumnSnapshot{
		"score": {SQLName: "score", Kind: "number", HasDefault: true, DefaultKind: "literal", DefaultValue: float64(10)},
	})
	if ops := Diff(prev, cur); len(ops) != 0 {
		t.Fatalf("json-normalized defaults diffed: %+v", ops)
	}

	changed := usersSnapshot(map[string]ColumnSnapshot{
		"score": {SQLName: "score", Kind: "number", HasDefault: true, DefaultKind: "literal", DefaultValue: 20},
	})
	if ops := Diff(prev, changed); len(ops) != 2 {
		t.Fatalf("changed default produced %d operations, want 2", len(ops))
	}
}

func TestInvertReversesOrderAndOperations(t *testing.T) {
	prev := usersSnapshot(map[string]ColumnSnapshot{
		"age": {SQLName: "age", Kind: "number"},
	})
	cur := usersSnapshot(map[string]ColumnSnapshot{
		"age": {SQLName: "age", Kind: "number", NotNull: true},
	})
	cur.Tables["audit"] = TableSnapshot{
		Name:    "audit",
		Columns: map[string]ColumnSnapshot{"id": {SQLName: "id", Kind: "number", PrimaryKey: true}},
	}

	ops := Diff(prev, cur)
	inv := Invert(ops)
	if len(inv) != len(ops) {
		t.Fatalf("invert changed operation count: %d vs %d", len(inv), len(ops))
	}
	for i := range ops {
		mirror := inv[len(inv)-1-i]
		want := map[OpType]OpType{
			OpCreateTable: OpDropTable,
			OpDropTable:   OpCreateTable,
			OpAddColumn:   OpDropColumn,
			OpDropColumn:  OpAddColumn,
		}[ops[i].Type]
		if mirror.Type != want {
			t.Fatalf("op %d: %v inverted to %v, want %v", i, ops[i].Type, mirror.Type, want)
		}
	}

	// Applying Invert twice must restore the original list.
	double := Invert(inv)
	for i := range ops {
		if double[i].Type != ops[i].Type || double[i].Column.SQLName != ops[i].Column.SQLName {
			t.Fatalf("double inversion diverged at %d: %+v vs %+v", i, double[i], ops[i])
		}
	}
}
