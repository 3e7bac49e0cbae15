package snapshot

import (
	"bytes"
	"encoding/json"
	"sort"
)

// OpType is the kind of schema change an Operation performs.
type OpType int

const (
	OpCreateTable OpType = iota
	OpDropTable
	OpAddColumn
	OpDropColumn
)

// String returns the string representation of the operation type
func (o OpType) String() string {
	switch o {
	case OpCreateTable:
		return "create_table"
	case OpDropTable:
		return "drop_table"
	case OpAddColumn:
		return "add_column"
	case OpDropColumn:
		return "drop_column"
	default:
		return "unknown"
	}
}

// Operation is one atomic schema change. Table is populated for table-level
// operations; TableName and Column for column-level ones. Drop operations
// carry the displaced definition so Invert can restore it in a down script.
type Operation struct {
	Type      OpType
	TableKey  string
	Table     TableSnapshot
	TableName string
	Column    ColumnSnapshot
}

// Diff compares two snapshots and returns the ordered operations that
// transform previous into current: dropped tables first, then created
// tables, then column changes per surviving table. No AlterColumn is ever
// produced; a changed column becomes DropColumn immediately followed by
// AddColumn so dialects without atomic column replace never see a duplicate
// name.
func Diff(previous, current *Snapshot) []Operation {
	var ops []Operation

	prevKeys := sortedKeys(previous.Tables)
	curKeys := sortedKeys(current.Tables)

	for _, key := range prevKeys {
		if _, ok := current.Tables[key]; !ok {
			ops = append(ops, Operation{Type: OpDropTable, TableKey: key, Table: previous.Tables[key]})
		}
	}

	for _, key := range curKeys {
		if _, ok := previous.Tables[key]; !ok {
			ops = append(ops, Operation{Type: OpCreateTable, TableKey: key, Table: current.Tables[key]})
		}
	}

	for _, key := range curKeys {
		prevTable, ok := previous.Tables[key]
		if !ok {
			continue
		}
		ops = append(ops, diffColumns(key, prevTable, current.Tables[key])...)
	}

	return ops
}

// diffColumns matches columns by sql name, not field key, so renaming a field
// key without touching the sql name is not a schema change.
func diffColumns(tableKey string, prev, cur TableSnapshot) []Operation {
	prevBySQL := indexBySQLName(prev)
	curBySQL := indexBySQLName(cur)

	var ops []Operation

	for _, name := range sortedKeys(prevBySQL) {
		if _, ok := curBySQL[name]; !ok {
			ops = append(ops, Operation{Type: OpDropColumn, TableKey: tableKey, TableName: prev.Name, Column: prevBySQL[name]})
		}
	}

	for _, name := range sortedKeys(curBySQL) {
		old, existed := prevBySQL[name]
		if !existed {
			ops = append(ops, Operation{Type: OpAddColumn, TableKey: tableKey, TableName: cur.Name, Column: curBySQL[name]})
			continue
		}
		if !columnsEqual(old, curBySQL[name]) {
			// Drop before add: the old definition must be gone before a
			// column with the same name is created.
			ops = append(ops,
				Operation{Type: OpDropColumn, TableKey: tableKey, TableName: cur.Name, Column: old},
				Operation{Type: OpAddColumn, TableKey: tableKey, TableName: cur.Name, Column: curBySQL[name]},
			)
		}
	}

	return ops
}

// Invert returns the operations that undo ops, in reverse order. Drop
// operations retained the displaced definitions, so the inverse AddColumn and
// CreateTable restore the prior state exactly.
func Invert(ops []Operation) []Operation {
	inverted := make([]Operation, 0, len(ops))
	for i := len(ops) - 1; i >= 0; i-- {
		op := ops[i]
		switch op.Type {
		case OpCreateTable:
			op.Type = OpDropTable
		case OpDropTable:
			op.Type = OpCreateTable
		case OpAddColumn:
			op.Type = OpDropColumn
		case OpDropColumn:
			op.Type = OpAddColumn
		}
		inverted = append(inverted, op)
	}
	return inverted
}

// columnsEqual compares every attribute of two column snapshots. Generator
// defaults compare by generator id; literal defaults by deep value equality
// after JSON normalization, so 1 and 1.0 read back from disk stay equal.
func columnsEqual(a, b ColumnSnapshot) bool {
	if a.SQLName != b.SQLName ||
		a.Kind != b.Kind ||
		a.PrimaryKey != b.PrimaryKey ||
		a.NotNull != b.NotNull ||
		a.Unique != b.Unique ||
		a.HasDefault != b.HasDefault ||
		a.DefaultKind != b.DefaultKind ||
		a.Generator != b.Generator ||
		a.ReferencesTable != b.ReferencesTable ||
		a.ReferencesColumn != b.ReferencesColumn ||
		a.OnDelete != b.OnDelete {
		return false
	}
	return literalsEqual(a.DefaultValue, b.DefaultValue)
}

func literalsEqual(a, b any) bool {
	if a == nil && b == nil {
		return true
	}
	aj, errA := json.Marshal(a)
	bj, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return errA == nil && errB == nil
	}
	return bytes.Equal(aj, bj)
}

func indexBySQLName(t TableSnapshot) map[string]ColumnSnapshot {
	m := make(map[string]ColumnSnapshot, len(t.Columns))
	for _, c := range t.Columns {
		m[c.SQLName] = c
	}
	return m
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
