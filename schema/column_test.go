package schema

import "testing"

func TestColumnBuildersDoNotMutateReceiver(t *testing.T) {
	base := String("email")

	withConstraints := base.NotNull().Unique()
	if base.IsNotNull || base.IsUnique {
		t.Fatalf("builder mutated the original column: %+v", base)
	}
	if !withConstraints.IsNotNull || !withConstraints.IsUnique {
		t.Fatalf("constraints not applied: %+v", withConstraints)
	}

	withDefault := base.WithDefault("none@example.com")
	if base.HasDefault() {
		t.Fatalf("WithDefault mutated the original column")
	}
	if withDefault.Default.Kind != DefaultLiteral || withDefault.Default.Literal != "none@example.com" {
		t.Fatalf("unexpected default: %+v", withDefault.Default)
	}
}

func TestColumnReferencesCopiesPointer(t *testing.T) {
	base := Number("author_id")
	ref := base.References("users", "id").OnDelete(Cascade)

	if base.Ref != nil {
		t.Fatalf("References mutated the original column")
	}
	if ref.Ref == nil || ref.Ref.Table != "users" || ref.Ref.Column != "id" {
		t.Fatalf("unexpected reference: %+v", ref.Ref)
	}
	if ref.OnDeleteAct != Cascade {
		t.Fatalf("unexpected on-delete action: %v", ref.OnDeleteAct)
	}
}

func TestGeneratedByReplacesLiteralDefault(t *testing.T) {
	col := Date("created_at").WithDefault("2020-01-01").GeneratedBy(GeneratorNow)
	if col.Default.Kind != DefaultGenerator || col.Default.Generator != GeneratorNow {
		t.Fatalf("unexpected default: %+v", col.Default)
	}
	if col.Default.Literal != nil {
		t.Fatalf("literal not cleared: %+v", col.Default)
	}
}

func TestParseKindRoundTrip(t *testing.T) {
	for _, k := range []Kind{KindNumber, KindString, KindBool, KindDate, KindJSON, KindJSONB, KindUUID} {
		parsed, err := ParseKind(k.String())
		if err != nil {
			t.Fatalf("ParseKind(%q): %v", k.String(), err)
		}
		if parsed != k {
			t.Fatalf("ParseKind(%q) = %v, want %v", k.String(), parsed, k)
		}
	}
	if _, err := ParseKind("decimal"); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestValidIdentifier(t *testing.T) {
	valid := []string{"users", "user_accounts", "_private", "t2", "A"}
	for _, s := range valid {
		if !ValidIdentifier(s) {
			t.Errorf("ValidIdentifier(%q) = false, want true", s)
		}
	}
	invalid := []string{"", "2fast", "user-accounts", "users; DROP TABLE users", "näme", "a.b"}
	for _, s := range invalid {
		if ValidIdentifier(s) {
			t.Errorf("ValidIdentifier(%q) = true, want false", s)
		}
	}
}
