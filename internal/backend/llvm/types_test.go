package llvm

import (
	"testing"

	"github.com/llir/llvm/ir/types"

	"sierra2llvm/internal/felt"
	"sierra2llvm/internal/sierra"
)

func TestDeclareScalarTypes(t *testing.T) {
	c := New(Options{})
	decls := []sierra.TypeDeclaration{
		typeDecl(0, "felt", "felt"),
		typeDecl(1, "u8", "u8"),
		typeDecl(2, "u128", "u128"),
	}
	for _, d := range decls {
		if err := c.DeclareType(d); err != nil {
			t.Fatalf("DeclareType(%s): %v", d.ID, err)
		}
	}
	want := map[string]uint64{"0": felt.Width, "1": 8, "2": 128}
	for key, bits := range want {
		slot, ok := c.Lookup(key)
		if !ok {
			t.Fatalf("key %s not registered", key)
		}
		it, ok := slot.Type.(*types.IntType)
		if !ok || it.BitSize != bits {
			t.Errorf("key %s: got %s, want i%d", key, slot.Type, bits)
		}
	}
	if got := c.TypeKeys(); len(got) != 3 || got[0] != "0" || got[2] != "2" {
		t.Fatalf("TypeKeys = %v", got)
	}
	if slot, ok := c.LookupName("felt"); !ok || slot.Key != "0" {
		t.Fatalf("LookupName(felt) = %v, %v", slot, ok)
	}
}

func TestNonZeroAliasesInnerHandle(t *testing.T) {
	c := New(Options{})
	if err := c.DeclareType(typeDecl(0, "felt", "felt")); err != nil {
		t.Fatalf("declare felt: %v", err)
	}
	inner := sierra.ID{ID: 0, DebugName: "felt"}
	if err := c.DeclareType(typeDecl(1, "NonZero<felt>", "NonZero", sierra.TypeArg(inner))); err != nil {
		t.Fatalf("declare NonZero: %v", err)
	}
	a, _ := c.Lookup("0")
	b, ok := c.Lookup("1")
	if !ok {
		t.Fatal("wrapper not registered")
	}
	if a.Type != b.Type {
		t.Fatalf("wrapper handle %p differs from inner handle %p", b.Type, a.Type)
	}
}

func TestNonZeroBeforeInnerIsFatal(t *testing.T) {
	c := New(Options{})
	inner := sierra.ID{ID: 5, DebugName: "felt"}
	err := c.DeclareType(typeDecl(1, "NonZero<felt>", "NonZero", sierra.TypeArg(inner)))
	requireFatal(t, err, FatalUndeclaredType)
	if _, ok := c.Lookup("1"); ok {
		t.Fatal("failed declaration left a placeholder entry")
	}
}

func TestNonZeroRejectedArguments(t *testing.T) {
	tests := []struct {
		name string
		args []sierra.GenericArg
		kind FatalKind
	}{
		{"user type", []sierra.GenericArg{sierra.UserTypeArg("MyStruct")}, FatalUnimplemented},
		{"value", []sierra.GenericArg{sierra.ValueArg("7")}, FatalUnsupportedArg},
		{"no argument", nil, FatalUnsupportedArg},
		{"two arguments", []sierra.GenericArg{
			sierra.TypeArg(sierra.ID{ID: 0}),
			sierra.TypeArg(sierra.ID{ID: 0}),
		}, FatalUnsupportedArg},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(Options{})
			if err := c.DeclareType(typeDecl(0, "felt", "felt")); err != nil {
				t.Fatalf("declare felt: %v", err)
			}
			err := c.DeclareType(typeDecl(1, "nz", "NonZero", tt.args...))
			requireFatal(t, err, tt.kind)
		})
	}
}

func TestDeclareTypeErrors(t *testing.T) {
	c := New(Options{})
	if err := c.DeclareType(typeDecl(0, "felt", "felt")); err != nil {
		t.Fatalf("declare felt: %v", err)
	}
	requireFatal(t, c.DeclareType(typeDecl(0, "again", "u8")), FatalDuplicate)
	requireFatal(t, c.DeclareType(typeDecl(3, "Box", "Box")), FatalUnsupportedDecl)

	dbg := New(Options{DebugInfo: true})
	requireFatal(t, dbg.DeclareType(typeDecl(0, "", "felt")), FatalMissingDebugName)

	plain := New(Options{})
	if err := plain.DeclareType(typeDecl(0, "", "felt")); err != nil {
		t.Fatalf("unnamed type without debug info: %v", err)
	}
}
