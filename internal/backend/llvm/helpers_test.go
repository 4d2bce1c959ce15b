package llvm

import (
	"errors"
	"testing"

	"sierra2llvm/internal/sierra"
)

func typeDecl(id uint64, name, generic string, args ...sierra.GenericArg) sierra.TypeDeclaration {
	return sierra.TypeDeclaration{
		ID:     sierra.ID{ID: id, DebugName: name},
		LongID: sierra.LongID{GenericID: generic, GenericArgs: args},
	}
}

func libfuncDecl(id uint64, name, generic string, args ...sierra.GenericArg) sierra.LibfuncDeclaration {
	return sierra.LibfuncDeclaration{
		ID:     sierra.ID{ID: id, DebugName: name},
		LongID: sierra.LongID{GenericID: generic, GenericArgs: args},
	}
}

// feltCompiler declares felt under id 0 and the modulo helper.
func feltCompiler(t *testing.T, opts Options) *Compiler {
	t.Helper()
	c := New(opts)
	if err := c.DeclareType(typeDecl(0, "felt", "felt")); err != nil {
		t.Fatalf("declare felt: %v", err)
	}
	if _, err := c.DeclareModulo(); err != nil {
		t.Fatalf("declare modulo: %v", err)
	}
	return c
}

func requireFatal(t *testing.T, err error, kind FatalKind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected fatal %s, got nil", kind)
	}
	if !errors.Is(err, ErrFatal) {
		t.Fatalf("expected fatal error, got %v", err)
	}
	var fe *FatalError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FatalError, got %T", err)
	}
	if fe.Kind != kind {
		t.Fatalf("fatal kind = %s, want %s (%v)", fe.Kind, kind, err)
	}
}
