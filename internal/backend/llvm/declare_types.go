package llvm

import (
	"github.com/llir/llvm/ir/types"

	"sierra2llvm/internal/felt"
	"sierra2llvm/internal/sierra"
	"sierra2llvm/internal/trace"
)

// DeclareType registers one Sierra type declaration. Types must arrive in
// program order: a declaration may only reference types declared before it.
// A debug name is required only when debug info is enabled; without it the
// type is keyed by its numeric id alone.
func (c *Compiler) DeclareType(decl sierra.TypeDeclaration) error {
	where := "type " + decl.ID.String()
	key := decl.ID.Key()
	if c.types.has(key) {
		return fatalf(FatalDuplicate, where, "type id %s declared twice", key)
	}
	if c.debug.enabled() && !decl.ID.HasName() {
		return fatalf(FatalMissingDebugName, where, "debug info needs a debug name for every type")
	}
	trace.Point(c.tracer, trace.ScopeDecl, where, decl.LongID.GenericID, c.span)

	generic := decl.LongID.GenericID
	switch generic {
	case "felt", "felt252":
		c.types.insert(c.debug, key, decl.ID.Name(), types.NewInt(felt.Width))
		c.types.nameKey("felt", key)
		return nil
	case "NonZero":
		return c.declareErased(decl)
	}
	if it, ok := intTypeForGeneric(generic); ok {
		c.types.insert(c.debug, key, decl.ID.Name(), it)
		c.types.nameKey(generic, key)
		return nil
	}
	return fatalf(FatalUnsupportedDecl, where, "unsupported type %q", generic)
}

// declareErased handles wrappers with no runtime representation of their
// own, such as NonZero<T>: the wrapper's key aliases T's backend type. The
// nonzero guarantee matters to the prover, not to the generated code.
func (c *Compiler) declareErased(decl sierra.TypeDeclaration) error {
	where := "type " + decl.ID.String()
	args := decl.LongID.GenericArgs
	if len(args) != 1 {
		return fatalf(FatalUnsupportedArg, where, "%s takes exactly one generic argument, got %d", decl.LongID.GenericID, len(args))
	}
	arg := args[0]
	switch arg.Kind() {
	case sierra.ArgType:
		inner := arg.Type.Key()
		if !c.types.alias(c.debug, decl.ID.Key(), inner, decl.ID.Name()) {
			return fatalf(FatalUndeclaredType, where, "inner type %s is not declared yet", arg.Type)
		}
		return nil
	case sierra.ArgUserType:
		return fatalf(FatalUnimplemented, where, "user type arguments are not supported yet")
	default:
		return fatalf(FatalUnsupportedArg, where, "wrapper types are constructed only from a type argument, got %s", arg.Kind())
	}
}
