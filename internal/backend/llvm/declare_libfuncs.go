package llvm

import (
	"math/big"
	"strings"

	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"

	"sierra2llvm/internal/felt"
	"sierra2llvm/internal/sierra"
	"sierra2llvm/internal/trace"
)

// DeclareLibfunc lowers one libfunc declaration into one backend function
// named after its debug name.
func (c *Compiler) DeclareLibfunc(decl sierra.LibfuncDeclaration) error {
	where := "libfunc " + decl.ID.String()
	if _, err := libfuncName(decl); err != nil {
		return err
	}
	trace.Point(c.tracer, trace.ScopeDecl, where, decl.LongID.GenericID, c.span)

	generic := decl.LongID.GenericID
	switch generic {
	case "felt_const", "felt252_const":
		return c.FeltConst(decl)
	case "felt_sub", "felt252_sub":
		return c.FeltSub(decl)
	case "felt_add", "felt252_add":
		return c.FeltAdd(decl)
	case "felt_mul", "felt252_mul":
		return c.FeltMul(decl)
	}
	if intName, ok := strings.CutSuffix(generic, "_wrapping_add"); ok {
		if _, known := intTypeForGeneric(intName); known {
			return c.IntWrappingAdd(decl, intName)
		}
	}
	return fatalf(FatalUnsupportedDecl, where, "unsupported libfunc %q", generic)
}

// FeltConst lowers felt_const<v>: fn() -> felt returning v. The single
// generic argument must be a decimal literal; negative literals are reduced
// into the field.
func (c *Compiler) FeltConst(decl sierra.LibfuncDeclaration) error {
	where := "libfunc " + decl.ID.String()
	feltSlot, ok := c.types.lookupName("felt")
	if !ok {
		return fatalf(FatalUndeclaredType, where, "felt is not declared")
	}
	args := decl.LongID.GenericArgs
	if len(args) != 1 {
		return fatalf(FatalBadConstant, where, "felt constant takes exactly one value, got %d arguments", len(args))
	}
	if args[0].Kind() != sierra.ArgValue {
		return fatalf(FatalBadConstant, where, "no value for felt constant")
	}
	lit := strings.TrimSpace(*args[0].Value)
	v, ok := new(big.Int).SetString(lit, 10)
	if !ok {
		return fatalf(FatalBadConstant, where, "felt constant %q is not a decimal value", lit)
	}
	p := felt.Prime()
	if new(big.Int).Abs(v).Cmp(p) >= 0 {
		return fatalf(FatalBadConstant, where, "felt constant %s is outside (-prime, prime)", lit)
	}
	v.Mod(v, p)
	name, err := libfuncName(decl)
	if err != nil {
		return err
	}
	k := &constant.Int{Typ: feltSlot.Type.(*types.IntType), X: v}
	return c.Lower(name, feltSlot, nil, ConstBody(k))
}

// FeltSub lowers felt_sub: fn(felt, felt) -> felt. The raw difference is
// widened and folded back through the modulo helper, never returned as is.
func (c *Compiler) FeltSub(decl sierra.LibfuncDeclaration) error {
	return c.feltBinary(decl, FeltSubBody)
}

// FeltAdd lowers felt_add.
func (c *Compiler) FeltAdd(decl sierra.LibfuncDeclaration) error {
	return c.feltBinary(decl, FeltAddBody)
}

// FeltMul lowers felt_mul.
func (c *Compiler) FeltMul(decl sierra.LibfuncDeclaration) error {
	return c.feltBinary(decl, FeltMulBody)
}

func (c *Compiler) feltBinary(decl sierra.LibfuncDeclaration, body func(*ModuloHelper) Body) error {
	where := "libfunc " + decl.ID.String()
	feltSlot, ok := c.types.lookupName("felt")
	if !ok {
		return fatalf(FatalUndeclaredType, where, "felt is not declared")
	}
	if c.modulo == nil {
		return fatalf(FatalMissingHelper, where, "%s must be declared before field operations", ModuloName)
	}
	name, err := libfuncName(decl)
	if err != nil {
		return err
	}
	return c.Lower(name, feltSlot, []Slot{feltSlot, feltSlot}, body(c.modulo))
}

// IntWrappingAdd lowers uN_wrapping_add: fn(uN, uN) -> uN with the generic
// add body.
func (c *Compiler) IntWrappingAdd(decl sierra.LibfuncDeclaration, intName string) error {
	where := "libfunc " + decl.ID.String()
	slot, ok := c.types.lookupName(intName)
	if !ok {
		return fatalf(FatalUndeclaredType, where, "%s is not declared", intName)
	}
	name, err := libfuncName(decl)
	if err != nil {
		return err
	}
	return c.Lower(name, slot, []Slot{slot, slot}, IntAddBody())
}

// libfuncName is the backend function name for decl: its debug name, which
// every lowered libfunc must carry.
func libfuncName(decl sierra.LibfuncDeclaration) (string, error) {
	if !decl.ID.HasName() {
		return "", fatalf(FatalMissingDebugName, "libfunc "+decl.ID.String(), "libfuncs are lowered to functions named after their debug name")
	}
	return decl.ID.Name(), nil
}
