package llvm

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"sierra2llvm/internal/felt"
)

// ModuloName is the module-level name of the reduction helper.
const ModuloName = "modulo"

// ModuloHelper is the capability field bodies need: the declared modulo
// function and the two widths it converts between.
type ModuloHelper struct {
	fn   *ir.Func
	felt *types.IntType
	wide *types.IntType
}

// Func returns the helper function.
func (h *ModuloHelper) Func() *ir.Func { return h.fn }

// Modulo returns the helper once DeclareModulo has run.
func (c *Compiler) Modulo() (*ModuloHelper, bool) {
	return c.modulo, c.modulo != nil
}

// DeclareModulo lowers modulo(wide) felt, which folds a signed wide value
// into [0, prime). The felt type must be declared. Calling it twice
// returns the existing helper.
func (c *Compiler) DeclareModulo() (*ModuloHelper, error) {
	if c.modulo != nil {
		return c.modulo, nil
	}
	feltSlot, ok := c.types.lookupName("felt")
	if !ok {
		return nil, fatalf(FatalUndeclaredType, ModuloName, "felt must be declared before the modulo helper")
	}
	feltType, ok := feltSlot.Type.(*types.IntType)
	if !ok || feltType.BitSize != felt.Width {
		return nil, fatalf(FatalUnsupportedDecl, ModuloName, "felt must be i%d, got %s", felt.Width, feltSlot.Type)
	}
	if !c.types.has(wideFeltKey) {
		c.types.insert(c.debug, wideFeltKey, "felt_wide", types.NewInt(felt.WideWidth))
	}
	wideSlot, _ := c.types.lookup(wideFeltKey)
	if err := c.Lower(ModuloName, feltSlot, []Slot{wideSlot}, Body{Kind: BodyReduce}); err != nil {
		return nil, err
	}
	c.modulo = &ModuloHelper{
		fn:   c.funcs[ModuloName],
		felt: feltType,
		wide: wideSlot.Type.(*types.IntType),
	}
	return c.modulo, nil
}

// emitReduce computes ((x srem P) + P) srem P and truncates it to felt width.
// For |x| < P*P the intermediate sum stays inside the wide range.
func emitReduce(entry *ir.Block, x value.Value, to *types.IntType) (value.Value, error) {
	wide, ok := x.Type().(*types.IntType)
	if !ok {
		return nil, fmt.Errorf("reduce operand must be an integer, got %s", x.Type())
	}
	if wide.BitSize <= to.BitSize {
		return nil, fmt.Errorf("reduce from i%d to i%d does not narrow", wide.BitSize, to.BitSize)
	}
	p := &constant.Int{Typ: wide, X: felt.Prime()}
	rem := entry.NewSRem(x, p)
	rem.SetName("rem")
	shifted := entry.NewAdd(rem, p)
	shifted.SetName("shifted")
	canon := entry.NewSRem(shifted, p)
	canon.SetName("canon")
	res := entry.NewTrunc(canon, to)
	res.SetName("res")
	return res, nil
}

// emitFieldOp is the widen-then-reduce template. sub runs at felt width,
// where the difference of two canonical operands fits as a signed value, and
// is then sign-extended. add and mul extend both operands first: a sum can
// reach 2P-2, past the signed range of felt width.
func (h *ModuloHelper) emitFieldOp(entry *ir.Block, kind BodyKind, a, b value.Value) (value.Value, error) {
	for _, operand := range []value.Value{a, b} {
		if !types.Equal(operand.Type(), h.felt) {
			return nil, fmt.Errorf("%s operand must be %s, got %s", kind, h.felt, operand.Type())
		}
	}
	var arg value.Value
	switch kind {
	case BodyFeltSub:
		diff := entry.NewSub(a, b)
		diff.SetName("diff")
		arg = entry.NewSExt(diff, h.wide)
	case BodyFeltAdd:
		wa, wb := h.widen(entry, a, b)
		arg = entry.NewAdd(wa, wb)
	case BodyFeltMul:
		wa, wb := h.widen(entry, a, b)
		arg = entry.NewMul(wa, wb)
	default:
		return nil, fmt.Errorf("%s is not a field operation", kind)
	}
	if named, ok := arg.(interface{ SetName(string) }); ok {
		named.SetName("arg")
	}
	res := entry.NewCall(h.fn, arg)
	res.SetName("res")
	return res, nil
}

func (h *ModuloHelper) widen(entry *ir.Block, a, b value.Value) (value.Value, value.Value) {
	wa := entry.NewSExt(a, h.wide)
	wa.SetName("lhs")
	wb := entry.NewSExt(b, h.wide)
	wb.SetName("rhs")
	return wa, wb
}
