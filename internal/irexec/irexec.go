// Package irexec evaluates the straight-line integer IR produced by the
// lowering backend. It understands the instructions the backend emits and
// nothing more; anything else is reported, never skipped.
package irexec

import (
	"fmt"
	"math/big"

	"fortio.org/safecast"
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// maxDepth bounds nested calls.
const maxDepth = 64

// Code classifies an evaluation failure.
type Code uint8

const (
	CodeUnknownFunc Code = iota + 1
	CodeArity
	CodeUnsupported
	CodeDivByZero
	CodeNoTerminator
	CodeDepth
)

func (c Code) String() string {
	switch c {
	case CodeUnknownFunc:
		return "unknown function"
	case CodeArity:
		return "arity mismatch"
	case CodeUnsupported:
		return "unsupported"
	case CodeDivByZero:
		return "division by zero"
	case CodeNoTerminator:
		return "missing terminator"
	case CodeDepth:
		return "call depth exceeded"
	default:
		return "error"
	}
}

// Error is returned for every evaluation failure.
type Error struct {
	Code Code
	Func string
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Func, e.Code, e.Msg)
}

func errorf(code Code, fn, format string, args ...any) *Error {
	return &Error{Code: code, Func: fn, Msg: fmt.Sprintf(format, args...)}
}

// frame holds the values of one activation, each stored unsigned at its
// type's bit width.
type frame struct {
	fn     *ir.Func
	locals map[value.Value]*big.Int
}

// Call evaluates the function name in m with args and returns its result as
// an unsigned integer. Arguments are truncated to their parameter widths,
// so negative inputs are accepted in two's complement.
func Call(m *ir.Module, name string, args ...*big.Int) (*big.Int, error) {
	fn := lookup(m, name)
	if fn == nil {
		return nil, errorf(CodeUnknownFunc, name, "not defined in module")
	}
	return call(m, fn, args, 0)
}

// Signed reinterprets an unsigned result of the given width as signed.
func Signed(v *big.Int, width uint64) (*big.Int, error) {
	w, err := safecast.Conv[uint](width)
	if err != nil {
		return nil, err
	}
	return toSigned(v, w), nil
}

func lookup(m *ir.Module, name string) *ir.Func {
	for _, fn := range m.Funcs {
		if fn.Name() == name {
			return fn
		}
	}
	return nil
}

func call(m *ir.Module, fn *ir.Func, args []*big.Int, depth int) (*big.Int, error) {
	name := fn.Name()
	if depth >= maxDepth {
		return nil, errorf(CodeDepth, name, "more than %d nested calls", maxDepth)
	}
	if len(args) != len(fn.Params) {
		return nil, errorf(CodeArity, name, "takes %d arguments, got %d", len(fn.Params), len(args))
	}
	if len(fn.Blocks) == 0 {
		return nil, errorf(CodeUnsupported, name, "declaration without body")
	}
	if len(fn.Blocks) != 1 {
		return nil, errorf(CodeUnsupported, name, "%d blocks, only straight-line functions are evaluated", len(fn.Blocks))
	}
	f := &frame{fn: fn, locals: make(map[value.Value]*big.Int, len(fn.Params)+len(fn.Blocks[0].Insts))}
	for i, p := range fn.Params {
		w, err := width(p.Type())
		if err != nil {
			return nil, errorf(CodeUnsupported, name, "parameter %d: %v", i, err)
		}
		f.locals[p] = wrap(args[i], w)
	}

	block := fn.Blocks[0]
	for _, inst := range block.Insts {
		if err := f.step(m, inst, depth); err != nil {
			return nil, err
		}
	}
	ret, ok := block.Term.(*ir.TermRet)
	if !ok || ret == nil {
		return nil, errorf(CodeNoTerminator, name, "block %s does not end in ret", block.Name())
	}
	if ret.X == nil {
		return nil, errorf(CodeUnsupported, name, "void return")
	}
	return f.operand(ret.X)
}

func (f *frame) step(m *ir.Module, inst ir.Instruction, depth int) error {
	name := f.fn.Name()
	switch in := inst.(type) {
	case *ir.InstAdd:
		return f.binary(in, in.X, in.Y, func(a, b *big.Int, _ uint) (*big.Int, error) {
			return new(big.Int).Add(a, b), nil
		})
	case *ir.InstSub:
		return f.binary(in, in.X, in.Y, func(a, b *big.Int, _ uint) (*big.Int, error) {
			return new(big.Int).Sub(a, b), nil
		})
	case *ir.InstMul:
		return f.binary(in, in.X, in.Y, func(a, b *big.Int, _ uint) (*big.Int, error) {
			return new(big.Int).Mul(a, b), nil
		})
	case *ir.InstURem:
		return f.binary(in, in.X, in.Y, func(a, b *big.Int, _ uint) (*big.Int, error) {
			if b.Sign() == 0 {
				return nil, errorf(CodeDivByZero, name, "urem by zero")
			}
			return new(big.Int).Rem(a, b), nil
		})
	case *ir.InstSRem:
		return f.binary(in, in.X, in.Y, func(a, b *big.Int, w uint) (*big.Int, error) {
			if b.Sign() == 0 {
				return nil, errorf(CodeDivByZero, name, "srem by zero")
			}
			// big.Int.Rem truncates toward zero, matching srem.
			return new(big.Int).Rem(toSigned(a, w), toSigned(b, w)), nil
		})
	case *ir.InstSExt:
		return f.convert(in, in.From, in.To, true)
	case *ir.InstZExt:
		return f.convert(in, in.From, in.To, false)
	case *ir.InstTrunc:
		return f.convert(in, in.From, in.To, false)
	case *ir.InstCall:
		callee, ok := in.Callee.(*ir.Func)
		if !ok {
			return errorf(CodeUnsupported, name, "indirect call")
		}
		args := make([]*big.Int, len(in.Args))
		for i, a := range in.Args {
			v, err := f.operand(a)
			if err != nil {
				return err
			}
			args[i] = v
		}
		res, err := call(m, callee, args, depth+1)
		if err != nil {
			return err
		}
		f.locals[in] = res
		return nil
	default:
		return errorf(CodeUnsupported, name, "instruction %T", inst)
	}
}

func (f *frame) binary(dst value.Value, x, y value.Value, op func(a, b *big.Int, w uint) (*big.Int, error)) error {
	w, err := width(dst.Type())
	if err != nil {
		return errorf(CodeUnsupported, f.fn.Name(), "%v", err)
	}
	a, err := f.operand(x)
	if err != nil {
		return err
	}
	b, err := f.operand(y)
	if err != nil {
		return err
	}
	res, err := op(a, b, w)
	if err != nil {
		return err
	}
	f.locals[dst] = wrap(res, w)
	return nil
}

func (f *frame) convert(dst value.Value, from value.Value, to types.Type, signed bool) error {
	src, err := width(from.Type())
	if err != nil {
		return errorf(CodeUnsupported, f.fn.Name(), "%v", err)
	}
	dw, err := width(to)
	if err != nil {
		return errorf(CodeUnsupported, f.fn.Name(), "%v", err)
	}
	v, err := f.operand(from)
	if err != nil {
		return err
	}
	if signed {
		v = toSigned(v, src)
	}
	f.locals[dst] = wrap(v, dw)
	return nil
}

func (f *frame) operand(v value.Value) (*big.Int, error) {
	switch x := v.(type) {
	case *constant.Int:
		w, err := width(x.Typ)
		if err != nil {
			return nil, errorf(CodeUnsupported, f.fn.Name(), "%v", err)
		}
		return wrap(x.X, w), nil
	default:
		got, ok := f.locals[v]
		if !ok {
			return nil, errorf(CodeUnsupported, f.fn.Name(), "operand %s has no value", v.Ident())
		}
		return got, nil
	}
}

func width(t types.Type) (uint, error) {
	it, ok := t.(*types.IntType)
	if !ok {
		return 0, fmt.Errorf("non-integer type %s", t)
	}
	return safecast.Conv[uint](it.BitSize)
}

// wrap reduces v into [0, 2^w).
func wrap(v *big.Int, w uint) *big.Int {
	mod := new(big.Int).Lsh(big.NewInt(1), w)
	out := new(big.Int).Mod(v, mod)
	return out
}

// toSigned reads an unsigned w-bit value as two's complement.
func toSigned(v *big.Int, w uint) *big.Int {
	if w == 0 || v.Bit(int(w-1)) == 0 {
		return new(big.Int).Set(v)
	}
	return new(big.Int).Sub(v, new(big.Int).Lsh(big.NewInt(1), w))
}
