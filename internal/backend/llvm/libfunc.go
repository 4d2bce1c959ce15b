package llvm

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"sierra2llvm/internal/trace"
)

// BodyKind selects what a lowered function computes.
type BodyKind uint8

const (
	bodyInvalid BodyKind = iota
	// BodyConst returns a constant.
	BodyConst
	// BodyIntAdd adds the first and last parameter at their own width.
	BodyIntAdd
	// BodyFeltAdd, BodyFeltSub and BodyFeltMul compute at native or wide
	// width and reduce through the modulo helper.
	BodyFeltAdd
	BodyFeltSub
	BodyFeltMul
	// BodyReduce is the modulo helper itself: wide value to canonical felt.
	BodyReduce
)

func (k BodyKind) String() string {
	switch k {
	case BodyConst:
		return "const"
	case BodyIntAdd:
		return "int_add"
	case BodyFeltAdd:
		return "felt_add"
	case BodyFeltSub:
		return "felt_sub"
	case BodyFeltMul:
		return "felt_mul"
	case BodyReduce:
		return "reduce"
	default:
		return "invalid"
	}
}

// Body is the part of a lowering that differs between libfuncs. Field
// bodies need the modulo helper and carry it explicitly.
type Body struct {
	Kind   BodyKind
	Const  *constant.Int
	Modulo *ModuloHelper
}

// ConstBody returns v.
func ConstBody(v *constant.Int) Body { return Body{Kind: BodyConst, Const: v} }

// IntAddBody adds two integers with wrapping semantics.
func IntAddBody() Body { return Body{Kind: BodyIntAdd} }

// FeltAddBody adds two field elements.
func FeltAddBody(m *ModuloHelper) Body { return Body{Kind: BodyFeltAdd, Modulo: m} }

// FeltSubBody subtracts two field elements.
func FeltSubBody(m *ModuloHelper) Body { return Body{Kind: BodyFeltSub, Modulo: m} }

// FeltMulBody multiplies two field elements.
func FeltMulBody(m *ModuloHelper) Body { return Body{Kind: BodyFeltMul, Modulo: m} }

// Arity is the number of parameters the body reads.
func (b Body) Arity() int {
	switch b.Kind {
	case BodyConst:
		return 0
	case BodyReduce:
		return 1
	default:
		return 2
	}
}

func (b Body) needsModulo() bool {
	switch b.Kind {
	case BodyFeltAdd, BodyFeltSub, BodyFeltMul:
		return true
	}
	return false
}

// Lower creates the function name(params...) result, fills its entry block
// with body and returns the computed value. Every check runs before the
// function is created; on error the module is unchanged.
func (c *Compiler) Lower(name string, result Slot, params []Slot, body Body) error {
	if len(params) != body.Arity() {
		return &ArityError{Func: name, Want: body.Arity(), Got: len(params)}
	}
	if name == "" {
		return fmt.Errorf("lower %s: empty function name", body.Kind)
	}
	if _, dup := c.funcs[name]; dup {
		return fmt.Errorf("lower %s: function %q already defined", body.Kind, name)
	}
	if body.Kind == bodyInvalid {
		return fmt.Errorf("lower %s: invalid body", name)
	}
	if body.Kind == BodyConst && body.Const == nil {
		return fmt.Errorf("lower %s: const body without a value", name)
	}
	if body.needsModulo() && body.Modulo == nil {
		return fatalf(FatalMissingHelper, name, "%s requires the modulo helper", body.Kind)
	}
	sig, err := c.debug.signature(name, result, params)
	if err != nil {
		return err
	}
	line, err := c.lineNo()
	if err != nil {
		return err
	}

	irParams := make([]*ir.Param, len(params))
	for i, p := range params {
		irParams[i] = ir.NewParam(fmt.Sprintf("p%d", i), p.Type)
	}
	fn := ir.NewFunc(name, result.Type, irParams...)
	entry := fn.NewBlock("entry")
	ret, err := c.emitBody(entry, fn, body)
	if err != nil {
		return fmt.Errorf("lower %s: %w", name, err)
	}
	entry.NewRet(ret)

	fn.Parent = c.module
	c.module.Funcs = append(c.module.Funcs, fn)
	c.funcs[name] = fn
	c.debug.attachSubprogram(fn, sig, line)
	trace.Point(c.tracer, trace.ScopeInstr, name, fmt.Sprintf("%s body, %d instructions", body.Kind, len(entry.Insts)), c.span)
	return nil
}

func (c *Compiler) emitBody(entry *ir.Block, fn *ir.Func, body Body) (value.Value, error) {
	switch body.Kind {
	case BodyConst:
		if !types.Equal(body.Const.Type(), fn.Sig.RetType) {
			return nil, fmt.Errorf("constant of type %s returned as %s", body.Const.Type(), fn.Sig.RetType)
		}
		return body.Const, nil
	case BodyIntAdd:
		a, b := firstParam(fn), lastParam(fn)
		if !types.Equal(a.Type(), b.Type()) {
			return nil, fmt.Errorf("operand type mismatch: %s vs %s", a.Type(), b.Type())
		}
		res := entry.NewAdd(a, b)
		res.SetName("res")
		return res, nil
	case BodyFeltAdd, BodyFeltSub, BodyFeltMul:
		return body.Modulo.emitFieldOp(entry, body.Kind, firstParam(fn), lastParam(fn))
	case BodyReduce:
		to, ok := fn.Sig.RetType.(*types.IntType)
		if !ok {
			return nil, fmt.Errorf("reduce must return an integer, got %s", fn.Sig.RetType)
		}
		return emitReduce(entry, firstParam(fn), to)
	default:
		return nil, fmt.Errorf("unsupported body %s", body.Kind)
	}
}

func firstParam(fn *ir.Func) *ir.Param { return fn.Params[0] }

func lastParam(fn *ir.Func) *ir.Param { return fn.Params[len(fn.Params)-1] }
