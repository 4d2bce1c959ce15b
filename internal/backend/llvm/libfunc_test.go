package llvm

import (
	"errors"
	"math/big"
	"testing"

	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"

	"sierra2llvm/internal/felt"
	"sierra2llvm/internal/irexec"
	"sierra2llvm/internal/sierra"
)

func TestLowerArityMismatchAddsNothing(t *testing.T) {
	c := feltCompiler(t, Options{})
	felt0, _ := c.LookupName("felt")
	before := len(c.Module().Funcs)

	err := c.Lower("bad_sub", felt0, []Slot{felt0}, FeltSubBody(c.modulo))
	var arity *ArityError
	if !errors.As(err, &arity) {
		t.Fatalf("expected *ArityError, got %v", err)
	}
	if arity.Want != 2 || arity.Got != 1 {
		t.Fatalf("arity = %+v", arity)
	}
	if errors.Is(err, ErrFatal) {
		t.Fatal("arity mismatch must not be fatal")
	}
	if got := len(c.Module().Funcs); got != before {
		t.Fatalf("module has %d functions, want %d", got, before)
	}
	if _, ok := c.Func("bad_sub"); ok {
		t.Fatal("bad_sub was registered")
	}
}

func TestLowerRejectsDuplicateName(t *testing.T) {
	c := New(Options{})
	if err := c.DeclareType(typeDecl(0, "u32", "u32")); err != nil {
		t.Fatalf("declare u32: %v", err)
	}
	slot, _ := c.Lookup("0")
	if err := c.Lower("add", slot, []Slot{slot, slot}, IntAddBody()); err != nil {
		t.Fatalf("first Lower: %v", err)
	}
	if err := c.Lower("add", slot, []Slot{slot, slot}, IntAddBody()); err == nil {
		t.Fatal("expected duplicate name error")
	}
	if got := len(c.Module().Funcs); got != 1 {
		t.Fatalf("module has %d functions, want 1", got)
	}
}

func TestLowerFieldBodyNeedsHelper(t *testing.T) {
	c := New(Options{})
	if err := c.DeclareType(typeDecl(0, "felt", "felt")); err != nil {
		t.Fatalf("declare felt: %v", err)
	}
	slot, _ := c.Lookup("0")
	requireFatal(t, c.Lower("sub", slot, []Slot{slot, slot}, FeltSubBody(nil)), FatalMissingHelper)
	requireFatal(t, c.FeltSub(libfuncDecl(1, "felt_sub", "felt_sub")), FatalMissingHelper)
	if len(c.Module().Funcs) != 0 {
		t.Fatal("functions were added without the helper")
	}
}

func TestIntWrappingAdd(t *testing.T) {
	c := New(Options{})
	if err := c.DeclareType(typeDecl(0, "u8", "u8")); err != nil {
		t.Fatalf("declare u8: %v", err)
	}
	if err := c.DeclareLibfunc(libfuncDecl(0, "u8_wrapping_add", "u8_wrapping_add")); err != nil {
		t.Fatalf("DeclareLibfunc: %v", err)
	}
	got, err := irexec.Call(c.Module(), "u8_wrapping_add", big.NewInt(250), big.NewInt(10))
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if got.Int64() != 4 {
		t.Fatalf("got %s, want 4", got)
	}
}

func TestFeltConstRoundTrip(t *testing.T) {
	c := feltCompiler(t, Options{})
	if err := c.FeltConst(libfuncDecl(1, "felt_const<42>", "felt_const", sierra.ValueArg("42"))); err != nil {
		t.Fatalf("FeltConst: %v", err)
	}
	fn, ok := c.Func("felt_const<42>")
	if !ok {
		t.Fatal("function not registered")
	}
	if len(fn.Params) != 0 {
		t.Fatalf("const function takes %d params", len(fn.Params))
	}
	if rt, ok := fn.Sig.RetType.(*types.IntType); !ok || rt.BitSize != felt.Width {
		t.Fatalf("return type %s, want i%d", fn.Sig.RetType, felt.Width)
	}
	got, err := irexec.Call(c.Module(), "felt_const<42>")
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if got.Int64() != 42 {
		t.Fatalf("got %s, want 42", got)
	}
}

func TestFeltConstNegativeIsReduced(t *testing.T) {
	c := feltCompiler(t, Options{})
	if err := c.FeltConst(libfuncDecl(1, "minus_one", "felt_const", sierra.ValueArg("-1"))); err != nil {
		t.Fatalf("FeltConst: %v", err)
	}
	got, err := irexec.Call(c.Module(), "minus_one")
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	want := new(big.Int).Sub(felt.Prime(), big.NewInt(1))
	if got.Cmp(want) != 0 {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestFeltConstRejectsBadLiterals(t *testing.T) {
	tooBig := felt.Prime().String()
	tests := []struct {
		name string
		args []sierra.GenericArg
	}{
		{"missing", nil},
		{"type argument", []sierra.GenericArg{sierra.TypeArg(sierra.ID{ID: 0})}},
		{"hex", []sierra.GenericArg{sierra.ValueArg("0x2a")}},
		{"empty", []sierra.GenericArg{sierra.ValueArg("")}},
		{"prime", []sierra.GenericArg{sierra.ValueArg(tooBig)}},
		{"extra value", []sierra.GenericArg{sierra.ValueArg("1"), sierra.ValueArg("2")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := feltCompiler(t, Options{})
			before := len(c.Module().Funcs)
			requireFatal(t, c.FeltConst(libfuncDecl(1, "k", "felt_const", tt.args...)), FatalBadConstant)
			if len(c.Module().Funcs) != before {
				t.Fatal("function added for a bad constant")
			}
		})
	}
}

func TestFeltSubFieldSemantics(t *testing.T) {
	c := feltCompiler(t, Options{})
	if err := c.FeltSub(libfuncDecl(1, "felt_sub", "felt_sub")); err != nil {
		t.Fatalf("FeltSub: %v", err)
	}
	p := felt.Prime()
	tests := []struct {
		a, b int64
		want *big.Int
	}{
		{3, 10, new(big.Int).Sub(p, big.NewInt(7))},
		{10, 3, big.NewInt(7)},
		{5, 5, big.NewInt(0)},
		{0, 1, new(big.Int).Sub(p, big.NewInt(1))},
	}
	for _, tt := range tests {
		got, err := irexec.Call(c.Module(), "felt_sub", big.NewInt(tt.a), big.NewInt(tt.b))
		if err != nil {
			t.Fatalf("Call(%d, %d): %v", tt.a, tt.b, err)
		}
		if got.Cmp(tt.want) != 0 {
			t.Errorf("felt_sub(%d, %d) = %s, want %s", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestFeltAddMulMatchReference(t *testing.T) {
	c := feltCompiler(t, Options{})
	if err := c.FeltAdd(libfuncDecl(1, "felt_add", "felt_add")); err != nil {
		t.Fatalf("FeltAdd: %v", err)
	}
	if err := c.FeltMul(libfuncDecl(2, "felt_mul", "felt_mul")); err != nil {
		t.Fatalf("FeltMul: %v", err)
	}
	p := felt.Prime()
	pm1 := new(big.Int).Sub(p, big.NewInt(1))
	pm2 := new(big.Int).Sub(p, big.NewInt(2))
	pairs := [][2]*big.Int{
		{big.NewInt(3), big.NewInt(10)},
		{pm1, pm1},
		{pm1, big.NewInt(1)},
		{pm2, big.NewInt(12345)},
		{big.NewInt(0), pm1},
	}
	for _, pair := range pairs {
		a := felt.FromBig(pair[0])
		b := felt.FromBig(pair[1])
		sum, err := irexec.Call(c.Module(), "felt_add", pair[0], pair[1])
		if err != nil {
			t.Fatalf("felt_add: %v", err)
		}
		if want := a.Add(b).Big(); sum.Cmp(want) != 0 {
			t.Errorf("felt_add(%s, %s) = %s, want %s", pair[0], pair[1], sum, want)
		}
		prod, err := irexec.Call(c.Module(), "felt_mul", pair[0], pair[1])
		if err != nil {
			t.Fatalf("felt_mul: %v", err)
		}
		if want := a.Mul(b).Big(); prod.Cmp(want) != 0 {
			t.Errorf("felt_mul(%s, %s) = %s, want %s", pair[0], pair[1], prod, want)
		}
	}
}

func TestModuloCanonicalizes(t *testing.T) {
	c := feltCompiler(t, Options{})
	p := felt.Prime()
	tests := []struct {
		in   *big.Int
		want *big.Int
	}{
		{big.NewInt(-7), new(big.Int).Sub(p, big.NewInt(7))},
		{new(big.Int).Add(p, big.NewInt(3)), big.NewInt(3)},
		{new(big.Int).Neg(p), big.NewInt(0)},
		{new(big.Int).Mul(p, big.NewInt(5)), big.NewInt(0)},
	}
	for _, tt := range tests {
		got, err := irexec.Call(c.Module(), ModuloName, tt.in)
		if err != nil {
			t.Fatalf("modulo(%s): %v", tt.in, err)
		}
		if got.Cmp(tt.want) != 0 {
			t.Errorf("modulo(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestDeclareModulo(t *testing.T) {
	c := New(Options{})
	if _, err := c.DeclareModulo(); err == nil {
		t.Fatal("expected error without felt")
	} else {
		requireFatal(t, err, FatalUndeclaredType)
	}
	if err := c.DeclareType(typeDecl(0, "felt", "felt")); err != nil {
		t.Fatalf("declare felt: %v", err)
	}
	h1, err := c.DeclareModulo()
	if err != nil {
		t.Fatalf("DeclareModulo: %v", err)
	}
	h2, err := c.DeclareModulo()
	if err != nil || h1 != h2 {
		t.Fatalf("second DeclareModulo returned %p, %v", h2, err)
	}
	fn := h1.Func()
	if fn.Name() != ModuloName || len(fn.Params) != 1 {
		t.Fatalf("helper signature %s", fn.Sig)
	}
	if pt := fn.Params[0].Type().(*types.IntType); pt.BitSize != felt.WideWidth {
		t.Fatalf("helper takes i%d, want i%d", pt.BitSize, felt.WideWidth)
	}
	if keys := c.TypeKeys(); len(keys) != 1 {
		t.Fatalf("internal wide type leaked into TypeKeys: %v", keys)
	}
}

func TestLowerConstTypeMismatch(t *testing.T) {
	c := feltCompiler(t, Options{})
	slot, _ := c.LookupName("felt")
	err := c.Lower("k", slot, nil, ConstBody(constant.NewInt(types.I8, 1)))
	if err == nil {
		t.Fatal("expected type mismatch")
	}
	if _, ok := c.Func("k"); ok {
		t.Fatal("mismatched constant was registered")
	}
}

func TestDeclareLibfuncDispatch(t *testing.T) {
	c := feltCompiler(t, Options{})
	requireFatal(t, c.DeclareLibfunc(libfuncDecl(1, "", "felt_sub")), FatalMissingDebugName)
	requireFatal(t, c.DeclareLibfunc(libfuncDecl(2, "store_temp", "store_temp")), FatalUnsupportedDecl)
	requireFatal(t, c.DeclareLibfunc(libfuncDecl(3, "u8_wrapping_add", "u8_wrapping_add")), FatalUndeclaredType)
	if err := c.DeclareLibfunc(libfuncDecl(4, "felt_sub", "felt_sub")); err != nil {
		t.Fatalf("felt_sub: %v", err)
	}
}
