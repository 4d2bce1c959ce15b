// Package llvm lowers the declarations of a Sierra program into an LLVM IR
// module.
//
// A Compiler owns one module, its type registry and, when debug info is
// enabled, the debug mirror that shadows both. Types are declared first, in
// program order; libfuncs are then lowered one backend function each.
package llvm

import (
	"fortio.org/safecast"
	"github.com/llir/llvm/ir"

	"sierra2llvm/internal/trace"
)

// Options configure one compilation.
type Options struct {
	// DebugInfo enables the debug mirror.
	DebugInfo bool
	// SourceFile and SourceDir name the DIFile of the compile unit.
	SourceFile string
	SourceDir  string
	// Producer is recorded in the compile unit.
	Producer string
	// TargetTriple is written to the module when set.
	TargetTriple string
}

// Compiler lowers one Sierra program. It is not safe for concurrent use.
type Compiler struct {
	module *ir.Module
	types  *typeRegistry
	debug  *debugMirror
	funcs  map[string]*ir.Func
	modulo *ModuloHelper

	tracer trace.Tracer
	span   uint64
	// line is the current source line estimate used for debug info.
	line int
}

// New creates a Compiler with an empty module.
func New(opts Options) *Compiler {
	m := ir.NewModule()
	m.TargetTriple = opts.TargetTriple
	if opts.SourceFile != "" {
		m.SourceFilename = opts.SourceFile
	}
	c := &Compiler{
		module: m,
		types:  newTypeRegistry(),
		funcs:  make(map[string]*ir.Func, 16),
		tracer: trace.Nop,
	}
	if opts.DebugInfo {
		if opts.Producer == "" {
			opts.Producer = "sierra2llvm"
		}
		c.debug = newDebugMirror(m, opts)
	}
	return c
}

// Module returns the module functions are lowered into.
func (c *Compiler) Module() *ir.Module {
	return c.module
}

// DebugInfo reports whether the debug mirror is active.
func (c *Compiler) DebugInfo() bool {
	return c.debug.enabled()
}

// SetTracer routes compiler events to t under the parent span.
func (c *Compiler) SetTracer(t trace.Tracer, parent uint64) {
	if t == nil {
		t = trace.Nop
	}
	c.tracer = t
	c.span = parent
}

// SetLine sets the source line estimate attached to the next functions.
func (c *Compiler) SetLine(line int) {
	c.line = line
}

// Lookup resolves a registry key.
func (c *Compiler) Lookup(key string) (Slot, bool) {
	return c.types.lookup(key)
}

// LookupName resolves the first type declared with a builtin generic id,
// such as "felt".
func (c *Compiler) LookupName(genericID string) (Slot, bool) {
	return c.types.lookupName(genericID)
}

// Func returns a lowered function by name.
func (c *Compiler) Func(name string) (*ir.Func, bool) {
	fn, ok := c.funcs[name]
	return fn, ok
}

func (c *Compiler) lineNo() (int64, error) {
	return safecast.Conv[int64](c.line)
}

// TypeKeys returns the registered Sierra type keys in declaration order.
func (c *Compiler) TypeKeys() []string {
	return c.types.keys()
}
