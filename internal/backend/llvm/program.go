package llvm

import (
	"context"
	"fmt"

	"sierra2llvm/internal/sierra"
	"sierra2llvm/internal/trace"
)

// LowerProgram lowers prog into a fresh module. Types are declared first, in
// program order; the modulo helper follows as soon as a felt type exists;
// libfuncs come last. The first fatal error stops lowering.
func LowerProgram(ctx context.Context, prog *sierra.Program, opts Options) (*Compiler, error) {
	if prog == nil {
		return nil, fmt.Errorf("lower: nil program")
	}
	tracer := trace.FromContext(ctx)
	root := trace.Begin(tracer, trace.ScopeDriver, "lower", trace.CurrentSpan(ctx))

	c := New(opts)
	c.SetTracer(tracer, root.ID())
	if err := c.lowerDecls(ctx, prog, root.ID()); err != nil {
		trace.Point(tracer, trace.ScopeError, "lower", err.Error(), root.ID())
		root.End("failed")
		return nil, err
	}
	root.WithExtra("types", fmt.Sprint(len(prog.TypeDeclarations))).
		WithExtra("functions", fmt.Sprint(len(c.module.Funcs))).
		End("")
	return c, nil
}

func (c *Compiler) lowerDecls(ctx context.Context, prog *sierra.Program, parent uint64) error {
	// One line per declaration, types first, mirrors the layout of the
	// textual program when no source map is available.
	line := 1

	pass := trace.Begin(c.tracer, trace.ScopePass, "types", parent)
	c.span = pass.ID()
	for _, decl := range prog.TypeDeclarations {
		if err := ctx.Err(); err != nil {
			pass.End("canceled")
			return err
		}
		c.SetLine(line)
		line++
		if err := c.DeclareType(decl); err != nil {
			pass.End("failed")
			return err
		}
	}
	pass.End("")

	pass = trace.Begin(c.tracer, trace.ScopePass, "helpers", parent)
	c.span = pass.ID()
	if _, ok := c.types.lookupName("felt"); ok {
		c.SetLine(line)
		if _, err := c.DeclareModulo(); err != nil {
			pass.End("failed")
			return err
		}
	}
	pass.End("")

	pass = trace.Begin(c.tracer, trace.ScopePass, "libfuncs", parent)
	c.span = pass.ID()
	for _, decl := range prog.LibfuncDeclarations {
		if err := ctx.Err(); err != nil {
			pass.End("canceled")
			return err
		}
		c.SetLine(line)
		line++
		if err := c.DeclareLibfunc(decl); err != nil {
			pass.End("failed")
			return err
		}
	}
	pass.End("")
	c.span = parent
	return nil
}
