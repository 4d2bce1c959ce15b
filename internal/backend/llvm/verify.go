package llvm

import (
	"errors"
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/metadata"
)

// VerifyDebugMirror checks that the mirror agrees with the registries: every
// type key has a debug type of the backend width and every function carries
// a subprogram listing its result and parameters. With the mirror disabled
// the module must hold no debug metadata at all.
func (c *Compiler) VerifyDebugMirror() error {
	if !c.debug.enabled() {
		return c.verifyNoDebug()
	}
	var errs []error
	for _, key := range c.types.order {
		typ := c.types.entries[key]
		dt, ok := c.debug.typeOf(key)
		if !ok {
			errs = append(errs, fmt.Errorf("type %s: no debug type", key))
			continue
		}
		if want := bitSize(typ); dt.Size != want {
			errs = append(errs, fmt.Errorf("type %s: debug size %d, backend width %d", key, dt.Size, want))
		}
	}
	for _, fn := range c.module.Funcs {
		sp, ok := c.debug.subprograms[fn.Name()]
		if !ok {
			errs = append(errs, fmt.Errorf("function %s: no subprogram", fn.Name()))
			continue
		}
		if !hasAttachment(fn.Metadata, sp) {
			errs = append(errs, fmt.Errorf("function %s: subprogram not attached", fn.Name()))
		}
		for _, call := range calls(fn) {
			if !locatedIn(call.Metadata, sp) {
				errs = append(errs, fmt.Errorf("function %s: call to %s has no location", fn.Name(), call.Callee.Ident()))
			}
		}
		st, ok := sp.Type.(*metadata.DISubroutineType)
		if !ok || st.Types == nil {
			errs = append(errs, fmt.Errorf("function %s: subprogram has no signature", fn.Name()))
			continue
		}
		if got, want := len(st.Types.Fields), 1+len(fn.Params); got != want {
			errs = append(errs, fmt.Errorf("function %s: debug signature has %d entries, want %d", fn.Name(), got, want))
		}
	}
	if n := len(c.debug.subprograms); n != len(c.module.Funcs) {
		errs = append(errs, fmt.Errorf("%d subprograms for %d functions", n, len(c.module.Funcs)))
	}
	return errors.Join(errs...)
}

func (c *Compiler) verifyNoDebug() error {
	if len(c.module.MetadataDefs) != 0 {
		return fmt.Errorf("debug info disabled but module holds %d metadata nodes", len(c.module.MetadataDefs))
	}
	for _, fn := range c.module.Funcs {
		if len(fn.Metadata) != 0 {
			return fmt.Errorf("debug info disabled but function %s has attachments", fn.Name())
		}
		for _, call := range calls(fn) {
			if len(call.Metadata) != 0 {
				return fmt.Errorf("debug info disabled but a call in %s has attachments", fn.Name())
			}
		}
	}
	return nil
}

func calls(fn *ir.Func) []*ir.InstCall {
	var out []*ir.InstCall
	for _, block := range fn.Blocks {
		for _, inst := range block.Insts {
			if call, ok := inst.(*ir.InstCall); ok {
				out = append(out, call)
			}
		}
	}
	return out
}

func locatedIn(attachments []*metadata.Attachment, sp *metadata.DISubprogram) bool {
	for _, a := range attachments {
		if loc, ok := a.Node.(*metadata.DILocation); ok && a.Name == "dbg" && loc.Scope == sp {
			return true
		}
	}
	return false
}

func hasAttachment(attachments []*metadata.Attachment, sp *metadata.DISubprogram) bool {
	for _, a := range attachments {
		if a.Name == "dbg" && a.Node == sp {
			return true
		}
	}
	return false
}
