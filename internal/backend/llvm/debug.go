package llvm

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/metadata"
	"github.com/llir/llvm/ir/types"
)

const (
	dwarfVersion     = 4
	debugInfoVersion = 3
)

// debugMirror holds the debug-info nodes that shadow the type registry and
// the lowered functions. A nil *debugMirror means debug info is disabled;
// every method is then a no-op.
type debugMirror struct {
	module      *ir.Module
	file        *metadata.DIFile
	unit        *metadata.DICompileUnit
	types       map[string]*metadata.DIBasicType
	subprograms map[string]*metadata.DISubprogram
	nextID      int64
}

func newDebugMirror(m *ir.Module, opts Options) *debugMirror {
	d := &debugMirror{
		module:      m,
		types:       make(map[string]*metadata.DIBasicType, 16),
		subprograms: make(map[string]*metadata.DISubprogram, 16),
	}
	d.file = &metadata.DIFile{
		Filename:  opts.SourceFile,
		Directory: opts.SourceDir,
	}
	d.define(d.file)
	d.unit = &metadata.DICompileUnit{
		Distinct:     true,
		Language:     enum.DwarfLangC,
		File:         d.file,
		Producer:     opts.Producer,
		EmissionKind: enum.EmissionKindFullDebug,
	}
	d.define(d.unit)
	if m.NamedMetadataDefs == nil {
		m.NamedMetadataDefs = make(map[string]*metadata.NamedDef)
	}
	m.NamedMetadataDefs["llvm.dbg.cu"] = &metadata.NamedDef{
		Name:  "llvm.dbg.cu",
		Nodes: []metadata.Node{d.unit},
	}

	dwarf := d.moduleFlag("Dwarf Version", dwarfVersion)
	info := d.moduleFlag("Debug Info Version", debugInfoVersion)
	m.NamedMetadataDefs["llvm.module.flags"] = &metadata.NamedDef{
		Name:  "llvm.module.flags",
		Nodes: []metadata.Node{dwarf, info},
	}
	return d
}

// moduleFlag builds !{i32 2, !"name", i32 value}; behavior 2 is "warning".
func (d *debugMirror) moduleFlag(name string, value int64) *metadata.Tuple {
	flag := &metadata.Tuple{
		Fields: []metadata.Field{
			constant.NewInt(types.I32, 2),
			&metadata.String{Value: name},
			constant.NewInt(types.I32, value),
		},
	}
	d.define(flag)
	return flag
}

func (d *debugMirror) define(node metadata.Definition) {
	node.SetID(d.nextID)
	d.nextID++
	d.module.MetadataDefs = append(d.module.MetadataDefs, node)
}

func (d *debugMirror) enabled() bool {
	return d != nil
}

func (d *debugMirror) insertType(key, name string, size uint64) {
	if d == nil {
		return
	}
	basic := &metadata.DIBasicType{
		Name:     name,
		Size:     size,
		Encoding: enum.DwarfAttEncodingUnsigned,
		Flags:    enum.DIFlagPublic,
	}
	d.define(basic)
	d.types[key] = basic
}

// aliasType mirrors a wrapper type: its own named basic type, sized after
// the inner type's mirror entry.
func (d *debugMirror) aliasType(key, innerKey, name string) {
	if d == nil {
		return
	}
	var size uint64
	if inner, ok := d.types[innerKey]; ok {
		size = inner.Size
	}
	d.insertType(key, name, size)
}

func (d *debugMirror) typeOf(key string) (*metadata.DIBasicType, bool) {
	if d == nil {
		return nil, false
	}
	t, ok := d.types[key]
	return t, ok
}

// signature resolves the mirrored types of result and params, in that
// order. It defines no nodes, so a failure leaves the mirror untouched.
func (d *debugMirror) signature(name string, result Slot, params []Slot) ([]metadata.Field, error) {
	if d == nil {
		return nil, nil
	}
	fields := make([]metadata.Field, 0, len(params)+1)
	for _, slot := range append([]Slot{result}, params...) {
		dt, ok := d.types[slot.Key]
		if !ok {
			return nil, fatalf(FatalUndeclaredType, name, "no debug type for %s", slot.Key)
		}
		fields = append(fields, dt)
	}
	return fields, nil
}

// attachSubprogram describes fn with the signature from signature() and
// attaches it as !dbg. line is an estimate when no source map exists. Every
// call in fn gets a location in the new subprogram; LLVM rejects calls
// without one inside a function that has debug info.
func (d *debugMirror) attachSubprogram(fn *ir.Func, sig []metadata.Field, line int64) {
	if d == nil {
		return
	}
	typeList := &metadata.Tuple{Fields: sig}
	d.define(typeList)
	subroutine := &metadata.DISubroutineType{
		Flags: enum.DIFlagPublic,
		Types: typeList,
	}
	d.define(subroutine)

	sp := &metadata.DISubprogram{
		Distinct:  true,
		Scope:     d.unit,
		Name:      fn.Name(),
		File:      d.file,
		Line:      line,
		Type:      subroutine,
		ScopeLine: line,
		Flags:     enum.DIFlagPublic,
		SPFlags:   enum.DISPFlagDefinition,
		Unit:      d.unit,
	}
	d.define(sp)
	fn.Metadata = append(fn.Metadata, &metadata.Attachment{Name: "dbg", Node: sp})
	d.subprograms[fn.Name()] = sp
	d.attachCallLocations(fn, sp, line)
}

func (d *debugMirror) attachCallLocations(fn *ir.Func, sp *metadata.DISubprogram, line int64) {
	for _, call := range calls(fn) {
		loc := &metadata.DILocation{Line: line, Scope: sp}
		d.define(loc)
		call.Metadata = append(call.Metadata, &metadata.Attachment{Name: "dbg", Node: loc})
	}
}
