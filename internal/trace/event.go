package trace

import "time"

// Kind represents the type of trace event.
type Kind uint8

const (
	KindSpanBegin Kind = iota + 1 // span start
	KindSpanEnd                   // span end
	KindPoint                     // instant event
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindSpanBegin:
		return "begin"
	case KindSpanEnd:
		return "end"
	case KindPoint:
		return "point"
	default:
		return "unknown"
	}
}

// Scope indicates the granularity of the event.
// Lower values are coarser.
type Scope uint8

const (
	ScopeDriver Scope = iota + 1 // whole program lowering
	ScopePass                    // types, helpers, libfuncs, emit
	ScopeDecl                    // one type or libfunc declaration
	ScopeInstr                   // instructions emitted by a body
	ScopeError                   // failure report, kept at every level but off
)

// String returns the string representation of Scope.
func (s Scope) String() string {
	switch s {
	case ScopeDriver:
		return "driver"
	case ScopePass:
		return "pass"
	case ScopeDecl:
		return "decl"
	case ScopeInstr:
		return "instr"
	case ScopeError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is a single trace record.
type Event struct {
	Time     time.Time         // wall-clock timestamp
	Seq      uint64            // global sequence number
	Kind     Kind              // event kind
	Scope    Scope             // granularity
	SpanID   uint64            // span identifier (0 for points)
	ParentID uint64            // parent span, 0 at the root
	Name     string            // e.g. "libfuncs", "felt_sub"
	Detail   string            // optional message
	Extra    map[string]string // extensible key-value pairs
}
