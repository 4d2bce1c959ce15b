package llvm

import (
	"errors"
	"fmt"
)

// ErrFatal matches every FatalError via errors.Is.
var ErrFatal = errors.New("malformed program")

// FatalKind classifies a violated precondition.
type FatalKind uint8

const (
	FatalMissingDebugName FatalKind = iota + 1
	FatalUndeclaredType
	FatalBadConstant
	FatalUnsupportedArg
	FatalUnimplemented
	FatalMissingHelper
	FatalUnsupportedDecl
	FatalDuplicate
)

func (k FatalKind) String() string {
	switch k {
	case FatalMissingDebugName:
		return "missing debug name"
	case FatalUndeclaredType:
		return "undeclared type"
	case FatalBadConstant:
		return "bad constant"
	case FatalUnsupportedArg:
		return "unsupported generic argument"
	case FatalUnimplemented:
		return "not implemented"
	case FatalMissingHelper:
		return "missing helper"
	case FatalUnsupportedDecl:
		return "unsupported declaration"
	case FatalDuplicate:
		return "duplicate declaration"
	default:
		return "fatal"
	}
}

// FatalError reports a program that is malformed or lowered out of order.
// Lowering stops at the first one; the module is not usable afterwards.
type FatalError struct {
	Kind FatalKind
	Decl string
	Msg  string
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Decl, e.Kind, e.Msg)
}

// Is reports whether target is ErrFatal.
func (e *FatalError) Is(target error) bool {
	return target == ErrFatal
}

func fatalf(kind FatalKind, decl, format string, args ...any) error {
	return &FatalError{Kind: kind, Decl: decl, Msg: fmt.Sprintf(format, args...)}
}

// ArityError is returned by Lower when the parameter list does not match the
// body. No function is created.
type ArityError struct {
	Func string
	Want int
	Got  int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("%s: body takes %d parameters, got %d", e.Func, e.Want, e.Got)
}
