package sierra

import (
	"errors"
	"fmt"
)

// ArgKind classifies a GenericArg by its payload.
type ArgKind uint8

const (
	ArgInvalid ArgKind = iota
	ArgValue
	ArgType
	ArgUserType
	ArgLibfunc
)

func (k ArgKind) String() string {
	switch k {
	case ArgValue:
		return "value"
	case ArgType:
		return "type"
	case ArgUserType:
		return "user type"
	case ArgLibfunc:
		return "libfunc"
	default:
		return "invalid"
	}
}

// GenericArg is one generic argument of a declaration. Exactly one field is
// expected to be set.
type GenericArg struct {
	// Value is a literal as written in the program, e.g. "42".
	Value    *string            `json:"value,omitempty" yaml:"value,omitempty" msgpack:"value,omitempty"`
	Type     *ConcreteTypeID    `json:"type,omitempty" yaml:"type,omitempty" msgpack:"type,omitempty"`
	UserType *string            `json:"user_type,omitempty" yaml:"user_type,omitempty" msgpack:"user_type,omitempty"`
	Libfunc  *ConcreteLibfuncID `json:"libfunc,omitempty" yaml:"libfunc,omitempty" msgpack:"libfunc,omitempty"`
}

// ValueArg builds a literal argument.
func ValueArg(lit string) GenericArg { return GenericArg{Value: &lit} }

// TypeArg builds a type reference argument.
func TypeArg(id ConcreteTypeID) GenericArg { return GenericArg{Type: &id} }

// UserTypeArg builds an opaque user type argument.
func UserTypeArg(tag string) GenericArg { return GenericArg{UserType: &tag} }

// Kind reports which payload is set. Zero or several payloads yield ArgInvalid.
func (a GenericArg) Kind() ArgKind {
	kind := ArgInvalid
	set := 0
	if a.Value != nil {
		kind = ArgValue
		set++
	}
	if a.Type != nil {
		kind = ArgType
		set++
	}
	if a.UserType != nil {
		kind = ArgUserType
		set++
	}
	if a.Libfunc != nil {
		kind = ArgLibfunc
		set++
	}
	if set != 1 {
		return ArgInvalid
	}
	return kind
}

// LongID is the generic id plus its generic arguments, e.g. NonZero<felt>.
type LongID struct {
	GenericID   string       `json:"generic_id" yaml:"generic_id" msgpack:"generic_id"`
	GenericArgs []GenericArg `json:"generic_args,omitempty" yaml:"generic_args,omitempty" msgpack:"generic_args,omitempty"`
}

// TypeDeclaration declares one concrete type.
type TypeDeclaration struct {
	ID     ConcreteTypeID `json:"id" yaml:"id" msgpack:"id"`
	LongID LongID         `json:"long_id" yaml:"long_id" msgpack:"long_id"`
}

// LibfuncDeclaration declares one concrete libfunc.
type LibfuncDeclaration struct {
	ID     ConcreteLibfuncID `json:"id" yaml:"id" msgpack:"id"`
	LongID LongID            `json:"long_id" yaml:"long_id" msgpack:"long_id"`
}

// Program is the declaration part of a Sierra program, in program order.
type Program struct {
	TypeDeclarations    []TypeDeclaration    `json:"type_declarations" yaml:"type_declarations" msgpack:"type_declarations"`
	LibfuncDeclarations []LibfuncDeclaration `json:"libfunc_declarations" yaml:"libfunc_declarations" msgpack:"libfunc_declarations"`
}

// Validate runs the structural checks that need no backend: unique ids and
// well-formed generic arguments. Every problem found is reported.
func (p *Program) Validate() error {
	if p == nil {
		return errors.New("nil program")
	}
	var errs []error
	seenTypes := make(map[uint64]struct{}, len(p.TypeDeclarations))
	for i := range p.TypeDeclarations {
		decl := &p.TypeDeclarations[i]
		if _, dup := seenTypes[decl.ID.ID]; dup {
			errs = append(errs, fmt.Errorf("type %s: duplicate id %d", decl.ID, decl.ID.ID))
		}
		seenTypes[decl.ID.ID] = struct{}{}
		errs = appendArgErrors(errs, "type", decl.ID, decl.LongID)
	}
	seenLibfuncs := make(map[uint64]struct{}, len(p.LibfuncDeclarations))
	for i := range p.LibfuncDeclarations {
		decl := &p.LibfuncDeclarations[i]
		if _, dup := seenLibfuncs[decl.ID.ID]; dup {
			errs = append(errs, fmt.Errorf("libfunc %s: duplicate id %d", decl.ID, decl.ID.ID))
		}
		seenLibfuncs[decl.ID.ID] = struct{}{}
		errs = appendArgErrors(errs, "libfunc", decl.ID, decl.LongID)
	}
	return errors.Join(errs...)
}

func appendArgErrors(errs []error, what string, id ID, long LongID) []error {
	if long.GenericID == "" {
		errs = append(errs, fmt.Errorf("%s %s: missing generic id", what, id))
	}
	for i, arg := range long.GenericArgs {
		if arg.Kind() == ArgInvalid {
			errs = append(errs, fmt.Errorf("%s %s: generic arg %d must carry exactly one payload", what, id, i))
		}
	}
	return errs
}
