// Package signature describes callback signatures as data and interprets
// them against the wire format.
//
// A Signature is the ordered list of parameter Types of one callback kind.
// Codec walks a Type to decode or encode one argument, so a single routine
// serves every kind instead of one hand-written function per signature.
package signature

import (
	"fmt"
	"strings"

	"github.com/chazu/callwire/callback"
)

// TypeKind enumerates the argument shapes the wire format can carry.
type TypeKind uint8

const (
	Int8 TypeKind = iota + 1
	Int32
	Int64
	Float32
	Boolean
	Number
	String
	Buffer
	Pointer
	Array
	Map
	Optional
	Union
	Record
	Callback
)

var typeKindNames = map[TypeKind]string{
	Int8:     "Int8",
	Int32:    "Int32",
	Int64:    "Int64",
	Float32:  "Float32",
	Boolean:  "Boolean",
	Number:   "Number",
	String:   "String",
	Buffer:   "Buffer",
	Pointer:  "Pointer",
	Array:    "Array",
	Map:      "Map",
	Optional: "Opt",
	Union:    "Union",
	Record:   "Record",
	Callback: "Callback",
}

func (k TypeKind) String() string {
	if n, ok := typeKindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("TypeKind(%d)", uint8(k))
}

// Type describes one argument. Which fields are set depends on Kind:
// Elem for Array and Optional, Key and Elem for Map, Branches for Union,
// Name for Record, Target for Callback.
type Type struct {
	Kind     TypeKind
	Elem     *Type
	Key      *Type
	Branches []*Type
	Name     string
	Target   callback.Kind
}

// Scalar returns a Type of a kind that takes no parameters.
func Scalar(k TypeKind) *Type { return &Type{Kind: k} }

// ArrayOf returns Array<elem>.
func ArrayOf(elem *Type) *Type { return &Type{Kind: Array, Elem: elem} }

// MapOf returns Map<key, elem>.
func MapOf(key, elem *Type) *Type { return &Type{Kind: Map, Key: key, Elem: elem} }

// OptionalOf returns Opt<elem>.
func OptionalOf(elem *Type) *Type { return &Type{Kind: Optional, Elem: elem} }

// UnionOf returns Union<branches...>.
func UnionOf(branches ...*Type) *Type { return &Type{Kind: Union, Branches: branches} }

// RecordOf returns a named record decoded by a registered sub-decoder.
func RecordOf(name string) *Type { return &Type{Kind: Record, Name: name} }

// CallbackOf returns a continuation of the given callback kind.
func CallbackOf(kind callback.Kind) *Type { return &Type{Kind: Callback, Target: kind} }

// String renders t in the type expression syntax accepted by ParseType.
func (t *Type) String() string {
	switch t.Kind {
	case Array, Optional:
		return fmt.Sprintf("%s<%s>", t.Kind, t.Elem)
	case Map:
		return fmt.Sprintf("Map<%s,%s>", t.Key, t.Elem)
	case Union:
		parts := make([]string, len(t.Branches))
		for i, b := range t.Branches {
			parts[i] = b.String()
		}
		return fmt.Sprintf("Union<%s>", strings.Join(parts, ","))
	case Record:
		return t.Name
	case Callback:
		if t.Name != "" {
			return fmt.Sprintf("Callback<%s>", t.Name)
		}
		return fmt.Sprintf("Callback<%d>", t.Target)
	default:
		return t.Kind.String()
	}
}

// Signature is the parameter list of one callback kind. When the last
// parameter is a Callback it is the continuation through which the native
// target reports its result.
type Signature struct {
	Kind   callback.Kind
	Name   string
	Params []*Type
}

// Continuation returns the continuation parameter, if any.
func (s *Signature) Continuation() (*Type, bool) {
	if len(s.Params) == 0 {
		return nil, false
	}
	last := s.Params[len(s.Params)-1]
	return last, last.Kind == Callback
}

func (s *Signature) String() string {
	parts := make([]string, len(s.Params))
	for i, p := range s.Params {
		parts[i] = p.String()
	}
	return fmt.Sprintf("%s(%s)", s.Name, strings.Join(parts, ", "))
}
