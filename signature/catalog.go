package signature

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/chazu/callwire/callback"
)

// ErrDuplicateSignature is returned when two catalog entries share a kind
// or a name.
var ErrDuplicateSignature = errors.New("duplicate signature")

// catalogSchema constrains catalog files. Parameter type expressions are
// checked afterwards by ParseType.
const catalogSchema = `
#Callback: {
	kind:   int & >=0 & <=2147483647
	name:   =~"^[A-Za-z_][A-Za-z0-9_]*$"
	params: *[] | [...string]
}

callbacks: [...#Callback]
`

type catalogEntry struct {
	Kind   int64    `json:"kind"`
	Name   string   `json:"name"`
	Params []string `json:"params"`
}

type catalogFile struct {
	Callbacks []catalogEntry `json:"callbacks"`
}

// Catalog is the set of callback signatures known to the process, indexed
// by kind and by name. It is immutable once built.
type Catalog struct {
	sigs   []*Signature
	byKind map[callback.Kind]*Signature
	byName map[string]*Signature
}

// NewCatalog indexes sigs, rejecting duplicate kinds and names.
func NewCatalog(sigs ...*Signature) (*Catalog, error) {
	c := &Catalog{
		byKind: make(map[callback.Kind]*Signature, len(sigs)),
		byName: make(map[string]*Signature, len(sigs)),
	}
	for _, s := range sigs {
		if _, dup := c.byKind[s.Kind]; dup {
			return nil, fmt.Errorf("%w: kind %d", ErrDuplicateSignature, s.Kind)
		}
		if _, dup := c.byName[s.Name]; dup {
			return nil, fmt.Errorf("%w: name %s", ErrDuplicateSignature, s.Name)
		}
		c.byKind[s.Kind] = s
		c.byName[s.Name] = s
		c.sigs = append(c.sigs, s)
	}
	sort.Slice(c.sigs, func(i, j int) bool { return c.sigs[i].Kind < c.sigs[j].Kind })
	return c, nil
}

// LoadCatalog reads and parses a catalog file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	return ParseCatalog(data, path)
}

// ParseCatalog parses a catalog written in CUE (or JSON, which is valid
// CUE):
//
//	callbacks: [
//		{kind: 0, name: "Callback_Void"},
//		{kind: 1, name: "Callback_Boolean_Void", params: ["Boolean"]},
//		{kind: 2, name: "Callback_String_Opt", params: ["String", "Callback<Callback_Void>"]},
//	]
//
// Callback<Name> parameters may refer to any entry in the same file.
func ParseCatalog(src []byte, filename string) (*Catalog, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(catalogSchema, cue.Filename("catalog.schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("catalog schema: %w", err)
	}
	data := ctx.CompileBytes(src, cue.Filename(filename))
	if err := data.Err(); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", filename, err)
	}
	v := schema.Unify(data)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("invalid catalog %s: %w", filename, err)
	}
	var f catalogFile
	if err := v.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", filename, err)
	}

	names := make(map[string]callback.Kind, len(f.Callbacks))
	for _, e := range f.Callbacks {
		names[e.Name] = callback.Kind(e.Kind)
	}
	resolve := func(name string) (callback.Kind, bool) {
		k, ok := names[name]
		return k, ok
	}

	sigs := make([]*Signature, 0, len(f.Callbacks))
	for _, e := range f.Callbacks {
		sig := &Signature{Kind: callback.Kind(e.Kind), Name: e.Name}
		for i, expr := range e.Params {
			t, err := ParseType(expr, resolve)
			if err != nil {
				return nil, fmt.Errorf("%s: %s param %d: %w", filename, e.Name, i, err)
			}
			sig.Params = append(sig.Params, t)
		}
		sigs = append(sigs, sig)
	}
	return NewCatalog(sigs...)
}

// Lookup returns the signature of kind.
func (c *Catalog) Lookup(kind callback.Kind) (*Signature, bool) {
	s, ok := c.byKind[kind]
	return s, ok
}

// ByName returns the signature called name.
func (c *Catalog) ByName(name string) (*Signature, bool) {
	s, ok := c.byName[name]
	return s, ok
}

// Signatures returns every signature ordered by kind.
func (c *Catalog) Signatures() []*Signature {
	out := make([]*Signature, len(c.sigs))
	copy(out, c.sigs)
	return out
}

// Len returns the number of signatures.
func (c *Catalog) Len() int { return len(c.sigs) }
