package signature

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/chazu/callwire/callback"
)

// ErrTypeSyntax is returned for malformed type expressions.
var ErrTypeSyntax = errors.New("type syntax error")

// KindResolver maps a callback name to its kind for Callback<Name>.
type KindResolver func(name string) (callback.Kind, bool)

var scalarNames = map[string]TypeKind{
	"Int8":    Int8,
	"Int32":   Int32,
	"Int64":   Int64,
	"Float32": Float32,
	"Boolean": Boolean,
	"Number":  Number,
	"String":  String,
	"Buffer":  Buffer,
	"Pointer": Pointer,
}

// ParseType parses a type expression such as "Array<Opt<String>>",
// "Map<String,Number>", "Union<Number,Resource>" or "Callback<Callback_Void>".
// Identifiers that are not built in name records. resolve may be nil when
// the expression only uses numeric Callback<N> targets.
func ParseType(expr string, resolve KindResolver) (*Type, error) {
	p := &typeParser{src: expr, resolve: resolve}
	t, err := p.parseType()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, p.errorf("unexpected %q", p.src[p.pos:])
	}
	return t, nil
}

type typeParser struct {
	src     string
	pos     int
	resolve KindResolver
}

func (p *typeParser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: %q at %d: %s", ErrTypeSyntax, p.src, p.pos, fmt.Sprintf(format, args...))
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *typeParser) ident() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) {
		r := rune(p.src[p.pos])
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *typeParser) accept(c byte) bool {
	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

// args parses "<t1,t2,...>".
func (p *typeParser) args() ([]*Type, error) {
	if !p.accept('<') {
		return nil, p.errorf("expected '<'")
	}
	var out []*Type
	for {
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
		if p.accept(',') {
			continue
		}
		if p.accept('>') {
			return out, nil
		}
		return nil, p.errorf("expected ',' or '>'")
	}
}

func (p *typeParser) parseType() (*Type, error) {
	name := p.ident()
	if name == "" {
		return nil, p.errorf("expected type name")
	}
	if k, ok := scalarNames[name]; ok {
		return Scalar(k), nil
	}

	switch name {
	case "Array", "Opt":
		args, err := p.args()
		if err != nil {
			return nil, err
		}
		if len(args) != 1 {
			return nil, p.errorf("%s takes one parameter", name)
		}
		if name == "Array" {
			return ArrayOf(args[0]), nil
		}
		return OptionalOf(args[0]), nil
	case "Map":
		args, err := p.args()
		if err != nil {
			return nil, err
		}
		if len(args) != 2 {
			return nil, p.errorf("Map takes two parameters")
		}
		return MapOf(args[0], args[1]), nil
	case "Union":
		args, err := p.args()
		if err != nil {
			return nil, err
		}
		if len(args) < 2 || len(args) > 127 {
			return nil, p.errorf("Union takes 2 to 127 branches")
		}
		return UnionOf(args...), nil
	case "Callback":
		return p.callback()
	default:
		return RecordOf(name), nil
	}
}

func (p *typeParser) callback() (*Type, error) {
	if !p.accept('<') {
		return nil, p.errorf("expected '<'")
	}
	target := strings.TrimSpace(p.ident())
	if !p.accept('>') {
		return nil, p.errorf("expected '>'")
	}
	if n, err := strconv.ParseInt(target, 10, 32); err == nil {
		return CallbackOf(callback.Kind(n)), nil
	}
	if p.resolve == nil {
		return nil, p.errorf("cannot resolve callback %q", target)
	}
	kind, ok := p.resolve(target)
	if !ok {
		return nil, p.errorf("unknown callback %q", target)
	}
	t := CallbackOf(kind)
	t.Name = target
	return t, nil
}
