// Package native maps the function pointers carried on the wire to the Go
// functions they stand for.
//
// The engine side registers each callable once and hands the returned
// Pointer to the VM. When a buffer comes back carrying that Pointer, the
// dispatcher resolves it here and asserts it to the Go func type implied by
// the callback kind. That assertion is the one trusted cast in the
// protocol: nothing on the wire says what type the pointer really has.
package native

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/chazu/callwire/wire"
)

var (
	ErrUnknownSymbol     = errors.New("unknown native symbol")
	ErrSignatureMismatch = errors.New("native symbol has a different signature")
)

// Pointers are handed out from symbolBase in symbolStride steps. Zero is
// never issued: it is the wire's "use default" sentinel.
const (
	symbolBase   = 0x1000
	symbolStride = 0x10
)

type symbol struct {
	name string
	fn   any
}

// Symbols is a table of native callables keyed by Pointer. It is safe for
// concurrent use.
type Symbols struct {
	mu      sync.RWMutex
	entries map[wire.Pointer]symbol
	next    atomic.Uint64
}

// NewSymbols creates an empty table.
func NewSymbols() *Symbols {
	s := &Symbols{entries: make(map[wire.Pointer]symbol)}
	s.next.Store(symbolBase)
	return s
}

// Register adds fn under a fresh Pointer and returns it. fn must be a
// non-nil func value.
func (s *Symbols) Register(name string, fn any) wire.Pointer {
	if fn == nil || reflect.TypeOf(fn).Kind() != reflect.Func {
		panic(fmt.Sprintf("native: Register(%q) needs a func, got %T", name, fn))
	}
	p := wire.Pointer(s.next.Add(symbolStride) - symbolStride)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[p] = symbol{name: name, fn: fn}
	return p
}

// Unregister removes p. Unknown pointers are ignored.
func (s *Symbols) Unregister(p wire.Pointer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, p)
}

// Lookup returns the func registered under p.
func (s *Symbols) Lookup(p wire.Pointer) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sym, ok := s.entries[p]
	return sym.fn, ok
}

// Name returns the registration name of p, or its address when unknown.
func (s *Symbols) Name(p wire.Pointer) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sym, ok := s.entries[p]; ok {
		return sym.name
	}
	return p.String()
}

// Len returns the number of registered symbols.
func (s *Symbols) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Resolve looks p up and casts it to F. This is the trusted cast: a
// mismatch means the buffer's kind and the pointer's real signature
// disagree, which the encoder is contracted never to produce.
func Resolve[F any](s *Symbols, p wire.Pointer) (F, error) {
	var zero F
	fn, ok := s.Lookup(p)
	if !ok {
		return zero, fmt.Errorf("%w: %v", ErrUnknownSymbol, p)
	}
	f, ok := fn.(F)
	if !ok {
		return zero, fmt.Errorf("%w: %s is %T, want %T", ErrSignatureMismatch, s.Name(p), fn, zero)
	}
	return f, nil
}
