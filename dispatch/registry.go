package dispatch

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/chazu/callwire/callback"
	"github.com/chazu/callwire/signature"
)

var (
	ErrDuplicateKind = errors.New("kind already registered")
	ErrSealed        = errors.New("registry is sealed")
)

// Registry maps callback kinds to their routines. It keeps two parallel
// tables, one per flavor; a kind may have only one of them. The registry
// is sealed when a Dispatcher is built and is read-only afterwards.
type Registry struct {
	mu     sync.RWMutex
	names  map[callback.Kind]string
	async  map[callback.Kind]AsyncRoutine
	sync   map[callback.Kind]SyncRoutine
	sealed bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		names: make(map[callback.Kind]string),
		async: make(map[callback.Kind]AsyncRoutine),
		sync:  make(map[callback.Kind]SyncRoutine),
	}
}

// Register adds rt. A kind can be registered once.
func (reg *Registry) Register(rt Routine) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if reg.sealed {
		return fmt.Errorf("%w: cannot register %s", ErrSealed, rt.Name)
	}
	if prev, ok := reg.names[rt.Kind]; ok {
		return fmt.Errorf("%w: %d (%s, %s)", ErrDuplicateKind, rt.Kind, prev, rt.Name)
	}
	if rt.Async == nil && rt.Sync == nil {
		return fmt.Errorf("dispatch: routine %s has no flavors", rt.Name)
	}
	reg.names[rt.Kind] = rt.Name
	if rt.Async != nil {
		reg.async[rt.Kind] = rt.Async
	}
	if rt.Sync != nil {
		reg.sync[rt.Kind] = rt.Sync
	}
	return nil
}

// MustRegister is Register for static tables; it panics on error.
func (reg *Registry) MustRegister(rts ...Routine) {
	for _, rt := range rts {
		if err := reg.Register(rt); err != nil {
			panic(err)
		}
	}
}

// RegisterCatalog registers a data driven routine for every signature in
// cat that is not already registered. Statically typed routines registered
// earlier take precedence.
func (reg *Registry) RegisterCatalog(cat *signature.Catalog) error {
	for _, sig := range cat.Signatures() {
		if _, ok := reg.Name(sig.Kind); ok {
			continue
		}
		if err := reg.Register(FromSignature(sig)); err != nil {
			return err
		}
	}
	return nil
}

// Name returns the signature name registered for kind.
func (reg *Registry) Name(kind callback.Kind) (string, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	n, ok := reg.names[kind]
	return n, ok
}

// Kinds returns every registered kind in ascending order.
func (reg *Registry) Kinds() []callback.Kind {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	out := make([]callback.Kind, 0, len(reg.names))
	for k := range reg.names {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Len returns the number of registered kinds.
func (reg *Registry) Len() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.names)
}

func (reg *Registry) lookupAsync(kind callback.Kind) (AsyncRoutine, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	rt, ok := reg.async[kind]
	return rt, ok
}

func (reg *Registry) lookupSync(kind callback.Kind) (SyncRoutine, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	rt, ok := reg.sync[kind]
	return rt, ok
}

func (reg *Registry) seal() {
	reg.mu.Lock()
	reg.sealed = true
	reg.mu.Unlock()
}
