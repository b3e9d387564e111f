package callback

import (
	"sort"

	"github.com/chazu/callwire/wire"
)

// CallerRegistry supplies the default native callers for each kind. Both
// lookups are pure; a Nil result means the kind is not configured.
type CallerRegistry interface {
	ManagedCallbackCaller(kind Kind) wire.Pointer
	ManagedCallbackCallerSync(kind Kind) wire.Pointer
}

// CallerPair is the async and sync default caller of one kind.
type CallerPair struct {
	Async wire.Pointer
	Sync  wire.Pointer
}

// CallerTable is an immutable CallerRegistry. It is built once at startup
// and shared by reference; concurrent lookups need no locking.
type CallerTable struct {
	entries map[Kind]CallerPair
}

// NewCallerTable copies entries into a new table.
func NewCallerTable(entries map[Kind]CallerPair) *CallerTable {
	t := &CallerTable{entries: make(map[Kind]CallerPair, len(entries))}
	for k, v := range entries {
		t.entries[k] = v
	}
	return t
}

// ManagedCallbackCaller returns the default async caller for kind.
func (t *CallerTable) ManagedCallbackCaller(kind Kind) wire.Pointer {
	return t.entries[kind].Async
}

// ManagedCallbackCallerSync returns the default sync caller for kind.
func (t *CallerTable) ManagedCallbackCallerSync(kind Kind) wire.Pointer {
	return t.entries[kind].Sync
}

// Lookup returns both callers of kind.
func (t *CallerTable) Lookup(kind Kind) (CallerPair, bool) {
	p, ok := t.entries[kind]
	return p, ok
}

// Kinds returns the configured kinds in ascending order.
func (t *CallerTable) Kinds() []Kind {
	kinds := make([]Kind, 0, len(t.entries))
	for k := range t.entries {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Len returns the number of configured kinds.
func (t *CallerTable) Len() int { return len(t.entries) }
