// Package callback models managed-side callbacks as native values.
//
// A callback crosses the boundary as a Resource: the resource id the VM
// assigned to it plus two native caller pointers, one for asynchronous
// delivery and one for synchronous re-entry. Native code may hold a
// Resource and call it any number of times; the VM owns the id and decides
// when it stops being valid.
package callback

import (
	"errors"
	"fmt"

	"github.com/chazu/callwire/wire"
)

// Kind identifies one callback signature. Kinds are fixed when the
// signature catalog is built and used only as dispatch keys.
type Kind int32

// VMContext is the opaque VM execution context handed to synchronous entry
// points. It never appears in a buffer.
type VMContext uintptr

// Resource is a reference to a managed-side callback.
type Resource struct {
	ID    int32
	Async wire.Pointer
	Sync  wire.Pointer
}

func (r Resource) String() string {
	return fmt.Sprintf("callback#%d(async=%v sync=%v)", r.ID, r.Async, r.Sync)
}

// ErrNoDefaultCaller is a configuration error: the buffer asked for the
// default caller of a kind the caller registry was not initialized with.
var ErrNoDefaultCaller = errors.New("no default caller registered")

// ResolveError reports which caller slot of which kind failed to resolve.
type ResolveError struct {
	Kind Kind
	Slot string // "async" or "sync"
	Err  error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("callback: resolve %s caller for kind %d: %v", e.Slot, e.Kind, e.Err)
}

func (e *ResolveError) Unwrap() error { return e.Err }

// ReadRawResource reads a resource id and both caller slots without
// resolving defaults. Slots the encoder left at the sentinel stay Nil.
func ReadRawResource(r *wire.Reader) (Resource, error) {
	id, err := r.ReadCallbackResource()
	if err != nil {
		return Resource{}, err
	}
	async, err := r.ReadPointer()
	if err != nil {
		return Resource{}, err
	}
	sync, err := r.ReadPointer()
	if err != nil {
		return Resource{}, err
	}
	return Resource{ID: id, Async: async, Sync: sync}, nil
}

// ReadResource reads a continuation of the given kind. Caller slots holding
// the "use default" sentinel are filled from callers; the result never
// carries a Nil caller.
func ReadResource(r *wire.Reader, kind Kind, callers CallerRegistry) (Resource, error) {
	res, err := ReadRawResource(r)
	if err != nil {
		return Resource{}, err
	}
	if res.Async.IsNil() {
		if res.Async = callers.ManagedCallbackCaller(kind); res.Async.IsNil() {
			return Resource{}, &ResolveError{Kind: kind, Slot: "async", Err: ErrNoDefaultCaller}
		}
	}
	if res.Sync.IsNil() {
		if res.Sync = callers.ManagedCallbackCallerSync(kind); res.Sync.IsNil() {
			return Resource{}, &ResolveError{Kind: kind, Slot: "sync", Err: ErrNoDefaultCaller}
		}
	}
	return res, nil
}

// WriteResource writes res in the layout ReadResource consumes. Nil caller
// slots are written as the "use default" sentinel.
func WriteResource(w *wire.Writer, res Resource) error {
	w.WriteCallbackResource(res.ID)
	w.WritePointer(res.Async)
	w.WritePointer(res.Sync)
	return nil
}

// Decoder returns a wire.Decoder for continuations of kind.
func Decoder(kind Kind, callers CallerRegistry) wire.Decoder[Resource] {
	return func(r *wire.Reader) (Resource, error) {
		return ReadResource(r, kind, callers)
	}
}
