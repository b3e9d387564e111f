package callback

import (
	"github.com/chazu/callwire/native"
)

// AsyncCaller is the Go shape of a native async caller: it delivers the
// arguments to the managed callback identified by resourceID without
// waiting for it to run.
type AsyncCaller = func(resourceID int32, args []any) error

// SyncCaller is the Go shape of a native sync caller: it re-enters the VM
// through vm and returns once the managed callback has run.
type SyncCaller = func(vm VMContext, resourceID int32, args []any) error

// Call invokes the async caller of r with (r.ID, args).
func (r Resource) Call(symbols *native.Symbols, args ...any) error {
	caller, err := native.Resolve[AsyncCaller](symbols, r.Async)
	if err != nil {
		return err
	}
	return caller(r.ID, args)
}

// CallSync invokes the sync caller of r with (vm, r.ID, args).
func (r Resource) CallSync(symbols *native.Symbols, vm VMContext, args ...any) error {
	caller, err := native.Resolve[SyncCaller](symbols, r.Sync)
	if err != nil {
		return err
	}
	return caller(vm, r.ID, args)
}
