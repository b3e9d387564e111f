package dispatch

import (
	"fmt"

	"github.com/chazu/callwire/callback"
	"github.com/chazu/callwire/signature"
	"github.com/chazu/callwire/wire"
)

// AsyncTarget and SyncTarget are the native func types data driven routines
// call. Arguments arrive in parameter order with the Go types documented on
// signature.Codec.
type (
	AsyncTarget = func(resourceID int32, args []any)
	SyncTarget  = func(vm callback.VMContext, resourceID int32, args []any)
)

// FromSignature builds routines that interpret sig at dispatch time.
func FromSignature(sig *signature.Signature) Routine {
	return Routine{
		Kind: sig.Kind,
		Name: sig.Name,
		Async: func(env *Env, r *wire.Reader) error {
			id, fn, err := readTarget[AsyncTarget](env, r)
			if err != nil {
				return err
			}
			args, err := env.codec().DecodeParams(r, sig)
			if err != nil {
				return err
			}
			fn(id, args)
			return nil
		},
		Sync: func(env *Env, vm callback.VMContext, r *wire.Reader) error {
			id, fn, err := readTarget[SyncTarget](env, r)
			if err != nil {
				return err
			}
			args, err := env.codec().DecodeParams(r, sig)
			if err != nil {
				return err
			}
			fn(vm, id, args)
			return nil
		},
	}
}

// Invocation is a decoded but not invoked callback.
type Invocation struct {
	Kind       callback.Kind
	Name       string
	ResourceID int32
	Target     wire.Pointer
	Args       []any

	// Consumed is the number of bytes the invocation occupied.
	Consumed int
}

func (inv *Invocation) String() string {
	return fmt.Sprintf("%s#%d resource=%d target=%v args=%v", inv.Name, inv.Kind, inv.ResourceID, inv.Target, inv.Args)
}

// Describe decodes buf as an invocation of sig without resolving or calling
// the target. Continuation defaults are resolved only when codec.Callers is
// set.
func Describe(sig *signature.Signature, codec *signature.Codec, buf []byte, pointerSize int) (*Invocation, error) {
	r := wire.NewReader(buf)
	r.SetPointerSize(pointerSize)

	id, err := r.ReadCallbackResource()
	if err != nil {
		return nil, err
	}
	target, err := r.ReadPointer()
	if err != nil {
		return nil, err
	}
	args, err := codec.DecodeParams(r, sig)
	if err != nil {
		return nil, err
	}
	return &Invocation{
		Kind:       sig.Kind,
		Name:       sig.Name,
		ResourceID: id,
		Target:     target,
		Args:       args,
		Consumed:   r.Offset(),
	}, nil
}
