// Package managed is the other direction of the protocol: when native code
// invokes a callback.Resource, the caller functions built here serialize
// the call and hand it to the VM.
//
// A managed callback buffer is
//
//	Int32 kind | Int32 resourceId | arguments in the signature's layout
package managed

import (
	"fmt"

	"github.com/tliron/commonlog"

	"github.com/chazu/callwire/callback"
	"github.com/chazu/callwire/native"
	"github.com/chazu/callwire/signature"
	"github.com/chazu/callwire/wire"
)

var log = commonlog.GetLogger("callwire.managed")

// Runtime is the VM side. Enqueue must not block on the VM; CallSync runs
// the callback before returning and may re-enter native code.
type Runtime interface {
	Enqueue(buf []byte)
	CallSync(vm callback.VMContext, buf []byte) error
}

// Callers builds the default caller functions for every signature of a
// catalog.
type Callers struct {
	Symbols *native.Symbols
	Codec   *signature.Codec
	Runtime Runtime

	// PointerSize is the width of pointers inside arguments; zero means
	// wire.DefaultPointerSize.
	PointerSize int
}

// Register creates an async and a sync caller per signature, registers
// them as native symbols and returns the table continuations use to fill
// their "use default" slots.
func (c *Callers) Register(cat *signature.Catalog) *callback.CallerTable {
	entries := make(map[callback.Kind]callback.CallerPair, cat.Len())
	for _, sig := range cat.Signatures() {
		entries[sig.Kind] = callback.CallerPair{
			Async: c.Symbols.Register(sig.Name+".async", c.asyncCaller(sig)),
			Sync:  c.Symbols.Register(sig.Name+".sync", c.syncCaller(sig)),
		}
	}
	log.Infof("registered managed callers for %d kinds", len(entries))
	return callback.NewCallerTable(entries)
}

func (c *Callers) asyncCaller(sig *signature.Signature) callback.AsyncCaller {
	return func(resourceID int32, args []any) error {
		buf, err := c.Encode(sig, resourceID, args)
		if err != nil {
			return err
		}
		c.Runtime.Enqueue(buf)
		return nil
	}
}

func (c *Callers) syncCaller(sig *signature.Signature) callback.SyncCaller {
	return func(vm callback.VMContext, resourceID int32, args []any) error {
		buf, err := c.Encode(sig, resourceID, args)
		if err != nil {
			return err
		}
		return c.Runtime.CallSync(vm, buf)
	}
}

// Encode serializes one managed callback invocation.
func (c *Callers) Encode(sig *signature.Signature, resourceID int32, args []any) ([]byte, error) {
	w := wire.NewWriter()
	w.SetPointerSize(c.PointerSize)
	w.WriteInt32(int32(sig.Kind))
	w.WriteCallbackResource(resourceID)
	if err := c.Codec.EncodeParams(w, sig, args); err != nil {
		return nil, fmt.Errorf("managed: encode %s for resource %d: %w", sig.Name, resourceID, err)
	}
	return w.Bytes(), nil
}

// Call is a decoded managed callback buffer.
type Call struct {
	Kind       callback.Kind
	ResourceID int32
	Args       []any
}

// ReadHeader reads the kind and resource id at the start of a managed
// callback buffer.
func ReadHeader(r *wire.Reader) (callback.Kind, int32, error) {
	kind, err := r.ReadInt32()
	if err != nil {
		return 0, 0, err
	}
	id, err := r.ReadCallbackResource()
	if err != nil {
		return 0, 0, err
	}
	return callback.Kind(kind), id, nil
}

// Decode reads a managed callback buffer back, looking the signature up in
// cat. This is what a VM written in Go, or a test, does with the buffers
// Callers produce.
func Decode(cat *signature.Catalog, codec *signature.Codec, buf []byte, pointerSize int) (*Call, error) {
	r := wire.NewReader(buf)
	r.SetPointerSize(pointerSize)
	kind, id, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	sig, ok := cat.Lookup(kind)
	if !ok {
		return nil, fmt.Errorf("managed: no signature for kind %d", kind)
	}
	args, err := codec.DecodeParams(r, sig)
	if err != nil {
		return nil, err
	}
	return &Call{Kind: kind, ResourceID: id, Args: args}, nil
}
