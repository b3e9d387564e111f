package signature

import (
	"fmt"

	"github.com/chazu/callwire/callback"
	"github.com/chazu/callwire/wire"
)

// Codec interprets Types against the wire format.
//
// Decoded values have these Go types:
//
//	Int8 int8, Int32 int32, Int64 int64, Float32 float32, Boolean bool,
//	Number wire.Number, String string, Buffer []byte, Pointer wire.Pointer,
//	Array []any, Map wire.Map[any, any], Opt wire.Opt[any],
//	Union wire.Union, Callback callback.Resource,
//	records whatever their registered codec returns.
//
// Encode accepts the same types.
type Codec struct {
	Records *Records

	// Callers resolves "use default" caller slots of continuations. When
	// nil, continuations are decoded raw with their sentinels intact; only
	// inspection tooling should do that.
	Callers callback.CallerRegistry
}

// Decode reads one value of type t.
func (c *Codec) Decode(r *wire.Reader, t *Type) (any, error) {
	switch t.Kind {
	case Int8:
		return r.ReadInt8()
	case Int32:
		return r.ReadInt32()
	case Int64:
		return r.ReadInt64()
	case Float32:
		return r.ReadFloat32()
	case Boolean:
		return r.ReadBoolean()
	case Number:
		return r.ReadNumber()
	case String:
		return r.ReadString()
	case Buffer:
		return r.ReadBuffer()
	case Pointer:
		return r.ReadPointer()
	case Array:
		return wire.ReadArray(r, c.decoder(t.Elem))
	case Map:
		return wire.ReadMap(r, c.decoder(t.Key), c.decoder(t.Elem))
	case Optional:
		return wire.ReadOptional(r, c.decoder(t.Elem))
	case Union:
		branches := make([]wire.Decoder[any], len(t.Branches))
		for i, b := range t.Branches {
			branches[i] = c.decoder(b)
		}
		return wire.ReadUnion(r, branches...)
	case Record:
		rc, err := c.Records.Lookup(t.Name)
		if err != nil {
			return nil, err
		}
		return rc.Decode(r)
	case Callback:
		if c.Callers == nil {
			return callback.ReadRawResource(r)
		}
		return callback.ReadResource(r, t.Target, c.Callers)
	default:
		return nil, fmt.Errorf("signature: cannot decode %v", t.Kind)
	}
}

func (c *Codec) decoder(t *Type) wire.Decoder[any] {
	return func(r *wire.Reader) (any, error) {
		return c.Decode(r, t)
	}
}

// DecodeParams reads every parameter of sig in order.
func (c *Codec) DecodeParams(r *wire.Reader, sig *Signature) ([]any, error) {
	args := make([]any, 0, len(sig.Params))
	for i, p := range sig.Params {
		v, err := c.Decode(r, p)
		if err != nil {
			return nil, fmt.Errorf("%s: param %d (%v): %w", sig.Name, i, p, err)
		}
		args = append(args, v)
	}
	return args, nil
}

// Encode writes v as a value of type t.
func (c *Codec) Encode(w *wire.Writer, t *Type, v any) error {
	switch t.Kind {
	case Int8:
		return encodeAs(w, v, t, (*wire.Writer).WriteInt8)
	case Int32:
		return encodeAs(w, v, t, (*wire.Writer).WriteInt32)
	case Int64:
		return encodeAs(w, v, t, (*wire.Writer).WriteInt64)
	case Float32:
		return encodeAs(w, v, t, (*wire.Writer).WriteFloat32)
	case Boolean:
		return encodeAs(w, v, t, (*wire.Writer).WriteBoolean)
	case Number:
		return encodeAs(w, v, t, (*wire.Writer).WriteNumber)
	case String:
		return encodeAs(w, v, t, (*wire.Writer).WriteString)
	case Buffer:
		return encodeAs(w, v, t, (*wire.Writer).WriteBuffer)
	case Pointer:
		return encodeAs(w, v, t, (*wire.Writer).WritePointer)
	case Array:
		vs, ok := v.([]any)
		if !ok {
			return mismatch(t, v)
		}
		return wire.WriteArray(w, vs, c.encoder(t.Elem))
	case Map:
		m, ok := v.(wire.Map[any, any])
		if !ok {
			return mismatch(t, v)
		}
		return wire.WriteMap(w, m, c.encoder(t.Key), c.encoder(t.Elem))
	case Optional:
		if v == nil {
			return wire.WriteOptional(w, wire.None[any](), c.encoder(t.Elem))
		}
		o, ok := v.(wire.Opt[any])
		if !ok {
			return mismatch(t, v)
		}
		return wire.WriteOptional(w, o, c.encoder(t.Elem))
	case Union:
		u, ok := v.(wire.Union)
		if !ok {
			return mismatch(t, v)
		}
		branches := make([]wire.Encoder[any], len(t.Branches))
		for i, b := range t.Branches {
			branches[i] = c.encoder(b)
		}
		return wire.WriteUnion(w, u, branches...)
	case Record:
		rc, err := c.Records.Lookup(t.Name)
		if err != nil {
			return err
		}
		return rc.Encode(w, v)
	case Callback:
		res, ok := v.(callback.Resource)
		if !ok {
			return mismatch(t, v)
		}
		return callback.WriteResource(w, res)
	default:
		return fmt.Errorf("signature: cannot encode %v", t.Kind)
	}
}

func (c *Codec) encoder(t *Type) wire.Encoder[any] {
	return func(w *wire.Writer, v any) error {
		return c.Encode(w, t, v)
	}
}

// EncodeParams writes args as the parameters of sig.
func (c *Codec) EncodeParams(w *wire.Writer, sig *Signature, args []any) error {
	if len(args) != len(sig.Params) {
		return fmt.Errorf("signature: %s takes %d arguments, got %d", sig.Name, len(sig.Params), len(args))
	}
	for i, p := range sig.Params {
		if err := c.Encode(w, p, args[i]); err != nil {
			return fmt.Errorf("%s: param %d (%v): %w", sig.Name, i, p, err)
		}
	}
	return nil
}

func encodeAs[T any](w *wire.Writer, v any, t *Type, write func(*wire.Writer, T)) error {
	tv, ok := v.(T)
	if !ok {
		return mismatch(t, v)
	}
	write(w, tv)
	return nil
}

func mismatch(t *Type, v any) error {
	return fmt.Errorf("%w: %v cannot hold %T", wire.ErrValueType, t, v)
}
