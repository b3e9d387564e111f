package wire

import (
	"errors"
	"fmt"
	"reflect"
)

// Decoder reads one value of type T.
type Decoder[T any] func(r *Reader) (T, error)

// Encoder writes one value of type T.
type Encoder[T any] func(w *Writer, v T) error

// ---------------------------------------------------------------------------
// Optional
// ---------------------------------------------------------------------------

// Opt is a value that may be absent.
type Opt[T any] struct {
	Value   T
	Present bool
}

// Some returns a present optional.
func Some[T any](v T) Opt[T] { return Opt[T]{Value: v, Present: true} }

// None returns an absent optional.
func None[T any]() Opt[T] { return Opt[T]{} }

// Get returns the value and whether it is present.
func (o Opt[T]) Get() (T, bool) { return o.Value, o.Present }

// ReadOptional reads a runtime type byte. RuntimeUndefined means absent and
// nothing more is consumed; any other tag is followed by the payload.
func ReadOptional[T any](r *Reader, dec Decoder[T]) (Opt[T], error) {
	tag, err := r.ReadRuntimeType()
	if err != nil {
		return Opt[T]{}, err
	}
	if tag == RuntimeUndefined {
		return Opt[T]{}, nil
	}
	v, err := dec(r)
	if err != nil {
		return Opt[T]{}, err
	}
	return Some(v), nil
}

// WriteOptional writes RuntimeUndefined for an absent value, or
// RuntimeObject followed by the payload.
func WriteOptional[T any](w *Writer, o Opt[T], enc Encoder[T]) error {
	if !o.Present {
		w.WriteRuntimeType(RuntimeUndefined)
		return nil
	}
	w.WriteRuntimeType(RuntimeObject)
	return enc(w, o.Value)
}

// ---------------------------------------------------------------------------
// Array
// ---------------------------------------------------------------------------

// ReadArray reads an Int32 element count followed by the elements in order.
func ReadArray[T any](r *Reader, dec Decoder[T]) ([]T, error) {
	start := r.Offset()
	n, err := r.ReadLength()
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, presize(r, n))
	for i := 0; i < n; i++ {
		before := r.Offset()
		v, err := dec(r)
		if err != nil {
			return nil, err
		}
		if err := stalled(r, "ReadArray", start, before, n); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// WriteArray writes the element count and every element.
func WriteArray[T any](w *Writer, vs []T, enc Encoder[T]) error {
	w.WriteLength(len(vs))
	for _, v := range vs {
		if err := enc(w, v); err != nil {
			return err
		}
	}
	return nil
}

// stalled fails a count-prefixed read whose element consumed no bytes
// while the count exceeds what is left in the buffer. Without it a corrupt
// count over zero-width elements would loop up to 2^31 times.
func stalled(r *Reader, op string, start, before, n int) error {
	if r.Offset() == before && n > r.Remaining() {
		return r.fail(op, start, ErrBufferUnderrun,
			"count %d, element consumed no bytes with %d remaining", n, r.Remaining())
	}
	return nil
}

// presize bounds a declared count by what the buffer could possibly hold,
// so a corrupt count fails with an underrun instead of a huge allocation.
func presize(r *Reader, n int) int {
	if rem := r.Remaining(); n > rem {
		return rem
	}
	return n
}

// ---------------------------------------------------------------------------
// Map
// ---------------------------------------------------------------------------

// Map is an insertion-ordered map stored as parallel key and value slices.
// Keys are unique by contract; duplicates are not detected.
type Map[K comparable, V any] struct {
	Keys   []K
	Values []V
}

// Len returns the number of entries.
func (m Map[K, V]) Len() int { return len(m.Keys) }

// Get returns the value of the first entry with key k. Interface keys are
// compared with reflect.DeepEqual, so decoded Buffer, Array and Map keys
// can be looked up.
func (m Map[K, V]) Get(k K) (V, bool) {
	deep := reflect.TypeOf((*K)(nil)).Elem().Kind() == reflect.Interface
	for i, key := range m.Keys {
		if deep && reflect.DeepEqual(key, k) || !deep && key == k {
			return m.Values[i], true
		}
	}
	var zero V
	return zero, false
}

// Put appends an entry.
func (m *Map[K, V]) Put(k K, v V) {
	m.Keys = append(m.Keys, k)
	m.Values = append(m.Values, v)
}

// ReadMap reads an Int32 entry count followed by key, value pairs.
func ReadMap[K comparable, V any](r *Reader, dk Decoder[K], dv Decoder[V]) (Map[K, V], error) {
	start := r.Offset()
	n, err := r.ReadLength()
	if err != nil {
		return Map[K, V]{}, err
	}
	size := presize(r, n)
	m := Map[K, V]{Keys: make([]K, 0, size), Values: make([]V, 0, size)}
	for i := 0; i < n; i++ {
		before := r.Offset()
		k, err := dk(r)
		if err != nil {
			return Map[K, V]{}, err
		}
		v, err := dv(r)
		if err != nil {
			return Map[K, V]{}, err
		}
		if err := stalled(r, "ReadMap", start, before, n); err != nil {
			return Map[K, V]{}, err
		}
		m.Put(k, v)
	}
	return m, nil
}

// WriteMap writes the entry count and every key, value pair in order.
func WriteMap[K comparable, V any](w *Writer, m Map[K, V], ek Encoder[K], ev Encoder[V]) error {
	if len(m.Keys) != len(m.Values) {
		return fmt.Errorf("wire: map has %d keys and %d values", len(m.Keys), len(m.Values))
	}
	w.WriteLength(len(m.Keys))
	for i := range m.Keys {
		if err := ek(w, m.Keys[i]); err != nil {
			return err
		}
		if err := ev(w, m.Values[i]); err != nil {
			return err
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Union
// ---------------------------------------------------------------------------

// Union holds exactly one branch of a discriminated union. Selector is the
// branch position in declaration order.
type Union struct {
	Selector int8
	Value    any
}

// ErrValueType is returned when a type-erased encoder is given a value of
// the wrong type.
var ErrValueType = errors.New("wire: value does not match encoder type")

// ReadUnion reads a selector and decodes exactly one branch. A selector
// outside 0..len(branches)-1 fails with ErrInvalidDiscriminant.
func ReadUnion(r *Reader, branches ...Decoder[any]) (Union, error) {
	start := r.Offset()
	sel, err := r.ReadSelector()
	if err != nil {
		return Union{}, err
	}
	if sel < 0 || int(sel) >= len(branches) {
		return Union{}, r.fail("ReadUnion", start, ErrInvalidDiscriminant,
			"selector %d, %d branches", sel, len(branches))
	}
	v, err := branches[sel](r)
	if err != nil {
		return Union{}, err
	}
	return Union{Selector: sel, Value: v}, nil
}

// WriteUnion writes the selector and the selected branch.
func WriteUnion(w *Writer, u Union, branches ...Encoder[any]) error {
	if u.Selector < 0 || int(u.Selector) >= len(branches) {
		return fmt.Errorf("wire: union selector %d out of range (%d branches)", u.Selector, len(branches))
	}
	w.WriteSelector(u.Selector)
	return branches[u.Selector](w, u.Value)
}

// Branch adapts a typed decoder to a union branch.
func Branch[T any](dec Decoder[T]) Decoder[any] {
	return func(r *Reader) (any, error) {
		v, err := dec(r)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
}

// BranchEncoder adapts a typed encoder to a union branch.
func BranchEncoder[T any](enc Encoder[T]) Encoder[any] {
	return func(w *Writer, v any) error {
		tv, ok := v.(T)
		if !ok {
			return fmt.Errorf("%w: got %T", ErrValueType, v)
		}
		return enc(w, tv)
	}
}

// ---------------------------------------------------------------------------
// Method adapters
// ---------------------------------------------------------------------------

// Decoders for the scalar reader methods, for use with the generic helpers.
var (
	Int8Decoder    Decoder[int8]    = (*Reader).ReadInt8
	BoolDecoder    Decoder[bool]    = (*Reader).ReadBoolean
	Int32Decoder   Decoder[int32]   = (*Reader).ReadInt32
	Int64Decoder   Decoder[int64]   = (*Reader).ReadInt64
	Float32Decoder Decoder[float32] = (*Reader).ReadFloat32
	NumberDecoder  Decoder[Number]  = (*Reader).ReadNumber
	StringDecoder  Decoder[string]  = (*Reader).ReadString
	BufferDecoder  Decoder[[]byte]  = (*Reader).ReadBuffer
	PointerDecoder Decoder[Pointer] = (*Reader).ReadPointer
)

// Encoders for the scalar writer methods.
var (
	Int8Encoder    Encoder[int8]    = plain((*Writer).WriteInt8)
	BoolEncoder    Encoder[bool]    = plain((*Writer).WriteBoolean)
	Int32Encoder   Encoder[int32]   = plain((*Writer).WriteInt32)
	Int64Encoder   Encoder[int64]   = plain((*Writer).WriteInt64)
	Float32Encoder Encoder[float32] = plain((*Writer).WriteFloat32)
	NumberEncoder  Encoder[Number]  = plain((*Writer).WriteNumber)
	StringEncoder  Encoder[string]  = plain((*Writer).WriteString)
	BufferEncoder  Encoder[[]byte]  = plain((*Writer).WriteBuffer)
	PointerEncoder Encoder[Pointer] = plain((*Writer).WritePointer)
)

func plain[T any](f func(*Writer, T)) Encoder[T] {
	return func(w *Writer, v T) error {
		f(w, v)
		return nil
	}
}
