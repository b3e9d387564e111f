// Package wire implements the flat binary layout used to pass callback
// invocations between the managed VM and the native engine.
//
// Every value is written in declaration order with no framing beyond what
// the value itself carries: fixed-width scalars, Int32 length prefixes for
// strings, buffers, arrays and maps, a runtime type byte in front of
// optionals and a positional selector byte in front of unions. All
// multi-byte values are little endian.
package wire

import (
	"encoding/binary"
	"fmt"
	"math"
)

// ---------------------------------------------------------------------------
// Tags
// ---------------------------------------------------------------------------

// RuntimeType is the byte written in front of an optional value.
type RuntimeType int8

const (
	RuntimeUnexpected   RuntimeType = -1
	RuntimeNumber       RuntimeType = 1
	RuntimeString       RuntimeType = 2
	RuntimeObject       RuntimeType = 3
	RuntimeBoolean      RuntimeType = 4
	RuntimeUndefined    RuntimeType = 5
	RuntimeBigInt       RuntimeType = 6
	RuntimeFunction     RuntimeType = 7
	RuntimeSymbol       RuntimeType = 8
	RuntimeMaterialized RuntimeType = 9
)

// Tag identifies the representation of a tagged value such as a Number.
type Tag int8

const (
	TagUndefined Tag = 101
	TagInt32     Tag = 102
	TagFloat32   Tag = 103
	TagString    Tag = 104
	TagLength    Tag = 105
	TagResource  Tag = 106
	TagObject    Tag = 107
)

// Fixed sizes in bytes.
const (
	Int8Size    = 1
	BoolSize    = 1
	Int32Size   = 4
	Int64Size   = 8
	Float32Size = 4
	NumberSize  = 1 + 4 // tag + payload

	// DefaultPointerSize is the width of a native pointer on the wire.
	DefaultPointerSize = 8
)

// ---------------------------------------------------------------------------
// Pointer
// ---------------------------------------------------------------------------

// Pointer is a native function or data pointer as carried on the wire.
// The zero Pointer is the "use default" sentinel for caller slots.
type Pointer uint64

// Nil is the zero pointer.
const Nil Pointer = 0

// IsNil reports whether p is the zero pointer.
func (p Pointer) IsNil() bool { return p == Nil }

func (p Pointer) String() string {
	return fmt.Sprintf("0x%x", uint64(p))
}

func validPointerSize(n int) bool {
	return n == 4 || n == 8
}

// ---------------------------------------------------------------------------
// Number
// ---------------------------------------------------------------------------

// Number is the managed numeric type. On the wire it is a Tag byte
// (TagInt32 or TagFloat32) followed by four bytes of payload.
type Number struct {
	tag Tag
	i   int32
	f   float32
}

// Int returns an integer Number.
func Int(v int32) Number { return Number{tag: TagInt32, i: v} }

// Float returns a floating point Number.
func Float(v float32) Number { return Number{tag: TagFloat32, f: v} }

// Tag reports the wire representation of n.
func (n Number) Tag() Tag {
	if n.tag == 0 {
		return TagInt32
	}
	return n.tag
}

// IsInt reports whether n carries an int32 payload.
func (n Number) IsInt() bool { return n.Tag() == TagInt32 }

// Int32 returns n as an int32, truncating floats.
func (n Number) Int32() int32 {
	if n.IsInt() {
		return n.i
	}
	return int32(n.f)
}

// Float32 returns n as a float32.
func (n Number) Float32() float32 {
	if n.IsInt() {
		return float32(n.i)
	}
	return n.f
}

// Float64 returns n as a float64.
func (n Number) Float64() float64 {
	if n.IsInt() {
		return float64(n.i)
	}
	return float64(n.f)
}

func (n Number) String() string {
	if n.IsInt() {
		return fmt.Sprintf("%d", n.i)
	}
	return fmt.Sprintf("%g", n.f)
}

// ---------------------------------------------------------------------------
// Little-endian helpers
// ---------------------------------------------------------------------------

// PutInt32 writes v at the start of buf.
func PutInt32(buf []byte, v int32) {
	binary.LittleEndian.PutUint32(buf, uint32(v))
}

// Int32At reads an int32 from the start of buf.
func Int32At(buf []byte) int32 {
	return int32(binary.LittleEndian.Uint32(buf))
}

// PutInt64 writes v at the start of buf.
func PutInt64(buf []byte, v int64) {
	binary.LittleEndian.PutUint64(buf, uint64(v))
}

// Int64At reads an int64 from the start of buf.
func Int64At(buf []byte) int64 {
	return int64(binary.LittleEndian.Uint64(buf))
}

// PutFloat32 writes v at the start of buf.
func PutFloat32(buf []byte, v float32) {
	binary.LittleEndian.PutUint32(buf, math.Float32bits(v))
}

// Float32At reads a float32 from the start of buf.
func Float32At(buf []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf))
}

// putPointer writes p using size bytes.
func putPointer(buf []byte, p Pointer, size int) {
	if size == 4 {
		binary.LittleEndian.PutUint32(buf, uint32(p))
		return
	}
	binary.LittleEndian.PutUint64(buf, uint64(p))
}

// pointerAt reads a pointer of size bytes.
func pointerAt(buf []byte, size int) Pointer {
	if size == 4 {
		return Pointer(binary.LittleEndian.Uint32(buf))
	}
	return Pointer(binary.LittleEndian.Uint64(buf))
}
