package wire

import (
	"bytes"
)

// ---------------------------------------------------------------------------
// Writer: the encoder paired with Reader
// ---------------------------------------------------------------------------

// Writer appends values in exactly the layout Reader consumes.
type Writer struct {
	buf     *bytes.Buffer
	scratch [8]byte
	ptrSize int
}

// NewWriter returns an empty Writer using DefaultPointerSize.
func NewWriter() *Writer {
	return &Writer{buf: bytes.NewBuffer(nil), ptrSize: DefaultPointerSize}
}

// SetPointerSize sets the pointer width (4 or 8). Other values are ignored.
func (w *Writer) SetPointerSize(n int) {
	if validPointerSize(n) {
		w.ptrSize = n
	}
}

// PointerSize returns the pointer width in bytes.
func (w *Writer) PointerSize() int { return w.ptrSize }

// Bytes returns the encoded buffer. The slice aliases the Writer's storage.
func (w *Writer) Bytes() []byte { return w.buf.Bytes() }

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return w.buf.Len() }

// Reset discards everything written.
func (w *Writer) Reset() { w.buf.Reset() }

// WriteInt8 writes a signed byte.
func (w *Writer) WriteInt8(v int8) {
	w.buf.WriteByte(byte(v))
}

// WriteBoolean writes 1 for true and 0 for false.
func (w *Writer) WriteBoolean(v bool) {
	if v {
		w.buf.WriteByte(1)
		return
	}
	w.buf.WriteByte(0)
}

// WriteInt32 writes a little-endian int32.
func (w *Writer) WriteInt32(v int32) {
	PutInt32(w.scratch[:], v)
	w.buf.Write(w.scratch[:Int32Size])
}

// WriteInt64 writes a little-endian int64.
func (w *Writer) WriteInt64(v int64) {
	PutInt64(w.scratch[:], v)
	w.buf.Write(w.scratch[:Int64Size])
}

// WriteFloat32 writes a little-endian float32.
func (w *Writer) WriteFloat32(v float32) {
	PutFloat32(w.scratch[:], v)
	w.buf.Write(w.scratch[:Float32Size])
}

// WriteNumber writes the value tag and the four byte payload.
func (w *Writer) WriteNumber(n Number) {
	w.WriteInt8(int8(n.Tag()))
	if n.IsInt() {
		w.WriteInt32(n.Int32())
		return
	}
	w.WriteFloat32(n.Float32())
}

// WriteLength writes an Int32 count or byte length.
func (w *Writer) WriteLength(n int) {
	w.WriteInt32(int32(n))
}

// WriteString writes an Int32 length followed by the bytes of s.
func (w *Writer) WriteString(s string) {
	w.WriteLength(len(s))
	w.buf.WriteString(s)
}

// WriteBuffer writes an Int32 length followed by b.
func (w *Writer) WriteBuffer(b []byte) {
	w.WriteLength(len(b))
	w.buf.Write(b)
}

// WritePointer writes p using the configured pointer width.
func (w *Writer) WritePointer(p Pointer) {
	putPointer(w.scratch[:], p, w.ptrSize)
	w.buf.Write(w.scratch[:w.ptrSize])
}

// WriteCallbackResource writes the resource id of a callback.
func (w *Writer) WriteCallbackResource(id int32) {
	w.WriteInt32(id)
}

// WriteRuntimeType writes an optional's presence byte.
func (w *Writer) WriteRuntimeType(t RuntimeType) {
	w.WriteInt8(int8(t))
}

// WriteSelector writes a union selector.
func (w *Writer) WriteSelector(s int8) {
	w.WriteInt8(s)
}
