package wire

// ---------------------------------------------------------------------------
// Reader: sequential decoder over one invocation buffer
// ---------------------------------------------------------------------------

// Reader decodes values from a flat buffer. The cursor only moves forward.
// After a failed read the Reader is spent: the error is fatal for the
// invocation being decoded.
//
// A Reader is owned by a single decode call and is not safe for
// concurrent use.
type Reader struct {
	data    []byte
	offset  int
	ptrSize int
}

// NewReader returns a Reader over data using DefaultPointerSize.
func NewReader(data []byte) *Reader {
	return &Reader{data: data, ptrSize: DefaultPointerSize}
}

// SetPointerSize sets the pointer width (4 or 8). Other values are ignored.
func (r *Reader) SetPointerSize(n int) {
	if validPointerSize(n) {
		r.ptrSize = n
	}
}

// PointerSize returns the pointer width in bytes.
func (r *Reader) PointerSize() int { return r.ptrSize }

// Offset returns the current cursor position.
func (r *Reader) Offset() int { return r.offset }

// Len returns the total buffer length.
func (r *Reader) Len() int { return len(r.data) }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.data) - r.offset }

// take consumes n bytes or fails with ErrBufferUnderrun.
func (r *Reader) take(op string, n int) ([]byte, error) {
	if n < 0 || r.offset+n > len(r.data) {
		return nil, r.fail(op, r.offset, ErrBufferUnderrun, "need %d bytes, have %d", n, r.Remaining())
	}
	b := r.data[r.offset : r.offset+n]
	r.offset += n
	return b, nil
}

// ---------------------------------------------------------------------------
// Scalars
// ---------------------------------------------------------------------------

// ReadInt8 reads a signed byte.
func (r *Reader) ReadInt8() (int8, error) {
	b, err := r.take("ReadInt8", Int8Size)
	if err != nil {
		return 0, err
	}
	return int8(b[0]), nil
}

// ReadBoolean reads one byte; any non-zero value is true.
func (r *Reader) ReadBoolean() (bool, error) {
	b, err := r.take("ReadBoolean", BoolSize)
	if err != nil {
		return false, err
	}
	return b[0] != 0, nil
}

// ReadInt32 reads a little-endian int32.
func (r *Reader) ReadInt32() (int32, error) {
	b, err := r.take("ReadInt32", Int32Size)
	if err != nil {
		return 0, err
	}
	return Int32At(b), nil
}

// ReadInt64 reads a little-endian int64.
func (r *Reader) ReadInt64() (int64, error) {
	b, err := r.take("ReadInt64", Int64Size)
	if err != nil {
		return 0, err
	}
	return Int64At(b), nil
}

// ReadFloat32 reads a little-endian IEEE-754 float32.
func (r *Reader) ReadFloat32() (float32, error) {
	b, err := r.take("ReadFloat32", Float32Size)
	if err != nil {
		return 0, err
	}
	return Float32At(b), nil
}

// ReadNumber reads a value tag followed by a four byte payload.
func (r *Reader) ReadNumber() (Number, error) {
	start := r.offset
	b, err := r.take("ReadNumber", NumberSize)
	if err != nil {
		return Number{}, err
	}
	switch Tag(b[0]) {
	case TagInt32:
		return Int(Int32At(b[1:])), nil
	case TagFloat32:
		return Float(Float32At(b[1:])), nil
	default:
		return Number{}, r.fail("ReadNumber", start, ErrInvalidTag, "tag %d", int8(b[0]))
	}
}

// ---------------------------------------------------------------------------
// Length-prefixed data
// ---------------------------------------------------------------------------

// ReadLength reads an Int32 count or byte length. Negative values fail.
func (r *Reader) ReadLength() (int, error) {
	start := r.offset
	n, err := r.ReadInt32()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, r.fail("ReadLength", start, ErrInvalidLength, "length %d", n)
	}
	return int(n), nil
}

// ReadString reads an Int32 length and that many bytes of UTF-8.
func (r *Reader) ReadString() (string, error) {
	n, err := r.ReadLength()
	if err != nil {
		return "", err
	}
	b, err := r.take("ReadString", n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadBuffer reads an Int32 length and returns a copy of that many bytes.
func (r *Reader) ReadBuffer() ([]byte, error) {
	n, err := r.ReadLength()
	if err != nil {
		return nil, err
	}
	b, err := r.take("ReadBuffer", n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// ---------------------------------------------------------------------------
// Pointers and resources
// ---------------------------------------------------------------------------

// ReadPointer reads a native pointer of the configured width.
func (r *Reader) ReadPointer() (Pointer, error) {
	b, err := r.take("ReadPointer", r.ptrSize)
	if err != nil {
		return Nil, err
	}
	return pointerAt(b, r.ptrSize), nil
}

// ReadPointerOrDefault reads a pointer and substitutes def when the
// encoder wrote the zero "use default" sentinel.
func (r *Reader) ReadPointerOrDefault(def Pointer) (Pointer, error) {
	p, err := r.ReadPointer()
	if err != nil {
		return Nil, err
	}
	if p.IsNil() {
		return def, nil
	}
	return p, nil
}

// ReadCallbackResource reads the resource id of a callback. Caller
// pointers follow it on the wire and are read separately.
func (r *Reader) ReadCallbackResource() (int32, error) {
	b, err := r.take("ReadCallbackResource", Int32Size)
	if err != nil {
		return 0, err
	}
	return Int32At(b), nil
}

// ReadRuntimeType reads the presence byte of an optional value.
func (r *Reader) ReadRuntimeType() (RuntimeType, error) {
	b, err := r.take("ReadRuntimeType", Int8Size)
	if err != nil {
		return RuntimeUnexpected, err
	}
	return RuntimeType(int8(b[0])), nil
}

// ReadSelector reads a union selector.
func (r *Reader) ReadSelector() (int8, error) {
	b, err := r.take("ReadSelector", Int8Size)
	if err != nil {
		return 0, err
	}
	return int8(b[0]), nil
}
