package wire

import (
	"errors"
	"reflect"
	"testing"
)

// ---------------------------------------------------------------------------
// Optional
// ---------------------------------------------------------------------------

func TestOptionalAbsentConsumesOneByte(t *testing.T) {
	// Opt_String written as absent, followed by bytes that must not be read.
	data := []byte{byte(RuntimeUndefined), 0xFF, 0xFF, 0xFF, 0xFF}
	r := NewReader(data)

	o, err := ReadOptional(r, StringDecoder)
	if err != nil {
		t.Fatalf("ReadOptional: %v", err)
	}
	if o.Present {
		t.Errorf("optional should be absent, got %q", o.Value)
	}
	if r.Offset() != 1 {
		t.Errorf("consumed %d bytes, want 1", r.Offset())
	}
}

func TestOptionalPresentConsumesPayload(t *testing.T) {
	w := NewWriter()
	if err := WriteOptional(w, Some("ark"), StringEncoder); err != nil {
		t.Fatal(err)
	}
	w.WriteInt8(9) // trailing sentinel

	r := NewReader(w.Bytes())
	o, err := ReadOptional(r, StringDecoder)
	if err != nil {
		t.Fatalf("ReadOptional: %v", err)
	}
	v, ok := o.Get()
	if !ok || v != "ark" {
		t.Fatalf("optional = %q, %v; want ark", v, ok)
	}
	if want := 1 + Int32Size + 3; r.Offset() != want {
		t.Errorf("consumed %d bytes, want %d", r.Offset(), want)
	}
}

func TestOptionalPresentWithAnyNonUndefinedTag(t *testing.T) {
	for _, tag := range []RuntimeType{RuntimeNumber, RuntimeObject, RuntimeString, RuntimeBoolean} {
		w := NewWriter()
		w.WriteRuntimeType(tag)
		w.WriteInt32(11)
		o, err := ReadOptional(NewReader(w.Bytes()), Int32Decoder)
		if err != nil {
			t.Fatalf("tag %d: %v", tag, err)
		}
		if !o.Present || o.Value != 11 {
			t.Errorf("tag %d: got %+v", tag, o)
		}
	}
}

func TestOptionalPayloadUnderrun(t *testing.T) {
	r := NewReader([]byte{byte(RuntimeObject), 1, 0})
	if _, err := ReadOptional(r, Int32Decoder); !errors.Is(err, ErrBufferUnderrun) {
		t.Fatalf("expected ErrBufferUnderrun, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Union
// ---------------------------------------------------------------------------

type testResource struct {
	ID     string
	Bundle string
}

func readTestResource(r *Reader) (testResource, error) {
	id, err := r.ReadString()
	if err != nil {
		return testResource{}, err
	}
	bundle, err := r.ReadString()
	if err != nil {
		return testResource{}, err
	}
	return testResource{ID: id, Bundle: bundle}, nil
}

func writeTestResource(w *Writer, v testResource) error {
	w.WriteString(v.ID)
	w.WriteString(v.Bundle)
	return nil
}

func TestUnionNumberResourceSelectsNumberOnly(t *testing.T) {
	w := NewWriter()
	w.WriteSelector(0)
	w.WriteNumber(Int(5))
	// No resource payload follows; reading one would underrun.

	resourceRead := false
	r := NewReader(w.Bytes())
	u, err := ReadUnion(r,
		Branch(NumberDecoder),
		Branch(func(r *Reader) (testResource, error) {
			resourceRead = true
			return readTestResource(r)
		}),
	)
	if err != nil {
		t.Fatalf("ReadUnion: %v", err)
	}
	if resourceRead {
		t.Error("resource branch should not be decoded")
	}
	if u.Selector != 0 {
		t.Errorf("Selector = %d, want 0", u.Selector)
	}
	n, ok := u.Value.(Number)
	if !ok || n.Int32() != 5 {
		t.Errorf("Value = %#v, want Number 5", u.Value)
	}
	if r.Remaining() != 0 {
		t.Errorf("Remaining = %d, want 0", r.Remaining())
	}
}

func TestUnionEveryBranch(t *testing.T) {
	branches := []Decoder[any]{Branch(Int32Decoder), Branch(StringDecoder), Branch(BoolDecoder)}
	encoders := []Encoder[any]{BranchEncoder(Int32Encoder), BranchEncoder(StringEncoder), BranchEncoder(BoolEncoder)}
	values := []any{int32(-4), "two", true}

	for sel, want := range values {
		w := NewWriter()
		if err := WriteUnion(w, Union{Selector: int8(sel), Value: want}, encoders...); err != nil {
			t.Fatalf("WriteUnion(%d): %v", sel, err)
		}
		u, err := ReadUnion(NewReader(w.Bytes()), branches...)
		if err != nil {
			t.Fatalf("ReadUnion(%d): %v", sel, err)
		}
		if int(u.Selector) != sel || u.Value != want {
			t.Errorf("selector %d: got %+v, want %v", sel, u, want)
		}
	}
}

func TestUnionInvalidDiscriminant(t *testing.T) {
	for _, sel := range []int8{2, 3, 127, -1} {
		r := NewReader([]byte{byte(sel), 0, 0, 0, 0})
		_, err := ReadUnion(r, Branch(Int32Decoder), Branch(Int32Decoder))
		if !errors.Is(err, ErrInvalidDiscriminant) {
			t.Errorf("selector %d: expected ErrInvalidDiscriminant, got %v", sel, err)
		}
	}
}

func TestWriteUnionRejectsWrongValue(t *testing.T) {
	w := NewWriter()
	err := WriteUnion(w, Union{Selector: 0, Value: "nope"}, BranchEncoder(Int32Encoder))
	if !errors.Is(err, ErrValueType) {
		t.Fatalf("expected ErrValueType, got %v", err)
	}
	if err := WriteUnion(w, Union{Selector: 1}, BranchEncoder(Int32Encoder)); err == nil {
		t.Fatal("expected out of range selector error")
	}
}

// ---------------------------------------------------------------------------
// Array and Map
// ---------------------------------------------------------------------------

func TestArrayRoundTrip(t *testing.T) {
	in := []string{"a", "", "ccc"}
	w := NewWriter()
	if err := WriteArray(w, in, StringEncoder); err != nil {
		t.Fatal(err)
	}
	out, err := ReadArray(NewReader(w.Bytes()), StringDecoder)
	if err != nil {
		t.Fatalf("ReadArray: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Errorf("ReadArray = %v, want %v", out, in)
	}
}

func TestArrayOfOptionals(t *testing.T) {
	in := []Opt[int32]{Some[int32](1), None[int32](), Some[int32](3)}
	w := NewWriter()
	err := WriteArray(w, in, func(w *Writer, o Opt[int32]) error {
		return WriteOptional(w, o, Int32Encoder)
	})
	if err != nil {
		t.Fatal(err)
	}
	out, err := ReadArray(NewReader(w.Bytes()), func(r *Reader) (Opt[int32], error) {
		return ReadOptional(r, Int32Decoder)
	})
	if err != nil {
		t.Fatalf("ReadArray: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Errorf("got %v, want %v", out, in)
	}
}

func TestArrayHugeCountUnderruns(t *testing.T) {
	w := NewWriter()
	w.WriteLength(1 << 30)
	w.WriteInt32(1)
	if _, err := ReadArray(NewReader(w.Bytes()), Int32Decoder); !errors.Is(err, ErrBufferUnderrun) {
		t.Fatalf("expected ErrBufferUnderrun, got %v", err)
	}
}

func TestArrayZeroWidthElementsStop(t *testing.T) {
	w := NewWriter()
	w.WriteLength(0x7fffffff)
	empty := func(r *Reader) (struct{}, error) { return struct{}{}, nil }

	_, err := ReadArray(NewReader(w.Bytes()), empty)
	if !errors.Is(err, ErrBufferUnderrun) {
		t.Fatalf("ReadArray: expected ErrBufferUnderrun, got %v", err)
	}
	var de *DecodeError
	if !errors.As(err, &de) || de.Offset != 0 {
		t.Errorf("error = %#v, want DecodeError at offset 0", err)
	}

	emptyKey := func(r *Reader) (int8, error) { return 0, nil }
	if _, err := ReadMap(NewReader(w.Bytes()), emptyKey, empty); !errors.Is(err, ErrBufferUnderrun) {
		t.Fatalf("ReadMap: expected ErrBufferUnderrun, got %v", err)
	}
}

func TestArrayZeroWidthElementsWithinBuffer(t *testing.T) {
	w := NewWriter()
	w.WriteLength(3)
	w.WriteBuffer([]byte{1, 2, 3, 4})
	empty := func(r *Reader) (struct{}, error) { return struct{}{}, nil }

	out, err := ReadArray(NewReader(w.Bytes()), empty)
	if err != nil {
		t.Fatalf("ReadArray: %v", err)
	}
	if len(out) != 3 {
		t.Errorf("len = %d, want 3", len(out))
	}
}

func TestMapPreservesInsertionOrder(t *testing.T) {
	var in Map[string, Number]
	in.Put("zeta", Int(1))
	in.Put("alpha", Float(2.5))
	in.Put("mid", Int(-3))

	w := NewWriter()
	if err := WriteMap(w, in, StringEncoder, NumberEncoder); err != nil {
		t.Fatal(err)
	}
	out, err := ReadMap(NewReader(w.Bytes()), StringDecoder, NumberDecoder)
	if err != nil {
		t.Fatalf("ReadMap: %v", err)
	}
	if !reflect.DeepEqual(out.Keys, []string{"zeta", "alpha", "mid"}) {
		t.Errorf("Keys = %v", out.Keys)
	}
	if v, ok := out.Get("alpha"); !ok || v.Float32() != 2.5 {
		t.Errorf("Get(alpha) = %v, %v", v, ok)
	}
	if _, ok := out.Get("missing"); ok {
		t.Error("Get(missing) should fail")
	}
	if out.Len() != 3 {
		t.Errorf("Len = %d, want 3", out.Len())
	}
}

func TestMapGetUncomparableKeys(t *testing.T) {
	var in Map[any, any]
	in.Put([]byte("k"), int32(1))
	in.Put([]byte("j"), int32(2))

	w := NewWriter()
	if err := WriteMap(w, in, BranchEncoder(BufferEncoder), BranchEncoder(Int32Encoder)); err != nil {
		t.Fatal(err)
	}
	out, err := ReadMap(NewReader(w.Bytes()), Branch(BufferDecoder), Branch(Int32Decoder))
	if err != nil {
		t.Fatalf("ReadMap: %v", err)
	}
	if v, ok := out.Get([]byte("j")); !ok || v != int32(2) {
		t.Errorf("Get(j) = %v, %v; want 2, true", v, ok)
	}
	if _, ok := out.Get([]byte("x")); ok {
		t.Error("Get(x) should fail")
	}
	if _, ok := out.Get("j"); ok {
		t.Error("string key must not match a buffer key")
	}

	var arrays Map[any, string]
	arrays.Put([]any{int32(1), "a"}, "first")
	if v, ok := arrays.Get([]any{int32(1), "a"}); !ok || v != "first" {
		t.Errorf("Get(array) = %q, %v", v, ok)
	}
}

func TestWriteMapMismatchedSlices(t *testing.T) {
	m := Map[int32, int32]{Keys: []int32{1, 2}, Values: []int32{1}}
	if err := WriteMap(NewWriter(), m, Int32Encoder, Int32Encoder); err == nil {
		t.Fatal("expected error for mismatched map slices")
	}
}

func TestMapValueUnderrun(t *testing.T) {
	w := NewWriter()
	w.WriteLength(1)
	w.WriteInt32(7) // key, value missing
	if _, err := ReadMap(NewReader(w.Bytes()), Int32Decoder, StringDecoder); !errors.Is(err, ErrBufferUnderrun) {
		t.Fatalf("expected ErrBufferUnderrun, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Round trip over every scalar
// ---------------------------------------------------------------------------

func TestScalarRoundTrip(t *testing.T) {
	for _, size := range []int{4, 8} {
		w := NewWriter()
		w.SetPointerSize(size)
		w.WriteInt8(-7)
		w.WriteBoolean(true)
		w.WriteInt32(1 << 20)
		w.WriteInt64(-1 << 50)
		w.WriteFloat32(3.25)
		w.WriteNumber(Int(-9))
		w.WriteString("héllo")
		w.WriteBuffer([]byte{0, 1, 2})
		w.WritePointer(0xDEADBEEF)
		w.WriteCallbackResource(77)

		r := NewReader(w.Bytes())
		r.SetPointerSize(size)

		if v, _ := r.ReadInt8(); v != -7 {
			t.Errorf("int8 = %d", v)
		}
		if v, _ := r.ReadBoolean(); !v {
			t.Error("bool = false")
		}
		if v, _ := r.ReadInt32(); v != 1<<20 {
			t.Errorf("int32 = %d", v)
		}
		if v, _ := r.ReadInt64(); v != -1<<50 {
			t.Errorf("int64 = %d", v)
		}
		if v, _ := r.ReadFloat32(); v != 3.25 {
			t.Errorf("float32 = %v", v)
		}
		if v, _ := r.ReadNumber(); v != Int(-9) {
			t.Errorf("number = %v", v)
		}
		if v, _ := r.ReadString(); v != "héllo" {
			t.Errorf("string = %q", v)
		}
		if v, _ := r.ReadBuffer(); !reflect.DeepEqual(v, []byte{0, 1, 2}) {
			t.Errorf("buffer = %v", v)
		}
		if v, _ := r.ReadPointer(); v != 0xDEADBEEF {
			t.Errorf("pointer = %v", v)
		}
		if v, err := r.ReadCallbackResource(); err != nil || v != 77 {
			t.Errorf("resource = %d, %v", v, err)
		}
		if r.Remaining() != 0 {
			t.Errorf("pointer size %d: %d bytes left over", size, r.Remaining())
		}
	}
}

// ---------------------------------------------------------------------------
// Cursor over composite fields
// ---------------------------------------------------------------------------

func TestCursorAdvancesByFieldSize(t *testing.T) {
	var m Map[string, int32]
	m.Put("a", 1)

	w := NewWriter()
	w.WriteInt8(3)
	w.WriteNumber(Int(9))
	w.WriteString("abcd")
	WriteOptional(w, Some(int32(5)), Int32Encoder)
	WriteOptional(w, None[int32](), Int32Encoder)
	WriteUnion(w, Union{Selector: 1, Value: "xy"}, BranchEncoder(Int32Encoder), BranchEncoder(StringEncoder))
	WriteArray(w, []bool{true, false}, BoolEncoder)
	WriteMap(w, m, StringEncoder, Int32Encoder)
	w.WritePointer(0x10)

	r := NewReader(w.Bytes())
	fields := []struct {
		name string
		size int
		read func() error
	}{
		{"int8", Int8Size, func() error { _, err := r.ReadInt8(); return err }},
		{"number", NumberSize, func() error { _, err := r.ReadNumber(); return err }},
		{"string", Int32Size + 4, func() error { _, err := r.ReadString(); return err }},
		{"present optional", 1 + Int32Size, func() error { _, err := ReadOptional(r, Int32Decoder); return err }},
		{"absent optional", 1, func() error { _, err := ReadOptional(r, Int32Decoder); return err }},
		{"union", 1 + Int32Size + 2, func() error {
			_, err := ReadUnion(r, Branch(Int32Decoder), Branch(StringDecoder))
			return err
		}},
		{"array", Int32Size + 2*BoolSize, func() error { _, err := ReadArray(r, BoolDecoder); return err }},
		{"map", Int32Size + (Int32Size + 1) + Int32Size, func() error {
			_, err := ReadMap(r, StringDecoder, Int32Decoder)
			return err
		}},
		{"pointer", DefaultPointerSize, func() error { _, err := r.ReadPointer(); return err }},
	}
	for _, f := range fields {
		before := r.Offset()
		if err := f.read(); err != nil {
			t.Fatalf("%s: %v", f.name, err)
		}
		if got := r.Offset() - before; got != f.size {
			t.Errorf("%s: offset advanced by %d, want %d", f.name, got, f.size)
		}
	}
	if r.Remaining() != 0 {
		t.Errorf("Remaining = %d, want 0", r.Remaining())
	}
}
