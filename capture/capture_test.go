package capture

import (
	"bytes"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/chazu/callwire/callback"
)

func TestRecordCBORRoundTrip(t *testing.T) {
	rec := NewRecord(3, true, 0xBEEF, []byte{1, 2, 3})
	rec.Outcome = "boom"

	data, err := Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	again, err := Marshal(rec)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, again) {
		t.Error("canonical encoding is not deterministic")
	}

	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !reflect.DeepEqual(got, rec) {
		t.Errorf("Unmarshal = %+v, want %+v", got, rec)
	}
	if _, err := Unmarshal([]byte{0xFF, 0x00}); err == nil {
		t.Error("expected error for garbage")
	}
}

func TestNewRecordCopiesBuffer(t *testing.T) {
	buf := []byte{9, 9}
	rec := NewRecord(1, false, 0, buf)
	buf[0] = 0
	if rec.Buffer[0] != 9 {
		t.Error("record shares the caller's buffer")
	}
	if rec.ID == "" || rec.At == 0 {
		t.Errorf("record missing id or time: %+v", rec)
	}
	if rec.Length != 2 {
		t.Errorf("Length = %d, want 2", rec.Length)
	}
	if rec.Failed() {
		t.Error("new record should not be failed")
	}
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreRecordAndGet(t *testing.T) {
	s := openTestStore(t)
	rec := NewRecord(7, false, 0, []byte{4, 5})
	if err := s.Record(rec); err != nil {
		t.Fatalf("Record: %v", err)
	}
	got, err := s.Get(rec.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !reflect.DeepEqual(got, rec) {
		t.Errorf("Get = %+v, want %+v", got, rec)
	}
	if _, err := s.Get("missing"); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound, got %v", err)
	}
	if err := s.Record(rec); err == nil {
		t.Error("expected error for duplicate id")
	}
}

func TestStoreList(t *testing.T) {
	s := openTestStore(t)
	for i, kind := range []callback.Kind{1, 2, 1, 1} {
		rec := NewRecord(kind, false, 0, []byte{byte(i)})
		if i == 2 {
			rec.Outcome = "failed"
		}
		if err := s.Record(rec); err != nil {
			t.Fatal(err)
		}
	}

	all, err := s.List(Query{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("List returned %d records, want 4", len(all))
	}
	for i, rec := range all {
		if rec.Buffer[0] != byte(i) {
			t.Errorf("record %d out of order: %v", i, rec.Buffer)
		}
	}

	kind := callback.Kind(1)
	ones, err := s.List(Query{Kind: &kind, Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(ones) != 2 || ones[0].Buffer[0] != 0 || ones[1].Buffer[0] != 2 {
		t.Errorf("kind 1 limit 2 = %v", ones)
	}

	failed, err := s.List(Query{Failed: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(failed) != 1 || failed[0].Outcome != "failed" {
		t.Errorf("failed = %v", failed)
	}

	if n, err := s.Count(); err != nil || n != 4 {
		t.Errorf("Count = %d, %v", n, err)
	}
}

func TestStorePersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.db")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	rec := NewRecord(2, true, 5, []byte{1})
	if err := s.Record(rec); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if s.Path() != path {
		t.Errorf("Path = %q", s.Path())
	}
	got, err := s.Get(rec.ID)
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if !got.Sync || got.VM != 5 {
		t.Errorf("got %+v", got)
	}
}

type fakeTarget struct {
	async []callback.Kind
	sync  []callback.VMContext
	fail  callback.Kind
}

var errFake = errors.New("fake failure")

func (f *fakeTarget) Dispatch(kind callback.Kind, buf []byte, length int32) error {
	if int(length) != len(buf) {
		return errors.New("length mismatch")
	}
	if kind == f.fail {
		return errFake
	}
	f.async = append(f.async, kind)
	return nil
}

func (f *fakeTarget) DispatchSync(vm callback.VMContext, kind callback.Kind, buf []byte, length int32) error {
	if kind == f.fail {
		return errFake
	}
	f.sync = append(f.sync, vm)
	return nil
}

func TestReplay(t *testing.T) {
	recs := []*Record{
		NewRecord(1, false, 0, []byte{1, 2}),
		NewRecord(2, true, 11, nil),
		NewRecord(9, false, 0, []byte{3}),
		NewRecord(3, false, 0, nil),
	}
	target := &fakeTarget{fail: 9}
	n, err := Replay(recs, target)
	if n != 3 {
		t.Errorf("replayed %d, want 3", n)
	}
	if !errors.Is(err, errFake) {
		t.Errorf("err = %v, want errFake", err)
	}
	if !reflect.DeepEqual(target.async, []callback.Kind{1, 3}) {
		t.Errorf("async = %v", target.async)
	}
	if !reflect.DeepEqual(target.sync, []callback.VMContext{11}) {
		t.Errorf("sync = %v", target.sync)
	}
}

func TestMemoryRecorder(t *testing.T) {
	var m Memory
	m.Record(NewRecord(1, false, 0, nil))
	recs := m.Records()
	m.Record(NewRecord(2, false, 0, nil))
	if len(recs) != 1 || len(m.Records()) != 2 {
		t.Errorf("Records is not a snapshot: %d, %d", len(recs), len(m.Records()))
	}
}
