// Package capture records dispatched callback invocations so they can be
// inspected and replayed later.
package capture

import (
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"github.com/chazu/callwire/callback"
)

// Record is one dispatched invocation: the kind, the flavor, the VM context
// for sync calls, the buffer window the routine decoded and the length the
// caller declared. Length differs from len(Buffer) only when the declared
// length was rejected.
type Record struct {
	ID      string        `cbor:"1,keyasint"`
	Kind    callback.Kind `cbor:"2,keyasint"`
	Sync    bool          `cbor:"3,keyasint,omitempty"`
	VM      uint64        `cbor:"4,keyasint,omitempty"`
	Buffer  []byte        `cbor:"5,keyasint"`
	Outcome string        `cbor:"6,keyasint,omitempty"` // empty on success
	At      int64         `cbor:"7,keyasint"`           // unix nanoseconds
	Length  int32         `cbor:"8,keyasint"`
}

// OutcomeOK is the outcome string stored for successful dispatches.
const OutcomeOK = ""

// NewRecord creates a record with a fresh id and timestamp. buf is copied.
func NewRecord(kind callback.Kind, sync bool, vm callback.VMContext, buf []byte) *Record {
	return &Record{
		ID:     uuid.NewString(),
		Kind:   kind,
		Sync:   sync,
		VM:     uint64(vm),
		Buffer: append([]byte(nil), buf...),
		Length: int32(len(buf)),
		At:     time.Now().UnixNano(),
	}
}

// Time returns At as a time.Time.
func (rec *Record) Time() time.Time { return time.Unix(0, rec.At) }

// Failed reports whether the dispatch returned an error.
func (rec *Record) Failed() bool { return rec.Outcome != OutcomeOK }

func (rec *Record) String() string {
	flavor := "async"
	if rec.Sync {
		flavor = "sync"
	}
	outcome := "ok"
	if rec.Failed() {
		outcome = rec.Outcome
	}
	return fmt.Sprintf("%s kind=%d %s %d bytes: %s", rec.ID, rec.Kind, flavor, len(rec.Buffer), outcome)
}

// Recorder receives records from a dispatcher.
type Recorder interface {
	Record(rec *Record) error
}

var encMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("capture: failed to create CBOR enc mode: %v", err))
	}
	encMode = em
}

// Marshal serializes rec to canonical CBOR.
func Marshal(rec *Record) ([]byte, error) {
	return encMode.Marshal(rec)
}

// Unmarshal deserializes a record from CBOR bytes.
func Unmarshal(data []byte) (*Record, error) {
	var rec Record
	if err := cbor.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("capture: unmarshal record: %w", err)
	}
	return &rec, nil
}
