package signature

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/chazu/callwire/wire"
)

// ErrUnknownRecord is returned when a signature names a record type that
// has no registered sub-decoder.
var ErrUnknownRecord = errors.New("unknown record type")

// RecordCodec decodes and encodes one structured record. The protocol does
// not look inside records; the codec owns the layout.
type RecordCodec struct {
	Decode wire.Decoder[any]
	Encode wire.Encoder[any]
}

// Records holds the record codecs known to the process. Codecs are
// registered during initialization and only read afterwards.
type Records struct {
	mu     sync.RWMutex
	codecs map[string]RecordCodec
}

// NewRecords creates an empty record table.
func NewRecords() *Records {
	return &Records{codecs: make(map[string]RecordCodec)}
}

// Register adds the codec for name, replacing any previous one.
func (rs *Records) Register(name string, codec RecordCodec) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.codecs[name] = codec
}

// Lookup returns the codec for name.
func (rs *Records) Lookup(name string) (RecordCodec, error) {
	if rs == nil {
		return RecordCodec{}, fmt.Errorf("%w: %s", ErrUnknownRecord, name)
	}
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	c, ok := rs.codecs[name]
	if !ok {
		return RecordCodec{}, fmt.Errorf("%w: %s", ErrUnknownRecord, name)
	}
	return c, nil
}

// Names returns the registered record names, sorted.
func (rs *Records) Names() []string {
	if rs == nil {
		return nil
	}
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	names := make([]string, 0, len(rs.codecs))
	for n := range rs.codecs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// RegisterRecord registers a typed record codec under name.
func RegisterRecord[T any](rs *Records, name string, dec wire.Decoder[T], enc wire.Encoder[T]) {
	rs.Register(name, RecordCodec{
		Decode: wire.Branch(dec),
		Encode: wire.BranchEncoder(enc),
	})
}
