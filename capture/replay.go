package capture

import (
	"errors"
	"fmt"
	"sync"

	"github.com/chazu/callwire/callback"
)

// Target is anything that can dispatch a captured buffer again.
type Target interface {
	Dispatch(kind callback.Kind, buf []byte, length int32) error
	DispatchSync(vm callback.VMContext, kind callback.Kind, buf []byte, length int32) error
}

// Replay dispatches recs into target in order, using each record's flavor,
// VM context and declared length. It returns how many succeeded and the joined errors of
// the rest.
func Replay(recs []*Record, target Target) (int, error) {
	var errs []error
	ok := 0
	for _, rec := range recs {
		var err error
		length := rec.Length
		if rec.Sync {
			err = target.DispatchSync(callback.VMContext(rec.VM), rec.Kind, rec.Buffer, length)
		} else {
			err = target.Dispatch(rec.Kind, rec.Buffer, length)
		}
		if err != nil {
			log.Warningf("replay %s: %s", rec.ID, err)
			errs = append(errs, fmt.Errorf("replay %s: %w", rec.ID, err))
			continue
		}
		ok++
	}
	return ok, errors.Join(errs...)
}

// Memory is a Recorder that keeps records in memory.
type Memory struct {
	mu   sync.Mutex
	recs []*Record
}

// Record appends rec.
func (m *Memory) Record(rec *Record) error {
	m.mu.Lock()
	m.recs = append(m.recs, rec)
	m.mu.Unlock()
	return nil
}

// Records returns a copy of everything recorded so far.
func (m *Memory) Records() []*Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*Record(nil), m.recs...)
}
