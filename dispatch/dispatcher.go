package dispatch

import (
	"errors"
	"fmt"

	"github.com/tliron/commonlog"

	"github.com/chazu/callwire/callback"
	"github.com/chazu/callwire/capture"
	"github.com/chazu/callwire/wire"
)

var log = commonlog.GetLogger("callwire.dispatch")

// ErrUnknownKind is returned for a kind with no routine of the requested
// flavor.
var ErrUnknownKind = errors.New("unknown callback kind")

// Dispatcher routes serialized invocations to their routines.
type Dispatcher struct {
	reg      *Registry
	env      Env
	recorder capture.Recorder
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithRecorder captures every dispatched buffer, successful or not.
func WithRecorder(rec capture.Recorder) Option {
	return func(d *Dispatcher) { d.recorder = rec }
}

// NewDispatcher creates a dispatcher over reg and seals it.
func NewDispatcher(reg *Registry, env Env, opts ...Option) *Dispatcher {
	reg.seal()
	d := &Dispatcher{reg: reg, env: env}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Registry returns the sealed registry.
func (d *Dispatcher) Registry() *Registry { return d.reg }

// Dispatch decodes buf[:length] as an asynchronous invocation of kind and
// calls its target.
func (d *Dispatcher) Dispatch(kind callback.Kind, buf []byte, length int32) error {
	window, err := d.window(buf, length)
	if err == nil {
		if rt, ok := d.reg.lookupAsync(kind); ok {
			err = d.run(kind, window, func(r *wire.Reader) error { return rt(&d.env, r) })
		} else {
			log.Warningf("no async routine for kind %d", kind)
			err = fmt.Errorf("%w: %d", ErrUnknownKind, kind)
		}
	}
	d.capture(kind, false, 0, window, length, err)
	return err
}

// DispatchSync decodes buf[:length] as a synchronous invocation of kind and
// calls its target with vm. The target may re-enter the VM.
func (d *Dispatcher) DispatchSync(vm callback.VMContext, kind callback.Kind, buf []byte, length int32) error {
	window, err := d.window(buf, length)
	if err == nil {
		if rt, ok := d.reg.lookupSync(kind); ok {
			err = d.run(kind, window, func(r *wire.Reader) error { return rt(&d.env, vm, r) })
		} else {
			log.Warningf("no sync routine for kind %d", kind)
			err = fmt.Errorf("%w: %d", ErrUnknownKind, kind)
		}
	}
	d.capture(kind, true, vm, window, length, err)
	return err
}

func (d *Dispatcher) window(buf []byte, length int32) ([]byte, error) {
	if length < 0 {
		return buf, fmt.Errorf("%w: %d", wire.ErrInvalidLength, length)
	}
	if int(length) > len(buf) {
		return buf, fmt.Errorf("%w: length %d exceeds buffer of %d bytes", wire.ErrBufferUnderrun, length, len(buf))
	}
	return buf[:length], nil
}

func (d *Dispatcher) run(kind callback.Kind, window []byte, routine func(*wire.Reader) error) error {
	r := wire.NewReader(window)
	r.SetPointerSize(d.env.PointerSize)
	if err := routine(r); err != nil {
		name, _ := d.reg.Name(kind)
		return fmt.Errorf("%s (kind %d): %w", name, kind, err)
	}
	if n := r.Remaining(); n > 0 {
		log.Debugf("kind %d left %d trailing bytes", kind, n)
	}
	return nil
}

func (d *Dispatcher) capture(kind callback.Kind, sync bool, vm callback.VMContext, window []byte, length int32, err error) {
	if d.recorder == nil {
		return
	}
	rec := capture.NewRecord(kind, sync, vm, window)
	rec.Length = length
	if err != nil {
		rec.Outcome = err.Error()
	}
	if rerr := d.recorder.Record(rec); rerr != nil {
		log.Errorf("capture kind %d: %s", kind, rerr)
	}
}
