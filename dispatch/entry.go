package dispatch

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/chazu/callwire/callback"
)

// Policy decides what the process boundary does with a decode failure.
type Policy int

const (
	// Abort logs at critical level and panics with the error.
	Abort Policy = iota
	// Drop logs the error and returns to the engine.
	Drop
)

func (p Policy) String() string {
	switch p {
	case Abort:
		return "abort"
	case Drop:
		return "drop"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy parses "abort" or "drop".
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "abort":
		return Abort, nil
	case "drop":
		return Drop, nil
	default:
		return 0, fmt.Errorf("unknown decode error policy %q", s)
	}
}

// Handler sits between the engine and a Dispatcher. The engine has no way
// to receive errors, so Handler turns them into log entries or panics.
type Handler struct {
	d      *Dispatcher
	policy Policy
}

// NewHandler creates a handler for d.
func NewHandler(d *Dispatcher, policy Policy) *Handler {
	return &Handler{d: d, policy: policy}
}

// Invoke dispatches an asynchronous invocation.
func (h *Handler) Invoke(kind int32, buf []byte, length int32) {
	h.settle(callback.Kind(kind), h.d.Dispatch(callback.Kind(kind), buf, length))
}

// InvokeSync dispatches a synchronous invocation.
func (h *Handler) InvokeSync(vm callback.VMContext, kind int32, buf []byte, length int32) {
	h.settle(callback.Kind(kind), h.d.DispatchSync(vm, callback.Kind(kind), buf, length))
}

func (h *Handler) settle(kind callback.Kind, err error) {
	switch {
	case err == nil:
	case errors.Is(err, ErrUnknownKind):
		// Already logged by the dispatcher; the engine gets nothing back.
	case h.policy == Drop:
		log.Errorf("dropped invocation of kind %d: %s", kind, err)
	default:
		log.Criticalf("invocation of kind %d failed: %s", kind, err)
		panic(err)
	}
}

// ErrAlreadyInstalled is returned by a second Install.
var ErrAlreadyInstalled = errors.New("callback handler already installed")

var installed atomic.Pointer[Handler]

// Install makes h the process-wide callback entry point. It succeeds once.
func Install(h *Handler) error {
	if h == nil {
		return errors.New("dispatch: nil handler")
	}
	if !installed.CompareAndSwap(nil, h) {
		return ErrAlreadyInstalled
	}
	return nil
}

// Invoke is the asynchronous entry point the engine calls.
func Invoke(kind int32, buf []byte, length int32) {
	h := installed.Load()
	if h == nil {
		log.Warningf("invocation of kind %d before a handler was installed", kind)
		return
	}
	h.Invoke(kind, buf, length)
}

// InvokeSync is the synchronous entry point the engine calls.
func InvokeSync(vm callback.VMContext, kind int32, buf []byte, length int32) {
	h := installed.Load()
	if h == nil {
		log.Warningf("sync invocation of kind %d before a handler was installed", kind)
		return
	}
	h.InvokeSync(vm, kind, buf, length)
}
