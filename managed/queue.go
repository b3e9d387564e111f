package managed

import (
	"errors"
	"sync"

	"github.com/chazu/callwire/callback"
)

// ErrNoSyncHandler is returned by Queue.CallSync when the queue was built
// without a sync handler.
var ErrNoSyncHandler = errors.New("no sync handler")

// SyncHandler runs a managed callback buffer on the VM.
type SyncHandler func(vm callback.VMContext, buf []byte) error

// Queue is a Runtime that buffers async callbacks until the VM drains
// them. Sync callbacks go straight to the handler on the calling
// goroutine.
type Queue struct {
	mu      sync.Mutex
	pending [][]byte
	ready   chan struct{}
	sync    SyncHandler
}

// NewQueue creates a queue. sync may be nil.
func NewQueue(sync SyncHandler) *Queue {
	return &Queue{ready: make(chan struct{}, 1), sync: sync}
}

// Enqueue appends buf and signals Ready. It never blocks.
func (q *Queue) Enqueue(buf []byte) {
	q.mu.Lock()
	q.pending = append(q.pending, buf)
	q.mu.Unlock()
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// CallSync runs buf through the sync handler.
func (q *Queue) CallSync(vm callback.VMContext, buf []byte) error {
	if q.sync == nil {
		return ErrNoSyncHandler
	}
	return q.sync(vm, buf)
}

// Ready receives a value after Enqueue, coalescing bursts.
func (q *Queue) Ready() <-chan struct{} { return q.ready }

// Drain removes and returns every pending buffer in enqueue order.
func (q *Queue) Drain() [][]byte {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.pending
	q.pending = nil
	return out
}

// Len returns the number of pending buffers.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
