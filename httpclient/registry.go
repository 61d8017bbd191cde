package httpclient

import (
	"context"
	"sync"

	"github.com/gaborage/go-courier/trace"
)

// inflightRegistry tracks the cancel functions of attempts currently on the
// wire so CancelAll can abort them in bulk. Entries live exactly as long as
// their attempt: registered before the transport call, removed when the
// attempt settles.
type inflightRegistry struct {
	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

func newInflightRegistry() *inflightRegistry {
	return &inflightRegistry{
		cancels: make(map[string]context.CancelFunc),
	}
}

// add registers a cancel function and returns its handle
func (r *inflightRegistry) add(cancel context.CancelFunc) string {
	id := trace.NewID()
	r.mu.Lock()
	r.cancels[id] = cancel
	r.mu.Unlock()
	return id
}

// remove drops a handle once its attempt has settled
func (r *inflightRegistry) remove(id string) {
	r.mu.Lock()
	delete(r.cancels, id)
	r.mu.Unlock()
}

// cancelAll fires every registered cancel and clears the registry. This is
// best effort: only attempts on the wire right now are affected; a request
// sleeping between attempts proceeds untouched.
func (r *inflightRegistry) cancelAll() {
	r.mu.Lock()
	cancels := r.cancels
	r.cancels = make(map[string]context.CancelFunc)
	r.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}

// size reports the number of attempts currently tracked
func (r *inflightRegistry) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cancels)
}
