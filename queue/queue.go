// Package queue implements the process-wide capture queue of received messages described in
// spec §5: a thread-safe FIFO that accepts concurrent producers (one per live connection) and
// concurrent consumers (test code polling or snapshotting), with the one guarantee a test sink
// actually depends on — a whole transaction's messages become visible atomically.
package queue

import (
	"sync"

	"github.com/chrisime/dumbster/smtp"
)

// Queue is a thread-safe FIFO of captured messages.
type Queue struct {
	mu      sync.Mutex
	entries []*smtp.Message
}

// New returns an empty Queue.
func New() *Queue {
	return &Queue{}
}

// Offer appends a single message to the tail of the queue.
func (q *Queue) Offer(m *smtp.Message) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = append(q.entries, m)
}

// OfferAll appends every message in ms to the tail of the queue under one critical section, so an
// external observer never sees a partial transaction: either none of ms is visible yet, or all of
// it is. The Driver's caller (the daemon's per-connection goroutine) uses this rather than calling
// Offer once per message.
func (q *Queue) OfferAll(ms []*smtp.Message) {
	if len(ms) == 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = append(q.entries, ms...)
}

// Poll removes and returns every message currently queued, oldest first. A concurrent Snapshot
// taken before Poll returns either none or all of any given transaction's messages, never a
// partial set, because both share the same critical section as OfferAll.
func (q *Queue) Poll() []*smtp.Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	drained := q.entries
	q.entries = nil
	return drained
}

// Snapshot returns a non-destructive copy of every message currently queued, oldest first.
func (q *Queue) Snapshot() []*smtp.Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*smtp.Message, len(q.entries))
	copy(out, q.entries)
	return out
}

// Clear empties the queue.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = nil
}

// Len reports the number of messages currently queued.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}
