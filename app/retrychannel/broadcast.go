// Package retrychannel implements the process-wide retry broadcast: a
// fan-out with drop-oldest-on-full semantics, since retry is a hint, not a
// correctness requirement, and a slow subscriber must never block the
// sender.
package retrychannel

import (
	"sync"

	"github.com/ambros-labs/relayer/app/operation"
)

// MessageRetryRequest asks every subscriber to reconsider operations whose
// id matches Pattern. An empty Pattern or "*" matches every operation.
type MessageRetryRequest struct {
	Pattern string
}

// Matches reports whether id should be retried by this request. Matching is
// deliberately simple (exact id-string match, or "" / "*" for every
// operation; no other wildcard syntax is recognized); the
// scheduler treats the match rule as a replaceable collaborator.
func (r MessageRetryRequest) Matches(id operation.ID) bool {
	if r.Pattern == "" || r.Pattern == "*" {
		return true
	}
	return r.Pattern == id.String()
}

const defaultSubscriberBuffer = 64

// Broadcaster is a process-wide publisher of MessageRetryRequest values.
// Each OpQueue subscribes independently; one slow subscriber dropping
// events never cascades to another.
type Broadcaster struct {
	mu          sync.Mutex
	subscribers map[int]chan MessageRetryRequest
	nextID      int
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subscribers: make(map[int]chan MessageRetryRequest)}
}

// Subscribe registers a new subscriber and returns its receive channel plus
// an unsubscribe func. The channel is closed on Unsubscribe.
func (b *Broadcaster) Subscribe() (<-chan MessageRetryRequest, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan MessageRetryRequest, defaultSubscriberBuffer)
	b.subscribers[id] = ch

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if existing, ok := b.subscribers[id]; ok {
			delete(b.subscribers, id)
			close(existing)
			_ = existing
		}
	}
}

// Publish is fire-and-forget: subscribers that are behind have their oldest
// buffered request dropped to make room rather than blocking the publisher.
func (b *Broadcaster) Publish(req MessageRetryRequest) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- req:
		default:
			// Subscriber's buffer is full: drop the oldest entry and retry
			// once. If it's still full (concurrent drain emptied then
			// another publisher refilled it), skip this subscriber for
			// this event — channel lag is tolerated by design.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- req:
			default:
			}
		}
	}
}
