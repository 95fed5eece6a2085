// Package queue implements the per-stage priority queue the scheduler pops
// batches from.
package queue

import (
	"container/heap"
	"sync"

	"github.com/ambros-labs/relayer/app/clock"
	"github.com/ambros-labs/relayer/app/metrics"
	"github.com/ambros-labs/relayer/app/operation"
	"github.com/ambros-labs/relayer/app/retrychannel"
)

// MessageProcessorQueueCount is the fixed number of queues a Processor
// owns: prepare, submit, confirm.
const MessageProcessorQueueCount = 3

type entry struct {
	op  operation.Operation
	seq uint64
}

// heapData is a container/heap implementation ordered by
// (NumRetries ASC, sequence ASC).
type heapData []*entry

func (h heapData) Len() int { return len(h) }
func (h heapData) Less(i, j int) bool {
	ri, rj := h[i].op.NumRetries(), h[j].op.NumRetries()
	if ri != rj {
		return ri < rj
	}
	return h[i].seq < h[j].seq
}
func (h heapData) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *heapData) Push(x any)   { *h = append(*h, x.(*entry)) }
func (h *heapData) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// OpQueue is a priority queue of Operations plus a subscription to the
// process-wide retry broadcast. It is safe for concurrent push/pop from
// multiple goroutines.
type OpQueue struct {
	name  string
	chain string
	clk   clock.Clock

	mu     sync.Mutex
	data   heapData
	nextSeq uint64

	unsubscribe func()
	stop        chan struct{}
	stopOnce    sync.Once
}

// New creates an OpQueue named for metrics purposes (e.g. "prepare",
// "submit", "confirm") and subscribes it to broadcaster for out-of-band
// retry requests.
func New(chain, name string, clk clock.Clock, broadcaster *retrychannel.Broadcaster) *OpQueue {
	q := &OpQueue{
		name:  name,
		chain: chain,
		clk:   clk,
		stop:  make(chan struct{}),
	}

	if broadcaster != nil {
		ch, unsubscribe := broadcaster.Subscribe()
		q.unsubscribe = unsubscribe
		go q.drainRetries(ch)
	}

	return q
}

func (q *OpQueue) drainRetries(ch <-chan retrychannel.MessageRetryRequest) {
	for {
		select {
		case <-q.stop:
			return
		case req, ok := <-ch:
			if !ok {
				return
			}
			q.applyRetry(req)
		}
	}
}

func (q *OpQueue) applyRetry(req retrychannel.MessageRetryRequest) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.clk.Now()
	for _, e := range q.data {
		if req.Matches(e.op.ID()) {
			e.op.SetNextAttemptAfter(now)
		}
	}
}

// Close stops the retry-drain goroutine and unsubscribes from the
// broadcaster. Safe to call multiple times.
func (q *OpQueue) Close() {
	q.stopOnce.Do(func() {
		close(q.stop)
		if q.unsubscribe != nil {
			q.unsubscribe()
		}
	})
}

// Push enqueues op, optionally stamping status onto it first. O(log n).
// Safe for concurrent producers.
func (q *OpQueue) Push(op operation.Operation, status *operation.Status) {
	if status != nil {
		op.SetStatus(*status)
	}

	q.mu.Lock()
	seq := q.nextSeq
	q.nextSeq++
	heap.Push(&q.data, &entry{op: op, seq: seq})
	n := len(q.data)
	q.mu.Unlock()

	metrics.SetQueueLength(q.chain, q.name, n)
}

// PopMany returns up to n currently-eligible operations (NextAttemptAfter <=
// now), draining in priority order. Ineligible entries are left in the
// queue and are reconsidered on the next call.
func (q *OpQueue) PopMany(n int) []operation.Operation {
	if n <= 0 {
		return nil
	}

	q.mu.Lock()
	defer func() {
		metrics.SetQueueLength(q.chain, q.name, len(q.data))
		q.mu.Unlock()
	}()

	now := q.clk.Now()

	// Scan in heap order via a temporary pop/push cycle so ineligible
	// entries are skipped without disturbing their relative order.
	var eligible []*entry
	var skipped []*entry

	for len(q.data) > 0 && len(eligible) < n {
		top := heap.Pop(&q.data).(*entry)
		if !top.op.NextAttemptAfter().After(now) {
			eligible = append(eligible, top)
		} else {
			skipped = append(skipped, top)
		}
	}

	for _, e := range skipped {
		heap.Push(&q.data, e)
	}

	ops := make([]operation.Operation, 0, len(eligible))
	for _, e := range eligible {
		ops = append(ops, e.op)
	}
	return ops
}

// Len reports the approximate current size, including ineligible entries.
// May race with concurrent push/pop; used only for backpressure heuristics.
func (q *OpQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.data)
}
