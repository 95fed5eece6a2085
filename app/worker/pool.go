// Package worker fans a batch of jobs out over a bounded number of
// goroutines, generalized from the teacher's consumer.WorkerPool: that pool
// fired jobs and forgot them, this one blocks until every job's result has
// been collected, which is what the prepare and lander-confirm loops need.
package worker

import (
	"sync"

	"github.com/ambros-labs/relayer/app/metrics"
)

// Pool bounds how many jobs run concurrently and reports depth to the
// processor_worker_pool_jobs_* gauges, labeled by chain/phase.
type Pool struct {
	chain string
	phase string
	size  int
}

// NewPool builds a Pool of the given size (at least 1), scoped to chain and
// phase for metrics labeling.
func NewPool(chain, phase string, size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{chain: chain, phase: phase, size: size}
}

// Run executes each job with at most p.size running at once and returns
// their results in the same order jobs were given, blocking until all
// complete. A panic in any job is recovered in its own goroutine and
// re-raised in the caller's goroutine once every job has finished, so it
// surfaces at the loop's own recover boundary instead of crashing the
// process from an unrecovered child goroutine.
func Run[T any](p *Pool, jobs []func() T) []T {
	results := make([]T, len(jobs))
	if len(jobs) == 0 {
		return results
	}

	sem := make(chan struct{}, p.size)
	var wg sync.WaitGroup
	var mu sync.Mutex
	active, queued := 0, len(jobs)

	report := func() {
		mu.Lock()
		metrics.SetWorkerPoolJobsActive(p.chain, p.phase, active)
		metrics.SetWorkerPoolJobsQueued(p.chain, p.phase, queued)
		mu.Unlock()
	}
	report()

	var panicOnce sync.Once
	var panicVal any

	for i, job := range jobs {
		wg.Add(1)
		sem <- struct{}{}

		mu.Lock()
		active++
		queued--
		mu.Unlock()
		report()

		go func(i int, job func() T) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					panicOnce.Do(func() { panicVal = r })
				}
				<-sem
				mu.Lock()
				active--
				mu.Unlock()
				report()
			}()
			results[i] = job()
		}(i, job)
	}

	wg.Wait()
	if panicVal != nil {
		panic(panicVal)
	}
	return results
}
