package scheduler

import (
	"context"

	"github.com/ambros-labs/relayer/app/metrics"
	"github.com/ambros-labs/relayer/app/operation"
	"github.com/ambros-labs/relayer/app/worker"
)

// confirmDirectLoop implements spec §4.6: pop a batch, poll finality on
// each concurrently, then dispatch per-result.
func (p *Processor) confirmDirectLoop(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		ops := p.confirmQueue.PopMany(int(p.cfg.MaxBatchSize))
		if len(ops) == 0 {
			if err := sleepOrDone(ctx, confirmEmptySleep); err != nil {
				return err
			}
			continue
		}

		results := p.runConfirm(ctx, ops)

		allNotReadyOrConfirm := true
		for i, op := range ops {
			switch results[i].Kind {
			case operation.ResultSuccess:
				allNotReadyOrConfirm = false
				op.DecrementInflightMetricIfExists()
				metrics.RecordConfirmed(p.chain, op.AppContext())

			case operation.ResultNotReady:
				p.confirmQueue.Push(op, nil)

			case operation.ResultConfirm:
				status := operation.ConfirmStatus(results[i].Reason)
				p.confirmQueue.Push(op, &status)

			case operation.ResultReprepare:
				allNotReadyOrConfirm = false
				status := operation.Retry(results[i].Reason)
				p.prepareQueue.Push(op, &status)
				metrics.RecordFailed(p.chain, op.AppContext())

			case operation.ResultDrop:
				allNotReadyOrConfirm = false
				op.DecrementInflightMetricIfExists()
				metrics.RecordDropped(p.chain, op.AppContext())
				p.publishDropped(ctx, op, operation.ReasonNone)
			}
		}

		if allNotReadyOrConfirm {
			if err := sleepOrDone(ctx, allNotReadySleep); err != nil {
				return err
			}
		}
	}
}

// runConfirm fans Confirm out across the confirm worker pool, gating each
// call through the per-app_context rate limiter first (SPEC_FULL.md
// §4.6): a throttled call is reported as NotReady rather than surfacing an
// infrastructure concern to the operation.
func (p *Processor) runConfirm(ctx context.Context, ops []operation.Operation) []operation.Result {
	jobs := make([]func() operation.Result, len(ops))
	for i, op := range ops {
		op := op
		jobs[i] = func() operation.Result {
			if p.limiter != nil && p.cfg.ConfirmRateLimitPerAppContext > 0 {
				if !p.limiter.Allow(ctx, op.AppContext(), p.cfg.ConfirmRateLimitPerAppContext, confirmRateLimitWindow) {
					return operation.NotReady()
				}
			}
			return op.Confirm(ctx)
		}
	}
	return worker.Run(p.confirmPool, jobs)
}
