package scheduler

import (
	"context"

	"github.com/ambros-labs/relayer/app/config"
	"github.com/ambros-labs/relayer/app/metrics"
	"github.com/ambros-labs/relayer/app/operation"
	"github.com/ambros-labs/relayer/app/worker"
)

// prepareLoop implements spec §4.3's six-step iteration: backpressure
// gate, batch acquisition, the lander-mode submission shortcut, the
// prepare fan-out, per-operation result dispatch, and the idle back-off.
func (p *Processor) prepareLoop(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if p.cfg.MaxSubmitQueueLen != nil && uint32(p.submitQueue.Len()) >= *p.cfg.MaxSubmitQueueLen {
			if err := sleepOrDone(ctx, prepareBackpressureSleep); err != nil {
				return err
			}
			continue
		}

		batch := p.prepareQueue.PopMany(int(p.cfg.MaxBatchSize))
		if len(batch) == 0 {
			if err := sleepOrDone(ctx, prepareEmptySleep); err != nil {
				return err
			}
			continue
		}

		toPrepare := batch
		if p.cfg.Mode == config.ModeLander {
			toPrepare = p.prepareShortcut(ctx, batch)
		}

		if len(toPrepare) == 0 {
			if err := sleepOrDone(ctx, allNotReadySleep); err != nil {
				return err
			}
			continue
		}

		results := p.runPrepare(ctx, toPrepare)

		allNotReadyOrReprepare := true
		for i, op := range toPrepare {
			switch results[i].Kind {
			case operation.ResultSuccess:
				allNotReadyOrReprepare = false
				status := operation.ReadyToSubmit()
				p.submitQueue.Push(op, &status)
				metrics.RecordPrepared(p.chain, op.AppContext())

			case operation.ResultNotReady:
				p.prepareQueue.Push(op, nil)

			case operation.ResultReprepare:
				status := operation.Retry(results[i].Reason)
				p.prepareQueue.Push(op, &status)
				metrics.RecordFailed(p.chain, op.AppContext())

			case operation.ResultDrop:
				allNotReadyOrReprepare = false
				op.DecrementInflightMetricIfExists()
				metrics.RecordDropped(p.chain, op.AppContext())
				p.publishDropped(ctx, op, operation.ReasonNone)

			case operation.ResultConfirm:
				allNotReadyOrReprepare = false
				status := operation.ConfirmStatus(results[i].Reason)
				p.confirmQueue.Push(op, &status)
			}
		}

		if allNotReadyOrReprepare {
			if err := sleepOrDone(ctx, allNotReadySleep); err != nil {
				return err
			}
		}
	}
}

// prepareShortcut implements spec §4.3.3: operations with a prior payload
// whose dispatcher-reported status is anything but Dropped skip prepare
// entirely and move straight to confirm, so a relayer restart never
// re-submits a payload already in flight. Everything else (no mapping, an
// empty mapping, a storage or status-fetch error, or a Dropped status)
// stays in the batch to be prepared normally.
func (p *Processor) prepareShortcut(ctx context.Context, batch []operation.Operation) []operation.Operation {
	remaining := make([]operation.Operation, 0, len(batch))

	for _, op := range batch {
		if p.payloadAlreadyInFlight(ctx, op) {
			status := operation.ConfirmStatus(operation.ReasonAlreadySubmitted)
			p.confirmQueue.Push(op, &status)
			continue
		}
		remaining = append(remaining, op)
	}

	return remaining
}

func (p *Processor) payloadAlreadyInFlight(ctx context.Context, op operation.Operation) bool {
	uuids, err := p.payloads.Retrieve(ctx, op.ID())
	if err != nil || len(uuids) == 0 {
		return false
	}

	for _, u := range uuids {
		status, err := p.entrypoint.PayloadStatus(ctx, u)
		if err != nil || status.Dropped() {
			return false
		}
	}
	return true
}

func (p *Processor) runPrepare(ctx context.Context, ops []operation.Operation) []operation.Result {
	jobs := make([]func() operation.Result, len(ops))
	for i, op := range ops {
		op := op
		jobs[i] = func() operation.Result { return op.Prepare(ctx) }
	}
	return worker.Run(p.preparePool, jobs)
}
