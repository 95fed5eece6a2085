package scheduler

import (
	"context"

	"github.com/google/uuid"

	"github.com/ambros-labs/relayer/app/errors"
	"github.com/ambros-labs/relayer/app/lander"
	"github.com/ambros-labs/relayer/app/metrics"
	"github.com/ambros-labs/relayer/app/operation"
	"github.com/ambros-labs/relayer/app/worker"
)

// confirmLanderLoop implements spec §4.7: pop a batch, look up each
// operation's payload UUIDs sequentially (the storage engine's read
// contract is single-threaded per spec §4.7 step 2), then fan out status
// polls per operation.
func (p *Processor) confirmLanderLoop(ctx context.Context) error {
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

		confirmedCount := 0
		for _, op := range ops {
			if p.confirmOneLander(ctx, op) {
				confirmedCount++
			}
		}

		if confirmedCount == 0 {
			if err := sleepOrDone(ctx, allNotReadySleep); err != nil {
				return err
			}
		}
	}
}

// confirmOneLander returns true if op finalized and was dropped this
// iteration.
func (p *Processor) confirmOneLander(ctx context.Context, op operation.Operation) bool {
	uuids, err := p.payloads.Retrieve(ctx, op.ID())
	if err != nil || len(uuids) == 0 {
		p.prepareOp(op, errors.NewRetrievingPayloadUUIDsError(err), operation.ReasonErrorRetrievingPayloadUuids)
		return false
	}

	statuses := p.fanOutPayloadStatus(ctx, uuids)

	for _, s := range statuses {
		if s.err == nil {
			continue
		}
		if !p.cfg.StrictPartialStatusFailure {
			// Open Question #1: lenient mode treats one payload's
			// status-fetch error as transient rather than repreparing an
			// operation whose other payloads may still be fine.
			status := operation.ConfirmStatus(operation.ReasonSubmittedBySelf)
			p.confirmQueue.Push(op, &status)
			return false
		}
		p.prepareOp(op, errors.NewRetrievingPayloadStatusError(s.err), operation.ReasonErrorRetrievingPayloadStatus)
		return false
	}

	for _, s := range statuses {
		if !s.status.Finalized() {
			status := operation.ConfirmStatus(operation.ReasonSubmittedBySelf)
			p.confirmQueue.Push(op, &status)
			return false
		}
	}

	op.DecrementInflightMetricIfExists()
	metrics.RecordConfirmed(p.chain, op.AppContext())
	return true
}

type uuidStatus struct {
	status lander.PayloadStatus
	err    error
}

func (p *Processor) fanOutPayloadStatus(ctx context.Context, uuids []uuid.UUID) []uuidStatus {
	jobs := make([]func() uuidStatus, len(uuids))
	for i, u := range uuids {
		u := u
		jobs[i] = func() uuidStatus {
			status, err := p.entrypoint.PayloadStatus(ctx, u)
			return uuidStatus{status: status, err: err}
		}
	}
	return worker.Run(p.confirmPool, jobs)
}
