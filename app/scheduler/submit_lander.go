package scheduler

import (
	"context"

	"github.com/google/uuid"

	"github.com/ambros-labs/relayer/app/errors"
	"github.com/ambros-labs/relayer/app/lander"
	"github.com/ambros-labs/relayer/app/metrics"
	"github.com/ambros-labs/relayer/app/operation"
)

// submitLanderLoop implements spec §4.5: pop a batch and submit each
// operation individually through the lander (the lander itself may batch
// internally; this loop never combines operations the way direct mode's
// OperationBatch does).
func (p *Processor) submitLanderLoop(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		ops := p.submitQueue.PopMany(int(p.cfg.MaxBatchSize))
		if len(ops) == 0 {
			if err := sleepOrDone(ctx, submitEmptySleep); err != nil {
				return err
			}
			continue
		}

		for _, op := range ops {
			p.submitOneLander(ctx, op)
		}
	}
}

func (p *Processor) submitOneLander(ctx context.Context, op operation.Operation) {
	payload, err := op.Payload(ctx)
	if err != nil {
		p.prepareOp(op, errors.NewCreatingPayloadError(err), operation.ReasonErrorCreatingPayload)
		return
	}

	successCriteria, err := op.SuccessCriteria(ctx)
	if err != nil {
		p.prepareOp(op, errors.NewCreatingPayloadSuccessCriteriaError(err), operation.ReasonErrorCreatingPayloadSuccessCriteria)
		return
	}

	mailbox, ok := op.TryMailbox()
	if !ok {
		// Operation invariant: a message that reached lander-submit must
		// carry a mailbox. Per spec §7, this is a programming bug, not an
		// operational error.
		panic("operation reached lander submit without a mailbox")
	}

	full := &lander.FullPayload{
		UUID:            uuid.New(),
		Metadata:        op.ID().String(),
		Data:            payload,
		SuccessCriteria: successCriteria,
		Mailbox:         mailbox,
	}

	if _, err := p.entrypoint.SendPayload(ctx, full); err != nil {
		p.prepareOp(op, errors.NewSubmittingError(err), operation.ReasonErrorSubmitting)
		return
	}

	// The client-minted full.UUID, not whatever the lander echoes back, is
	// the dedup key confirm polls against (spec §4.5 steps 4-6).
	if err := p.payloads.Store(ctx, op.ID(), []uuid.UUID{full.UUID}); err != nil {
		p.prepareOp(op, errors.NewStoringPayloadUUIDsError(err), operation.ReasonErrorStoringPayloadUuidsByMessageId)
		return
	}

	p.confirmOp(ctx, op)
}

// prepareOp is the reprepare helper (spec §4.5's prepare_op): let the
// operation record the failure and its attempt counter, then send it back
// to the prepare queue tagged with reason, incrementing the failed metric.
func (p *Processor) prepareOp(op operation.Operation, err error, reason operation.Reason) {
	op.OnReprepare(err, reason)
	status := operation.Retry(reason)
	p.prepareQueue.Push(op, &status)
	metrics.RecordFailed(p.chain, op.AppContext())
}
