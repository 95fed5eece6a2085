package scheduler

import (
	"context"

	"github.com/ambros-labs/relayer/app/config"
	"github.com/ambros-labs/relayer/app/metrics"
	"github.com/ambros-labs/relayer/app/operation"
)

// submitDirectLoop implements spec §4.4: pop a batch, submit it (singly
// or via the OperationBatch collaborator), and route each result.
func (p *Processor) submitDirectLoop(ctx context.Context) error {
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

		if len(ops) == 1 {
			p.dispatchSubmitResult(ctx, ops[0], ops[0].Submit(ctx))
			continue
		}

		results := p.opBatch.Submit(ctx, ops)
		for i, op := range ops {
			p.dispatchSubmitResult(ctx, op, results[i])
		}
	}
}

// dispatchSubmitResult routes a single Submit outcome. NotReady is not an
// expected Submit result (prepare already established readiness) but is
// handled defensively per spec §4.4.
func (p *Processor) dispatchSubmitResult(ctx context.Context, op operation.Operation, result operation.Result) {
	switch result.Kind {
	case operation.ResultReprepare:
		status := operation.Retry(result.Reason)
		p.prepareQueue.Push(op, &status)

	case operation.ResultNotReady:
		status := operation.Retry(operation.ReasonErrorSubmitting)
		p.prepareQueue.Push(op, &status)

	case operation.ResultDrop:
		op.DecrementInflightMetricIfExists()
		metrics.RecordDropped(p.chain, op.AppContext())
		p.publishDropped(ctx, op, operation.ReasonNone)

	default: // Success or Confirm(_)
		p.confirmOp(ctx, op)
	}
}

// confirmOp is the post-submit bookkeeping shared by direct and lander
// mode (spec §4.4's confirm_op, reused verbatim by §4.5 step 7): schedule
// the first confirmation poll, push to confirm, record the submitted
// metric, and pace Cosmos-family submissions by a full second.
func (p *Processor) confirmOp(ctx context.Context, op operation.Operation) {
	op.SetNextAttemptAfter(p.clk.Now().Add(p.cfg.ConfirmDelay))
	status := operation.ConfirmStatus(operation.ReasonSubmittedBySelf)
	p.confirmQueue.Push(op, &status)
	metrics.RecordSubmitted(p.chain, op.AppContext())

	if p.cfg.Protocol == config.ProtocolCosmosFamily {
		_ = sleepOrDone(ctx, cosmosPostSubmitPacing)
	}
}
