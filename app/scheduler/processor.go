// Package scheduler implements the destination-bound message processor:
// the three-stage scheduler (intake, prepare, submit, confirm) that drives
// each operation through prepare -> submit -> confirm until it is
// delivered, dropped, or permanently retried. One Processor exists per
// destination chain.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ambros-labs/relayer/app/batch"
	"github.com/ambros-labs/relayer/app/clock"
	"github.com/ambros-labs/relayer/app/config"
	"github.com/ambros-labs/relayer/app/dlq"
	"github.com/ambros-labs/relayer/app/intake"
	"github.com/ambros-labs/relayer/app/lander"
	"github.com/ambros-labs/relayer/app/logger"
	"github.com/ambros-labs/relayer/app/operation"
	"github.com/ambros-labs/relayer/app/queue"
	"github.com/ambros-labs/relayer/app/ratelimit"
	"github.com/ambros-labs/relayer/app/retrychannel"
	"github.com/ambros-labs/relayer/app/store"
	"github.com/ambros-labs/relayer/app/worker"
)

// Processor owns one destination chain's three stage queues (prepare,
// submit, confirm) and runs its four cooperating tasks concurrently.
// Queues are the only state shared between tasks; everything else here is
// read-only after construction.
type Processor struct {
	chain string
	cfg   *config.ProcessorConfig
	clk   clock.Clock
	lg    zerolog.Logger

	prepareQueue *queue.OpQueue
	submitQueue  *queue.OpQueue
	confirmQueue *queue.OpQueue

	source     intake.Source
	opBatch    batch.OperationBatch
	entrypoint lander.Entrypoint
	payloads   store.PayloadUUIDStore
	limiter    *ratelimit.Limiter
	dlq        *dlq.Publisher

	preparePool *worker.Pool
	confirmPool *worker.Pool
}

// New builds a Processor for chain. entrypoint and payloads are required
// in lander mode (cfg.Mode == config.ModeLander) and ignored in direct
// mode; opBatch is required in direct mode. limiter may be nil, which
// disables the confirm-poll rate gate regardless of
// cfg.ConfirmRateLimitPerAppContext. dlqPublisher may be nil, which
// disables the dropped-operation audit trail.
func New(
	chain string,
	cfg *config.ProcessorConfig,
	clk clock.Clock,
	lg zerolog.Logger,
	broadcaster *retrychannel.Broadcaster,
	source intake.Source,
	opBatch batch.OperationBatch,
	entrypoint lander.Entrypoint,
	payloads store.PayloadUUIDStore,
	limiter *ratelimit.Limiter,
	dlqPublisher *dlq.Publisher,
) *Processor {
	poolSize := int(cfg.MaxBatchSize)
	return &Processor{
		chain: chain,
		cfg:   cfg,
		clk:   clk,
		lg:    lg.With().Str("chain", chain).Logger(),

		prepareQueue: queue.New(chain, "prepare", clk, broadcaster),
		submitQueue:  queue.New(chain, "submit", clk, broadcaster),
		confirmQueue: queue.New(chain, "confirm", clk, broadcaster),

		source:     source,
		opBatch:    opBatch,
		entrypoint: entrypoint,
		payloads:   payloads,
		limiter:    limiter,
		dlq:        dlqPublisher,

		preparePool: worker.NewPool(chain, "prepare", poolSize),
		confirmPool: worker.NewPool(chain, "confirm", poolSize),
	}
}

// publishDropped republishes the dropped operation to the dead-letter
// exchange for audit, per spec §11. With a nil dlq publisher (not
// configured) it does nothing; a publish error is logged and otherwise
// ignored: the drop itself already happened and must not be undone by an
// audit-trail failure.
func (p *Processor) publishDropped(ctx context.Context, op operation.Operation, reason operation.Reason) {
	if p.dlq == nil {
		return
	}
	if err := p.dlq.PublishDropped(ctx, op, reason, p.clk.Now()); err != nil {
		logger.WithFields(p.chain, op.ID().String()).Warn().Err(err).Msg("failed to publish dropped record")
	}
}

// Run launches the four stage tasks and blocks until the intake source is
// closed, the context is canceled, or any task fails. Per spec §5, a panic
// in any task is recovered at the task boundary and converted into an
// error so the whole processor stops rather than silently losing a task.
func (p *Processor) Run(ctx context.Context) error {
	ctx, stop := context.WithCancel(ctx)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	intakeClosed := false
	runIntake := p.guarded(ctx, "intake", p.intakeLoop)
	g.Go(func() error {
		err := runIntake()
		if err == nil {
			// The source closed: stop the other three tasks as well.
			intakeClosed = true
			stop()
		}
		return err
	})
	g.Go(p.guarded(ctx, "prepare", p.prepareLoop))

	if p.cfg.Mode == config.ModeLander {
		g.Go(p.guarded(ctx, "submit", p.submitLanderLoop))
		g.Go(p.guarded(ctx, "confirm", p.confirmLanderLoop))
	} else {
		g.Go(p.guarded(ctx, "submit", p.submitDirectLoop))
		g.Go(p.guarded(ctx, "confirm", p.confirmDirectLoop))
	}

	err := g.Wait()
	p.prepareQueue.Close()
	p.submitQueue.Close()
	p.confirmQueue.Close()
	if intakeClosed && err == context.Canceled {
		return nil
	}
	return err
}

func (p *Processor) guarded(ctx context.Context, task string, loop func(context.Context) error) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				p.lg.Error().Str("task", task).Interface("panic", r).Msg("processor task panicked")
				err = fmt.Errorf("%s task panicked: %v", task, r)
			}
		}()
		return loop(ctx)
	}
}

// sleepOrDone sleeps for d, returning ctx.Err() early if ctx is canceled
// first. Every stage loop's empty/backoff sleep goes through this so
// shutdown is immediate rather than waiting out the full sleep.
func sleepOrDone(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
