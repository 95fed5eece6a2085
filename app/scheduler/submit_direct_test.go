package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ambros-labs/relayer/app/clock"
	"github.com/ambros-labs/relayer/app/config"
	"github.com/ambros-labs/relayer/app/operation"
)

func TestSubmitDirectLoop_SingleOp_SuccessMovesToConfirmWithDelay(t *testing.T) {
	clk := clock.NewFake(time.Now())
	p := newTestProcessor(testConfig(config.ModeDirect, config.ProtocolEVM), clk, nil, newFakeStore())

	op := &operation.FakeOperation{IDValue: idOf(1)}
	p.submitQueue.Push(op, nil)

	runLoopUntil(t, p.submitDirectLoop, func() bool { return p.confirmQueue.Len() == 1 })

	assert.Equal(t, operation.ReasonSubmittedBySelf, op.Status().Reason)
	assert.Equal(t, clk.Now().Add(time.Second), op.NextAttemptAfter())
}

func TestSubmitDirectLoop_RepreparesOnReprepareResult(t *testing.T) {
	p := newTestProcessor(testConfig(config.ModeDirect, config.ProtocolEVM), clock.NewFake(time.Now()), nil, newFakeStore())

	op := &operation.FakeOperation{
		IDValue:    idOf(2),
		SubmitFunc: func(ctx context.Context) operation.Result { return operation.Reprepare(operation.ReasonErrorSubmitting) },
	}
	p.submitQueue.Push(op, nil)

	runLoopUntil(t, p.submitDirectLoop, func() bool { return p.prepareQueue.Len() == 1 })
	assert.Equal(t, operation.StatusRetry, op.Status().Kind)
}

func TestSubmitDirectLoop_DropDecrementsAndDoesNotRequeue(t *testing.T) {
	p := newTestProcessor(testConfig(config.ModeDirect, config.ProtocolEVM), clock.NewFake(time.Now()), nil, newFakeStore())

	op := &operation.FakeOperation{
		IDValue:    idOf(3),
		SubmitFunc: func(ctx context.Context) operation.Result { return operation.Drop() },
	}
	p.submitQueue.Push(op, nil)

	runLoopUntil(t, p.submitDirectLoop, func() bool { return op.Decremented == 1 })
	assert.Equal(t, 0, p.prepareQueue.Len())
	assert.Equal(t, 0, p.confirmQueue.Len())
}

func TestSubmitDirectLoop_MultiOpBatch_DelegatesToOperationBatch(t *testing.T) {
	p := newTestProcessor(testConfig(config.ModeDirect, config.ProtocolEVM), clock.NewFake(time.Now()), nil, newFakeStore())

	op1 := &operation.FakeOperation{IDValue: idOf(4)}
	op2 := &operation.FakeOperation{IDValue: idOf(5)}
	p.submitQueue.Push(op1, nil)
	p.submitQueue.Push(op2, nil)

	runLoopUntil(t, p.submitDirectLoop, func() bool { return p.confirmQueue.Len() == 2 })
}

func TestConfirmOp_PacesCosmosFamilySubmissionsByOneSecond(t *testing.T) {
	p := newTestProcessor(testConfig(config.ModeDirect, config.ProtocolCosmosFamily), clock.NewFake(time.Now()), nil, newFakeStore())
	op := &operation.FakeOperation{IDValue: idOf(6)}

	start := time.Now()
	p.confirmOp(context.Background(), op)
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 900*time.Millisecond)
}

func TestConfirmOp_EVMHasNoPacingDelay(t *testing.T) {
	p := newTestProcessor(testConfig(config.ModeDirect, config.ProtocolEVM), clock.NewFake(time.Now()), nil, newFakeStore())
	op := &operation.FakeOperation{IDValue: idOf(7)}

	start := time.Now()
	p.confirmOp(context.Background(), op)
	elapsed := time.Since(start)

	assert.Less(t, elapsed, 500*time.Millisecond)
}
