package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ambros-labs/relayer/app/clock"
	"github.com/ambros-labs/relayer/app/operation"
	"github.com/ambros-labs/relayer/app/retrychannel"
)

func newTestOp(id byte, numRetries int) *operation.FakeOperation {
	return &operation.FakeOperation{
		IDValue:          operation.ID{id},
		NumRetriesValue:  numRetries,
		StatusValue:      operation.FirstPrepareAttempt(),
	}
}

func TestOpQueue_PopMany_OrdersByRetriesThenSequence(t *testing.T) {
	clk := clock.NewFake(time.Now())
	q := New("testchain", "prepare", clk, nil)
	defer q.Close()

	opA := newTestOp(1, 1)
	opB := newTestOp(2, 0)
	opC := newTestOp(3, 0)

	q.Push(opA, nil)
	q.Push(opB, nil)
	q.Push(opC, nil)

	got := q.PopMany(3)
	require.Len(t, got, 3)
	assert.Equal(t, opB.IDValue, got[0].ID())
	assert.Equal(t, opC.IDValue, got[1].ID())
	assert.Equal(t, opA.IDValue, got[2].ID())
}

func TestOpQueue_PopMany_SkipsIneligibleButKeepsThem(t *testing.T) {
	now := time.Now()
	clk := clock.NewFake(now)
	q := New("testchain", "prepare", clk, nil)
	defer q.Close()

	ready := newTestOp(1, 0)
	ready.NextAttemptAfterValue = now.Add(-time.Minute)

	notReady := newTestOp(2, 0)
	notReady.NextAttemptAfterValue = now.Add(time.Hour)

	q.Push(notReady, nil)
	q.Push(ready, nil)

	got := q.PopMany(5)
	require.Len(t, got, 1)
	assert.Equal(t, ready.IDValue, got[0].ID())
	assert.Equal(t, 1, q.Len())

	clk.Advance(2 * time.Hour)
	got = q.PopMany(5)
	require.Len(t, got, 1)
	assert.Equal(t, notReady.IDValue, got[0].ID())
}

func TestOpQueue_PopMany_RespectsLimit(t *testing.T) {
	clk := clock.NewFake(time.Now())
	q := New("testchain", "prepare", clk, nil)
	defer q.Close()

	for i := byte(0); i < 5; i++ {
		q.Push(newTestOp(i, 0), nil)
	}

	got := q.PopMany(2)
	assert.Len(t, got, 2)
	assert.Equal(t, 3, q.Len())
}

func TestOpQueue_Push_StampsStatus(t *testing.T) {
	clk := clock.NewFake(time.Now())
	q := New("testchain", "prepare", clk, nil)
	defer q.Close()

	op := newTestOp(1, 0)
	status := operation.Retry(operation.ReasonErrorSubmitting)
	q.Push(op, &status)

	assert.Equal(t, status, op.Status())
}

func TestOpQueue_RetryBroadcast_ResetsEligibility(t *testing.T) {
	now := time.Now()
	clk := clock.NewFake(now)
	b := retrychannel.NewBroadcaster()
	q := New("testchain", "prepare", clk, b)
	defer q.Close()

	op := newTestOp(1, 0)
	op.NextAttemptAfterValue = now.Add(time.Hour)
	q.Push(op, nil)

	assert.Empty(t, q.PopMany(5))

	b.Publish(retrychannel.MessageRetryRequest{Pattern: "*"})

	require.Eventually(t, func() bool {
		return !op.NextAttemptAfter().After(now)
	}, time.Second, 5*time.Millisecond)

	got := q.PopMany(5)
	require.Len(t, got, 1)
	assert.Equal(t, op.IDValue, got[0].ID())
}

func TestOpQueue_Len(t *testing.T) {
	clk := clock.NewFake(time.Now())
	q := New("testchain", "prepare", clk, nil)
	defer q.Close()

	assert.Equal(t, 0, q.Len())
	q.Push(newTestOp(1, 0), nil)
	assert.Equal(t, 1, q.Len())
}
