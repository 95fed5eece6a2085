package batch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ambros-labs/relayer/app/operation"
)

func TestNaiveBatch_Submit_CallsEachOperation(t *testing.T) {
	var calls int
	op1 := &operation.FakeOperation{
		SubmitFunc: func(ctx context.Context) operation.Result {
			calls++
			return operation.Success()
		},
	}
	op2 := &operation.FakeOperation{
		SubmitFunc: func(ctx context.Context) operation.Result {
			calls++
			return operation.Reprepare(operation.ReasonErrorSubmitting)
		},
	}

	b := NewNaiveBatch()
	results := b.Submit(context.Background(), []operation.Operation{op1, op2})

	require.Len(t, results, 2)
	assert.Equal(t, operation.Success(), results[0])
	assert.Equal(t, operation.Reprepare(operation.ReasonErrorSubmitting), results[1])
	assert.Equal(t, 2, calls)
}

func TestNaiveBatch_Submit_Empty(t *testing.T) {
	b := NewNaiveBatch()
	results := b.Submit(context.Background(), nil)
	assert.Empty(t, results)
}
