// Package batch lets a destination chain submit several operations in one
// call (an EVM multicall, a Cosmos multi-msg tx) instead of one Submit per
// operation. Direct-mode submission of a popped batch holding more than one
// operation goes through an OperationBatch (a lone operation is submitted
// with its own Submit); chains with nothing smarter to offer use NaiveBatch.
package batch

import (
	"context"

	"github.com/ambros-labs/relayer/app/operation"
)

// OperationBatch submits a set of operations together and reports one
// PendingOperationResult per operation, in the same order they were given.
type OperationBatch interface {
	Submit(ctx context.Context, ops []operation.Operation) []operation.Result
}

// NaiveBatch has no real batching capability: it calls each operation's own
// Submit in sequence. It is the default OperationBatch for any chain whose
// adapter doesn't implement true multi-op submission.
type NaiveBatch struct{}

func NewNaiveBatch() *NaiveBatch {
	return &NaiveBatch{}
}

func (NaiveBatch) Submit(ctx context.Context, ops []operation.Operation) []operation.Result {
	results := make([]operation.Result, len(ops))
	for i, op := range ops {
		results[i] = op.Submit(ctx)
	}
	return results
}
