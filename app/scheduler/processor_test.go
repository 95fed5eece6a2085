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

// publishDropped must be a no-op when no dlq.Publisher was configured,
// since it's optional per New's contract.
func TestPublishDropped_NoPublisherConfigured_DoesNotPanic(t *testing.T) {
	p := newTestProcessor(testConfig(config.ModeDirect, config.ProtocolEVM), clock.NewFake(time.Now()), nil, newFakeStore())
	op := &operation.FakeOperation{IDValue: idOf(1)}

	assert.NotPanics(t, func() {
		p.publishDropped(context.Background(), op, operation.ReasonErrorSubmitting)
	})
}
