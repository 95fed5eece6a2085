package intake

import (
	"context"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ambros-labs/relayer/app/operation"
)

type fakeDecoder struct {
	op  operation.Operation
	err error
}

func (f *fakeDecoder) Decode(ctx context.Context, body []byte) (operation.Operation, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.op, nil
}

func newTestSource(decoder Decoder) *AMQPSource {
	return &AMQPSource{
		cfg:     AMQPConfig{Queue: "test.q"},
		decoder: decoder,
		lg:      zerolog.Nop(),
		out:     make(chan operation.Operation, 4),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

func TestAMQPSource_Dispatch_ForwardsDecodedOperation(t *testing.T) {
	op := &operation.FakeOperation{IDValue: operation.ID{9}}
	s := newTestSource(&fakeDecoder{op: op})

	err := s.dispatch(amqp.Delivery{Body: []byte(`{}`)})
	require.NoError(t, err)

	select {
	case got := <-s.out:
		assert.Equal(t, op.IDValue, got.ID())
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for forwarded operation")
	}
}

func TestAMQPSource_Dispatch_PropagatesDecodeError(t *testing.T) {
	s := newTestSource(&fakeDecoder{err: errors.New("bad payload")})

	err := s.dispatch(amqp.Delivery{Body: []byte(`garbage`)})
	assert.Error(t, err)
}

func TestAMQPSource_Dispatch_StopUnblocksSend(t *testing.T) {
	s := newTestSource(&fakeDecoder{op: &operation.FakeOperation{}})
	s.out = make(chan operation.Operation) // unbuffered, full immediately
	close(s.stop)

	err := s.dispatch(amqp.Delivery{})
	assert.Error(t, err)
}

func TestIsPreconditionFailed(t *testing.T) {
	assert.True(t, isPreconditionFailed(errors.New("PRECONDITION_FAILED - x")))
	assert.True(t, isPreconditionFailed(errors.New("inequivalent arg 'x-dead-letter-exchange'")))
	assert.False(t, isPreconditionFailed(errors.New("connection refused")))
	assert.False(t, isPreconditionFailed(nil))
}

func TestMinDuration(t *testing.T) {
	assert.Equal(t, time.Second, minDuration(time.Second, 2*time.Second))
	assert.Equal(t, time.Second, minDuration(2*time.Second, time.Second))
}
