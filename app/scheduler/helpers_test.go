package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ambros-labs/relayer/app/batch"
	"github.com/ambros-labs/relayer/app/clock"
	"github.com/ambros-labs/relayer/app/config"
	"github.com/ambros-labs/relayer/app/lander"
	"github.com/ambros-labs/relayer/app/operation"
	"github.com/ambros-labs/relayer/app/ratelimit"
)

type fakeSource struct {
	ch chan operation.Operation
}

func newFakeSource() *fakeSource {
	return &fakeSource{ch: make(chan operation.Operation, 16)}
}

func (s *fakeSource) Messages() <-chan operation.Operation { return s.ch }
func (s *fakeSource) Close() error                         { close(s.ch); return nil }

type fakeEntrypoint struct {
	mu         sync.Mutex
	sendFunc   func(ctx context.Context, payload *lander.FullPayload) (uuid.UUID, error)
	statusFunc func(ctx context.Context, id uuid.UUID) (lander.PayloadStatus, error)
	sendCalls  int
}

func (f *fakeEntrypoint) SendPayload(ctx context.Context, payload *lander.FullPayload) (uuid.UUID, error) {
	f.mu.Lock()
	f.sendCalls++
	f.mu.Unlock()
	if f.sendFunc != nil {
		return f.sendFunc(ctx, payload)
	}
	return uuid.New(), nil
}

func (f *fakeEntrypoint) PayloadStatus(ctx context.Context, id uuid.UUID) (lander.PayloadStatus, error) {
	if f.statusFunc != nil {
		return f.statusFunc(ctx, id)
	}
	return lander.PayloadStatus{Kind: lander.PayloadStatusFinalized}, nil
}

func (f *fakeEntrypoint) sendCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sendCalls
}

type fakeStore struct {
	mu       sync.Mutex
	data     map[operation.ID][]uuid.UUID
	storeErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: map[operation.ID][]uuid.UUID{}}
}

func (s *fakeStore) Store(ctx context.Context, id operation.ID, uuids []uuid.UUID) error {
	if s.storeErr != nil {
		return s.storeErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[id] = append(s.data[id], uuids...)
	return nil
}

func (s *fakeStore) Retrieve(ctx context.Context, id operation.ID) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[id], nil
}

func testConfig(mode config.Mode, protocol config.Protocol) *config.ProcessorConfig {
	return &config.ProcessorConfig{
		Domain:                     7,
		Mode:                       mode,
		Protocol:                   protocol,
		MaxBatchSize:               10,
		ConfirmDelay:               time.Second,
		StrictPartialStatusFailure: true,
	}
}

func newTestProcessor(cfg *config.ProcessorConfig, clk clock.Clock, entrypoint lander.Entrypoint, payloads *fakeStore) *Processor {
	return New(
		"test-chain",
		cfg,
		clk,
		zerolog.Nop(),
		nil,
		newFakeSource(),
		batch.NewNaiveBatch(),
		entrypoint,
		payloads,
		ratelimit.NewLimiter(nil),
		nil,
	)
}

func idOf(b byte) operation.ID {
	var id operation.ID
	id[0] = b
	return id
}

const testTimeout = 2 * time.Second
