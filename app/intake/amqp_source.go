package intake

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/ambros-labs/relayer/app/operation"
)

// AMQPConfig configures an AMQPSource's connection and topology.
type AMQPConfig struct {
	URL      string
	Exchange string
	Queue    string
	BindKeys []string
	Prefetch int
	Tag      string

	DeadLetterExchange string
	DeadLetterQueue    string
}

// AMQPSource is the production Source: a topic-exchange consumer that
// reconnects with exponential backoff, adapted from the teacher's
// rabbitmq.Consumer supervisor loop. Decoding and domain dispatch there
// become a single Decoder call here, since this module has no email
// handlers of its own.
type AMQPSource struct {
	cfg     AMQPConfig
	decoder Decoder
	lg      zerolog.Logger

	out chan operation.Operation

	mu        sync.Mutex
	conn      *amqp.Connection
	ch        *amqp.Channel
	closeOnce sync.Once
	stop      chan struct{}
	stopped   chan struct{}
}

// NewAMQPSource builds an AMQPSource and starts its reconnect supervisor in
// the background. Call Close to stop it.
func NewAMQPSource(cfg AMQPConfig, decoder Decoder, lg zerolog.Logger) *AMQPSource {
	s := &AMQPSource{
		cfg:     cfg,
		decoder: decoder,
		lg:      lg.With().Str("component", "amqp_intake").Logger(),
		out:     make(chan operation.Operation, 256),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *AMQPSource) Messages() <-chan operation.Operation {
	return s.out
}

func (s *AMQPSource) Close() error {
	s.closeOnce.Do(func() {
		close(s.stop)
	})
	<-s.stopped
	s.closeConn()
	close(s.out)
	return nil
}

func (s *AMQPSource) run() {
	defer close(s.stopped)

	backoff := time.Second
	maxBackoff := 30 * time.Second

	for {
		select {
		case <-s.stop:
			return
		default:
		}

		deliveries, err := s.connectAndDeclare()
		if err != nil {
			if isPreconditionFailed(err) {
				s.lg.Error().Err(err).Msg("FATAL: AMQP topology precondition failed, not retrying")
				return
			}
			s.lg.Error().Err(err).Dur("backoff", backoff).Msg("connectAndDeclare failed; retrying")
			if !s.sleepOrStop(backoff) {
				return
			}
			backoff = minDuration(backoff*2, maxBackoff)
			continue
		}

		backoff = time.Second
		s.consumeLoop(deliveries)

		select {
		case <-s.stop:
			return
		default:
		}

		s.lg.Warn().Msg("deliveries channel closed; reconnecting")
		s.closeConn()
		if !s.sleepOrStop(backoff) {
			return
		}
		backoff = minDuration(backoff*2, maxBackoff)
	}
}

func (s *AMQPSource) connectAndDeclare() (<-chan amqp.Delivery, error) {
	s.closeConn()

	conn, err := amqp.Dial(s.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(s.cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("exchange declare: %w", err)
	}

	var args amqp.Table
	if s.cfg.DeadLetterExchange != "" {
		args = amqp.Table{"x-dead-letter-exchange": s.cfg.DeadLetterExchange}
		if err := ch.ExchangeDeclare(s.cfg.DeadLetterExchange, "topic", true, false, false, false, nil); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, fmt.Errorf("dead-letter exchange declare: %w", err)
		}
		if s.cfg.DeadLetterQueue != "" {
			if _, err := ch.QueueDeclare(s.cfg.DeadLetterQueue, true, false, false, false, nil); err != nil {
				_ = ch.Close()
				_ = conn.Close()
				return nil, fmt.Errorf("dead-letter queue declare: %w", err)
			}
			if err := ch.QueueBind(s.cfg.DeadLetterQueue, "#", s.cfg.DeadLetterExchange, false, nil); err != nil {
				_ = ch.Close()
				_ = conn.Close()
				return nil, fmt.Errorf("dead-letter queue bind: %w", err)
			}
		}
	}

	if _, err := ch.QueueDeclare(s.cfg.Queue, true, false, false, false, args); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("queue declare: %w", err)
	}

	for _, key := range s.cfg.BindKeys {
		k := strings.TrimSpace(key)
		if k == "" {
			continue
		}
		if err := ch.QueueBind(s.cfg.Queue, k, s.cfg.Exchange, false, nil); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, fmt.Errorf("queue bind (%s): %w", k, err)
		}
	}

	if s.cfg.Prefetch > 0 {
		if err := ch.Qos(s.cfg.Prefetch, 0, false); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, fmt.Errorf("qos: %w", err)
		}
	}

	deliveries, err := ch.Consume(s.cfg.Queue, s.cfg.Tag, false, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("consume: %w", err)
	}

	s.mu.Lock()
	s.conn = conn
	s.ch = ch
	s.mu.Unlock()

	s.lg.Info().Str("exchange", s.cfg.Exchange).Str("queue", s.cfg.Queue).Msg("amqp intake ready")
	return deliveries, nil
}

func (s *AMQPSource) consumeLoop(deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-s.stop:
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			if err := s.dispatch(d); err != nil {
				s.lg.Warn().Err(err).Str("routing_key", d.RoutingKey).Msg("failed to decode message; dropping")
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// dispatch decodes d and forwards the resulting Operation to Messages(),
// kept separate from Ack/Nack so it can be unit-tested without a real AMQP
// acknowledger, the same split the teacher's handleDelivery/consumeLoop use.
func (s *AMQPSource) dispatch(d amqp.Delivery) error {
	op, err := s.decoder.Decode(context.Background(), d.Body)
	if err != nil {
		return err
	}

	select {
	case s.out <- op:
		return nil
	case <-s.stop:
		return fmt.Errorf("source stopped")
	}
}

func (s *AMQPSource) sleepOrStop(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-s.stop:
		return false
	}
}

func (s *AMQPSource) closeConn() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ch != nil {
		_ = s.ch.Close()
		s.ch = nil
	}
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}

func isPreconditionFailed(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToUpper(err.Error())
	return strings.Contains(msg, "PRECONDITION_FAILED") || strings.Contains(msg, "INEQUIVALENT ARG")
}
