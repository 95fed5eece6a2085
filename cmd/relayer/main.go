// Command relayer runs one destination-chain Processor: intake from AMQP,
// prepare/submit/confirm against either a direct chain RPC or a lander
// dispatcher, health checks and Prometheus metrics over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/ambros-labs/relayer/app/batch"
	"github.com/ambros-labs/relayer/app/clock"
	"github.com/ambros-labs/relayer/app/config"
	"github.com/ambros-labs/relayer/app/dlq"
	"github.com/ambros-labs/relayer/app/health"
	"github.com/ambros-labs/relayer/app/intake"
	"github.com/ambros-labs/relayer/app/lander"
	"github.com/ambros-labs/relayer/app/logger"
	"github.com/ambros-labs/relayer/app/metrics"
	"github.com/ambros-labs/relayer/app/operation"
	"github.com/ambros-labs/relayer/app/ratelimit"
	"github.com/ambros-labs/relayer/app/retrychannel"
	"github.com/ambros-labs/relayer/app/scheduler"
	"github.com/ambros-labs/relayer/app/store"
)

// unconfiguredDecoder is the injection point spec §6 leaves to the
// protocol layer: decoding a raw wire envelope into an operation.Operation
// is chain-specific and out of scope here (spec §1's Non-goal). A real
// deployment supplies its own intake.Decoder for the domain it relays.
type unconfiguredDecoder struct{}

func (unconfiguredDecoder) Decode(ctx context.Context, body []byte) (operation.Operation, error) {
	return nil, errors.New("no protocol decoder configured for this deployment")
}

func main() {
	logger.Init()
	log := logger.Logger

	if err := config.Load(); err != nil {
		log.Warn().Err(err).Msg("failed to load .env file, using environment variables")
	}

	domain := uint32(config.GetInt("DESTINATION_DOMAIN", 0))
	mode := config.Mode(config.GetString("PROCESSOR_MODE", string(config.ModeDirect)))
	protocol := config.Protocol(config.GetString("DESTINATION_PROTOCOL", string(config.ProtocolEVM)))
	chain := config.GetString("CHAIN_NAME", "default")

	cfg := config.LoadProcessorConfig(domain, mode, protocol)

	redisClient, err := config.NewRedisClient()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer redisClient.Close()

	conn, err := amqp.Dial(config.RabbitMQURL())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open RabbitMQ channel")
	}
	defer ch.Close()

	dlqExchange := config.GetString("RABBITMQ_DLQ_EXCHANGE", "relayer.dropped")
	dlqPublisher, err := dlq.NewPublisher(ch, dlqExchange)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize dead-letter publisher")
	}

	source := intake.NewAMQPSource(intake.AMQPConfig{
		URL:      config.RabbitMQURL(),
		Exchange: config.RabbitMQExchange(),
		Queue:    config.GetString("RABBITMQ_QUEUE", "relayer.messages."+chain),
		BindKeys: []string{fmt.Sprintf("message.discovered.%d", domain)},
		Prefetch: config.GetInt("RABBITMQ_PREFETCH", 32),
		Tag:      "relayer-" + chain,

		DeadLetterExchange: dlqExchange,
		DeadLetterQueue:    config.GetString("RABBITMQ_QUEUE_DLQ", "relayer.messages.dlq"),
	}, unconfiguredDecoder{}, log)

	opBatch := batch.NewNaiveBatch()
	payloadStore := store.NewRedisStore(redisClient, cfg.ConfirmDelay*10)
	limiter := ratelimit.NewLimiter(redisClient)
	broadcaster := retrychannel.NewBroadcaster()

	var entrypoint lander.Entrypoint
	var landerChecker health.LanderChecker
	if cfg.Mode == config.ModeLander {
		httpEntrypoint := lander.NewHTTPEntrypoint(
			config.GetString("LANDER_BASE_URL", "http://localhost:9090"),
			config.GetInt("LANDER_CB_MAX_FAILURES", 5),
			10*time.Second,
			config.GetInt("LANDER_CB_HALF_OPEN_MAX_CALLS", 1),
		)
		entrypoint = httpEntrypoint
		landerChecker = httpEntrypoint
	}

	proc := scheduler.New(chain, cfg, clock.System{}, log, broadcaster, source, opBatch, entrypoint, payloadStore, limiter, dlqPublisher)

	healthHandler := health.NewHandler(conn, ch, redisClient, landerChecker)
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler.HealthCheck)
	mux.HandleFunc("/health/rabbitmq", healthHandler.HealthCheckRabbitMQ)
	mux.HandleFunc("/health/redis", healthHandler.HealthCheckRedis)
	mux.HandleFunc("/health/lander", healthHandler.HealthCheckLander)
	mux.Handle("/metrics", metrics.Handler())

	healthPort := config.GetString("HEALTH_CHECK_PORT", "8081")
	healthServer := &http.Server{Addr: ":" + healthPort, Handler: mux}

	go func() {
		log.Info().Str("port", healthPort).Msg("starting health check server")
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("health check server failed")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()
	}()

	log.Info().Str("chain", chain).Str("mode", string(cfg.Mode)).Msg("starting relayer processor")
	runErr := make(chan error, 1)
	go func() { runErr <- proc.Run(ctx) }()

	var processorDone bool
	select {
	case <-ctx.Done():
	case err := <-runErr:
		processorDone = true
		if err != nil {
			log.Error().Err(err).Msg("processor stopped with error")
		}
		cancel()
	}

	log.Info().Msg("shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error shutting down health check server")
	}

	if err := source.Close(); err != nil {
		log.Error().Err(err).Msg("error closing intake source")
	}

	if !processorDone {
		select {
		case <-runErr:
		case <-shutdownCtx.Done():
			log.Warn().Msg("shutdown timeout exceeded waiting for processor to stop")
		}
	}

	log.Info().Msg("shutdown complete")
}
