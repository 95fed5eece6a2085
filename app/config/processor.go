package config

import "time"

// Mode selects how the submit/confirm loops talk to the destination chain.
type Mode string

const (
	ModeDirect Mode = "direct"
	ModeLander Mode = "lander"
)

// Protocol names the destination chain's protocol family, relevant only
// for the Cosmos post-submit pacing rule (spec §4.4).
type Protocol string

const (
	ProtocolEVM          Protocol = "evm"
	ProtocolCosmosFamily Protocol = "cosmos"
	ProtocolSealevel     Protocol = "sealevel"
)

// ProcessorConfig holds the tunables a Processor is constructed with (spec
// §6). Loaded from the environment the same way the teacher's retry.Config
// is: GetString/GetInt/GetBool with sane defaults.
type ProcessorConfig struct {
	Domain   uint32
	Mode     Mode
	Protocol Protocol

	MaxBatchSize      uint32
	MaxSubmitQueueLen *uint32 // nil disables the backpressure gate
	ConfirmDelay      time.Duration

	// StrictPartialStatusFailure preserves the spec's Open Question #1
	// default: a single payload status-fetch error reprepares the whole
	// operation even if other payload UUIDs succeeded.
	StrictPartialStatusFailure bool

	// ConfirmRateLimitPerAppContext bounds confirm() polls per app_context
	// per minute in direct mode (SPEC_FULL.md §4.6). Zero disables the gate.
	ConfirmRateLimitPerAppContext int
}

// LoadProcessorConfig loads ProcessorConfig for domain from the environment.
func LoadProcessorConfig(domain uint32, mode Mode, protocol Protocol) *ProcessorConfig {
	cfg := &ProcessorConfig{
		Domain:                        domain,
		Mode:                          mode,
		Protocol:                      protocol,
		MaxBatchSize:                  uint32(GetInt("MAX_BATCH_SIZE", 32)),
		ConfirmDelay:                  durationOrDefault("CONFIRM_DELAY", 10*time.Second),
		StrictPartialStatusFailure:    GetBool("STRICT_PARTIAL_STATUS_FAILURE", true),
		ConfirmRateLimitPerAppContext: GetInt("CONFIRM_RATE_LIMIT_PER_APP_CONTEXT", 0),
	}

	if n := GetInt("MAX_SUBMIT_QUEUE_LEN", 0); n > 0 {
		u := uint32(n)
		cfg.MaxSubmitQueueLen = &u
	}

	return cfg
}

func durationOrDefault(key string, def time.Duration) time.Duration {
	raw := GetString(key, "")
	if raw == "" {
		return def
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return def
}
