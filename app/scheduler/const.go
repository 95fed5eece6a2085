package scheduler

import "time"

// Hard-coded stage sleeps. Each is the pacing the spec calls out by name;
// none is meant to be tunable independently of the stage it governs.
const (
	prepareBackpressureSleep = 150 * time.Millisecond
	prepareEmptySleep        = 100 * time.Millisecond
	submitEmptySleep         = 100 * time.Millisecond
	confirmEmptySleep        = 200 * time.Millisecond
	allNotReadySleep         = 500 * time.Millisecond
	cosmosPostSubmitPacing   = 1 * time.Second

	// confirmRateLimitWindow is the fixed window ConfirmRateLimitPerAppContext
	// is measured against.
	confirmRateLimitWindow = time.Minute
)
