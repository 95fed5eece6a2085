// Package operation defines the in-flight message model the scheduler
// drives through prepare, submit, and confirm.
package operation

import (
	"context"
	"encoding/hex"
	"time"
)

// ID is a stable, opaque, equality-comparable message identifier.
type ID [32]byte

func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// ResultKind enumerates the closed sum a stage capability returns.
type ResultKind int

const (
	ResultSuccess ResultKind = iota
	ResultNotReady
	ResultReprepare
	ResultConfirm
	ResultDrop
)

func (k ResultKind) String() string {
	switch k {
	case ResultSuccess:
		return "success"
	case ResultNotReady:
		return "not_ready"
	case ResultReprepare:
		return "reprepare"
	case ResultConfirm:
		return "confirm"
	case ResultDrop:
		return "drop"
	default:
		return "unknown"
	}
}

// Reason tags why an operation is repreparing or being re-confirmed. Its
// zero value is ReasonNone, used by results that carry no reason.
type Reason string

const (
	ReasonNone Reason = ""

	// Reprepare reasons originating inside the lander submit/confirm loops.
	ReasonErrorCreatingPayload                Reason = "ErrorCreatingPayload"
	ReasonErrorCreatingPayloadSuccessCriteria Reason = "ErrorCreatingPayloadSuccessCriteria"
	ReasonErrorSubmitting                     Reason = "ErrorSubmitting"
	ReasonErrorStoringPayloadUuidsByMessageId Reason = "ErrorStoringPayloadUuidsByMessageId"
	ReasonErrorRetrievingPayloadUuids         Reason = "ErrorRetrievingPayloadUuids"
	ReasonErrorRetrievingPayloadStatus        Reason = "ErrorRetrievingPayloadStatus"

	// Confirm reasons — not errors, just provenance tags.
	ReasonAlreadySubmitted Reason = "AlreadySubmitted"
	ReasonSubmittedBySelf  Reason = "SubmittedBySelf"
)

// Result is the outcome of invoking Prepare, Submit, or Confirm on an
// Operation. It mirrors the Rust sum type
// {Success, NotReady, Reprepare(reason), Confirm(reason), Drop}.
type Result struct {
	Kind   ResultKind
	Reason Reason
}

func Success() Result { return Result{Kind: ResultSuccess} }
func NotReady() Result { return Result{Kind: ResultNotReady} }
func Reprepare(reason Reason) Result { return Result{Kind: ResultReprepare, Reason: reason} }
func Confirm(reason Reason) Result { return Result{Kind: ResultConfirm, Reason: reason} }
func Drop() Result { return Result{Kind: ResultDrop} }

// StatusKind enumerates the closed sum attached to a queued operation.
type StatusKind int

const (
	StatusFirstPrepareAttempt StatusKind = iota
	StatusRetry
	StatusReadyToSubmit
	StatusConfirm
)

func (k StatusKind) String() string {
	switch k {
	case StatusFirstPrepareAttempt:
		return "first_prepare_attempt"
	case StatusRetry:
		return "retry"
	case StatusReadyToSubmit:
		return "ready_to_submit"
	case StatusConfirm:
		return "confirm"
	default:
		return "unknown"
	}
}

// Status is the latest PendingOperationStatus attached to an operation when
// it is enqueued; used for observability and by OnReprepare bookkeeping.
type Status struct {
	Kind   StatusKind
	Reason Reason
}

func FirstPrepareAttempt() Status { return Status{Kind: StatusFirstPrepareAttempt} }
func Retry(reason Reason) Status { return Status{Kind: StatusRetry, Reason: reason} }
func ReadyToSubmit() Status { return Status{Kind: StatusReadyToSubmit} }
func ConfirmStatus(reason Reason) Status { return Status{Kind: StatusConfirm, Reason: reason} }

// Operation is the capability bundle the scheduler depends on. Concrete
// chain-protocol implementations (out of scope here, per spec §1) satisfy
// this interface; the scheduler never type-switches on what kind of
// operation it holds.
type Operation interface {
	ID() ID
	DestinationDomain() uint32
	AppContext() string

	Status() Status
	SetStatus(Status)

	NextAttemptAfter() time.Time
	SetNextAttemptAfter(time.Time)

	NumRetries() int

	Prepare(ctx context.Context) Result
	Submit(ctx context.Context) Result
	Confirm(ctx context.Context) Result

	// Payload and SuccessCriteria are lander-mode-only capabilities.
	Payload(ctx context.Context) ([]byte, error)
	SuccessCriteria(ctx context.Context) ([]byte, error)

	// TryMailbox returns the destination mailbox address and whether the
	// operation carries one; its absence at lander-submit time is a
	// programming-invariant violation (spec §7).
	TryMailbox() (string, bool)

	DecrementInflightMetricIfExists()
	OnReprepare(err error, reason Reason)
}
