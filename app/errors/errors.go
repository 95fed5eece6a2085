package errors

import "fmt"

// ErrorCode represents different error types
type ErrorCode string

const (
	ErrCodeInvalidInput     ErrorCode = "INVALID_INPUT"
	ErrCodeNotFound         ErrorCode = "NOT_FOUND"
	ErrCodeInternal         ErrorCode = "INTERNAL_ERROR"
	ErrCodeRetryable        ErrorCode = "RETRYABLE_ERROR"
	ErrCodePermanentFailure ErrorCode = "PERMANENT_FAILURE"

	// Lander-stage reprepare codes, per spec §7.
	ErrCodeCreatingPayload                 ErrorCode = "ERROR_CREATING_PAYLOAD"
	ErrCodeCreatingPayloadSuccessCriteria   ErrorCode = "ERROR_CREATING_PAYLOAD_SUCCESS_CRITERIA"
	ErrCodeSubmitting                       ErrorCode = "ERROR_SUBMITTING"
	ErrCodeStoringPayloadUUIDs              ErrorCode = "ERROR_STORING_PAYLOAD_UUIDS"
	ErrCodeRetrievingPayloadUUIDs           ErrorCode = "ERROR_RETRIEVING_PAYLOAD_UUIDS"
	ErrCodeRetrievingPayloadStatus          ErrorCode = "ERROR_RETRIEVING_PAYLOAD_STATUS"
)

// AppError represents an application error
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func newCoded(code ErrorCode, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewInvalidInput creates a new invalid input error
func NewInvalidInput(message string) *AppError {
	return newCoded(ErrCodeInvalidInput, message, nil)
}

// NewNotFound creates a new not found error
func NewNotFound(message string) *AppError {
	return newCoded(ErrCodeNotFound, message, nil)
}

// NewInternal creates a new internal error
func NewInternal(message string) *AppError {
	return newCoded(ErrCodeInternal, message, nil)
}

// NewRetryableError creates a retryable error
func NewRetryableError(message string, err error) *AppError {
	return newCoded(ErrCodeRetryable, message, err)
}

// NewPermanentFailure creates a permanent failure error
func NewPermanentFailure(message string, err error) *AppError {
	return newCoded(ErrCodePermanentFailure, message, err)
}

// NewCreatingPayloadError wraps a failure to build a lander payload.
func NewCreatingPayloadError(err error) *AppError {
	return newCoded(ErrCodeCreatingPayload, "failed to create payload", err)
}

// NewCreatingPayloadSuccessCriteriaError wraps a failure to build success criteria.
func NewCreatingPayloadSuccessCriteriaError(err error) *AppError {
	return newCoded(ErrCodeCreatingPayloadSuccessCriteria, "failed to create payload success criteria", err)
}

// NewSubmittingError wraps a failure to submit a payload to the lander.
func NewSubmittingError(err error) *AppError {
	return newCoded(ErrCodeSubmitting, "failed to submit payload", err)
}

// NewStoringPayloadUUIDsError wraps a failure to persist the message/payload mapping.
func NewStoringPayloadUUIDsError(err error) *AppError {
	return newCoded(ErrCodeStoringPayloadUUIDs, "failed to store payload uuids", err)
}

// NewRetrievingPayloadUUIDsError wraps a failure to read the message/payload mapping.
func NewRetrievingPayloadUUIDsError(err error) *AppError {
	return newCoded(ErrCodeRetrievingPayloadUUIDs, "failed to retrieve payload uuids", err)
}

// NewRetrievingPayloadStatusError wraps a failure to poll payload finality.
func NewRetrievingPayloadStatusError(err error) *AppError {
	return newCoded(ErrCodeRetrievingPayloadStatus, "failed to retrieve payload status", err)
}
