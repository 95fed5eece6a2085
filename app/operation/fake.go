package operation

import (
	"context"
	"time"
)

// FakeOperation is a scriptable Operation for tests, the same role the
// teacher's email.FakeSender plays for its SendVerifyEmail collaborator:
// every capability is a function field defaulting to an inert stand-in, so
// a test only wires up the behavior it cares about.
type FakeOperation struct {
	IDValue                ID
	DestinationDomainValue uint32
	AppContextValue        string
	StatusValue            Status
	NextAttemptAfterValue  time.Time
	NumRetriesValue        int
	MailboxValue           string
	HasMailbox             bool

	PrepareFunc func(ctx context.Context) Result
	SubmitFunc  func(ctx context.Context) Result
	ConfirmFunc func(ctx context.Context) Result

	PayloadFunc         func(ctx context.Context) ([]byte, error)
	SuccessCriteriaFunc func(ctx context.Context) ([]byte, error)

	Decremented    int
	Repreparations []RepreparationRecord
}

// RepreparationRecord captures one OnReprepare call for test assertions.
type RepreparationRecord struct {
	Err    error
	Reason Reason
}

func (f *FakeOperation) ID() ID { return f.IDValue }
func (f *FakeOperation) DestinationDomain() uint32 { return f.DestinationDomainValue }
func (f *FakeOperation) AppContext() string { return f.AppContextValue }

func (f *FakeOperation) Status() Status { return f.StatusValue }
func (f *FakeOperation) SetStatus(s Status) { f.StatusValue = s }

func (f *FakeOperation) NextAttemptAfter() time.Time { return f.NextAttemptAfterValue }
func (f *FakeOperation) SetNextAttemptAfter(t time.Time) { f.NextAttemptAfterValue = t }

func (f *FakeOperation) NumRetries() int { return f.NumRetriesValue }

func (f *FakeOperation) Prepare(ctx context.Context) Result {
	if f.PrepareFunc != nil {
		return f.PrepareFunc(ctx)
	}
	return Success()
}

func (f *FakeOperation) Submit(ctx context.Context) Result {
	if f.SubmitFunc != nil {
		return f.SubmitFunc(ctx)
	}
	return Success()
}

func (f *FakeOperation) Confirm(ctx context.Context) Result {
	if f.ConfirmFunc != nil {
		return f.ConfirmFunc(ctx)
	}
	return Success()
}

func (f *FakeOperation) Payload(ctx context.Context) ([]byte, error) {
	if f.PayloadFunc != nil {
		return f.PayloadFunc(ctx)
	}
	return []byte("payload"), nil
}

func (f *FakeOperation) SuccessCriteria(ctx context.Context) ([]byte, error) {
	if f.SuccessCriteriaFunc != nil {
		return f.SuccessCriteriaFunc(ctx)
	}
	return []byte("criteria"), nil
}

func (f *FakeOperation) TryMailbox() (string, bool) {
	return f.MailboxValue, f.HasMailbox
}

func (f *FakeOperation) DecrementInflightMetricIfExists() {
	f.Decremented++
}

func (f *FakeOperation) OnReprepare(err error, reason Reason) {
	f.Repreparations = append(f.Repreparations, RepreparationRecord{Err: err, Reason: reason})
}
