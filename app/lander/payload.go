package lander

import "github.com/google/uuid"

// PayloadUUID identifies one payload submitted to the lander, minted with
// uuid.New() at submit time.
type PayloadUUID = uuid.UUID

// FullPayload is the chain-agnostic envelope the lander accepts: opaque
// calldata plus the criteria the lander polls against to learn whether the
// payload finalized. UUID is minted by the caller before SendPayload so a
// resubmission after a connection drop can be recognized as a duplicate by
// the lander; Metadata carries the originating message id for operator
// visibility; Mailbox is the destination mailbox address the operation
// reported via TryMailbox.
type FullPayload struct {
	UUID            uuid.UUID `json:"uuid"`
	Metadata        string    `json:"metadata"`
	Data            []byte    `json:"data"`
	SuccessCriteria []byte    `json:"success_criteria"`
	Mailbox         string    `json:"mailbox"`
}

// PayloadStatusKind enumerates the terminal/non-terminal states the lander
// reports back for a submitted payload.
type PayloadStatusKind int

const (
	PayloadStatusPending PayloadStatusKind = iota
	PayloadStatusIncluded
	PayloadStatusFinalized
	PayloadStatusDropped
)

func (k PayloadStatusKind) String() string {
	switch k {
	case PayloadStatusPending:
		return "Pending"
	case PayloadStatusIncluded:
		return "Included"
	case PayloadStatusFinalized:
		return "Finalized"
	case PayloadStatusDropped:
		return "Dropped"
	default:
		return "Unknown"
	}
}

// PayloadStatus reports the lander's view of a single payload.
type PayloadStatus struct {
	Kind PayloadStatusKind
}

func (s PayloadStatus) Finalized() bool {
	return s.Kind == PayloadStatusFinalized
}

func (s PayloadStatus) Dropped() bool {
	return s.Kind == PayloadStatusDropped
}
