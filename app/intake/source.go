// Package intake drains the upstream channel of newly-discovered messages
// and decodes them into operation.Operation values for the prepare queue.
package intake

import (
	"context"

	"github.com/ambros-labs/relayer/app/operation"
)

// Source is the upstream collaborator the Intake task pulls from.
type Source interface {
	Messages() <-chan operation.Operation
	Close() error
}

// Decoder turns a raw delivery body into an Operation. Concrete
// chain-protocol decoding is out of scope here (spec §1's Non-goal);
// production wiring supplies its own Decoder.
type Decoder interface {
	Decode(ctx context.Context, body []byte) (operation.Operation, error)
}
