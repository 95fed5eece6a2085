package scheduler

import (
	"context"
	"fmt"
)

// intakeLoop drains the upstream Source until it closes or ctx is
// canceled, pushing every operation onto the prepare queue (spec §4.2).
func (p *Processor) intakeLoop(ctx context.Context) error {
	messages := p.source.Messages()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case op, ok := <-messages:
			if !ok {
				return nil
			}

			if op.DestinationDomain() != p.cfg.Domain {
				panic(fmt.Sprintf(
					"operation %s destined for domain %d reached processor for domain %d",
					op.ID(), op.DestinationDomain(), p.cfg.Domain,
				))
			}

			status := op.Status()
			p.prepareQueue.Push(op, &status)
		}
	}
}
