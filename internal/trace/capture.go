package trace

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// DumpResult is one device's completed dump.
type DumpResult struct {
	Meta   Metadata
	Events []Event
}

// DumpAll runs one dump per session concurrently. Each session owns its own
// transport connection and shares no state with the others, so no locking
// is needed; the protocol stays half-duplex per connection.
func DumpAll(ctx context.Context, sessions []*Session) ([]DumpResult, error) {
	results := make([]DumpResult, len(sessions))
	g, ctx := errgroup.WithContext(ctx)
	for i, session := range sessions {
		i, session := i, session
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			meta, events, err := session.Dump()
			if err != nil {
				return fmt.Errorf("device %d: %w", i, err)
			}
			results[i] = DumpResult{Meta: meta, Events: events}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
