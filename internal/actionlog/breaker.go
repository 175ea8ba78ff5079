package actionlog

import (
	"context"
	"errors"
	"log/slog"

	"reserveguard/pkg/platform/circuit"
)

// ErrPublisherUnavailable is returned while the breaker is open and entries
// are skipped without contacting the downstream publisher.
var ErrPublisherUnavailable = errors.New("action log publisher unavailable")

// BreakerPublisher stops calling a failing publisher after repeated errors so
// that every command does not pay the broker timeout. Entries are already
// durable in the action log document, so skipping them only loses the stream
// copy.
type BreakerPublisher struct {
	next    Publisher
	breaker *circuit.Breaker
	logger  *slog.Logger
}

func NewBreakerPublisher(next Publisher, breaker *circuit.Breaker, logger *slog.Logger) *BreakerPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &BreakerPublisher{next: next, breaker: breaker, logger: logger}
}

func (p *BreakerPublisher) Publish(ctx context.Context, entries ...Entry) error {
	if !p.breaker.Allow() {
		return ErrPublisherUnavailable
	}
	if err := p.next.Publish(ctx, entries...); err != nil {
		if _, change := p.breaker.RecordFailure(); change.Opened {
			p.logger.WarnContext(ctx, "action log publisher circuit opened",
				"breaker", p.breaker.Name(),
				"error", err,
			)
		}
		return err
	}
	if _, change := p.breaker.RecordSuccess(); change.Closed {
		p.logger.InfoContext(ctx, "action log publisher circuit closed", "breaker", p.breaker.Name())
	}
	return nil
}
