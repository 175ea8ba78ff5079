package actionlog

import "context"

//go:generate mockgen -source=publisher.go -destination=mocks/mocks.go -package=mocks Publisher

// Publisher streams committed entries to downstream consumers. It is called
// only after state has been saved, so a publish failure never rolls back a
// recorded consequence.
type Publisher interface {
	Publish(ctx context.Context, entries ...Entry) error
}

// NopPublisher discards entries.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ...Entry) error { return nil }
