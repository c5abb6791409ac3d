package eventbus

import "context"

// Subscriber receives events fanned out by the Bus.
type Subscriber interface {
	OnEvent(ctx context.Context, event Event) error
	Name() string
	Filter() Filter
}
