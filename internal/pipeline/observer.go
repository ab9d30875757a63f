package pipeline

import (
	"context"
	"time"

	"github.com/hyperifyio/postforge/internal/content"
)

// Event describes one finished run. Response is nil when Err is set.
type Event struct {
	Operation string
	Kind      content.SourceKind
	Request   content.Request
	Response  *content.Response
	CacheHit  bool
	Err       error
	At        time.Time
	Duration  time.Duration
}

// Observer is told about every finished run. Implementations must not block
// for long; they run on the request path.
type Observer interface {
	Observe(ctx context.Context, ev Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, ev Event)

func (f ObserverFunc) Observe(ctx context.Context, ev Event) { f(ctx, ev) }

// Observers fans an event out to each member in order.
type Observers []Observer

func (o Observers) Observe(ctx context.Context, ev Event) {
	for _, obs := range o {
		if obs != nil {
			obs.Observe(ctx, ev)
		}
	}
}

func (p *Pipeline) notify(ctx context.Context, ev Event) {
	if p.Observer != nil {
		p.Observer.Observe(context.WithoutCancel(ctx), ev)
	}
}
