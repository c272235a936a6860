// Package projection keeps the projected read state in lockstep with the
// event journal. Handlers run inside the append transaction, so a handler
// failure rolls back the append itself.
package projection

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/centbook/centbook/internal/services/ledger/domain/event"
	"github.com/centbook/centbook/internal/services/ledger/storage"
)

// HandlerFunc applies one event to the projection.
type HandlerFunc func(ctx context.Context, proj storage.Projection, evt event.Event) error

// Router dispatches projection events by type. Typed handlers registered via
// Handle receive auto-unmarshalled payloads, eliminating per-handler decode
// boilerplate.
type Router struct {
	handlers map[event.Type]HandlerFunc
	types    []event.Type
}

// NewRouter creates an empty Router.
func NewRouter() *Router {
	return &Router{
		handlers: make(map[event.Type]HandlerFunc),
	}
}

// Route dispatches an event to its registered handler. Unknown event types
// are an error: the projection must account for every journal event or the
// read state silently drifts.
func (r *Router) Route(ctx context.Context, proj storage.Projection, evt event.Event) error {
	h, ok := r.handlers[evt.Type]
	if !ok {
		return fmt.Errorf("unhandled projection event type: %s", evt.Type)
	}
	return h(ctx, proj, evt)
}

// HandledTypes returns all registered event types in registration order.
func (r *Router) HandledTypes() []event.Type {
	return append([]event.Type(nil), r.types...)
}

// Handle registers a typed handler for the given event type. The handler
// receives a pre-unmarshalled payload; the event.Event is passed through for
// envelope fields (StreamID, GlobalSeq, OccurredAt, metadata).
func Handle[P any](r *Router, t event.Type, fn func(ctx context.Context, proj storage.Projection, evt event.Event, payload P) error) {
	r.handlers[t] = func(ctx context.Context, proj storage.Projection, evt event.Event) error {
		var payload P
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return fmt.Errorf("decode %s payload: %w", t, err)
		}
		return fn(ctx, proj, evt, payload)
	}
	r.types = append(r.types, t)
}
