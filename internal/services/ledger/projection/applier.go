package projection

import (
	"context"

	"github.com/centbook/centbook/internal/services/ledger/domain/event"
	"github.com/centbook/centbook/internal/services/ledger/storage"
)

// Applier routes committed events through the account projection handlers.
// It satisfies storage.Projector so the store can run it inside the append
// transaction.
type Applier struct {
	router *Router
}

// NewApplier creates an Applier with all account handlers registered.
func NewApplier() *Applier {
	router := NewRouter()
	registerAccountHandlers(router)
	return &Applier{router: router}
}

// Apply projects one committed event. The projection handle is transaction
// scoped; the caller owns commit and rollback.
func (a *Applier) Apply(ctx context.Context, proj storage.Projection, evt event.Event) error {
	return a.router.Route(ctx, proj, evt)
}

// HandledTypes returns the event types the applier projects.
func (a *Applier) HandledTypes() []event.Type {
	return a.router.HandledTypes()
}
