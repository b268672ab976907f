// Package hook dispatches cancellable team events to synchronous listeners.
package hook

import (
	"context"
	"log/slog"
	"sync"

	"github.com/skyblockhq/teamsvc/internal/domain"
)

// Listener observes a team event before the change is committed and may veto
// it with event.Cancel.
type Listener interface {
	HandleTeamEvent(ctx context.Context, event *domain.TeamEvent)
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(ctx context.Context, event *domain.TeamEvent)

// HandleTeamEvent calls f.
func (f ListenerFunc) HandleTeamEvent(ctx context.Context, event *domain.TeamEvent) {
	f(ctx, event)
}

// Bus delivers team events to registered listeners in registration order.
type Bus struct {
	mu        sync.RWMutex
	listeners []Listener
	logger    *slog.Logger
}

// NewBus creates an empty bus.
func NewBus(logger *slog.Logger) *Bus {
	return &Bus{logger: logger}
}

// Register appends a listener.
func (b *Bus) Register(l Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, l)
}

// Len returns the number of registered listeners.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}

// Publish runs every listener against event and reports whether the change
// may proceed. Dispatch stops at the first cancellation.
func (b *Bus) Publish(ctx context.Context, event *domain.TeamEvent) bool {
	b.mu.RLock()
	listeners := make([]Listener, len(b.listeners))
	copy(listeners, b.listeners)
	b.mu.RUnlock()

	for i, l := range listeners {
		l.HandleTeamEvent(ctx, event)
		if event.Cancelled() {
			if b.logger != nil {
				b.logger.Info("team event cancelled",
					"reason", event.Reason,
					"island_id", event.IslandID,
					"involved_player", event.InvolvedPlayer,
					"listener", i,
				)
			}
			return false
		}
	}
	return true
}
