package dispatcher

import (
	"context"

	"github.com/garyjia/ehs-tracker/internal/domain/event"
)

// Handler processes domain events
type Handler func(ctx context.Context, evt *event.Event) error

// HandlerInfo is a registered handler with its name
type HandlerInfo struct {
	Name      string
	EventType event.Type
	Handler   Handler
}
