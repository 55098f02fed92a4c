package session

import (
	"encoding/json"

	"go.uber.org/zap"
)

// HandlerFunc processes one inbound event's payload.
type HandlerFunc func(payload json.RawMessage) error

// Router dispatches inbound coordinator events to handlers. Events with no
// registered handler are dropped silently for forward compatibility.
type Router struct {
	handlers map[string]HandlerFunc
	logger   *zap.Logger
}

// NewRouter returns router.
func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		handlers: make(map[string]HandlerFunc),
		logger:   logger,
	}
}

// Register attaches handler to an event name.
func (r *Router) Register(event string, handler HandlerFunc) {
	r.handlers[event] = handler
}

// Dispatch executes the handler for an event. Handler errors are logged and
// never propagate; a bad payload must not take down the loop.
func (r *Router) Dispatch(event string, payload json.RawMessage) {
	handler, ok := r.handlers[event]
	if !ok {
		r.logger.Debug("ignoring unrecognized event", zap.String("event", event))
		return
	}
	if err := handler(payload); err != nil {
		r.logger.Warn("event handler failed", zap.String("event", event), zap.Error(err))
	}
}
