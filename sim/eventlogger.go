package sim

import (
	"reflect"

	"github.com/go-logr/logr"
)

// EventLogger is a hook that logs every event before it is handled. Entries
// are logged at verbosity 2.
type EventLogger struct {
	logger logr.Logger
}

// NewEventLogger returns a new EventLogger which writes into the logger.
func NewEventLogger(logger logr.Logger) *EventLogger {
	return &EventLogger{logger: logger}
}

// Func writes the event information into the logger.
func (h *EventLogger) Func(ctx HookCtx) {
	if ctx.Pos != HookPosBeforeEvent {
		return
	}

	evt, ok := ctx.Item.(Event)
	if !ok {
		return
	}

	kv := []any{
		"time", evt.Time(),
		"type", reflect.TypeOf(evt).String(),
	}

	if named, ok := evt.Handler().(Named); ok {
		kv = append(kv, "handler", named.Name())
	}

	h.logger.V(2).Info("event", kv...)
}
