package sim

import (
	"reflect"

	"github.com/go-logr/logr"
)

// PortMsgLogger is a hook for logging messages as they go across a Port.
type PortMsgLogger struct {
	logger     logr.Logger
	timeTeller TimeTeller
}

// NewPortMsgLogger returns a new PortMsgLogger which writes into the logger.
// Entries are logged at verbosity 2.
func NewPortMsgLogger(logger logr.Logger, timeTeller TimeTeller) *PortMsgLogger {
	return &PortMsgLogger{
		logger:     logger,
		timeTeller: timeTeller,
	}
}

// Func writes the message information into the logger.
func (h *PortMsgLogger) Func(ctx HookCtx) {
	port, ok := ctx.Domain.(Port)
	if !ok {
		return
	}

	kv := []any{
		"time", h.timeTeller.CurrentTime(),
		"port", port.Name(),
		"pos", ctx.Pos.Name,
	}

	if msg, ok := ctx.Item.(Msg); ok {
		kv = append(kv, "type", reflect.TypeOf(msg).String(), "id", msg.Meta().ID)
	}

	h.logger.V(2).Info("port activity", kv...)
}
