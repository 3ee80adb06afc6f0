package dyncachectrl

import (
	"log"
	"reflect"

	"github.com/go-logr/logr"

	"github.com/sarchlab/dyncache/sim"
)

// Comp is the dynamic cache controller. It is driven entirely by its ports
// and by flush completions, and never schedules events of its own.
type Comp struct {
	*sim.ComponentBase

	topPort   sim.Port
	pathPorts [numPaths]sim.Port

	timeTeller       sim.TimeTeller
	signal           SignalSource
	selector         Selector
	stats            StatsSink
	log              logr.Logger
	accountFlush     bool
	statDumpInterval uint64
	lastStatDump     uint64

	state   ControllerState
	flow    *flowController
	flusher *flushCoordinator
}

// TopPort returns the port that connects to the requester.
func (c *Comp) TopPort() sim.Port {
	return c.topPort
}

// PathPort returns the port that leads to the given path.
func (c *Comp) PathPort(path PathID) sim.Port {
	return c.pathPorts[path]
}

// State returns the arbitration state of the controller.
func (c *Comp) State() ControllerState {
	return c.state
}

// NumFlushes returns how many flushes have completed.
func (c *Comp) NumFlushes() uint64 {
	return c.flusher.numFlushes
}

// IsHoldingRequest tells if a request refused by a path is waiting to be
// resent.
func (c *Comp) IsHoldingRequest() bool {
	return c.flow.isBlocked()
}

// RecvMsg handles requests from the requester and responses from the paths.
func (c *Comp) RecvMsg(port sim.Port, msg sim.Msg) bool {
	if port == c.topPort {
		if sim.IsRsp(msg) {
			log.Panicf("%s: response %s received from the requester",
				c.Name(), reflect.TypeOf(msg))
		}

		return c.handleReq(msg)
	}

	if !sim.IsRsp(msg) {
		log.Panicf("%s: request %s received from %s",
			c.Name(), reflect.TypeOf(msg), port.Name())
	}

	return c.flow.relayRsp(port, msg)
}

// RecvRetry handles the retries from the requester and from the paths.
func (c *Comp) RecvRetry(port sim.Port) {
	if port == c.topPort {
		c.flow.onUpstreamCapacity()
		return
	}

	c.flow.onDownstreamCapacity(port)
}

// NotifyFlushComplete is called by a cache when the flush it was asked for
// has completed.
func (c *Comp) NotifyFlushComplete() {
	rec, ok := c.flusher.complete()
	if !ok {
		return
	}

	c.state.Kind = StateActive

	if c.NumHooks() > 0 {
		c.InvokeHook(sim.HookCtx{Domain: c, Pos: HookPosFlushDone, Item: rec})
	}

	c.flow.retryUpstream()
}

func (c *Comp) handleReq(req sim.Msg) bool {
	if c.state.Kind == StateFlushPending {
		c.log.V(1).Info("flush pending, rejecting request",
			"req", req.Meta().ID)
		return c.flow.reject()
	}

	if c.flow.isBlocked() {
		c.log.V(1).Info("request held, rejecting request",
			"req", req.Meta().ID)
		return c.flow.reject()
	}

	from := c.state.Path
	to := c.selectPath()

	if c.accountFlush && TransitionOf(from, to) == TransitionCachedToDirect {
		c.state = ControllerState{Kind: StateFlushPending, Path: to}

		// The retry flag goes up before the flush is sent, as a cache may
		// report completion from within Send.
		c.flow.reject()
		c.flusher.begin(from, c.pathPorts[from])

		return false
	}

	c.state = ControllerState{Kind: StateActive, Path: to}

	return c.flow.dispatch(req, c.pathPorts[to])
}

func (c *Comp) selectPath() PathID {
	inst := c.signal.NumSimulatedInsts()
	c.checkStatDump(inst)

	from := c.state.Path
	to := c.selector.Select(inst)

	if from != to {
		c.log.Info("switching path", "from", from, "to", to, "inst", inst)
		c.stats.RecordPathSwitch(from, to, inst)

		if c.NumHooks() > 0 {
			c.InvokeHook(sim.HookCtx{
				Domain: c,
				Pos:    HookPosPathSwitch,
				Item:   PathSwitch{From: from, To: to, Inst: inst},
			})
		}
	}

	return to
}

func (c *Comp) checkStatDump(inst uint64) {
	if c.statDumpInterval == 0 {
		return
	}

	if inst <= c.lastStatDump+c.statDumpInterval {
		return
	}

	c.log.Info("dumping stats", "inst", inst)
	c.lastStatDump += c.statDumpInterval

	if c.NumHooks() > 0 {
		c.InvokeHook(sim.HookCtx{Domain: c, Pos: HookPosStatDump, Item: inst})
	}
}
