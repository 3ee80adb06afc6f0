package idealmemcontroller

import (
	"log"
	"reflect"

	"github.com/go-logr/logr"

	"github.com/sarchlab/dyncache/mem/mem"
	"github.com/sarchlab/dyncache/sim"
)

type respondEvent struct {
	*sim.EventBase
	rsp sim.Msg
}

func newRespondEvent(
	time sim.VTime,
	handler sim.Handler,
	rsp sim.Msg,
) *respondEvent {
	return &respondEvent{sim.NewEventBase(time, handler), rsp}
}

// A Comp is an ideal memory controller. Every access completes a fixed number
// of cycles after it is accepted. At most MaxInflight accesses are served at
// the same time; more are refused and told to retry when one completes.
type Comp struct {
	*sim.TickingComponent

	topPort     sim.Port
	Storage     *mem.Storage
	Latency     int
	MaxInflight int
	log         logr.Logger

	numInflight int
	readyRsps   []sim.Msg
	owesRetry   bool

	NumReads  uint64
	NumWrites uint64
}

// TopPort returns the port that receives requests.
func (c *Comp) TopPort() sim.Port {
	return c.topPort
}

// Handle defines how the Comp handles event
func (c *Comp) Handle(e sim.Event) error {
	switch e := e.(type) {
	case *respondEvent:
		c.readyRsps = append(c.readyRsps, e.rsp)
		c.TickNow()
	case sim.TickEvent:
		return c.TickingComponent.Handle(e)
	default:
		log.Panicf("cannot handle event of %s", reflect.TypeOf(e))
	}

	return nil
}

// RecvMsg serves read and write requests.
func (c *Comp) RecvMsg(_ sim.Port, msg sim.Msg) bool {
	if c.numInflight >= c.MaxInflight {
		c.owesRetry = true
		return false
	}

	var rsp sim.Msg

	switch req := msg.(type) {
	case *mem.ReadReq:
		rsp = c.read(req)
	case *mem.WriteReq:
		rsp = c.write(req)
	default:
		log.Panicf("cannot handle request of type %s", reflect.TypeOf(msg))
	}

	c.numInflight++

	now := c.CurrentTime()
	c.Engine.Schedule(
		newRespondEvent(c.Freq.NCyclesLater(c.Latency, now), c, rsp))

	return true
}

// RecvRetry is called when the requester can take responses again.
func (c *Comp) RecvRetry(_ sim.Port) {
	c.TickLater()
}

func (c *Comp) read(req *mem.ReadReq) sim.Msg {
	data, err := c.Storage.Read(req.Address, req.AccessByteSize)
	if err != nil {
		log.Panic(err)
	}

	c.NumReads++
	c.log.V(1).Info("read", "addr", req.Address, "req", req.ID)

	return mem.DataReadyRspBuilder{}.
		WithRspTo(req.ID).
		WithData(data).
		Build()
}

func (c *Comp) write(req *mem.WriteReq) sim.Msg {
	err := c.Storage.Write(req.Address, req.Data)
	if err != nil {
		log.Panic(err)
	}

	c.NumWrites++
	c.log.V(1).Info("write", "addr", req.Address, "req", req.ID)

	return mem.WriteDoneRspBuilder{}.
		WithRspTo(req.ID).
		Build()
}

// Tick sends the responses that are ready, in order.
func (c *Comp) Tick() bool {
	madeProgress := false

	for len(c.readyRsps) > 0 {
		if !c.topPort.Send(c.readyRsps[0]) {
			break
		}

		c.readyRsps = c.readyRsps[1:]
		c.numInflight--
		madeProgress = true
	}

	if c.owesRetry && c.numInflight < c.MaxInflight {
		c.owesRetry = false
		c.topPort.SendRetry()
	}

	return madeProgress
}
