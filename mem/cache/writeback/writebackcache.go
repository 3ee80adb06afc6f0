package writeback

import (
	"log"
	"reflect"

	"github.com/go-logr/logr"

	"github.com/sarchlab/dyncache/mem/mem"
	"github.com/sarchlab/dyncache/sim"
)

type cacheState int

const (
	cacheStateRunning cacheState = iota
	cacheStatePreFlushing
	cacheStateFlushing
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

type flushDoneEvent struct {
	*sim.EventBase
}

// Comp in the writeback package is a cache that performs the write-back
// policy. It keeps its own copy of the blocks it holds and writes dirty blocks
// to the backing storage only when they are evicted or flushed.
type Comp struct {
	*sim.TickingComponent

	topPort       sim.Port
	storage       *mem.Storage
	directory     *directory
	flusher       *flusher
	flushListener mem.FlushListener
	log           logr.Logger

	hitLatency   int
	missLatency  int
	flushLatency int
	maxInflight  int

	state       cacheState
	numInflight int
	readyRsps   []sim.Msg
	owesRetry   bool

	NumHits       uint64
	NumMisses     uint64
	NumWriteBacks uint64
}

// TopPort returns the port that receives requests.
func (c *Comp) TopPort() sim.Port {
	return c.topPort
}

// SetFlushListener sets who is told when a flush completes.
func (c *Comp) SetFlushListener(l mem.FlushListener) {
	c.flushListener = l
}

// Handle defines how the Comp handles event
func (c *Comp) Handle(e sim.Event) error {
	switch e := e.(type) {
	case *respondEvent:
		c.readyRsps = append(c.readyRsps, e.rsp)
		c.TickNow()
	case *flushDoneEvent:
		c.flusher.finalize()
	case sim.TickEvent:
		return c.TickingComponent.Handle(e)
	default:
		log.Panicf("cannot handle event of %s", reflect.TypeOf(e))
	}

	return nil
}

// RecvMsg accepts accesses and flush requests.
func (c *Comp) RecvMsg(_ sim.Port, msg sim.Msg) bool {
	if req, ok := msg.(*mem.FlushReq); ok {
		c.flusher.startFlush(req)
		c.TickNow()

		return true
	}

	req, ok := msg.(mem.AccessReq)
	if !ok {
		log.Panicf("cannot handle request of type %s", reflect.TypeOf(msg))
	}

	if c.state != cacheStateRunning || c.numInflight >= c.maxInflight {
		c.owesRetry = true
		return false
	}

	rsp, latency := c.access(req)
	c.numInflight++

	now := c.CurrentTime()
	c.Engine.Schedule(
		newRespondEvent(c.Freq.NCyclesLater(latency, now), c, rsp))

	return true
}

// RecvRetry is called when the requester can take responses again.
func (c *Comp) RecvRetry(_ sim.Port) {
	c.TickLater()
}

func (c *Comp) access(req mem.AccessReq) (sim.Msg, int) {
	addr := req.GetAddress()
	blockAddr := c.directory.alignedAddr(addr)
	offset := addr - blockAddr

	if offset+req.GetByteSize() > c.directory.blockSize() {
		log.Panicf("%s: access to 0x%x of %d bytes crosses a block boundary",
			c.Name(), addr, req.GetByteSize())
	}

	b, hit := c.directory.lookup(addr)
	latency := c.hitLatency

	if hit {
		c.NumHits++
	} else {
		c.NumMisses++
		latency = c.missLatency

		c.evict(b)
		c.fetch(b, blockAddr)
	}

	switch req := req.(type) {
	case *mem.ReadReq:
		data := make([]byte, req.AccessByteSize)
		copy(data, b.data[offset:])

		return mem.DataReadyRspBuilder{}.
			WithRspTo(req.ID).
			WithData(data).
			Build(), latency
	case *mem.WriteReq:
		copy(b.data[offset:], req.Data)
		b.isDirty = true

		return mem.WriteDoneRspBuilder{}.
			WithRspTo(req.ID).
			Build(), latency
	default:
		log.Panicf("cannot handle request of type %s", reflect.TypeOf(req))
	}

	return nil, 0
}

func (c *Comp) evict(b *block) {
	if b.isValid && b.isDirty {
		c.writeBack(b)
	}

	b.isValid = false
}

func (c *Comp) writeBack(b *block) {
	err := c.storage.Write(b.tag, b.data)
	if err != nil {
		log.Panic(err)
	}

	b.isDirty = false
	c.NumWriteBacks++
}

func (c *Comp) fetch(b *block, blockAddr uint64) {
	data, err := c.storage.Read(blockAddr, c.directory.blockSize())
	if err != nil {
		log.Panic(err)
	}

	copy(b.data, data)
	b.tag = blockAddr
	b.isValid = true
	b.isDirty = false
}

// Tick sends the responses that are ready and advances a pending flush.
func (c *Comp) Tick() bool {
	madeProgress := c.sendResponses()

	madeProgress = c.flusher.Tick() || madeProgress

	if c.owesRetry &&
		c.state == cacheStateRunning &&
		c.numInflight < c.maxInflight {
		c.owesRetry = false
		c.topPort.SendRetry()
	}

	return madeProgress
}

func (c *Comp) sendResponses() bool {
	madeProgress := false

	for len(c.readyRsps) > 0 {
		if !c.topPort.Send(c.readyRsps[0]) {
			break
		}

		c.readyRsps = c.readyRsps[1:]
		c.numInflight--
		madeProgress = true
	}

	return madeProgress
}
