// Package memaccessagent provides a component that issues random reads and
// writes and checks that every read returns the value last written.
package memaccessagent

import (
	"encoding/binary"
	"log"
	"math/rand"
	"reflect"

	"github.com/go-logr/logr"

	"github.com/sarchlab/dyncache/mem/mem"
	"github.com/sarchlab/dyncache/sim"
)

type pendingRead struct {
	req      *mem.ReadReq
	expected uint32
	known    bool
}

// A MemAccessAgent is a Component that can help testing the cache and the the
// memory controllers by generating a large number of read and write requests.
//
// The agent also stands in for the processor that retires instructions: every
// access it gets accepted counts as InstsPerAccess instructions.
type MemAccessAgent struct {
	*sim.TickingComponent

	memPort sim.Port
	log     logr.Logger
	rand    *rand.Rand

	MaxAddress     uint64
	InstsPerAccess uint64
	MaxOutstanding int

	WriteLeft       int
	ReadLeft        int
	KnownMemValue   map[uint64]uint32
	PendingReadReq  map[string]pendingRead
	PendingWriteReq map[string]*mem.WriteReq

	refusedReq     sim.Msg
	refusedRead    pendingRead
	waitingOnRetry bool
	retryInSend    bool

	numInsts      uint64
	NumReads      uint64
	NumWrites     uint64
	NumRefused    uint64
	NumStaleReads uint64
}

// MemPort returns the port that sends requests.
func (a *MemAccessAgent) MemPort() sim.Port {
	return a.memPort
}

// NumSimulatedInsts returns the number of instructions retired so far.
func (a *MemAccessAgent) NumSimulatedInsts() uint64 {
	return a.numInsts
}

// AllDone tells if every access has been issued and answered.
func (a *MemAccessAgent) AllDone() bool {
	return a.ReadLeft == 0 && a.WriteLeft == 0 &&
		a.refusedReq == nil &&
		len(a.PendingReadReq) == 0 && len(a.PendingWriteReq) == 0
}

// Tick updates the states of the agent and issues new read and write requests.
func (a *MemAccessAgent) Tick() bool {
	if a.waitingOnRetry {
		return false
	}

	if a.refusedReq != nil {
		return a.resend()
	}

	if a.ReadLeft == 0 && a.WriteLeft == 0 {
		return false
	}

	if len(a.PendingReadReq)+len(a.PendingWriteReq) >= a.MaxOutstanding {
		return false
	}

	if a.shouldRead() {
		return a.doRead()
	}

	return a.doWrite()
}

// RecvMsg processes the responses.
func (a *MemAccessAgent) RecvMsg(_ sim.Port, msg sim.Msg) bool {
	switch msg := msg.(type) {
	case *mem.WriteDoneRsp:
		delete(a.PendingWriteReq, msg.RespondTo)
	case *mem.DataReadyRsp:
		a.checkReadResult(msg)
	default:
		log.Panicf("cannot process message of type %s", reflect.TypeOf(msg))
	}

	a.TickLater()

	return true
}

// RecvRetry resends the refused request at the next cycle. The retry may
// arrive while the refused Send is still on the stack.
func (a *MemAccessAgent) RecvRetry(_ sim.Port) {
	a.retryInSend = true
	a.waitingOnRetry = false
	a.TickLater()
}

func (a *MemAccessAgent) checkReadResult(rsp *mem.DataReadyRsp) {
	read, ok := a.PendingReadReq[rsp.RespondTo]
	if !ok {
		log.Panicf("%s: response to unknown read %s", a.Name(), rsp.RespondTo)
	}

	delete(a.PendingReadReq, rsp.RespondTo)

	if !read.known {
		return
	}

	got := binary.LittleEndian.Uint32(rsp.Data)
	if got != read.expected {
		a.NumStaleReads++
		a.log.Info("stale read",
			"addr", read.req.Address,
			"expected", read.expected,
			"got", got)
	}
}

func (a *MemAccessAgent) shouldRead() bool {
	if len(a.KnownMemValue) == 0 {
		return false
	}

	if a.ReadLeft == 0 {
		return false
	}

	if a.WriteLeft == 0 {
		return true
	}

	return a.rand.Float64() > 0.5
}

func (a *MemAccessAgent) doRead() bool {
	address := a.randomReadAddress()
	if a.isAddressInPendingReq(address) {
		return false
	}

	readReq := mem.ReadReqBuilder{}.
		WithAddress(address).
		WithByteSize(4).
		Build()
	value, known := a.KnownMemValue[address]
	read := pendingRead{req: readReq, expected: value, known: known}

	if !a.send(readReq) {
		a.refuse(readReq)
		a.refusedRead = read

		return false
	}

	a.readAccepted(read)

	return true
}

func (a *MemAccessAgent) readAccepted(read pendingRead) {
	a.PendingReadReq[read.req.ID] = read
	a.ReadLeft--
	a.NumReads++
	a.numInsts += a.InstsPerAccess
}

func (a *MemAccessAgent) randomReadAddress() uint64 {
	for {
		addr := a.randomAddress()
		if _, written := a.KnownMemValue[addr]; written {
			return addr
		}
	}
}

func (a *MemAccessAgent) randomAddress() uint64 {
	return a.rand.Uint64() % (a.MaxAddress / 4) * 4
}

func (a *MemAccessAgent) isAddressInPendingReq(addr uint64) bool {
	return a.isAddressInPendingWrite(addr) || a.isAddressInPendingRead(addr)
}

func (a *MemAccessAgent) isAddressInPendingWrite(addr uint64) bool {
	for _, write := range a.PendingWriteReq {
		if write.Address == addr {
			return true
		}
	}

	return false
}

func (a *MemAccessAgent) isAddressInPendingRead(addr uint64) bool {
	for _, read := range a.PendingReadReq {
		if read.req.Address == addr {
			return true
		}
	}

	return false
}

func uint32ToBytes(data uint32) []byte {
	bytes := make([]byte, 4)
	binary.LittleEndian.PutUint32(bytes, data)

	return bytes
}

func (a *MemAccessAgent) doWrite() bool {
	address := a.randomAddress()
	if a.isAddressInPendingReq(address) {
		return false
	}

	writeReq := mem.WriteReqBuilder{}.
		WithAddress(address).
		WithData(uint32ToBytes(a.rand.Uint32())).
		Build()

	if !a.send(writeReq) {
		a.refuse(writeReq)
		return false
	}

	a.writeAccepted(writeReq)

	return true
}

func (a *MemAccessAgent) writeAccepted(req *mem.WriteReq) {
	a.PendingWriteReq[req.ID] = req
	a.KnownMemValue[req.Address] = binary.LittleEndian.Uint32(req.Data)
	a.WriteLeft--
	a.NumWrites++
	a.numInsts += a.InstsPerAccess
}

// send offers req to the lower module. On refusal, the agent waits for a
// retry unless one already came during Send.
func (a *MemAccessAgent) send(req sim.Msg) bool {
	a.retryInSend = false

	if a.memPort.Send(req) {
		return true
	}

	a.waitingOnRetry = !a.retryInSend
	a.NumRefused++

	return false
}

// refuse keeps a request that the lower module did not take. No other request
// is sent until it is resent.
func (a *MemAccessAgent) refuse(req sim.Msg) {
	a.refusedReq = req

	a.log.V(1).Info("request refused", "req", req.Meta().ID)
}

func (a *MemAccessAgent) resend() bool {
	req := a.refusedReq
	if !a.send(req) {
		return false
	}

	a.refusedReq = nil

	switch req := req.(type) {
	case *mem.ReadReq:
		a.readAccepted(a.refusedRead)
		a.refusedRead = pendingRead{}
	case *mem.WriteReq:
		a.writeAccepted(req)
	}

	return true
}
