package dyncachectrl

import "github.com/sarchlab/dyncache/sim"

// SignalSource provides the policy signal. The count must never decrease.
type SignalSource interface {
	NumSimulatedInsts() uint64
}

// StatsSink receives the statistics of the controller. Implementations must
// return quickly; a sink that cannot record should drop the record.
type StatsSink interface {
	RecordFlush(path PathID, start, end sim.VTime)
	RecordPathSwitch(from, to PathID, inst uint64)
}

type nopStatsSink struct{}

func (nopStatsSink) RecordFlush(PathID, sim.VTime, sim.VTime) {}

func (nopStatsSink) RecordPathSwitch(PathID, PathID, uint64) {}
