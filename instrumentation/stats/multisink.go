package stats

import (
	"github.com/sarchlab/dyncache/mem/dyncachectrl"
	"github.com/sarchlab/dyncache/sim"
)

// MultiSink forwards every record to all of its sinks, in order.
type MultiSink []dyncachectrl.StatsSink

// RecordFlush forwards a flush.
func (m MultiSink) RecordFlush(path dyncachectrl.PathID, start, end sim.VTime) {
	for _, s := range m {
		s.RecordFlush(path, start, end)
	}
}

// RecordPathSwitch forwards a path switch.
func (m MultiSink) RecordPathSwitch(from, to dyncachectrl.PathID, inst uint64) {
	for _, s := range m {
		s.RecordPathSwitch(from, to, inst)
	}
}
