package stats

import (
	"github.com/sarchlab/dyncache/datarecording"
	"github.com/sarchlab/dyncache/mem/dyncachectrl"
	"github.com/sarchlab/dyncache/sim"
)

// Table names used by RecorderSink.
const (
	FlushTable      = "dyncache_flush"
	PathSwitchTable = "dyncache_path_switch"
)

// FlushEntry is one row of the flush table.
type FlushEntry struct {
	Path      string
	StartTime float64
	EndTime   float64
	Ticks     uint64
}

// PathSwitchEntry is one row of the path switch table.
type PathSwitchEntry struct {
	From string
	To   string
	Inst uint64
}

// RecorderSink writes every flush and path switch as a row.
type RecorderSink struct {
	recorder datarecording.DataRecorder
}

// NewRecorderSink creates the tables and returns a sink that fills them.
func NewRecorderSink(recorder datarecording.DataRecorder) *RecorderSink {
	recorder.CreateTable(FlushTable, FlushEntry{})
	recorder.CreateTable(PathSwitchTable, PathSwitchEntry{})

	return &RecorderSink{recorder: recorder}
}

// RecordFlush inserts a flush row.
func (s *RecorderSink) RecordFlush(
	path dyncachectrl.PathID,
	start, end sim.VTime,
) {
	s.recorder.InsertData(FlushTable, FlushEntry{
		Path:      path.String(),
		StartTime: start.InSec(),
		EndTime:   end.InSec(),
		Ticks:     uint64(end - start),
	})
}

// RecordPathSwitch inserts a path switch row.
func (s *RecorderSink) RecordPathSwitch(
	from, to dyncachectrl.PathID,
	inst uint64,
) {
	s.recorder.InsertData(PathSwitchTable, PathSwitchEntry{
		From: from.String(),
		To:   to.String(),
		Inst: inst,
	})
}
