package dyncachectrl

import "github.com/sarchlab/dyncache/sim"

// HookPosPathSwitch marks when the controller routes to a new path. The item
// is a PathSwitch.
var HookPosPathSwitch = &sim.HookPos{Name: "DynCacheCtrl Path Switch"}

// HookPosFlushStart marks when a flush request is sent. The item is a
// FlushRecord without an end time.
var HookPosFlushStart = &sim.HookPos{Name: "DynCacheCtrl Flush Start"}

// HookPosFlushDone marks when a flush completes. The item is a FlushRecord.
var HookPosFlushDone = &sim.HookPos{Name: "DynCacheCtrl Flush Done"}

// HookPosStatDump marks when the instruction count passes a stat dump
// boundary. The item is the instruction count (uint64).
var HookPosStatDump = &sim.HookPos{Name: "DynCacheCtrl Stat Dump"}

// PathSwitch describes a change of the active path.
type PathSwitch struct {
	From, To PathID
	Inst     uint64
}

// FlushRecord describes one flush.
type FlushRecord struct {
	Path       PathID
	Start, End sim.VTime
}

// Duration returns how long the flush took.
func (r FlushRecord) Duration() sim.VTime {
	return r.End - r.Start
}
