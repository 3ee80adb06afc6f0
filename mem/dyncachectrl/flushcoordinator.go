package dyncachectrl

import (
	"log"

	"github.com/sarchlab/dyncache/mem/mem"
	"github.com/sarchlab/dyncache/sim"
)

// flushCoordinator asks the cache that is being left to write back and
// invalidate its content, and tracks that flush until the cache reports back.
type flushCoordinator struct {
	ctrl *Comp

	pending    bool
	path       PathID
	startTime  sim.VTime
	numFlushes uint64
}

// begin sends a flush request through the port of path. It must only be
// called when no request is held.
func (fc *flushCoordinator) begin(path PathID, port sim.Port) {
	if fc.ctrl.flow.isBlocked() {
		log.Panicf("%s: cannot flush %s while a request is held",
			fc.ctrl.Name(), path)
	}

	if fc.pending {
		log.Panicf("%s: cannot flush %s, flush of %s not completed",
			fc.ctrl.Name(), path, fc.path)
	}

	fc.pending = true
	fc.path = path
	fc.startTime = fc.ctrl.timeTeller.CurrentTime()

	fc.ctrl.log.Info("flushing cache",
		"path", path, "time", fc.startTime)

	if fc.ctrl.NumHooks() > 0 {
		fc.ctrl.InvokeHook(sim.HookCtx{
			Domain: fc.ctrl,
			Pos:    HookPosFlushStart,
			Item:   FlushRecord{Path: path, Start: fc.startTime},
		})
	}

	req := mem.FlushReqBuilder{}.InvalidateAllCacheLines().Build()
	if !port.Send(req) {
		log.Panicf("%s: flush request rejected by %s",
			fc.ctrl.Name(), port.Name())
	}
}

// complete ends the pending flush. It returns false if no flush is pending.
func (fc *flushCoordinator) complete() (FlushRecord, bool) {
	if !fc.pending {
		fc.ctrl.log.Info("ignoring flush completion, no flush pending")
		return FlushRecord{}, false
	}

	rec := FlushRecord{
		Path:  fc.path,
		Start: fc.startTime,
		End:   fc.ctrl.timeTeller.CurrentTime(),
	}

	fc.pending = false
	fc.numFlushes++

	fc.ctrl.log.Info("cache flush completed",
		"path", rec.Path, "ticks", uint64(rec.Duration()))
	fc.ctrl.stats.RecordFlush(rec.Path, rec.Start, rec.End)

	return rec, true
}
