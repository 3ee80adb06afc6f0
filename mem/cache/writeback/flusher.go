package writeback

import (
	"log"

	"github.com/sarchlab/dyncache/mem/mem"
	"github.com/sarchlab/dyncache/sim"
)

type flusher struct {
	cache *Comp

	processingFlush *mem.FlushReq
}

func (f *flusher) startFlush(req *mem.FlushReq) {
	if f.processingFlush != nil {
		log.Panicf("%s: flush %s received while flushing",
			f.cache.Name(), req.ID)
	}

	f.processingFlush = req
	f.cache.state = cacheStatePreFlushing

	f.cache.log.V(1).Info("flush received", "req", req.ID)
}

// Tick starts writing back once every access in flight has been answered.
func (f *flusher) Tick() bool {
	if f.processingFlush == nil || f.cache.state != cacheStatePreFlushing {
		return false
	}

	if f.cache.numInflight > 0 {
		return false
	}

	dirty := f.cache.directory.dirtyBlocks()
	for _, b := range dirty {
		f.cache.writeBack(b)
	}

	if f.processingFlush.InvalidateAllCachelines {
		f.cache.directory.reset()
	}

	f.cache.state = cacheStateFlushing

	now := f.cache.CurrentTime()
	doneTime := f.cache.Freq.NCyclesLater(
		len(dirty)*f.cache.flushLatency, now)
	f.cache.Engine.Schedule(&flushDoneEvent{
		EventBase: sim.NewEventBase(doneTime, f.cache),
	})

	f.cache.log.V(1).Info("flush writing back",
		"blocks", len(dirty), "done", doneTime)

	return true
}

func (f *flusher) finalize() {
	if f.cache.state != cacheStateFlushing {
		log.Panicf("%s: flush done while not flushing", f.cache.Name())
	}

	f.cache.log.V(1).Info("flush completed", "req", f.processingFlush.ID)

	f.processingFlush = nil
	f.cache.state = cacheStateRunning

	if f.cache.flushListener != nil {
		f.cache.flushListener.NotifyFlushComplete()
	}

	f.cache.TickLater()
}
