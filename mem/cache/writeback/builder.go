package writeback

import (
	"log"

	"github.com/go-logr/logr"

	"github.com/sarchlab/dyncache/mem/mem"
	"github.com/sarchlab/dyncache/sim"
)

// A Builder can build writeback caches
type Builder struct {
	engine        sim.Engine
	freq          sim.Freq
	storage       *mem.Storage
	flushListener mem.FlushListener
	logger        logr.Logger

	log2BlockSize uint64
	byteSize      uint64
	hitLatency    int
	missLatency   int
	flushLatency  int
	maxInflight   int
}

// MakeBuilder creates a new Builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		freq:          1 * sim.GHz,
		logger:        logr.Discard(),
		log2BlockSize: 6,
		byteSize:      512 * mem.KB,
		hitLatency:    4,
		missLatency:   100,
		flushLatency:  10,
		maxInflight:   16,
	}
}

// WithEngine sets the engine to be used by the caches.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithFreq sets the frequency to be used by the caches.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithStorage sets the storage that the cache fetches from and writes back
// to.
func (b Builder) WithStorage(storage *mem.Storage) Builder {
	b.storage = storage
	return b
}

// WithFlushListener sets who is told when a flush completes.
func (b Builder) WithFlushListener(l mem.FlushListener) Builder {
	b.flushListener = l
	return b
}

// WithLogger sets the logger.
func (b Builder) WithLogger(logger logr.Logger) Builder {
	b.logger = logger
	return b
}

// WithLog2BlockSize sets the number of bytes in a cache line as a power of
// 2.
func (b Builder) WithLog2BlockSize(n uint64) Builder {
	b.log2BlockSize = n
	return b
}

// WithByteSize sets the capacity of the cache unit.
func (b Builder) WithByteSize(byteSize uint64) Builder {
	b.byteSize = byteSize
	return b
}

// WithHitLatency sets the number of cycles a hit takes.
func (b Builder) WithHitLatency(n int) Builder {
	b.hitLatency = n
	return b
}

// WithMissLatency sets the number of cycles a miss takes, including the
// fetch from the backing storage.
func (b Builder) WithMissLatency(n int) Builder {
	b.missLatency = n
	return b
}

// WithFlushLatency sets the number of cycles it takes to write back one
// dirty block during a flush.
func (b Builder) WithFlushLatency(n int) Builder {
	b.flushLatency = n
	return b
}

// WithMaxInflight sets how many accesses can be served at the same time.
func (b Builder) WithMaxInflight(n int) Builder {
	b.maxInflight = n
	return b
}

// Build creates a usable writeback cache.
func (b Builder) Build(name string) *Comp {
	if b.storage == nil {
		log.Panicf("%s: backing storage not set", name)
	}

	blockSize := uint64(1) << b.log2BlockSize
	if b.byteSize < blockSize || b.byteSize%blockSize != 0 {
		log.Panicf("%s: byte size %d is not a multiple of the block size %d",
			name, b.byteSize, blockSize)
	}

	if b.maxInflight <= 0 {
		log.Panicf("%s: max inflight must be positive", name)
	}

	c := &Comp{
		storage:       b.storage,
		flushListener: b.flushListener,
		log:           b.logger.WithName(name),
		hitLatency:    b.hitLatency,
		missLatency:   b.missLatency,
		flushLatency:  b.flushLatency,
		maxInflight:   b.maxInflight,
	}

	c.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, c)
	c.directory = newDirectory(int(b.byteSize/blockSize), b.log2BlockSize)
	c.flusher = &flusher{cache: c}

	c.topPort = sim.NewPort(c, sim.UpstreamFacing,
		sim.BuildName(name, "TopPort"))
	c.AddPort("Top", c.topPort)

	return c
}
