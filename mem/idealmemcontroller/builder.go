package idealmemcontroller

import (
	"log"

	"github.com/go-logr/logr"

	"github.com/sarchlab/dyncache/mem/mem"
	"github.com/sarchlab/dyncache/sim"
)

// A Builder can build ideal memory controllers.
type Builder struct {
	latency     int
	maxInflight int
	freq        sim.Freq
	capacity    uint64
	engine      sim.Engine
	storage     *mem.Storage
	logger      logr.Logger
}

// MakeBuilder returns a new Builder
func MakeBuilder() Builder {
	return Builder{
		latency:     100,
		maxInflight: 16,
		freq:        1 * sim.GHz,
		capacity:    4 * mem.GB,
		logger:      logr.Discard(),
	}
}

// WithLatency sets the latency of the memory controller, in cycles.
func (b Builder) WithLatency(latency int) Builder {
	b.latency = latency
	return b
}

// WithMaxInflight sets how many accesses can be served at the same time.
func (b Builder) WithMaxInflight(n int) Builder {
	b.maxInflight = n
	return b
}

// WithFreq sets the frequency of the memory controller
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithNewStorage sets the capacity of the storage to create.
func (b Builder) WithNewStorage(capacity uint64) Builder {
	b.capacity = capacity
	return b
}

// WithStorage sets an existing storage to serve the accesses from.
func (b Builder) WithStorage(storage *mem.Storage) Builder {
	b.storage = storage
	return b
}

// WithEngine sets the engine of the memory controller
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithLogger sets the logger.
func (b Builder) WithLogger(logger logr.Logger) Builder {
	b.logger = logger
	return b
}

// Build builds a new Comp
func (b Builder) Build(name string) *Comp {
	if b.maxInflight <= 0 {
		log.Panicf("%s: max inflight must be positive", name)
	}

	c := &Comp{
		Latency:     b.latency,
		MaxInflight: b.maxInflight,
		log:         b.logger.WithName(name),
	}

	c.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, c)

	if b.storage == nil {
		c.Storage = mem.NewStorage(b.capacity)
	} else {
		c.Storage = b.storage
	}

	c.topPort = sim.NewPort(c, sim.UpstreamFacing,
		sim.BuildName(name, "TopPort"))
	c.AddPort("Top", c.topPort)

	return c
}
