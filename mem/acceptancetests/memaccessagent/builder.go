package memaccessagent

import (
	"math/rand"

	"github.com/go-logr/logr"

	"github.com/sarchlab/dyncache/mem/mem"
	"github.com/sarchlab/dyncache/sim"
)

// A Builder can build MemAccessAgents.
type Builder struct {
	engine         sim.Engine
	freq           sim.Freq
	logger         logr.Logger
	seed           int64
	maxAddress     uint64
	writeLeft      int
	readLeft       int
	instsPerAccess uint64
	maxOutstanding int
}

// MakeBuilder returns a Builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		freq:           1 * sim.GHz,
		logger:         logr.Discard(),
		seed:           1,
		maxAddress:     1 * mem.MB,
		writeLeft:      1000,
		readLeft:       1000,
		instsPerAccess: 100,
		maxOutstanding: 8,
	}
}

// WithEngine sets the engine.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithFreq sets the frequency.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithLogger sets the logger.
func (b Builder) WithLogger(logger logr.Logger) Builder {
	b.logger = logger
	return b
}

// WithSeed sets the seed of the random address and data generator.
func (b Builder) WithSeed(seed int64) Builder {
	b.seed = seed
	return b
}

// WithMaxAddress sets the end of the address range to access.
func (b Builder) WithMaxAddress(addr uint64) Builder {
	b.maxAddress = addr
	return b
}

// WithWriteLeft sets the number of writes to issue.
func (b Builder) WithWriteLeft(write int) Builder {
	b.writeLeft = write
	return b
}

// WithReadLeft sets the number of reads to issue.
func (b Builder) WithReadLeft(read int) Builder {
	b.readLeft = read
	return b
}

// WithInstsPerAccess sets how many instructions each accepted access counts
// as.
func (b Builder) WithInstsPerAccess(n uint64) Builder {
	b.instsPerAccess = n
	return b
}

// WithMaxOutstanding sets how many accesses can wait for a response at the
// same time.
func (b Builder) WithMaxOutstanding(n int) Builder {
	b.maxOutstanding = n
	return b
}

// Build creates a new MemAccessAgent.
func (b Builder) Build(name string) *MemAccessAgent {
	agent := &MemAccessAgent{
		log:             b.logger.WithName(name),
		rand:            rand.New(rand.NewSource(b.seed)),
		MaxAddress:      b.maxAddress,
		InstsPerAccess:  b.instsPerAccess,
		MaxOutstanding:  b.maxOutstanding,
		WriteLeft:       b.writeLeft,
		ReadLeft:        b.readLeft,
		KnownMemValue:   make(map[uint64]uint32),
		PendingReadReq:  make(map[string]pendingRead),
		PendingWriteReq: make(map[string]*mem.WriteReq),
	}

	agent.TickingComponent = sim.NewTickingComponent(
		name, b.engine, b.freq, agent)

	agent.memPort = sim.NewPort(agent, sim.DownstreamFacing,
		sim.BuildName(name, "MemPort"))
	agent.AddPort("Mem", agent.memPort)

	return agent
}
