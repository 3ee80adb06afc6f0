package dyncachectrl

import (
	"log"

	"github.com/go-logr/logr"

	"github.com/sarchlab/dyncache/sim"
)

// A Builder can build dynamic cache controllers.
type Builder struct {
	timeTeller       sim.TimeTeller
	signal           SignalSource
	selector         Selector
	stats            StatsSink
	logger           logr.Logger
	accountFlush     bool
	statDumpInterval uint64
}

// MakeBuilder returns a Builder with the default parameters: the direct-only
// policy, flush accounting on and a stat dump every million instructions.
func MakeBuilder() Builder {
	return Builder{
		selector:         DirectOnly(),
		stats:            nopStatsSink{},
		logger:           logr.Discard(),
		accountFlush:     true,
		statDumpInterval: 1_000_000,
	}
}

// WithEngine sets the engine that tells the controller the current time.
func (b Builder) WithEngine(engine sim.TimeTeller) Builder {
	b.timeTeller = engine
	return b
}

// WithSignalSource sets where the instruction count is read from.
func (b Builder) WithSignalSource(signal SignalSource) Builder {
	b.signal = signal
	return b
}

// WithSelector sets the path selection policy.
func (b Builder) WithSelector(selector Selector) Builder {
	b.selector = selector
	return b
}

// WithStatsSink sets where flushes and path switches are reported.
func (b Builder) WithStatsSink(stats StatsSink) Builder {
	b.stats = stats
	return b
}

// WithLogger sets the logger.
func (b Builder) WithLogger(logger logr.Logger) Builder {
	b.logger = logger
	return b
}

// WithAccountFlush sets whether leaving a cached path for the direct path
// flushes the cache.
func (b Builder) WithAccountFlush(accountFlush bool) Builder {
	b.accountFlush = accountFlush
	return b
}

// WithStatDumpInterval sets the number of instructions between stat dumps.
// Zero disables stat dumps.
func (b Builder) WithStatDumpInterval(n uint64) Builder {
	b.statDumpInterval = n
	return b
}

// Build creates a new controller.
func (b Builder) Build(name string) *Comp {
	if b.timeTeller == nil {
		log.Panicf("%s: engine not set", name)
	}

	if b.signal == nil {
		log.Panicf("%s: signal source not set", name)
	}

	if err := b.selector.Validate(); err != nil {
		log.Panicf("%s: %v", name, err)
	}

	c := &Comp{
		ComponentBase:    sim.NewComponentBase(name),
		timeTeller:       b.timeTeller,
		signal:           b.signal,
		selector:         b.selector,
		stats:            b.stats,
		log:              b.logger.WithName(name),
		accountFlush:     b.accountFlush,
		statDumpInterval: b.statDumpInterval,
		state:            ControllerState{Kind: StateIdle, Path: PathDirect},
	}

	c.flow = &flowController{ctrl: c}
	c.flusher = &flushCoordinator{ctrl: c}

	c.topPort = sim.NewPort(c, sim.UpstreamFacing,
		sim.BuildName(name, "TopPort"))
	c.AddPort("Top", c.topPort)

	portNames := [numPaths]string{
		PathDirect:       "Direct",
		PathCachedSmall:  "CacheSmall",
		PathCachedMedium: "CacheMedium",
		PathCachedLarge:  "CacheLarge",
	}

	for p, n := range portNames {
		port := sim.NewPort(c, sim.DownstreamFacing,
			sim.BuildName(name, n+"Port"))
		c.pathPorts[p] = port
		c.AddPort(n, port)
	}

	return c
}
