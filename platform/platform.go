// Package platform assembles a complete simulated system around the dynamic
// cache controller.
package platform

import (
	"errors"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/sarchlab/dyncache/mem/acceptancetests/memaccessagent"
	"github.com/sarchlab/dyncache/mem/cache/writeback"
	"github.com/sarchlab/dyncache/mem/dyncachectrl"
	"github.com/sarchlab/dyncache/mem/idealmemcontroller"
	"github.com/sarchlab/dyncache/mem/mem"
	"github.com/sarchlab/dyncache/sim"
)

// ErrUnfinished is returned by Run when the simulation stops before every
// access is answered.
var ErrUnfinished = errors.New("simulation ended with accesses in flight")

// A Platform is a simulated system that is ready to run.
type Platform struct {
	Engine     *sim.SerialEngine
	Simulation *sim.Simulation
	Storage    *mem.Storage
	Agent      *memaccessagent.MemAccessAgent
	Ctrl       *dyncachectrl.Comp
	Memory     *idealmemcontroller.Comp
	Caches     map[dyncachectrl.PathID]*writeback.Comp
}

// Selector converts the configured phases to a path selector.
func (c Config) Selector() (dyncachectrl.Selector, error) {
	phases := make([]dyncachectrl.Phase, 0, len(c.Controller.Phases))

	for i, p := range c.Controller.Phases {
		path, err := dyncachectrl.ParsePathID(p.Path)
		if err != nil {
			return dyncachectrl.Selector{}, fmt.Errorf("phase %d: %w", i, err)
		}

		phases = append(phases, dyncachectrl.Phase{
			StartInst: p.StartInst,
			Path:      path,
		})
	}

	s := dyncachectrl.NewSelector(phases...)
	if err := s.Validate(); err != nil {
		return dyncachectrl.Selector{}, err
	}

	return s, nil
}

// A Builder can build platforms.
type Builder struct {
	config Config
	stats  dyncachectrl.StatsSink
	logger logr.Logger
	hooks  []sim.Hook
}

// MakeBuilder returns a Builder for the default configuration.
func MakeBuilder() Builder {
	return Builder{
		config: DefaultConfig(),
		logger: logr.Discard(),
	}
}

// WithConfig sets the configuration of the system.
func (b Builder) WithConfig(config Config) Builder {
	b.config = config
	return b
}

// WithStatsSink sets where the controller reports flushes and path switches.
func (b Builder) WithStatsSink(stats dyncachectrl.StatsSink) Builder {
	b.stats = stats
	return b
}

// WithLogger sets the logger of every component.
func (b Builder) WithLogger(logger logr.Logger) Builder {
	b.logger = logger
	return b
}

// WithCtrlHook registers a hook on the controller.
func (b Builder) WithCtrlHook(hook sim.Hook) Builder {
	b.hooks = append(b.hooks, hook)
	return b
}

// Build creates and connects all the components.
func (b Builder) Build() (*Platform, error) {
	cfg := b.config

	selector, err := cfg.Selector()
	if err != nil {
		return nil, err
	}

	freq := sim.Freq(cfg.FreqMHz) * sim.MHz
	engine := sim.NewSerialEngine()
	storage := mem.NewStorage(storageCapacity(cfg.Agent.MaxAddress))

	p := &Platform{
		Engine:     engine,
		Simulation: sim.NewSimulation(),
		Storage:    storage,
		Caches:     make(map[dyncachectrl.PathID]*writeback.Comp),
	}

	p.Agent = memaccessagent.MakeBuilder().
		WithEngine(engine).
		WithFreq(freq).
		WithLogger(b.logger).
		WithSeed(cfg.Seed).
		WithMaxAddress(cfg.Agent.MaxAddress).
		WithReadLeft(cfg.Agent.NumReads).
		WithWriteLeft(cfg.Agent.NumWrites).
		WithInstsPerAccess(cfg.Agent.InstsPerAccess).
		WithMaxOutstanding(cfg.Agent.MaxOutstanding).
		Build("Agent")

	ctrlBuilder := dyncachectrl.MakeBuilder().
		WithEngine(engine).
		WithSignalSource(p.Agent).
		WithSelector(selector).
		WithLogger(b.logger).
		WithAccountFlush(cfg.Controller.AccountFlush).
		WithStatDumpInterval(cfg.Controller.StatDumpInterval)
	if b.stats != nil {
		ctrlBuilder = ctrlBuilder.WithStatsSink(b.stats)
	}

	p.Ctrl = ctrlBuilder.Build("DynCacheCtrl")

	for _, h := range b.hooks {
		p.Ctrl.AcceptHook(h)
	}

	p.Memory = idealmemcontroller.MakeBuilder().
		WithEngine(engine).
		WithFreq(freq).
		WithLogger(b.logger).
		WithStorage(storage).
		WithLatency(cfg.Memory.Latency).
		WithMaxInflight(cfg.Memory.MaxInflight).
		Build("Memory")

	sim.Connect(p.Agent.MemPort(), p.Ctrl.TopPort())
	sim.Connect(p.Ctrl.PathPort(dyncachectrl.PathDirect), p.Memory.TopPort())

	caches := map[dyncachectrl.PathID]CacheConfig{
		dyncachectrl.PathCachedSmall:  cfg.Caches.Small,
		dyncachectrl.PathCachedMedium: cfg.Caches.Medium,
		dyncachectrl.PathCachedLarge:  cfg.Caches.Large,
	}

	for _, path := range dyncachectrl.AllPaths() {
		cc, ok := caches[path]
		if !ok {
			continue
		}

		c := writeback.MakeBuilder().
			WithEngine(engine).
			WithFreq(freq).
			WithLogger(b.logger).
			WithStorage(storage).
			WithFlushListener(p.Ctrl).
			WithByteSize(cc.ByteSize).
			WithLog2BlockSize(cc.Log2BlockSize).
			WithHitLatency(cc.HitLatency).
			WithMissLatency(cc.MissLatency).
			WithFlushLatency(cc.FlushLatency).
			WithMaxInflight(cc.MaxInflight).
			Build(cacheName(path))

		sim.Connect(p.Ctrl.PathPort(path), c.TopPort())
		p.Caches[path] = c
	}

	p.register()
	b.attachTraceLoggers(p)

	return p, nil
}

func (p *Platform) register() {
	p.Simulation.RegisterComponent(p.Agent)
	p.Simulation.RegisterComponent(p.Ctrl)
	p.Simulation.RegisterComponent(p.Memory)

	for _, path := range dyncachectrl.AllPaths() {
		if c, ok := p.Caches[path]; ok {
			p.Simulation.RegisterComponent(c)
		}
	}
}

// attachTraceLoggers logs every event and port activity when the logger is
// at verbosity 2 or above.
func (b Builder) attachTraceLoggers(p *Platform) {
	if !b.logger.V(2).Enabled() {
		return
	}

	p.Engine.AcceptHook(sim.NewEventLogger(b.logger))
	p.Simulation.AcceptPortHook(sim.NewPortMsgLogger(b.logger, p.Engine))
}

func cacheName(path dyncachectrl.PathID) string {
	switch path {
	case dyncachectrl.PathCachedSmall:
		return "SmallCache"
	case dyncachectrl.PathCachedMedium:
		return "MediumCache"
	default:
		return "LargeCache"
	}
}

// storageCapacity rounds the address range up to whole 4 KB units.
func storageCapacity(maxAddress uint64) uint64 {
	const unit = 4 * mem.KB
	return (maxAddress + unit - 1) / unit * unit
}

// Run runs the simulation until every access is answered.
func (p *Platform) Run() error {
	p.Agent.TickLater()

	if err := p.Engine.Run(); err != nil {
		return fmt.Errorf("running simulation: %w", err)
	}

	p.Engine.Finished()

	if !p.Agent.AllDone() {
		return fmt.Errorf("%w: %d reads and %d writes left",
			ErrUnfinished, p.Agent.ReadLeft, p.Agent.WriteLeft)
	}

	return nil
}
