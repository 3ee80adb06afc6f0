package platform

// Config describes a simulated system: one traffic agent, the dynamic cache
// controller, an ideal memory and three write-back caches that share the
// memory's storage.
type Config struct {
	Seed    int64  `mapstructure:"seed"`
	FreqMHz uint64 `mapstructure:"freq-mhz" validate:"gt=0"`

	Agent      AgentConfig      `mapstructure:"agent"`
	Controller ControllerConfig `mapstructure:"controller"`
	Memory     MemoryConfig     `mapstructure:"memory"`
	Caches     CachesConfig     `mapstructure:"caches"`
}

// AgentConfig configures the traffic agent.
type AgentConfig struct {
	NumReads       int    `mapstructure:"num-reads" validate:"gte=0"`
	NumWrites      int    `mapstructure:"num-writes" validate:"gte=0"`
	MaxAddress     uint64 `mapstructure:"max-address" validate:"gte=4"`
	InstsPerAccess uint64 `mapstructure:"insts-per-access" validate:"gt=0"`
	MaxOutstanding int    `mapstructure:"max-outstanding" validate:"gt=0"`
}

// ControllerConfig configures the dynamic cache controller.
type ControllerConfig struct {
	AccountFlush     bool          `mapstructure:"account-flush"`
	StatDumpInterval uint64        `mapstructure:"stat-dump-interval"`
	Phases           []PhaseConfig `mapstructure:"phases" validate:"dive"`
}

// PhaseConfig routes requests to Path from StartInst instructions on.
type PhaseConfig struct {
	StartInst uint64 `mapstructure:"start-inst"`
	Path      string `mapstructure:"path" validate:"required,oneof=direct cached-small cached-medium cached-large"`
}

// MemoryConfig configures the ideal memory behind the direct path.
type MemoryConfig struct {
	Latency     int `mapstructure:"latency" validate:"gte=0"`
	MaxInflight int `mapstructure:"max-inflight" validate:"gt=0"`
}

// CachesConfig configures the three cached paths.
type CachesConfig struct {
	Small  CacheConfig `mapstructure:"small"`
	Medium CacheConfig `mapstructure:"medium"`
	Large  CacheConfig `mapstructure:"large"`
}

// CacheConfig configures one write-back cache.
type CacheConfig struct {
	ByteSize      uint64 `mapstructure:"byte-size" validate:"gt=0"`
	Log2BlockSize uint64 `mapstructure:"log2-block-size" validate:"gte=2,lte=12"`
	HitLatency    int    `mapstructure:"hit-latency" validate:"gte=0"`
	MissLatency   int    `mapstructure:"miss-latency" validate:"gte=0"`
	FlushLatency  int    `mapstructure:"flush-latency" validate:"gte=0"`
	MaxInflight   int    `mapstructure:"max-inflight" validate:"gt=0"`
}

// DefaultConfig returns a system that starts on the direct path, moves to the
// small cache and comes back to the direct path, flushing the cache.
func DefaultConfig() Config {
	return Config{
		Seed:    1,
		FreqMHz: 1000,
		Agent: AgentConfig{
			NumReads:       20000,
			NumWrites:      20000,
			MaxAddress:     64 * 1024,
			InstsPerAccess: 100,
			MaxOutstanding: 8,
		},
		Controller: ControllerConfig{
			AccountFlush:     true,
			StatDumpInterval: 1_000_000,
			Phases: []PhaseConfig{
				{StartInst: 0, Path: "direct"},
				{StartInst: 1_000_000, Path: "cached-small"},
				{StartInst: 3_000_000, Path: "direct"},
			},
		},
		Memory: MemoryConfig{
			Latency:     100,
			MaxInflight: 16,
		},
		Caches: CachesConfig{
			Small:  defaultCache(32 * 1024),
			Medium: defaultCache(256 * 1024),
			Large:  defaultCache(2 * 1024 * 1024),
		},
	}
}

func defaultCache(byteSize uint64) CacheConfig {
	return CacheConfig{
		ByteSize:      byteSize,
		Log2BlockSize: 6,
		HitLatency:    4,
		MissLatency:   100,
		FlushLatency:  10,
		MaxInflight:   16,
	}
}
