// Command dyncachepaths runs random traffic through the dynamic cache
// controller, switching between the memory and the caches, and fails if any
// read returns a stale value.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/sarchlab/dyncache/platform"
)

var seedFlag = flag.Int64("seed", 0, "Random Seed")
var numAccessFlag = flag.Int("num-access", 100000,
	"Number of accesses to generate")
var maxAddressFlag = flag.Uint64("max-address", 65536, "Address range to use")
var noFlushFlag = flag.Bool("no-flush", false,
	"Do not flush the cache when leaving it; expect stale reads")

func main() {
	flag.Parse()

	cfg := platform.DefaultConfig()
	cfg.Seed = initSeed()
	cfg.Agent.NumReads = *numAccessFlag
	cfg.Agent.NumWrites = *numAccessFlag
	cfg.Agent.MaxAddress = *maxAddressFlag
	cfg.Controller.AccountFlush = !*noFlushFlag

	insts := uint64(2**numAccessFlag) * cfg.Agent.InstsPerAccess
	cfg.Controller.Phases = []platform.PhaseConfig{
		{StartInst: insts / 8, Path: "cached-small"},
		{StartInst: insts / 4, Path: "direct"},
		{StartInst: insts / 2, Path: "cached-large"},
		{StartInst: insts * 3 / 4, Path: "direct"},
	}

	p, err := platform.MakeBuilder().WithConfig(cfg).Build()
	if err != nil {
		panic(err)
	}

	err = p.Run()
	if err != nil {
		panic(err)
	}

	staleReads := p.Agent.NumStaleReads
	if *noFlushFlag {
		if staleReads == 0 {
			panic("expected stale reads without flushing")
		}
	} else if staleReads > 0 {
		panic(fmt.Sprintf("%d stale reads", staleReads))
	}

	fmt.Fprintf(os.Stderr, "passed, %d flushes, %d stale reads\n",
		p.Ctrl.NumFlushes(), staleReads)
}

func initSeed() int64 {
	var seed int64
	if *seedFlag == 0 {
		seed = time.Now().UnixNano()
	} else {
		seed = *seedFlag
	}

	fmt.Fprintf(os.Stderr, "Seed %d\n", seed)

	return seed
}
