package dyncachectrl

import (
	"fmt"
	"sort"
)

// A Phase routes requests to Path once the policy signal reaches StartInst.
type Phase struct {
	StartInst uint64
	Path      PathID
}

// Selector maps the policy signal to a path. It is a pure function of the
// signal: the same signal always selects the same path.
type Selector struct {
	phases []Phase
}

// DirectOnly returns the reference policy, which always selects the direct
// path.
func DirectOnly() Selector {
	return Selector{}
}

// NewSelector creates a selector that follows the given phases. Before the
// first phase starts, the direct path is selected.
func NewSelector(phases ...Phase) Selector {
	s := Selector{phases: make([]Phase, len(phases))}
	copy(s.phases, phases)

	return s
}

// Phases returns a copy of the phases of the selector.
func (s Selector) Phases() []Phase {
	phases := make([]Phase, len(s.phases))
	copy(phases, s.phases)

	return phases
}

// Validate checks that the phases start in strictly increasing order and name
// known paths.
func (s Selector) Validate() error {
	for i, p := range s.phases {
		if p.Path < 0 || p.Path >= numPaths {
			return fmt.Errorf("phase %d: unknown path %d", i, int(p.Path))
		}

		if i > 0 && p.StartInst <= s.phases[i-1].StartInst {
			return fmt.Errorf(
				"phase %d starts at %d, not after phase %d at %d",
				i, p.StartInst, i-1, s.phases[i-1].StartInst)
		}
	}

	return nil
}

// Select returns the path of the last phase that has started at signal.
func (s Selector) Select(signal uint64) PathID {
	n := sort.Search(len(s.phases), func(i int) bool {
		return s.phases[i].StartInst > signal
	})

	if n == 0 {
		return PathDirect
	}

	return s.phases[n-1].Path
}
