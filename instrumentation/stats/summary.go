package stats

import (
	"fmt"
	"io"
	"math"

	"github.com/sarchlab/dyncache/mem/dyncachectrl"
	"github.com/sarchlab/dyncache/sim"
)

// DefaultEWMAWeight is the weight given to the newest flush in the moving
// average of flush durations.
const DefaultEWMAWeight = 0.25

// Summary keeps the controller statistics in memory.
type Summary struct {
	EWMAWeight float64

	NumFlushes      uint64
	TotalFlushTicks sim.VTime
	MinFlushTicks   sim.VTime
	MaxFlushTicks   sim.VTime
	EWMAFlushTicks  float64

	NumSwitches     uint64
	SwitchesPerPath map[dyncachectrl.PathID]uint64
}

// NewSummary creates an empty Summary.
func NewSummary() *Summary {
	return &Summary{
		EWMAWeight:      DefaultEWMAWeight,
		SwitchesPerPath: make(map[dyncachectrl.PathID]uint64),
	}
}

// RecordFlush adds one flush.
func (s *Summary) RecordFlush(_ dyncachectrl.PathID, start, end sim.VTime) {
	ticks := end - start

	if s.NumFlushes == 0 {
		s.MinFlushTicks = ticks
		s.MaxFlushTicks = ticks
		s.EWMAFlushTicks = float64(ticks)
	} else {
		s.MinFlushTicks = min(s.MinFlushTicks, ticks)
		s.MaxFlushTicks = max(s.MaxFlushTicks, ticks)
		s.EWMAFlushTicks = s.EWMAWeight*float64(ticks) +
			(1-s.EWMAWeight)*s.EWMAFlushTicks
	}

	s.NumFlushes++
	s.TotalFlushTicks += ticks
}

// RecordPathSwitch adds one path switch.
func (s *Summary) RecordPathSwitch(_, to dyncachectrl.PathID, _ uint64) {
	s.NumSwitches++
	s.SwitchesPerPath[to]++
}

// MeanFlushTicks returns the average flush duration, or NaN if there was no
// flush.
func (s *Summary) MeanFlushTicks() float64 {
	if s.NumFlushes == 0 {
		return math.NaN()
	}

	return float64(s.TotalFlushTicks) / float64(s.NumFlushes)
}

// Report writes a human-readable summary.
func (s *Summary) Report(w io.Writer) error {
	_, err := fmt.Fprintf(w,
		"path switches: %d\n"+
			"flushes: %d\n",
		s.NumSwitches, s.NumFlushes)
	if err != nil {
		return err
	}

	for _, p := range dyncachectrl.AllPaths() {
		if n := s.SwitchesPerPath[p]; n > 0 {
			if _, err := fmt.Fprintf(w, "  switches to %s: %d\n", p, n); err != nil {
				return err
			}
		}
	}

	if s.NumFlushes == 0 {
		return nil
	}

	_, err = fmt.Fprintf(w,
		"flush ticks: total %d, mean %.1f, min %d, max %d, ewma %.1f\n",
		uint64(s.TotalFlushTicks), s.MeanFlushTicks(),
		uint64(s.MinFlushTicks), uint64(s.MaxFlushTicks), s.EWMAFlushTicks)

	return err
}
