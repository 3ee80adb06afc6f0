package stats

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sarchlab/dyncache/mem/dyncachectrl"
	"github.com/sarchlab/dyncache/sim"
)

const namespace = "dyncache"

// PrometheusSink exports the controller statistics as Prometheus metrics.
type PrometheusSink struct {
	flushes       *prometheus.CounterVec
	flushDuration *prometheus.HistogramVec
	switches      *prometheus.CounterVec
	activePath    prometheus.Gauge
}

// NewPrometheusSink creates the metrics and registers them with reg.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	s := &PrometheusSink{
		flushes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "flushes_total",
				Help:      "Number of completed cache flushes.",
			},
			[]string{"path"},
		),
		flushDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "flush_duration_seconds",
				Help:      "Simulated time from flush request to completion.",
				Buckets:   prometheus.ExponentialBuckets(1e-9, 4, 12),
			},
			[]string{"path"},
		),
		switches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "path_switches_total",
				Help:      "Number of times the controller changed path.",
			},
			[]string{"from", "to"},
		),
		activePath: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_path",
				Help:      "Path the controller routes to (0 is direct).",
			},
		),
	}

	collectors := []prometheus.Collector{
		s.flushes, s.flushDuration, s.switches, s.activePath,
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// RecordFlush counts a flush and observes its duration.
func (s *PrometheusSink) RecordFlush(
	path dyncachectrl.PathID,
	start, end sim.VTime,
) {
	s.flushes.WithLabelValues(path.String()).Inc()
	s.flushDuration.WithLabelValues(path.String()).
		Observe((end - start).InSec())
}

// RecordPathSwitch counts a path switch and updates the active path.
func (s *PrometheusSink) RecordPathSwitch(
	from, to dyncachectrl.PathID,
	_ uint64,
) {
	s.switches.WithLabelValues(from.String(), to.String()).Inc()
	s.activePath.Set(float64(to))
}
