package s3fifo

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the Prometheus collectors a Cache reports to. Construct
// one with NewMetrics and pass it to WithMetrics; a nil *Metrics (the
// default) means Cache skips all instrumentation.
type Metrics struct {
	Hit  prometheus.Counter
	Miss prometheus.Counter

	Insertion prometheus.Counter

	// EvictSmallToMain counts Small→Main promotions (freq > 1 at
	// eviction time).
	EvictSmallToMain prometheus.Counter
	// EvictSmallToGhost counts Small→Ghost drops (freq <= 1).
	EvictSmallToGhost prometheus.Counter
	// EvictMainSurvive counts Main entries that got another lap
	// (freq > 0, decremented and reinserted).
	EvictMainSurvive prometheus.Counter
	// EvictMainDrop counts Main entries dropped outright (freq == 0).
	EvictMainDrop prometheus.Counter

	Length prometheus.Gauge
}

// NewMetrics registers a fresh set of collectors, namespaced under
// namespace (e.g. your service name) and subsystem "s3fifo", against reg.
// Pass prometheus.DefaultRegisterer to use the global registry.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	m := &Metrics{
		Hit: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "s3fifo",
			Name:      "hits_total",
			Help:      "Number of cache lookups that found a live entry in Small or Main.",
		}),
		Miss: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "s3fifo",
			Name:      "misses_total",
			Help:      "Number of cache lookups that found nothing in Small or Main.",
		}),
		Insertion: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "s3fifo",
			Name:      "insertions_total",
			Help:      "Number of new keys admitted into Small or Main.",
		}),
		EvictSmallToMain: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "s3fifo",
			Name:      "evictions_small_to_main_total",
			Help:      "Number of Small-queue entries promoted to Main on eviction.",
		}),
		EvictSmallToGhost: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "s3fifo",
			Name:      "evictions_small_to_ghost_total",
			Help:      "Number of Small-queue entries dropped into Ghost on eviction.",
		}),
		EvictMainSurvive: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "s3fifo",
			Name:      "evictions_main_survive_total",
			Help:      "Number of Main-queue entries that survived an eviction sweep with a decremented counter.",
		}),
		EvictMainDrop: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "s3fifo",
			Name:      "evictions_main_drop_total",
			Help:      "Number of Main-queue entries dropped outright on eviction.",
		}),
		Length: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "s3fifo",
			Name:      "length",
			Help:      "Number of live entries in Small+Main, set on each insertion.",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.Hit, m.Miss, m.Insertion,
		m.EvictSmallToMain, m.EvictSmallToGhost, m.EvictMainSurvive, m.EvictMainDrop,
		m.Length,
	} {
		reg.MustRegister(c)
	}

	return m
}
