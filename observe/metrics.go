package observe

import (
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wippyai/irbind/entity"
)

// ErrRegistrationFailed is returned when a collector cannot be registered.
var ErrRegistrationFailed = errors.New("metric registration failed")

// MetricsConfig configures a Metrics observer.
type MetricsConfig struct {
	// Namespace prefixes every metric name. Defaults to "irbind".
	Namespace string

	// Subsystem is the second name component. Defaults to "entity".
	Subsystem string

	// Registry receives the collectors. If nil, uses prometheus.DefaultRegisterer.
	Registry prometheus.Registerer
}

// DefaultMetricsConfig returns the configuration used when none is given.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{Namespace: "irbind", Subsystem: "entity"}
}

var _ entity.Observer = (*Metrics)(nil)

// Metrics counts lifecycle events per store and tracks how many entities each store
// currently holds. A single Metrics may observe many modules concurrently.
type Metrics struct {
	events *prometheus.CounterVec
	live   *prometheus.GaugeVec
	loaned *prometheus.GaugeVec

	registry   prometheus.Registerer
	collectors []prometheus.Collector
	mu         sync.Mutex
	closed     bool
}

// NewMetrics registers the collectors described by cfg.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	def := DefaultMetricsConfig()
	if cfg.Namespace == "" {
		cfg.Namespace = def.Namespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = def.Subsystem
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		registry: cfg.Registry,
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "events_total",
			Help:      "Entity lifecycle events by store and event type.",
		}, []string{"store", "event"}),
		live: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "live",
			Help:      "Entities created and not yet destroyed, by store.",
		}, []string{"store"}),
		loaned: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "loaned",
			Help:      "Entities currently borrowed out of their store, by store.",
		}, []string{"store"}),
	}

	for _, c := range []prometheus.Collector{m.events, m.live, m.loaned} {
		if err := cfg.Registry.Register(c); err != nil {
			m.unregister()
			return nil, errors.Join(ErrRegistrationFailed, err)
		}
		m.collectors = append(m.collectors, c)
	}
	return m, nil
}

func (m *Metrics) OnEntityEvent(e entity.Event) {
	m.events.WithLabelValues(e.Store, e.Type.String()).Inc()
	switch e.Type {
	case entity.EventCreated:
		m.live.WithLabelValues(e.Store).Inc()
	case entity.EventDestroyed:
		m.live.WithLabelValues(e.Store).Dec()
	case entity.EventBorrowed:
		m.loaned.WithLabelValues(e.Store).Inc()
	case entity.EventReturned:
		m.loaned.WithLabelValues(e.Store).Dec()
	}
}

// Close unregisters the collectors. It is safe to call more than once.
func (m *Metrics) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	m.unregister()
}

func (m *Metrics) unregister() {
	for _, c := range m.collectors {
		m.registry.Unregister(c)
	}
	m.collectors = nil
}
