// Package metrics defines the Prometheus collectors exported by the
// realtime lock service. A nil *Collectors is valid and records nothing.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "taskboard"

// Acquisition outcomes.
const (
	OutcomeGranted     = "granted"
	OutcomeAlreadyHeld = "already_held"
	OutcomeConflict    = "conflict"
)

// Release causes.
const (
	CauseExplicit   = "explicit"
	CauseDisconnect = "disconnect"
	CauseDeleted    = "task_deleted"
)

// Collectors groups the realtime collectors.
type Collectors struct {
	connections  prometheus.Gauge
	locksHeld    prometheus.Gauge
	acquisitions *prometheus.CounterVec
	releases     *prometheus.CounterVec
	broadcasts   *prometheus.CounterVec
	dropped      prometheus.Counter
}

// New creates the collectors and registers them on reg.
// It panics if any collector is already registered, like MustRegister.
func New(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "realtime_connections",
			Help:      "Current number of open websocket connections",
		}),
		locksHeld: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "locks_held",
			Help:      "Current number of task edit locks",
		}),
		acquisitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lock_acquisitions_total",
			Help:      "Lock acquisition requests by outcome",
		}, []string{"outcome"}),
		releases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lock_releases_total",
			Help:      "Locks removed by cause",
		}, []string{"cause"}),
		broadcasts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "realtime_broadcasts_total",
			Help:      "Events broadcast to all connections by event name",
		}, []string{"event"}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "realtime_dropped_deliveries_total",
			Help:      "Messages not delivered because a connection's send queue was full",
		}),
	}
	reg.MustRegister(c.connections, c.locksHeld, c.acquisitions, c.releases, c.broadcasts, c.dropped)
	return c
}

// ConnectionOpened increments the open connection gauge.
func (c *Collectors) ConnectionOpened() {
	if c != nil {
		c.connections.Inc()
	}
}

// ConnectionClosed decrements the open connection gauge.
func (c *Collectors) ConnectionClosed() {
	if c != nil {
		c.connections.Dec()
	}
}

// SetLocksHeld records the current lock table size.
func (c *Collectors) SetLocksHeld(n int) {
	if c != nil {
		c.locksHeld.Set(float64(n))
	}
}

// Acquisition counts one acquisition request.
func (c *Collectors) Acquisition(outcome string) {
	if c != nil {
		c.acquisitions.WithLabelValues(outcome).Inc()
	}
}

// Release counts removed locks.
func (c *Collectors) Release(cause string, n int) {
	if c != nil && n > 0 {
		c.releases.WithLabelValues(cause).Add(float64(n))
	}
}

// Broadcast counts one broadcast of event.
func (c *Collectors) Broadcast(event string) {
	if c != nil {
		c.broadcasts.WithLabelValues(event).Inc()
	}
}

// DroppedDelivery counts one undeliverable message.
func (c *Collectors) DroppedDelivery() {
	if c != nil {
		c.dropped.Inc()
	}
}
