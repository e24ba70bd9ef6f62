// Package wpcmetrics exposes engine health as Prometheus collectors:
// confirm timeouts, CRC retries, watchdog trips and indication-queue
// occupancy. Grounded on the counter/gauge wiring style of the pack's
// Prometheus-instrumented examples (sockstats-style direct
// prometheus.NewCounter/NewGauge construction rather than a generated
// metrics facade).
package wpcmetrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles every collector the engine updates. A nil *Metrics is
// never passed around internally — New(nil) returns a fully-usable,
// unregistered instance so callers who don't care about Prometheus don't
// need to special-case metrics calls.
type Metrics struct {
	ConfirmTimeouts  prometheus.Counter
	CRCRetries       prometheus.Counter
	WrongCRCErrors   prometheus.Counter
	SyncErrors       prometheus.Counter
	WatchdogTrips    prometheus.Counter
	IndicationsTotal prometheus.Counter
	QueueOccupancy   prometheus.Gauge
	ReassemblyPending prometheus.Gauge
}

// New builds a Metrics instance and registers its collectors against reg.
// A nil reg skips registration (collectors still work, just unexported to
// any scrape endpoint) — useful for tests and for callers who wire their
// own registry later.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ConfirmTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wpc", Name: "confirm_timeouts_total",
			Help: "Requests that timed out waiting for a matching confirm.",
		}),
		CRCRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wpc", Name: "crc_retries_total",
			Help: "Requests retransmitted after a WRONG_CRC_FROM_HOST confirm.",
		}),
		WrongCRCErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wpc", Name: "wrong_crc_total",
			Help: "Confirms rejected for failing their own CRC check.",
		}),
		SyncErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wpc", Name: "sync_errors_total",
			Help: "send_request calls that drained MaxConfirmAttempt frames without a match.",
		}),
		WatchdogTrips: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wpc", Name: "watchdog_trips_total",
			Help: "Times the watchdog declared the serial link dead.",
		}),
		IndicationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wpc", Name: "indications_total",
			Help: "Indications dequeued and dispatched.",
		}),
		QueueOccupancy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wpc", Name: "indication_queue_occupancy",
			Help: "Entries currently held in the indication queue.",
		}),
		ReassemblyPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wpc", Name: "reassembly_pending_packets",
			Help: "Packets currently being reassembled from fragments.",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.ConfirmTimeouts, m.CRCRetries, m.WrongCRCErrors, m.SyncErrors,
			m.WatchdogTrips, m.IndicationsTotal, m.QueueOccupancy, m.ReassemblyPending,
		)
	}
	return m
}
