package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "devscan"

var (
	DatagramsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "receiver",
		Name:      "datagrams_total",
		Help:      "Total number of datagrams read from the announce group",
	})
	AnnouncementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "monitor",
		Name:      "announcements_total",
		Help:      "Total number of new or changed announcements, per receiving interface",
	}, []string{"interface"})
	ExpirationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "monitor",
		Name:      "expirations_total",
		Help:      "Total number of expired announcement entries, per receiving interface",
	}, []string{"interface"})
	ErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "monitor",
		Name:      "errors_total",
		Help:      "Total number of rejected announcements, per error kind",
	}, []string{"code"})
	LiveEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "monitor",
		Name:      "live_entries",
		Help:      "Number of announcement entries currently tracked",
	})
	InterfaceEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "netlink",
		Name:      "events_total",
		Help:      "Total number of interface change events, per kind",
	}, []string{"event"})
	ConfigureRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "configure",
		Name:      "requests_total",
		Help:      "Total number of configure requests, per outcome",
	}, []string{"outcome"})
	WebsocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "bridge",
		Name:      "websocket_clients",
		Help:      "Number of connected event stream clients",
	})
)

// Configure request outcomes
const (
	OutcomeResult  = "result"
	OutcomeRPC     = "rpc_error"
	OutcomeTimeout = "timeout"
	OutcomeFailed  = "failed"
)

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
