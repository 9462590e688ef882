// Package metrics holds the prometheus collectors of the GraphQL endpoint.
package metrics

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.appointy.com/vidgraph/node"
)

const namespace = "vidgraph"

// Metrics groups the collectors. The zero value is not usable; use New.
type Metrics struct {
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	Resolutions     *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graphql_requests_total",
			Help:      "GraphQL requests by operation type and result.",
		}, []string{"operation", "result"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "graphql_request_duration_seconds",
			Help:      "Time spent executing GraphQL requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		Resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "node_resolutions_total",
			Help:      "Global id resolutions by kind and outcome.",
		}, []string{"kind", "outcome"}),
	}

	for _, c := range []prometheus.Collector{m.Requests, m.RequestDuration, m.Resolutions} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "registering metrics")
		}
	}
	return m, nil
}

// ObserveRequest records one executed request.
func (m *Metrics) ObserveRequest(operation string, failed bool, elapsed time.Duration) {
	if operation == "" {
		operation = "unknown"
	}
	result := "ok"
	if failed {
		result = "error"
	}
	m.Requests.WithLabelValues(operation, result).Inc()
	m.RequestDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// ObserveResolve implements node.Observer.
func (m *Metrics) ObserveResolve(kind string, err error, _ time.Duration) {
	if kind == "" {
		kind = "unknown"
	}
	m.Resolutions.WithLabelValues(kind, Outcome(err)).Inc()
}

// Outcome names the result of a resolution for use as a label value.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, node.ErrMalformedID):
		return "malformed_id"
	case errors.Is(err, node.ErrUnknownKind):
		return "unknown_kind"
	case errors.Is(err, node.ErrNotFound):
		return "not_found"
	case errors.Is(err, node.ErrUnclassifiable):
		return "unclassifiable"
	}
	return "error"
}

var _ node.Observer = (*Metrics)(nil)
