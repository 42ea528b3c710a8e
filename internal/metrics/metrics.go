package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	selectionDecision = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "grabbi_storefront",
			Name:      "selection_decision_total",
			Help:      "Count of coordinator decisions by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	selectionRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "grabbi_storefront",
			Name:      "selection_rejected_total",
			Help:      "Count of rejected coordinator operations by reason.",
		},
		[]string{"reason"},
	)

	effectEmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "grabbi_storefront",
			Name:      "effect_emitted_total",
			Help:      "Count of coordinator effects published to the event bus.",
		},
		[]string{"effect"},
	)

	orderPlaced = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "grabbi_storefront",
			Name:      "order_placed_total",
			Help:      "Count of checkouts that produced an order.",
		},
	)

	orderCancelled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "grabbi_storefront",
			Name:      "order_cancelled_total",
			Help:      "Count of orders cancelled by the customer.",
		},
	)

	storeWriteFailure = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "grabbi_storefront",
			Name:      "store_write_failure_total",
			Help:      "Count of secondary writes that failed after the session was saved.",
		},
		[]string{"kind"},
	)

	upstreamRequest = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "grabbi_storefront",
			Name:      "upstream_request_total",
			Help:      "Count of franchise backend requests by result.",
		},
		[]string{"result"},
	)

	repositoryFailover = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "grabbi_storefront",
			Name:      "repository_failover_total",
			Help:      "Count of session reads or writes served by the fallback repository.",
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			selectionDecision, selectionRejected, effectEmitted,
			orderPlaced, orderCancelled, storeWriteFailure,
			upstreamRequest, repositoryFailover,
		)
	})
}

func IncSelectionDecision(operation, outcome string) {
	selectionDecision.WithLabelValues(operation, outcome).Inc()
}

func IncSelectionRejected(reason string) {
	selectionRejected.WithLabelValues(reason).Inc()
}

func IncEffect(effect string) {
	effectEmitted.WithLabelValues(effect).Inc()
}

func IncOrderPlaced() {
	orderPlaced.Inc()
}

func IncOrderCancelled() {
	orderCancelled.Inc()
}

// IncStoreWriteFailure records a failed write of kind "loyalty_history" or "order_status".
func IncStoreWriteFailure(kind string) {
	storeWriteFailure.WithLabelValues(kind).Inc()
}

// IncUpstreamRequest records a backend call; result is "ok", "cache_hit" or "error".
func IncUpstreamRequest(result string) {
	upstreamRequest.WithLabelValues(result).Inc()
}

func IncRepositoryFailover() {
	repositoryFailover.Inc()
}
