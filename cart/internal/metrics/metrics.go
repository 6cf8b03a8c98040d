package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "storefront_cart"

var (
	Mutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mutations_total",
		Help:      "Cart mutations applied, by operation.",
	}, []string{"operation"})

	StoreFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_failures_total",
		Help:      "Failed cart store reads and writes, by operation.",
	}, []string{"operation"})

	StoreWrites = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_writes_total",
		Help:      "Successful cart store writes.",
	})

	ViewTruncated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "view_truncated_total",
		Help:      "Cart views whose product lookup was cut to the batch limit.",
	})

	ViewStaleRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "view_stale_retries_total",
		Help:      "Product lookups discarded because the cart changed meanwhile.",
	})

	ShareOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "share_outcomes_total",
		Help:      "Shared cart tokens by outcome.",
	}, []string{"outcome"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_sessions",
		Help:      "Cart sessions currently held in memory.",
	})
)
