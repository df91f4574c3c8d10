package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	localFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "musui_client",
			Name:      "local_fallbacks_total",
			Help:      "Writes kept in the local store because the remote call failed.",
		},
		[]string{"op"},
	)

	retriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "musui_client",
			Name:      "retries_total",
			Help:      "Remote calls retried after a recoverable failure.",
		},
		[]string{"op"},
	)
)
