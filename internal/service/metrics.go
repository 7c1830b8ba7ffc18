package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var orderTransitions = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "storefront_order_transitions_total",
		Help: "Order lifecycle transitions by action and outcome.",
	},
	[]string{"action", "outcome"},
)

const (
	outcomeOk       = "ok"
	outcomeConflict = "conflict"
	outcomeDenied   = "denied"
	outcomeError    = "error"
)
