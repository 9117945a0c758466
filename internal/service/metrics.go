package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ordersCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "perfume_orders_created_total",
			Help: "Total number of orders placed at checkout",
		},
	)

	orderRevenue = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "perfume_order_total_minor_units",
			Help: "Sum of order totals at checkout in minor currency units",
		},
	)

	statusTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "perfume_order_status_transitions_total",
			Help: "Total number of persisted order status changes",
		},
		[]string{"from", "to"},
	)

	checkoutFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "perfume_checkout_failures_total",
			Help: "Total number of rejected checkouts by reason",
		},
		[]string{"reason"},
	)

	stockLimitRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "perfume_cart_stock_limit_rejections_total",
			Help: "Total number of cart quantity updates rejected for exceeding stock",
		},
	)
)
