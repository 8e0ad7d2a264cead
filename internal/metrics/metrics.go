package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "stepup"

// Metrics groups the HTTP and order placement collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	Requests        *prometheus.CounterVec
	LatencyMS       *prometheus.HistogramVec
	OrdersPlaced    prometheus.Counter
	PlacementFailed *prometheus.CounterVec
	StockShortages  prometheus.Counter
}

func New(service string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: service,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"route", "method", "status"}),
		LatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: service,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"route"}),
		OrdersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: service,
			Name:      "orders_placed_total",
			Help:      "Orders committed.",
		}),
		PlacementFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: service,
			Name:      "order_placement_failures_total",
			Help:      "Order placements rolled back or rejected, by reason.",
		}, []string{"reason"}),
		StockShortages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: service,
			Name:      "stock_shortages_total",
			Help:      "Products reported short during placement.",
		}),
	}

	reg.MustRegister(m.Requests, m.LatencyMS, m.OrdersPlaced, m.PlacementFailed, m.StockShortages)
	return m
}

func (m *Metrics) OrderPlaced() {
	if m == nil {
		return
	}
	m.OrdersPlaced.Inc()
}

func (m *Metrics) PlacementFailure(reason string, shortages int) {
	if m == nil {
		return
	}
	m.PlacementFailed.WithLabelValues(reason).Inc()
	if shortages > 0 {
		m.StockShortages.Add(float64(shortages))
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// Middleware records one request count and latency observation per handled route.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else {
					status = http.StatusInternalServerError
				}
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}

			m.Requests.WithLabelValues(route, c.Request().Method, strconv.Itoa(status)).Inc()
			m.LatencyMS.WithLabelValues(route).Observe(float64(time.Since(start).Milliseconds()))
			return err
		}
	}
}
