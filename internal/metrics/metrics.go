package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "perfumeshop"

// HTTPとショップの業務カウンタ。nilでも呼べる（テストではnilを渡す）
type Metrics struct {
	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	orders      prometheus.Counter
	orderAmount prometheus.Counter
	cancels     *prometheus.CounterVec
	merges      prometheus.Counter
	mergedLines prometheus.Counter
	logins      *prometheus.CounterVec
	rateLimited *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		orders: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_placed_total",
			Help:      "Orders placed.",
		}),
		orderAmount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_amount_total",
			Help:      "Sum of order totals in minor units.",
		}),
		cancels: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_canceled_total",
			Help:      "Orders canceled by actor.",
		}, []string{"by"}),
		merges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_merges_total",
			Help:      "Guest carts merged into user carts.",
		}),
		mergedLines: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_merged_lines_total",
			Help:      "Guest cart lines merged into user carts.",
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by method and result.",
		}, []string{"method", "result"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		}, []string{"scope"}),
	}
	reg.MustRegister(
		m.requests, m.duration, m.orders, m.orderAmount, m.cancels,
		m.merges, m.mergedLines, m.logins, m.rateLimited,
	)
	return m
}

func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil || m.requests == nil {
		return
	}
	route = normalizeLabel(route)
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) OrderPlaced(total int64) {
	if m == nil || m.orders == nil {
		return
	}
	m.orders.Inc()
	m.orderAmount.Add(float64(total))
}

// by: user / admin
func (m *Metrics) OrderCanceled(by string) {
	if m == nil || m.cancels == nil {
		return
	}
	m.cancels.WithLabelValues(normalizeLabel(by)).Inc()
}

func (m *Metrics) CartMerged(lines int) {
	if m == nil || m.merges == nil {
		return
	}
	m.merges.Inc()
	m.mergedLines.Add(float64(lines))
}

// method: password / google、result: ok / fail
func (m *Metrics) Login(method, result string) {
	if m == nil || m.logins == nil {
		return
	}
	m.logins.WithLabelValues(normalizeLabel(method), normalizeLabel(result)).Inc()
}

func (m *Metrics) RateLimited(scope string) {
	if m == nil || m.rateLimited == nil {
		return
	}
	m.rateLimited.WithLabelValues(normalizeLabel(scope)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
