package middlewares

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/bucketgate/internal"
)

// unmatchedRoute labels requests no route matched, so probes of random
// paths cannot grow label cardinality.
const unmatchedRoute = "unmatched"

// Metrics records request count and latency per route pattern and status on
// reg. A nil registerer means prometheus.DefaultRegisterer.
func Metrics(reg prometheus.Registerer) (internal.Middleware, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bucketgate",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests served, by method, route and status.",
	}, []string{"method", "route", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "bucketgate",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency, by method and route.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"method", "route"})

	for _, c := range []prometheus.Collector{requests, latency} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			start := time.Now()
			err := next(c)

			route := unmatchedRoute
			if rctx := chi.RouteContext(c.Context()); rctx != nil {
				if p := rctx.RoutePattern(); p != "" {
					route = p
				}
			}
			status := c.ResponseWriter().Status()
			if err != nil && !c.Written() {
				// rendered by the error handler after this returns
				status = statusOf(err)
			}

			method := c.Request().Method
			requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			latency.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}, nil
}

func statusOf(err error) int {
	if httpErr := internal.AsHTTPError(err); httpErr != nil {
		return httpErr.StatusCode()
	}
	return http.StatusInternalServerError
}
