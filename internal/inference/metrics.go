package inference

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	requests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisor_inference_requests_total",
			Help: "Inference requests by provider and outcome (ok, error, cancelled, unavailable).",
		},
		[]string{"provider", "outcome"},
	)

	latency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "advisor_inference_duration_seconds",
			Help:    "Duration of completed inference requests.",
			Buckets: []float64{.25, .5, 1, 2, 5, 10, 20, 40, 60},
		},
		[]string{"provider"},
	)
)

func init() {
	prometheus.MustRegister(requests, latency)
}

// Instrumented records outcome counters and latency for next.
type Instrumented struct {
	Provider string
	Next     Client
}

// Complete calls Next and records the outcome.
func (i Instrumented) Complete(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	res, err := i.Next.Complete(ctx, req)
	requests.WithLabelValues(i.Provider, outcome(err)).Inc()
	if err == nil {
		latency.WithLabelValues(i.Provider).Observe(time.Since(start).Seconds())
	}
	return res, err
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case IsCancellation(err):
		return "cancelled"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	}
	return "error"
}
