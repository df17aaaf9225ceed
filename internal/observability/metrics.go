// Package observability provides logging, metrics, and tracing.
package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/codes"
)

var (
	// KVErrorRate counts key-value store errors by command name.
	KVErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rendez_kv_error_rate_total",
		Help: "Total number of key-value store errors by command",
	}, []string{"command"})

	// EngineOperations counts friendship engine operations by name and outcome.
	EngineOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rendez_engine_operations_total",
		Help: "Total friendship engine operations by operation and outcome",
	}, []string{"operation", "outcome"})

	// MutualAccepts counts friend requests resolved through the mutual-race path.
	MutualAccepts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rendez_engine_mutual_accepts_total",
		Help: "Total friend requests auto-accepted after a mutual request race",
	})

	// CalendarGatewayLatency records calendar gateway call latency by operation.
	CalendarGatewayLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rendez_calendar_gateway_latency_seconds",
		Help:    "Calendar gateway RPC latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
)

// ObserveEngineOp records one engine operation with its outcome label.
func ObserveEngineOp(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	EngineOperations.WithLabelValues(operation, outcome).Inc()
}

// TrackEngineOp starts a span for an engine operation and returns a finish
// function that records the outcome on both the span and the operation
// counter. Call the finish function with the operation's final error.
func TrackEngineOp(ctx context.Context, operation string) (context.Context, func(error)) {
	ctx, span := Tracer.Start(ctx, "engine."+operation)
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		ObserveEngineOp(operation, err)
	}
}
