package cache

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ntentasd/roomsense/internal/metrics"
)

// instrument pairs the Prometheus collectors and the tracer of one driver.
type instrument struct {
	driver string
}

func (in instrument) start(ctx context.Context, op, key string) (context.Context, trace.Span) {
	ctx, span := otel.Tracer("roomsense-cache").Start(ctx, "cache."+op)
	span.SetAttributes(
		attribute.String("cache.driver", in.driver),
		attribute.String("cache.key", key),
	)
	return ctx, span
}

func (in instrument) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func (in instrument) hit(span trace.Span, start time.Time) {
	metrics.CacheHitsTotal.WithLabelValues(in.driver).Inc()
	metrics.CacheReadLatencySeconds.WithLabelValues(in.driver).Observe(time.Since(start).Seconds())
	span.SetAttributes(attribute.String("cache.result", "hit"))
	span.SetStatus(codes.Ok, "")
}

func (in instrument) miss(span trace.Span) {
	metrics.CacheMissesTotal.WithLabelValues(in.driver).Inc()
	span.SetAttributes(attribute.String("cache.result", "miss"))
	span.SetStatus(codes.Ok, "")
}

func (in instrument) wrote(span trace.Span, start time.Time) {
	metrics.CacheWriteLatencySeconds.WithLabelValues(in.driver).Observe(time.Since(start).Seconds())
	span.SetStatus(codes.Ok, "")
}
