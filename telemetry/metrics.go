package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
)

const meterName = "profile-viewer/telemetry"

var (
	LookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "profile_lookups_total",
			Help: "Profile lookups by outcome",
		},
		[]string{"outcome"},
	)

	LookupDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "profile_lookup_duration_seconds",
			Help:    "Time spent resolving a profile lookup, simulated latency included",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 1.5, 2, 5},
		},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
)

type lookupInstruments struct {
	provider otelmetric.MeterProvider
	count    otelmetric.Int64Counter
	duration otelmetric.Float64Histogram
}

var (
	instMu sync.Mutex
	inst   *lookupInstruments
)

// otelLookups rebuilds the instruments whenever the global provider changes.
func otelLookups() *lookupInstruments {
	provider := otel.GetMeterProvider()

	instMu.Lock()
	defer instMu.Unlock()
	if inst != nil && inst.provider == provider {
		return inst
	}

	meter := provider.Meter(meterName)
	count, err := meter.Int64Counter("profile.lookups",
		otelmetric.WithDescription("Profile lookups by outcome"),
	)
	if err != nil {
		Logger(context.Background()).Sugar().Warnw("otel counter unavailable", "error", err)
	}
	duration, err := meter.Float64Histogram("profile.lookup.duration",
		otelmetric.WithDescription("Time spent resolving a profile lookup, simulated latency included"),
		otelmetric.WithUnit("s"),
	)
	if err != nil {
		Logger(context.Background()).Sugar().Warnw("otel histogram unavailable", "error", err)
	}
	inst = &lookupInstruments{provider: provider, count: count, duration: duration}
	return inst
}

func ObserveLookup(ctx context.Context, outcome string, elapsed time.Duration) {
	LookupsTotal.WithLabelValues(outcome).Inc()
	LookupDuration.Observe(elapsed.Seconds())

	li := otelLookups()
	attrs := otelmetric.WithAttributes(attribute.String("outcome", outcome))
	if li.count != nil {
		li.count.Add(ctx, 1, attrs)
	}
	if li.duration != nil {
		li.duration.Record(ctx, elapsed.Seconds(), attrs)
	}
}
