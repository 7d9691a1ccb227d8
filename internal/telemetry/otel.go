package telemetry

import (
	"context"
	"fmt"
	"net/http"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.uber.org/zap"
)

// ServiceName identifies this process in exported metrics.
const ServiceName = "hotelapi"

// Provider owns the meter provider and the Prometheus registry behind /metrics.
// A disabled Provider hands out no-op instruments and serves no metrics.
type Provider struct {
	meter    metric.Meter
	provider *sdkmetric.MeterProvider
	registry *prom.Registry
}

// Init builds a Provider. When enabled is false every instrument is a no-op.
func Init(enabled bool, version string, logger *zap.Logger) (*Provider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !enabled {
		logger.Info("metrics disabled")
		return &Provider{meter: noop.NewMeterProvider().Meter(ServiceName)}, nil
	}

	registry := prom.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	res, err := newResource(version)
	if err != nil {
		return nil, fmt.Errorf("create otel resource: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(provider)

	logger.Info("metrics enabled", zap.String("service", ServiceName), zap.String("version", version))
	return &Provider{
		meter:    provider.Meter(ServiceName),
		provider: provider,
		registry: registry,
	}, nil
}

func newResource(version string) (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			semconv.ServiceName(ServiceName),
			semconv.ServiceVersion(version),
		),
	)
}

// Meter returns the meter used for all instruments in this process.
func (p *Provider) Meter() metric.Meter {
	return p.meter
}

// Enabled reports whether metrics are exported.
func (p *Provider) Enabled() bool {
	return p.registry != nil
}

// Handler serves the Prometheus exposition format.
func (p *Provider) Handler() http.Handler {
	if p.registry == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "metrics disabled", http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Shutdown flushes and stops the meter provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.provider == nil {
		return nil
	}
	if err := p.provider.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown meter provider: %w", err)
	}
	return nil
}
