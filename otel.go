package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/disgoorg/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/semconv/v1.20.0"

	"github.com/topi314/buttercup/buttercup"
)

// resources identifies this bot instance in the exported metrics.
func resources(cfg buttercup.OtelConfig) *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(Name),
		semconv.ServiceNamespace(Namespace),
		semconv.ServiceInstanceID(cfg.InstanceID),
		semconv.ServiceVersion(Version),
	)
}

// newMeter serves the metrics of the bot on the configured endpoint. The meter is nil
// if otel is disabled. The returned func stops the metrics server and flushes the provider.
func newMeter(cfg buttercup.OtelConfig) (metric.Meter, func(ctx context.Context) error, error) {
	if !cfg.Enabled {
		return nil, func(context.Context) error { return nil }, nil
	}

	exp, err := prometheus.New()
	if err != nil {
		return nil, nil, err
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exp),
		sdkmetric.WithResource(resources(cfg)),
	)
	otel.SetMeterProvider(mp)

	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Endpoint, promhttp.Handler())
	server := &http.Server{
		Addr:    cfg.Metrics.ListenAddr,
		Handler: mux,
	}

	go func() {
		if listenErr := server.ListenAndServe(); listenErr != nil && !errors.Is(listenErr, http.ErrServerClosed) {
			log.Error("failed to listen metrics server: ", listenErr)
		}
	}()

	shutdown := func(ctx context.Context) error {
		return errors.Join(server.Shutdown(ctx), mp.Shutdown(ctx))
	}
	return mp.Meter(Name), shutdown, nil
}
