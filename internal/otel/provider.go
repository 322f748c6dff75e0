// Package otel builds the OpenTelemetry log and metric pipelines a
// conversion run reports through.
package otel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// ErrNoLogExporter is returned when OTel is enabled with neither a log
// writer nor an OTLP endpoint.
var ErrNoLogExporter = errors.New("otel enabled but no log writer or endpoint configured")

const defaultMetricInterval = 10 * time.Second

// Config holds OTel configuration
type Config struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	BatchTimeout   time.Duration
	MetricInterval time.Duration
	LogWriter      io.Writer // log records as JSON; required unless Endpoint is set
	MetricWriter   io.Writer // conversion counters and histograms, optional
	Endpoint       string    // OTLP/HTTP log endpoint
	Insecure       bool
}

// pipeline is one exporter chain that can be flushed and shut down.
type pipeline struct {
	name     string
	flush    func(context.Context) error
	shutdown func(context.Context) error
}

// Provider owns the log and metric pipelines of one run.
type Provider struct {
	enabled       bool
	logProvider   *sdklog.LoggerProvider
	meterProvider *sdkmetric.MeterProvider
	pipelines     []pipeline
}

// New builds the pipelines described by cfg. A disabled config yields a
// Provider whose logger provider is nil and whose meters are no-ops. The
// meter provider, when built, is installed globally so that packages
// asking otel.Meter directly report into it.
func New(cfg Config) (*Provider, error) {
	p := &Provider{enabled: cfg.Enabled}
	if !cfg.Enabled {
		return p, nil
	}

	ctx := context.Background()
	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	processors, err := logProcessors(ctx, cfg)
	if err != nil {
		return nil, err
	}
	opts := []sdklog.LoggerProviderOption{sdklog.WithResource(res)}
	for _, proc := range processors {
		opts = append(opts, sdklog.WithProcessor(proc))
	}
	p.logProvider = sdklog.NewLoggerProvider(opts...)
	p.pipelines = append(p.pipelines, pipeline{"log", p.logProvider.ForceFlush, p.logProvider.Shutdown})

	if cfg.MetricWriter != nil {
		mp, err := newMeterProvider(res, cfg)
		if err != nil {
			return nil, err
		}
		p.meterProvider = mp
		p.pipelines = append(p.pipelines, pipeline{"metric", mp.ForceFlush, mp.Shutdown})
		otel.SetMeterProvider(mp)
	}

	return p, nil
}

func newResource(ctx context.Context, cfg Config) (*resource.Resource, error) {
	attrs := []resource.Option{resource.WithAttributes(semconv.ServiceName(cfg.ServiceName))}
	if cfg.ServiceVersion != "" {
		attrs = append(attrs, resource.WithAttributes(semconv.ServiceVersion(cfg.ServiceVersion)))
	}
	res, err := resource.New(ctx, attrs...)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}

// logProcessors returns a batch processor for the writer and one for the
// OTLP endpoint, whichever are configured.
func logProcessors(ctx context.Context, cfg Config) ([]sdklog.Processor, error) {
	var out []sdklog.Processor
	batch := func(e sdklog.Exporter) sdklog.Processor {
		return sdklog.NewBatchProcessor(e, sdklog.WithExportTimeout(cfg.BatchTimeout))
	}

	if cfg.LogWriter != nil {
		e, err := stdoutlog.New(stdoutlog.WithWriter(cfg.LogWriter), stdoutlog.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("failed to create log writer exporter: %w", err)
		}
		out = append(out, batch(e))
	}

	if cfg.Endpoint != "" {
		opts := []otlploghttp.Option{otlploghttp.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlploghttp.WithInsecure())
		}
		e, err := otlploghttp.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP log exporter for %s: %w", cfg.Endpoint, err)
		}
		out = append(out, batch(e))
	}

	if len(out) == 0 {
		return nil, ErrNoLogExporter
	}
	return out, nil
}

func newMeterProvider(res *resource.Resource, cfg Config) (*sdkmetric.MeterProvider, error) {
	e, err := stdoutmetric.New(stdoutmetric.WithWriter(cfg.MetricWriter), stdoutmetric.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}
	interval := cfg.MetricInterval
	if interval <= 0 {
		interval = defaultMetricInterval
	}
	return sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(e, sdkmetric.WithInterval(interval))),
	), nil
}

// LoggerProvider returns the provider for the otelslog bridge, or nil when
// OTel is disabled.
func (p *Provider) LoggerProvider() *sdklog.LoggerProvider {
	return p.logProvider
}

// Meter returns a named meter, a no-op one without a metric writer.
func (p *Provider) Meter(name string) metric.Meter {
	if p.meterProvider == nil {
		return noop.Meter{}
	}
	return p.meterProvider.Meter(name)
}

// Flush exports everything buffered so far. The run summary is flushed
// this way before the process exits.
func (p *Provider) Flush(ctx context.Context) error {
	var errs []error
	for _, pl := range p.pipelines {
		if err := pl.flush(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s flush failed: %w", pl.name, err))
		}
	}
	return errors.Join(errs...)
}

// Shutdown flushes and stops every pipeline. Later calls are no-ops.
func (p *Provider) Shutdown(ctx context.Context) error {
	var errs []error
	for _, pl := range p.pipelines {
		if err := pl.shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s shutdown failed: %w", pl.name, err))
		}
	}
	p.pipelines = nil
	return errors.Join(errs...)
}

// Enabled reports whether the config enabled OTel.
func (p *Provider) Enabled() bool {
	return p.enabled
}
