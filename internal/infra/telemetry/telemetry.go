package telemetry

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/savoria/orderdesk/internal/infra/config"
)

// Provider represents a telemetry provider handle.
type Provider struct {
	buildInfo prometheus.Gauge
}

// Attach configures telemetry exporters and returns a provider handle.
// Request-level metrics are owned by the HTTP middleware; this only
// publishes the static service identity gauge.
func Attach(_ context.Context, cfg *config.AppConfig) (*Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	buildInfo := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "orderdesk",
		Name:      "build_info",
		Help:      "Service identity, always 1.",
		ConstLabels: prometheus.Labels{
			"service":     cfg.App.Name,
			"environment": cfg.App.Env,
		},
	})

	if err := prometheus.Register(buildInfo); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := already.ExistingCollector.(prometheus.Gauge); ok {
				buildInfo = existing
			} else {
				return nil, fmt.Errorf("existing build info collector has unexpected type %T", already.ExistingCollector)
			}
		} else {
			return nil, fmt.Errorf("register build info gauge: %w", err)
		}
	}
	buildInfo.Set(1)

	return &Provider{
		buildInfo: buildInfo,
	}, nil
}

// BuildInfo exposes the service identity gauge.
func (p *Provider) BuildInfo() prometheus.Gauge {
	if p == nil {
		return prometheus.NewGauge(prometheus.GaugeOpts{})
	}
	return p.buildInfo
}
