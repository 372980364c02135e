package main

import (
	"net/http"

	"go.uber.org/zap"

	"checkpost/internal/config"
	"checkpost/internal/metrics"
	"checkpost/internal/metrics/datadog"
	"checkpost/internal/metrics/prompush"
)

// setupMetrics installs the backend named by cfg.Backend. It returns the
// scrape handler for the "prometheus" backend (nil otherwise) and a flush
// function to defer. A backend that fails to start leaves the nop backend in
// place.
func setupMetrics(cfg config.Metrics, job string, log *zap.Logger) (http.Handler, func()) {
	flush := func() {
		if err := metrics.Flush(); err != nil {
			log.Warn("metrics flush", zap.Error(err))
		}
	}
	noop := func() {}

	switch cfg.Backend {
	case "pushgateway":
		b, err := prompush.NewBackend(job, cfg.PushGatewayURL)
		if err != nil {
			log.Warn("metrics: pushgateway backend unavailable; using nop", zap.Error(err))
			return nil, noop
		}
		log.Info("metrics", zap.String("backend", cfg.Backend), zap.String("url", cfg.PushGatewayURL), zap.String("job", job))
		metrics.SetBackend(b)
		return nil, flush

	case "prometheus":
		b, err := prompush.NewScrapeBackend(job)
		if err != nil {
			log.Warn("metrics: prometheus backend unavailable; using nop", zap.Error(err))
			return nil, noop
		}
		log.Info("metrics", zap.String("backend", cfg.Backend), zap.String("job", job))
		metrics.SetBackend(b)
		return b.Handler(), noop

	case "datadog":
		b, err := datadog.NewBackend(datadog.Config{
			Addr:       cfg.DatadogAddr,
			Namespace:  cfg.Namespace,
			GlobalTags: append([]string{"job:" + job}, cfg.Tags...),
		})
		if err != nil {
			log.Warn("metrics: datadog backend unavailable; using nop", zap.Error(err))
			return nil, noop
		}
		log.Info("metrics", zap.String("backend", cfg.Backend), zap.String("addr", cfg.DatadogAddr))
		metrics.SetBackend(b)
		return nil, func() {
			flush()
			if err := b.Close(); err != nil {
				log.Warn("metrics close", zap.Error(err))
			}
		}

	case "", "none":
		log.Debug("metrics disabled")
	default:
		log.Warn("metrics: unknown backend; metrics disabled", zap.String("backend", cfg.Backend))
	}
	return nil, noop
}
