package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

// JobName identifies CLI runs on the Pushgateway.
const JobName = "reserveguard"

// NewRegistry returns a registry with the standard process and Go collectors.
// Each process builds one and passes it to every module's metrics constructor.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler exposes reg for scraping by long-running processes.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// Push sends the registry's current values to a Pushgateway. Short-lived CLI
// runs exit before any scrape could happen, so they push instead.
// An empty url is a no-op.
func Push(ctx context.Context, url string, gatherer prometheus.Gatherer, command string) error {
	if url == "" {
		return nil
	}
	err := push.New(url, JobName).
		Gatherer(gatherer).
		Grouping("command", command).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
