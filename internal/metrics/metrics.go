// Package metrics exposes prometheus counters for provisioning activity.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ResourcesCreated counts successful resource creations by kind.
	ResourcesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vpcforge_resources_created_total",
		Help: "Number of resources created, by kind.",
	}, []string{"kind"})

	// ResourcesDeleted counts successful resource deletions by kind.
	ResourcesDeleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vpcforge_resources_deleted_total",
		Help: "Number of resources deleted, by kind.",
	}, []string{"kind"})

	// CreateFailures counts resource creations that failed after retries.
	CreateFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vpcforge_create_failures_total",
		Help: "Number of resource creations that failed terminally, by kind.",
	}, []string{"kind"})

	// Unwinds counts full rollbacks triggered by creation failures.
	Unwinds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vpcforge_unwinds_total",
		Help: "Number of graph-wide unwinds triggered by failures.",
	})

	// TeardownPasses counts teardown passes executed, including retries of
	// dependency-blocked deletions.
	TeardownPasses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vpcforge_teardown_passes_total",
		Help: "Number of teardown passes executed.",
	})
)

// Handler serves the default registry, which holds all counters above.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes the counters at /metrics on addr. It blocks until the
// listener fails.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}
