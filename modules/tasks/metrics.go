package tasks

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StoreCollector implements prometheus.Collector for the task store. Values
// are read from Store.Summary on every scrape:
//
//	<namespace>_total
//	<namespace>_finished
//	<namespace>_open
type StoreCollector struct {
	store        Store
	totalDesc    *prometheus.Desc
	finishedDesc *prometheus.Desc
	openDesc     *prometheus.Desc
}

// NewStoreCollector creates a collector for store. namespace defaults to
// "taskapi_tasks".
func NewStoreCollector(store Store, namespace string) *StoreCollector {
	if namespace == "" {
		namespace = "taskapi_tasks"
	}
	return &StoreCollector{
		store:        store,
		totalDesc:    prometheus.NewDesc(namespace+"_total", "Number of tasks in the store", nil, nil),
		finishedDesc: prometheus.NewDesc(namespace+"_finished", "Number of finished tasks", nil, nil),
		openDesc:     prometheus.NewDesc(namespace+"_open", "Number of open tasks", nil, nil),
	}
}

// Describe sends metric descriptors.
func (c *StoreCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.totalDesc
	ch <- c.finishedDesc
	ch <- c.openDesc
}

// Collect reads the current summary and emits gauges.
func (c *StoreCollector) Collect(ch chan<- prometheus.Metric) {
	sum := c.store.Summary(context.Background())
	ch <- prometheus.MustNewConstMetric(c.totalDesc, prometheus.GaugeValue, float64(sum.Total))
	ch <- prometheus.MustNewConstMetric(c.finishedDesc, prometheus.GaugeValue, float64(sum.Finished))
	ch <- prometheus.MustNewConstMetric(c.openDesc, prometheus.GaugeValue, float64(sum.Open))
}

// metricsHandler serves the store gauges plus Go runtime and process metrics
// from a dedicated registry.
func metricsHandler(store Store) (http.Handler, error) {
	reg := prometheus.NewRegistry()
	for _, c := range []prometheus.Collector{
		NewStoreCollector(store, ""),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), nil
}
