package tasks

import (
	"fmt"

	"github.com/DataDog/datadog-go/v5/statsd"
)

// statsdExporter pushes the task summary to a DogStatsD or StatsD endpoint as
// gauges:
//
//	taskapi.tasks.total
//	taskapi.tasks.finished
//	taskapi.tasks.open
type statsdExporter struct {
	client *statsd.Client
}

// newStatsdExporter creates an exporter sending to addr, e.g. "127.0.0.1:8125".
func newStatsdExporter(addr string) (*statsdExporter, error) {
	client, err := statsd.New(addr, statsd.WithNamespace("taskapi."))
	if err != nil {
		return nil, fmt.Errorf("creating statsd client: %w", err)
	}
	return &statsdExporter{client: client}, nil
}

func (e *statsdExporter) export(sum Summary) error {
	for name, value := range map[string]int{
		"tasks.total":    sum.Total,
		"tasks.finished": sum.Finished,
		"tasks.open":     sum.Open,
	} {
		if err := e.client.Gauge(name, float64(value), nil, 1); err != nil {
			return fmt.Errorf("sending %s: %w", name, err)
		}
	}
	return e.client.Flush()
}

// Close closes the underlying statsd client.
func (e *statsdExporter) Close() error {
	if e == nil || e.client == nil {
		return nil
	}
	if err := e.client.Close(); err != nil {
		return fmt.Errorf("closing statsd client: %w", err)
	}
	return nil
}
