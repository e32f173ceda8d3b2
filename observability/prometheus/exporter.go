// Package prometheus exports pool events as Prometheus collectors.
package prometheus

import (
	"errors"
	"fmt"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/symonk/stealq"
)

// Exporter adapts stealq.Metrics to Prometheus collectors.
type Exporter struct {
	submittedTotal  prom.Counter
	executedTotal   prom.Counter
	panicTotal      prom.Counter
	stolenTotal     prom.Counter
	popAbortedTotal prom.Counter
	taskDuration    prom.Histogram
}

var _ stealq.Metrics = (*Exporter)(nil)

// NewExporter creates and registers the collectors.  Collectors already
// registered under the same names are reused, so several pools may share
// one registry.
func NewExporter(namespace string, reg prom.Registerer) (*Exporter, error) {
	if namespace == "" {
		namespace = "stealq"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}

	counter := func(name, help string) prom.Counter {
		return prom.NewCounter(prom.CounterOpts{Namespace: namespace, Name: name, Help: help})
	}
	e := &Exporter{
		submittedTotal:  counter("tasks_submitted_total", "Total number of tasks accepted by the pool."),
		executedTotal:   counter("tasks_executed_total", "Total number of tasks executed, panics included."),
		panicTotal:      counter("task_panic_total", "Total number of task panics."),
		stolenTotal:     counter("tasks_stolen_total", "Total number of tasks taken from a peer worker."),
		popAbortedTotal: counter("pop_aborted_total", "Total number of owner pops that found only stolen slots."),
		taskDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Task execution duration in seconds.",
			Buckets:   prom.DefBuckets,
		}),
	}

	var err error
	for _, c := range []*prom.Counter{&e.submittedTotal, &e.executedTotal, &e.panicTotal, &e.stolenTotal, &e.popAbortedTotal} {
		if *c, err = registerCollector(reg, *c); err != nil {
			return nil, err
		}
	}
	if e.taskDuration, err = registerCollector(reg, e.taskDuration); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Exporter) TaskSubmitted() {
	if e == nil {
		return
	}
	e.submittedTotal.Inc()
}

func (e *Exporter) TaskExecuted(d time.Duration) {
	if e == nil {
		return
	}
	e.executedTotal.Inc()
	e.taskDuration.Observe(d.Seconds())
}

func (e *Exporter) TaskPanicked() {
	if e == nil {
		return
	}
	e.panicTotal.Inc()
}

func (e *Exporter) TaskStolen() {
	if e == nil {
		return
	}
	e.stolenTotal.Inc()
}

func (e *Exporter) PopAborted() {
	if e == nil {
		return
	}
	e.popAbortedTotal.Inc()
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}
