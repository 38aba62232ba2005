package metrics

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// Collector gathers counters and duration histograms for one batch run.
type Collector struct {
	metrics map[string]*Metric
	mu      sync.RWMutex
}

// Metric is a single counter or histogram.
type Metric struct {
	Name   string            `json:"name"`
	Type   string            `json:"type"`
	Value  float64           `json:"value"`
	Count  int               `json:"count,omitempty"`
	Max    float64           `json:"max,omitempty"`
	Labels map[string]string `json:"labels,omitempty"`
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{
		metrics: make(map[string]*Metric),
	}
}

// IncCounter adds one to a counter.
func (c *Collector) IncCounter(name string, labels map[string]string) {
	c.AddCounter(name, 1, labels)
}

// AddCounter adds value to a counter.
func (c *Collector) AddCounter(name string, value float64, labels map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := buildKey(name, labels)
	if metric, exists := c.metrics[key]; exists {
		metric.Value += value
		return
	}
	c.metrics[key] = &Metric{Name: name, Type: "counter", Value: value, Labels: labels}
}

// ObserveHistogram records one observation; Value holds the running sum.
func (c *Collector) ObserveHistogram(name string, value float64, labels map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := buildKey(name, labels)
	metric, exists := c.metrics[key]
	if !exists {
		metric = &Metric{Name: name, Type: "histogram", Labels: labels}
		c.metrics[key] = metric
	}
	metric.Value += value
	metric.Count++
	if value > metric.Max {
		metric.Max = value
	}
}

// ObserveDuration records d in seconds.
func (c *Collector) ObserveDuration(name string, d time.Duration, labels map[string]string) {
	c.ObserveHistogram(name, d.Seconds(), labels)
}

// GetMetric returns a copy of a single metric, or nil.
func (c *Collector) GetMetric(name string, labels map[string]string) *Metric {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if m, ok := c.metrics[buildKey(name, labels)]; ok {
		cp := *m
		return &cp
	}
	return nil
}

// Counter returns the value of a counter, or 0.
func (c *Collector) Counter(name string, labels map[string]string) float64 {
	if m := c.GetMetric(name, labels); m != nil {
		return m.Value
	}
	return 0
}

// Snapshot returns copies of all metrics ordered by key.
func (c *Collector) Snapshot() []Metric {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.metrics))
	for k := range c.metrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Metric, 0, len(keys))
	for _, k := range keys {
		out = append(out, *c.metrics[k])
	}
	return out
}

// Reset clears all metrics.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metrics = make(map[string]*Metric)
}

// buildKey joins name and labels sorted by label name.
func buildKey(name string, labels map[string]string) string {
	if len(labels) == 0 {
		return name
	}
	names := make([]string, 0, len(labels))
	for k := range labels {
		names = append(names, k)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString(name)
	for _, k := range names {
		sb.WriteString(":")
		sb.WriteString(k)
		sb.WriteString("=")
		sb.WriteString(labels[k])
	}
	return sb.String()
}
