package metrics

import "time"

// Metric names recorded by the batch pipeline.
const (
	ItemsTotal     = "items_total"
	StageSeconds   = "stage_duration_seconds"
	BytesIn        = "bytes_in_total"
	BytesOut       = "bytes_out_total"
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// BatchRecorder records pipeline events into a Collector.
type BatchRecorder struct {
	collector *Collector
}

// NewBatchRecorder wraps c; a nil c gets a fresh Collector.
func NewBatchRecorder(c *Collector) *BatchRecorder {
	if c == nil {
		c = NewCollector()
	}
	return &BatchRecorder{collector: c}
}

// Collector returns the underlying collector.
func (r *BatchRecorder) Collector() *Collector {
	return r.collector
}

// RecordStage observes how long one stage took.
func (r *BatchRecorder) RecordStage(stage string, d time.Duration) {
	r.collector.ObserveDuration(StageSeconds, d, map[string]string{"stage": stage})
}

// RecordOutcome counts a finished item; failures are labelled with their error type.
func (r *BatchRecorder) RecordOutcome(outcome, errType string) {
	labels := map[string]string{"outcome": outcome}
	if errType != "" {
		labels["error"] = errType
	}
	r.collector.IncCounter(ItemsTotal, labels)
}

// RecordBytes adds source and output sizes of a successful item.
func (r *BatchRecorder) RecordBytes(in, out int64) {
	r.collector.AddCounter(BytesIn, float64(in), nil)
	r.collector.AddCounter(BytesOut, float64(out), nil)
}

// Ratio returns bytes out over bytes in, or 0 when nothing was read.
func (r *BatchRecorder) Ratio() float64 {
	in := r.collector.Counter(BytesIn, nil)
	if in == 0 {
		return 0
	}
	return r.collector.Counter(BytesOut, nil) / in
}
