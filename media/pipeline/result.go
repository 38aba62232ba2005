package pipeline

import (
	"time"

	apperrors "github.com/leeforge/compact/errors"
	"github.com/leeforge/compact/media/bound"
	"github.com/leeforge/compact/media/quality"
	"github.com/leeforge/compact/metrics"
)

// Stage is where an item is in the pipeline, or where it stopped.
type Stage string

const (
	StageDiscovered Stage = "discovered"
	StageDecoding   Stage = "decoding"
	StageResizing   Stage = "resizing"
	StageEncoding   Stage = "encoding"
	StageWritten    Stage = "written"
	StageMirroring  Stage = "mirroring"
	StageMirrored   Stage = "mirrored"
)

// ItemResult is the outcome of one WorkItem. Err is nil on success; on
// failure Stage is the stage that failed.
type ItemResult struct {
	Index  int    `json:"index"`
	Name   string `json:"name"`
	Source string `json:"source"`
	Output string `json:"output,omitempty"`
	Stage  Stage  `json:"stage"`

	Before   bound.Dimensions       `json:"before"`
	After    bound.Dimensions       `json:"after"`
	Params   *quality.EncoderParams `json:"params,omitempty"`
	BytesIn  int64                  `json:"bytes_in,omitempty"`
	BytesOut int64                  `json:"bytes_out,omitempty"`
	URL      string                 `json:"url,omitempty"`

	Err       error               `json:"-"`
	Error     string              `json:"error,omitempty"`
	ErrorType apperrors.ErrorType `json:"error_type,omitempty"`

	Duration time.Duration `json:"duration"`
}

// OK reports whether the item succeeded.
func (r ItemResult) OK() bool {
	return r.Err == nil
}

func (r *ItemResult) fail(stage Stage, err error) {
	r.Stage = stage
	r.Err = err
	r.Error = err.Error()
	r.ErrorType = apperrors.TypeOf(err)
}

// BatchResult collects every ItemResult in discovery order.
type BatchResult struct {
	Tool      string           `json:"tool" default:"compact"`
	RunID     string           `json:"run_id"`
	StartedAt time.Time        `json:"started_at"`
	Duration  time.Duration    `json:"duration"`
	Policy    bound.Policy     `json:"policy"`
	Quality   string           `json:"quality"`
	Items     []ItemResult     `json:"items"`
	Metrics   []metrics.Metric `json:"metrics,omitempty"`
}

// Summary returns how many items succeeded and failed.
func (b *BatchResult) Summary() (succeeded, failed int) {
	for _, it := range b.Items {
		if it.OK() {
			succeeded++
		} else {
			failed++
		}
	}
	return succeeded, failed
}

// Failed returns the failed items in discovery order.
func (b *BatchResult) Failed() []ItemResult {
	var out []ItemResult
	for _, it := range b.Items {
		if !it.OK() {
			out = append(out, it)
		}
	}
	return out
}
