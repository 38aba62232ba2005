package pipeline

import (
	"fmt"
	"io"
	"time"
)

// PrintReport writes one line per item followed by a summary line.
func PrintReport(w io.Writer, r *BatchResult) error {
	for _, it := range r.Items {
		var err error
		if it.OK() {
			_, err = fmt.Fprintf(w, "[OK] %s %s -> %s %s size=%s\n",
				it.Name, it.Before, it.After, paramsString(it), humanSize(it.BytesOut))
		} else {
			_, err = fmt.Fprintf(w, "[ERROR] %s %s: %v\n", it.Name, it.Stage, it.Err)
		}
		if err != nil {
			return err
		}
	}

	ok, failed := r.Summary()
	_, err := fmt.Fprintf(w, "%d succeeded, %d failed (%d total) in %s\n",
		ok, failed, len(r.Items), r.Duration.Round(time.Millisecond))
	return err
}

func paramsString(it ItemResult) string {
	if it.Params == nil {
		return "-"
	}
	return it.Params.String()
}

func humanSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1fMB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1fKB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%dB", n)
	}
}
