package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/mockmate/rehearse/pkg/metrics"
)

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Metrics wraps a handler with request counting and latency recording
// under the given endpoint label.
func Metrics(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next(rec, r)
		metrics.RecordHTTPRequest(endpoint, strconv.Itoa(rec.status))
		metrics.RecordHTTPDuration(endpoint, time.Since(start).Seconds())
	}
}
