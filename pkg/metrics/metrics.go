// Package metrics provides Prometheus metrics for the rehearsal
// session service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "rehearse"

var (
	// Session lifecycle.
	sessionsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_started_total",
		Help:      "Number of interview sessions started.",
	})
	sessionsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_finished_total",
		Help:      "Number of sessions reaching a terminal state, by outcome.",
	}, []string{"outcome"})
	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_sessions",
		Help:      "Number of sessions currently registered.",
	})

	// Submissions.
	submissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "submissions_total",
		Help:      "Number of answer submissions, by trigger (manual or deadline).",
	}, []string{"trigger"})
	submissionRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "submission_retries_total",
		Help:      "Number of automatic submission retries after a service failure.",
	})
	submissionFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "submission_failures_total",
		Help:      "Number of failed submissions surfaced to the caller, by kind.",
	}, []string{"kind"})
	submissionLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "submission_latency_seconds",
		Help:      "Latency of evaluation service submission calls.",
		Buckets:   prometheus.DefBuckets,
	})

	// Drafts.
	draftSaves = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "draft_saves_total",
		Help:      "Number of draft save requests issued.",
	})
	draftSaveFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "draft_save_failures_total",
		Help:      "Number of draft persistence failures (absorbed, never surfaced).",
	})
	draftLoads = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "draft_loads_total",
		Help:      "Number of drafts loaded into a fresh answer buffer.",
	})

	// Event plumbing.
	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "event_queue_depth",
		Help:      "Current depth of the per-session event queue.",
	})
	eventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_dropped_total",
		Help:      "Number of events rejected by a full or closed queue.",
	})
	transcriptionFragments = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transcription_fragments_total",
		Help:      "Number of transcription fragments merged into answer buffers.",
	})

	// HTTP surface.
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by endpoint and status code.",
	}, []string{"endpoint", "status"})
	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration by endpoint.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint"})
)

// Record helpers. Handlers and components call these rather than
// touching collectors directly.

func RecordSessionStarted()              { sessionsStarted.Inc() }
func RecordSessionFinished(outcome string) { sessionsFinished.WithLabelValues(outcome).Inc() }
func UpdateActiveSessions(n int)         { activeSessions.Set(float64(n)) }

func RecordSubmission(trigger string)       { submissions.WithLabelValues(trigger).Inc() }
func RecordSubmissionRetry()                { submissionRetries.Inc() }
func RecordSubmissionFailure(kind string)   { submissionFailures.WithLabelValues(kind).Inc() }
func RecordSubmissionLatency(secs float64)  { submissionLatency.Observe(secs) }

func RecordDraftSave()        { draftSaves.Inc() }
func RecordDraftSaveFailure() { draftSaveFailures.Inc() }
func RecordDraftLoad()        { draftLoads.Inc() }

func UpdateQueueDepth(n int)          { queueDepth.Set(float64(n)) }
func RecordEventDropped()             { eventsDropped.Inc() }
func RecordTranscriptionFragment()    { transcriptionFragments.Inc() }

func RecordHTTPRequest(endpoint, status string) {
	httpRequests.WithLabelValues(endpoint, status).Inc()
}

func RecordHTTPDuration(endpoint string, secs float64) {
	httpDuration.WithLabelValues(endpoint).Observe(secs)
}
