package telemetry

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Synthesis outcomes recorded by ObserveSynthesis.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Recorder centralises telemetry (logs, metrics) for the adapter. Logs go
// through slog; metrics are Prometheus collectors that stay inert until
// registered.
type Recorder struct {
	logger *slog.Logger

	requests   *prometheus.CounterVec
	duration   prometheus.Histogram
	audioBytes prometheus.Counter
	fallbacks  prometheus.Counter
}

// NewRecorder constructs a telemetry recorder using the provided slog.Logger.
func NewRecorder(logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		logger: logger,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tts_windows_media",
			Name:      "synthesis_requests_total",
			Help:      "Synthesis calls by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tts_windows_media",
			Name:      "synthesis_duration_seconds",
			Help:      "Wall time of a synthesis call, engine wait and extraction included.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		audioBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tts_windows_media",
			Name:      "audio_bytes_total",
			Help:      "Audio bytes extracted from completed speech streams.",
		}),
		fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tts_windows_media",
			Name:      "voice_fallbacks_total",
			Help:      "Synthesis calls whose voice name did not resolve and used the engine default.",
		}),
	}
}

// Logger returns the underlying slog.Logger for direct use.
func (r *Recorder) Logger() *slog.Logger {
	return r.logger
}

// Collectors returns the recorder's Prometheus collectors.
func (r *Recorder) Collectors() []prometheus.Collector {
	return []prometheus.Collector{r.requests, r.duration, r.audioBytes, r.fallbacks}
}

// Register adds the recorder's collectors to reg.
func (r *Recorder) Register(reg prometheus.Registerer) error {
	for _, c := range r.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ObserveSynthesis records one finished synthesis call.
func (r *Recorder) ObserveSynthesis(outcome string, elapsed time.Duration, audioBytes int) {
	r.requests.WithLabelValues(outcome).Inc()
	r.duration.Observe(elapsed.Seconds())
	if audioBytes > 0 {
		r.audioBytes.Add(float64(audioBytes))
	}
}

// VoiceFallback records a voice lookup miss.
func (r *Recorder) VoiceFallback() {
	r.fallbacks.Inc()
}
