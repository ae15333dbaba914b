package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Playback metrics
	framesRenderedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "termreel_frames_rendered_total",
		Help: "Total frames decoded and painted",
	})

	cellsPaintedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "termreel_cells_painted_total",
		Help: "Total terminal cells painted",
	})

	frameDecodeSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "termreel_frame_decode_seconds",
		Help:    "Time spent decoding and painting one frame",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
	})

	cycleWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "termreel_cycle_wait_seconds",
		Help:    "Time spent waiting for the pacing timer at the end of a cycle",
		Buckets: prometheus.LinearBuckets(0, 0.005, 12), // 0 to 55ms
	})

	cycleOverrunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "termreel_cycle_overruns_total",
		Help: "Cycles whose decode and render work exceeded the frame interval",
	})

	playbackActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "termreel_playback_active",
		Help: "1 while a playback session is running",
	})

	playbackErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "termreel_playback_errors_total",
		Help: "Playback failures by error type",
	}, []string{"error_type"})

	// Input metrics
	streamBytes = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "termreel_stream_bytes",
		Help: "Size of the current frame and audio streams",
	}, []string{"stream"})

	transcodeSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "termreel_transcode_seconds",
		Help:    "Transcoder run time per output stream",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12), // 100ms to ~7min
	}, []string{"stream"})

	cacheLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "termreel_cache_lookups_total",
		Help: "Transcode cache lookups by result",
	}, []string{"result"})
)

// RecordFrame records one decoded frame.
func RecordFrame(cells int, decode time.Duration) {
	framesRenderedTotal.Inc()
	cellsPaintedTotal.Add(float64(cells))
	frameDecodeSeconds.Observe(decode.Seconds())
}

// RecordCycle records the end of one pacing cycle.
func RecordCycle(waited time.Duration, overrun bool) {
	cycleWaitSeconds.Observe(waited.Seconds())
	if overrun {
		cycleOverrunsTotal.Inc()
	}
}

// SetPlaybackActive marks whether a session is running.
func SetPlaybackActive(active bool) {
	if active {
		playbackActive.Set(1)
		return
	}
	playbackActive.Set(0)
}

// IncrementPlaybackError counts a failed session by error type.
func IncrementPlaybackError(errorType string) {
	playbackErrorsTotal.WithLabelValues(errorType).Inc()
}

// SetStreamBytes records the size of a named input stream ("frames" or "audio").
func SetStreamBytes(stream string, n int) {
	streamBytes.WithLabelValues(stream).Set(float64(n))
}

// ObserveTranscode records how long producing a stream took.
func ObserveTranscode(stream string, d time.Duration) {
	transcodeSeconds.WithLabelValues(stream).Observe(d.Seconds())
}

// RecordCacheLookup counts a cache lookup as "hit", "miss" or "error".
func RecordCacheLookup(result string) {
	cacheLookupsTotal.WithLabelValues(result).Inc()
}

// Handler returns a mux with the Prometheus scrape handler mounted at path.
// Callers may mount more endpoints on it.
func Handler(path string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.Handler())
	return mux
}

// NewServer returns the HTTP server for the metrics endpoint on port.
func NewServer(port int, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
