package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	quizLoadsTotal    atomic.Uint64
	quizSavesTotal    atomic.Uint64
	quizFailuresTotal atomic.Uint64

	assetIngestsTotal        atomic.Uint64
	assetIngestFailuresTotal atomic.Uint64

	assetIngestDuration = newHistogram([]float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000})
)

// IncQuizLoads increments the successful quiz load counter.
func IncQuizLoads() {
	quizLoadsTotal.Add(1)
}

// IncQuizSaves increments the successful quiz save counter.
func IncQuizSaves() {
	quizSavesTotal.Add(1)
}

// IncQuizFailures increments the infrastructure failure counter for quiz operations.
func IncQuizFailures() {
	quizFailuresTotal.Add(1)
}

// IncAssetIngests increments the successful asset ingest counter.
func IncAssetIngests() {
	assetIngestsTotal.Add(1)
}

// IncAssetIngestFailures increments the failed asset ingest counter.
func IncAssetIngestFailures() {
	assetIngestFailuresTotal.Add(1)
}

// ObserveAssetIngestDurationMs records an ingest duration in milliseconds.
func ObserveAssetIngestDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	assetIngestDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "quiz_loads_total", "Total quiz documents loaded", quizLoadsTotal.Load())
	writeCounter(&buf, "quiz_saves_total", "Total quiz documents saved", quizSavesTotal.Load())
	writeCounter(&buf, "quiz_failures_total", "Total quiz operations failed on infrastructure", quizFailuresTotal.Load())
	writeCounter(&buf, "asset_ingests_total", "Total image assets ingested", assetIngestsTotal.Load())
	writeCounter(&buf, "asset_ingest_failures_total", "Total image asset ingests failed", assetIngestFailuresTotal.Load())
	writeHistogram(&buf, "asset_ingest_duration_ms", "Asset ingest duration in milliseconds", assetIngestDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

// Observe records value in the first bucket whose upper bound holds it.
func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			return
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

// writeHistogram emits cumulative bucket counts as Prometheus expects.
func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
