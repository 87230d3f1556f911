// Package metrics holds Prometheus metrics for the upload server.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricNamespace = "canister_uploader"

	metricsNameChunksSent    = "weights_chunks_sent_total"
	metricsNameBytesUploaded = "bytes_uploaded_total"
	metricsNameUploadLatency = "upload_latency"

	metricLabelCanister = "canister"
)

// latencyBuckets are the buckets for the latencies from 1 second to 2 hours.
// A full weights upload is hundreds of sequential dfx calls.
var latencyBuckets []float64 = []float64{
	1, 5, 15, 60, 300, 900, 1800, 3600, 7200,
}

// MetricsMonitor holds and updates Prometheus metrics.
type MetricsMonitor struct {
	chunksSentCounterVec    *prometheus.CounterVec
	bytesUploadedCounterVec *prometheus.CounterVec
	uploadLatencyHistVec    *prometheus.HistogramVec
}

// NewMetricsMonitor returns a new MetricsMonitor.
func NewMetricsMonitor() *MetricsMonitor {
	chunksSentCounterVec := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricNamespace,
			Name:      metricsNameChunksSent,
		},
		[]string{
			metricLabelCanister,
		},
	)
	bytesUploadedCounterVec := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricNamespace,
			Name:      metricsNameBytesUploaded,
		},
		[]string{
			metricLabelCanister,
		},
	)
	uploadLatencyHistVec := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricNamespace,
			Name:      metricsNameUploadLatency,
			Buckets:   latencyBuckets,
		},
		[]string{
			metricLabelCanister,
		},
	)

	m := &MetricsMonitor{
		chunksSentCounterVec:    chunksSentCounterVec,
		bytesUploadedCounterVec: bytesUploadedCounterVec,
		uploadLatencyHistVec:    uploadLatencyHistVec,
	}

	prometheus.MustRegister(
		chunksSentCounterVec,
		bytesUploadedCounterVec,
		uploadLatencyHistVec,
	)

	return m
}

// ObserveChunkSent counts one transmitted weights chunk and its payload size.
func (m *MetricsMonitor) ObserveChunkSent(canister string, sizeBytes int) {
	m.chunksSentCounterVec.WithLabelValues(canister).Inc()
	m.bytesUploadedCounterVec.WithLabelValues(canister).Add(float64(sizeBytes))
}

// ObserveUploadLatency observes the duration of a completed upload run.
func (m *MetricsMonitor) ObserveUploadLatency(canister string, latency time.Duration) {
	m.uploadLatencyHistVec.WithLabelValues(canister).Observe(float64(latency) / float64(time.Second))
}

// UnregisterAllCollectors unregisters all collectors.
func (m *MetricsMonitor) UnregisterAllCollectors() {
	prometheus.Unregister(m.chunksSentCounterVec)
	prometheus.Unregister(m.bytesUploadedCounterVec)
	prometheus.Unregister(m.uploadLatencyHistVec)
}
