package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Uploader metrics
var (
	// VideosUploaded counts videos the pipeline finished, by outcome.
	VideosUploaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vod",
			Name:      "videos_uploaded_total",
			Help:      "Total number of videos processed by the upload pipeline",
		},
		[]string{"status"},
	)

	// PartsUploaded counts successfully uploaded segments.
	PartsUploaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "vod",
			Name:      "parts_uploaded_total",
			Help:      "Total number of segments uploaded to the platform",
		},
	)

	// PlaylistsCreated counts created platform playlists.
	PlaylistsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "vod",
			Name:      "playlists_created_total",
			Help:      "Total number of playlists created on the platform",
		},
	)

	// VideoUploadDuration tracks end-to-end time per video.
	VideoUploadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "vod",
			Name:      "video_upload_duration_seconds",
			Help:      "Time taken to fully upload one video",
			Buckets:   []float64{30, 60, 120, 300, 600, 1800, 3600},
		},
	)

	// PartUploadDuration tracks time per segment upload.
	PartUploadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "vod",
			Name:      "part_upload_duration_seconds",
			Help:      "Time taken to upload one segment",
			Buckets:   []float64{5, 15, 30, 60, 120, 300, 600},
		},
	)

	// ArchiveDuration tracks time to archive a finished segment to S3.
	ArchiveDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "vod",
			Name:      "segment_archive_duration_seconds",
			Help:      "Time taken to archive one segment to S3",
			Buckets:   []float64{1, 5, 10, 30, 60, 120},
		},
	)

	// ActiveVideo is 1 while a video is being processed.
	ActiveVideo = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "vod",
			Name:      "active_video",
			Help:      "Whether a video upload is currently in progress",
		},
	)

	// BatchSize tracks how many eligible videos each run selected.
	BatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "vod",
			Name:      "batch_size",
			Help:      "Number of eligible videos selected per run",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
		},
	)
)

// RecordSuccess records a fully uploaded video.
func RecordSuccess() {
	VideosUploaded.WithLabelValues("success").Inc()
}

// RecordFailure records a video that failed during upload.
func RecordFailure() {
	VideosUploaded.WithLabelValues("failed").Inc()
}
