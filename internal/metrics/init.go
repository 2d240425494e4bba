package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, side := range []string{"behind", "ahead", "rejected"} {
		PreloadCacheEvictions.WithLabelValues(side)
	}

	for _, p := range []string{PriorityInteractive, PriorityBackground} {
		DecodeRequestsTotal.WithLabelValues(p)
		DecodeDuration.WithLabelValues(p)
		DecodeQueueDepth.WithLabelValues(p)
		for _, status := range []string{"success", "error", "canceled"} {
			DecodeResultsTotal.WithLabelValues(p, status)
		}
	}

	for _, reason := range []string{"size", "angle", "item", "unknown"} {
		DecodeStaleResults.WithLabelValues(reason)
	}

	for _, reason := range []string{"ceiling", "empty"} {
		ZoomRejected.WithLabelValues(reason)
	}

	volumes := []string{"media", "database", "unknown"}
	for _, op := range []string{"stat", "open"} {
		for _, vol := range volumes {
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
			FilesystemRetryDuration.WithLabelValues(op, vol)
		}
	}

	for _, op := range []string{"initialize_schema", "get_rotation", "set_rotation", "get_last_viewed", "set_last_viewed"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}
}
