package logger

import "fmt"

// LogRequest logs HTTP request information
func LogRequest(method, url string, statusCode int, duration float64) {
	fields := map[string]interface{}{
		"method":      method,
		"url":         url,
		"status_code": statusCode,
		"duration_ms": duration,
	}

	if statusCode >= 200 && statusCode < 300 {
		GetLogger().DebugWithFields("HTTP request completed", fields)
	} else if statusCode >= 400 && statusCode < 500 {
		GetLogger().WarnWithFields("HTTP request client error", fields)
	} else if statusCode >= 500 {
		GetLogger().ErrorWithFields("HTTP request server error", fields)
	}
}

// LogMediaDownload logs media download operations
func LogMediaDownload(target, postID, mediaType string, success bool, err error) {
	fields := map[string]interface{}{
		"target":     target,
		"post_id":    postID,
		"media_type": mediaType,
		"success":    success,
	}

	l := GetLogger().WithFields(fields)

	if err != nil {
		l.WithError(err).Error("Media download failed")
	} else if success {
		l.Debug("Media download completed")
	} else {
		l.Debug("Media download skipped")
	}
}

// LogScrapeProgress logs scraping progress toward the post limit
func LogScrapeProgress(target string, scraped, limit int) {
	percentage := 0.0
	if limit > 0 {
		percentage = float64(scraped) / float64(limit) * 100
	}

	GetLogger().WithFields(map[string]interface{}{
		"target":     target,
		"scraped":    scraped,
		"limit":      limit,
		"percentage": fmt.Sprintf("%.1f%%", percentage),
	}).Info("Scraping progress")
}

// LogMirrorFailure logs a failed attempt against one mirror
func LogMirrorFailure(mirror, path string, err error) {
	GetLogger().WithFields(map[string]interface{}{
		"mirror": mirror,
		"path":   path,
	}).WithError(err).Warn("Mirror request failed, trying next")
}
