// Package health provides health reporting for the viewer and its
// dependencies (decode transport, session, blob store).
package health

import (
	"regexp"
	"strings"
	"time"
)

// Pre-compiled regexes for error message sanitization. Health output is
// served to browsers, so connection strings and paths are scrubbed first.
var (
	httpURLRegex    = regexp.MustCompile(`https?://[^\s]+`)
	natsURLRegex    = regexp.MustCompile(`nats://[^\s]+`)
	wsURLRegex      = regexp.MustCompile(`wss?://[^\s]+`)
	unixPathRegex   = regexp.MustCompile(`/[a-zA-Z0-9/_.-]+`)
	ipAddrRegex     = regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`)
	portRegex       = regexp.MustCompile(`:\d{2,5}\b`)
	credentialRegex = regexp.MustCompile(`(?i)(password|token|key|secret|credential)[^a-zA-Z]*[:=][^,\s}]+`)
)

// Status represents the health state of one part of the viewer
type Status struct {
	Component   string    `json:"component"`
	Healthy     bool      `json:"healthy"` // true if status is "healthy"
	Status      string    `json:"status"`  // "healthy", "unhealthy", "degraded"
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
	SubStatuses []Status  `json:"sub_statuses,omitempty"`
	Metrics     *Metrics  `json:"metrics,omitempty"`
}

// Metrics contains health-related viewer metrics
type Metrics struct {
	Uptime       time.Duration `json:"uptime"`
	PagesLoaded  int64         `json:"pages_loaded,omitempty"`
	BlobCount    int64         `json:"blob_count,omitempty"`
	BlobBytes    int64         `json:"blob_bytes,omitempty"`
	LastActivity time.Time     `json:"last_activity,omitempty"`
}

// IsHealthy returns true if the status is healthy
func (s Status) IsHealthy() bool {
	return s.Status == "healthy"
}

// IsDegraded returns true if the status is degraded
func (s Status) IsDegraded() bool {
	return s.Status == "degraded"
}

// IsUnhealthy returns true if the status is unhealthy
func (s Status) IsUnhealthy() bool {
	return s.Status == "unhealthy"
}

// WithMetrics returns a copy of the status with metrics attached
func (s Status) WithMetrics(metrics *Metrics) Status {
	s.Metrics = metrics
	return s
}

// WithSubStatus returns a copy of the status with a sub-status appended
func (s Status) WithSubStatus(subStatus Status) Status {
	s.SubStatuses = append(s.SubStatuses, subStatus)
	return s
}

// sanitizeErrorMessage scrubs endpoints, paths and credentials from an
// error string before it leaves the process.
func sanitizeErrorMessage(err string) string {
	sanitized := err
	sanitized = httpURLRegex.ReplaceAllString(sanitized, "[url]")
	sanitized = natsURLRegex.ReplaceAllString(sanitized, "[nats-url]")
	sanitized = wsURLRegex.ReplaceAllString(sanitized, "[ws-url]")
	sanitized = credentialRegex.ReplaceAllString(sanitized, "$1=[redacted]")
	sanitized = unixPathRegex.ReplaceAllString(sanitized, "[path]")
	sanitized = ipAddrRegex.ReplaceAllString(sanitized, "[ip]")
	sanitized = portRegex.ReplaceAllString(sanitized, ":[port]")

	lowerSanitized := strings.ToLower(sanitized)
	if strings.Contains(lowerSanitized, "password") || strings.Contains(lowerSanitized, "token") ||
		strings.Contains(lowerSanitized, "secret") || strings.Contains(lowerSanitized, "credential") {
		return "internal error (details redacted)"
	}
	return sanitized
}
