package health

import (
	"encoding/json"
	"net/http"
)

// Checker reports the current health of one part of the viewer.
type Checker interface {
	CheckHealth() Status
}

// CheckerFunc adapts a function to the Checker interface.
type CheckerFunc func() Status

// CheckHealth implements Checker.
func (f CheckerFunc) CheckHealth() Status { return f() }

// Handler serves an aggregated health report as JSON. The HTTP status is
// 200 while healthy or degraded and 503 when any checker is unhealthy, so
// load balancers and the viewer UI can share the endpoint.
type Handler struct {
	system   string
	checkers []Checker
}

// NewHandler creates a health handler aggregating the given checkers.
func NewHandler(system string, checkers ...Checker) *Handler {
	return &Handler{system: system, checkers: checkers}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	statuses := make([]Status, 0, len(h.checkers))
	for _, c := range h.checkers {
		statuses = append(statuses, c.CheckHealth())
	}
	report := Aggregate(h.system, statuses)

	code := http.StatusOK
	if report.IsUnhealthy() {
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(report)
}
