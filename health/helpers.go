package health

import "time"

// Health states, ordered from best to worst. Aggregate reports the worst
// state seen across sub-components.
const (
	stateHealthy   = "healthy"
	stateDegraded  = "degraded"
	stateUnhealthy = "unhealthy"
)

func severity(state string) int {
	switch state {
	case stateUnhealthy:
		return 2
	case stateDegraded:
		return 1
	default:
		return 0
	}
}

func newStatus(component, state, message string) Status {
	return Status{
		Component: component,
		Healthy:   state == stateHealthy,
		Status:    state,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// NewHealthy reports a component as fully operational.
func NewHealthy(component, message string) Status {
	return newStatus(component, stateHealthy, message)
}

// NewUnhealthy reports a component as down. The message is sanitized
// because it usually carries a raw transport error.
func NewUnhealthy(component, message string) Status {
	return newStatus(component, stateUnhealthy, sanitizeErrorMessage(message))
}

// NewDegraded reports a component as impaired but still serving, for
// example a transport mid-reconnect while the cached window stays usable.
func NewDegraded(component, message string) Status {
	return newStatus(component, stateDegraded, sanitizeErrorMessage(message))
}

// Aggregate rolls sub-statuses up into one report: the result takes the
// worst state among them, with the originals attached as sub-statuses.
func Aggregate(component string, subStatuses []Status) Status {
	worst := stateHealthy
	for _, sub := range subStatuses {
		if severity(sub.Status) > severity(worst) {
			worst = sub.Status
		}
	}

	var message string
	switch {
	case len(subStatuses) == 0:
		message = "no components registered"
	case worst == stateHealthy:
		message = "all components healthy"
	default:
		message = "one or more components " + worst
	}

	report := newStatus(component, worst, message)
	report.SubStatuses = append(report.SubStatuses, subStatuses...)
	return report
}
