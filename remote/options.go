package remote

import (
	"log/slog"
	"time"

	"github.com/WeiyueSUN/packlens-audio-preview/pkg/retry"
)

// Defaults for the NATS decode client.
const (
	defaultSubjectPrefix    = "packlens.decode"
	defaultTimeout          = 10 * time.Second
	defaultCircuitThreshold = 5
	defaultCircuitCooldown  = 30 * time.Second
)

// defaultRetryConfig keeps retries short: a scroll is interactive, so two
// attempts with a small backoff is the most latency worth spending before
// surfacing the failure.
func defaultRetryConfig() retry.Config {
	return retry.Config{
		MaxAttempts:  2,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   2.0,
		AddJitter:    true,
	}
}

// Option configures the NATS decode client.
type Option func(*Service)

// WithSubjectPrefix sets the subject prefix the decode service listens on.
func WithSubjectPrefix(prefix string) Option {
	return func(s *Service) {
		if prefix != "" {
			s.subjectPrefix = prefix
		}
	}
}

// WithTimeout sets the per-request timeout. Zero disables the client-side
// timeout and leaves deadlines to the caller's context.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Service) {
		s.timeout = timeout
	}
}

// WithCircuitBreaker tunes the failure threshold and cooldown window.
func WithCircuitBreaker(threshold int, cooldown time.Duration) Option {
	return func(s *Service) {
		if threshold >= 1 {
			s.threshold = int32(threshold)
		}
		if cooldown > 0 {
			s.cooldown = cooldown
		}
	}
}

// WithRetry tunes the transport retry policy. A MaxAttempts of 1 disables
// retrying.
func WithRetry(cfg retry.Config) Option {
	return func(s *Service) {
		s.retryCfg = cfg
	}
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}
