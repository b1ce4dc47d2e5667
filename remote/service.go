// Package remote implements the decode boundary over NATS request/reply.
// The decode service (the process that actually parses the container file
// and runs the filter script) subscribes on two subjects under a common
// prefix; this client sends JSON requests and unwraps the page envelopes.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/WeiyueSUN/packlens-audio-preview/decode"
	"github.com/WeiyueSUN/packlens-audio-preview/errors"
	"github.com/WeiyueSUN/packlens-audio-preview/pkg/retry"
)

// Subject suffixes under the configured prefix.
const (
	subjectInitRead = "init_read"
	subjectLoadPage = "load_page"
)

// requester is the slice of *nats.Conn this client needs. Narrowed to an
// interface so tests can stand in for a server.
type requester interface {
	RequestWithContext(ctx context.Context, subj string, data []byte) (*nats.Msg, error)
}

// Service is a decode.Service backed by a NATS connection. Repeated
// transport failures open a circuit: requests fail fast with ErrCircuitOpen
// until the cooldown elapses, so a dead decode process cannot stack up
// timed-out fetches behind a scrolling viewer.
type Service struct {
	conn          requester
	subjectPrefix string
	timeout       time.Duration
	retryCfg      retry.Config
	logger        *slog.Logger

	// Circuit breaker
	failures    atomic.Int32
	threshold   int32
	cooldown    time.Duration
	lastFailure atomic.Value // stores time.Time
}

// New creates a NATS-backed decode service client.
func New(conn *nats.Conn, options ...Option) (*Service, error) {
	if conn == nil {
		return nil, errors.WrapInvalid(errors.ErrNoConnection, "remote", "New", "nil NATS connection")
	}
	return newService(conn, options...)
}

// newService is the interface-typed constructor shared with tests.
func newService(conn requester, options ...Option) (*Service, error) {
	s := &Service{
		conn:          conn,
		subjectPrefix: defaultSubjectPrefix,
		timeout:       defaultTimeout,
		threshold:     defaultCircuitThreshold,
		cooldown:      defaultCircuitCooldown,
		retryCfg:      defaultRetryConfig(),
		logger:        slog.Default(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	s.lastFailure.Store(time.Time{})
	return s, nil
}

// InitRead starts a fresh read and returns the first page.
func (s *Service) InitRead(ctx context.Context, pageSize int, filterScript string) (*decode.PageResult, error) {
	if pageSize < 1 {
		return nil, errors.WrapInvalid(errors.ErrInvalidData, "remote", "InitRead", "page size must be >= 1")
	}
	req := initReadRequest{PageSize: pageSize, FilterScript: filterScript}
	return s.roundTrip(ctx, "InitRead", subjectInitRead, req)
}

// LoadPage fetches one page by number.
func (s *Service) LoadPage(ctx context.Context, pageNumber int) (*decode.PageResult, error) {
	if pageNumber < 1 {
		return nil, errors.WrapInvalid(errors.ErrInvalidPageNumber, "remote", "LoadPage", "page number must be >= 1")
	}
	req := loadPageRequest{PageNumber: pageNumber}
	return s.roundTrip(ctx, "LoadPage", subjectLoadPage, req)
}

// roundTrip performs one request/reply exchange and unwraps the envelope.
// Transport failures are retried with backoff inside the caller's context;
// an open circuit stops the retry loop immediately.
func (s *Service) roundTrip(ctx context.Context, operation, suffix string, request any) (*decode.PageResult, error) {
	payload, err := json.Marshal(request)
	if err != nil {
		return nil, errors.WrapInvalid(err, "remote", operation, "encode request")
	}

	subject := fmt.Sprintf("%s.%s", s.subjectPrefix, suffix)
	msg, err := retry.DoWithResult(ctx, s.retryCfg, func() (*nats.Msg, error) {
		if cErr := s.checkCircuit(operation); cErr != nil {
			return nil, retry.NonRetryable(cErr)
		}

		reqCtx := ctx
		if s.timeout > 0 {
			var cancel context.CancelFunc
			reqCtx, cancel = context.WithTimeout(ctx, s.timeout)
			defer cancel()
		}

		m, reqErr := s.conn.RequestWithContext(reqCtx, subject, payload)
		if reqErr != nil {
			s.recordFailure()
		}
		return m, reqErr
	})
	if err != nil {
		return nil, errors.WrapTransient(err, "remote", operation, "request "+subject)
	}

	var envelope pageEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		s.recordFailure()
		return nil, errors.WrapInvalid(err, "remote", operation, "decode response")
	}

	if !envelope.OK {
		// A decode-side failure is a valid reply; the transport is healthy
		s.resetCircuit()
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: %s", errors.ErrDecodeFailed, envelope.Error),
			"remote", operation, "decode service error")
	}

	s.resetCircuit()

	result := envelope.PageResult
	for i, entity := range result.Data {
		result.Data[i] = restoreBinaryLeaves(entity)
	}
	return &result, nil
}

// checkCircuit fails fast while the circuit is open.
func (s *Service) checkCircuit(operation string) error {
	if s.failures.Load() < s.threshold {
		return nil
	}
	last, _ := s.lastFailure.Load().(time.Time)
	if time.Since(last) < s.cooldown {
		return errors.WrapTransient(errors.ErrCircuitOpen, "remote", operation, "circuit check")
	}
	// Cooldown elapsed: allow one probe through
	s.failures.Store(s.threshold - 1)
	return nil
}

// recordFailure counts a transport failure towards the circuit threshold.
func (s *Service) recordFailure() {
	count := s.failures.Add(1)
	s.lastFailure.Store(time.Now())
	if count == s.threshold {
		s.logger.Warn("decode transport circuit opened",
			"failures", count, "cooldown", s.cooldown)
	}
}

// resetCircuit clears the failure count after a healthy exchange.
func (s *Service) resetCircuit() {
	if s.failures.Swap(0) >= s.threshold {
		s.logger.Info("decode transport circuit closed")
	}
}

// Failures returns the current consecutive failure count.
func (s *Service) Failures() int32 {
	return s.failures.Load()
}
