// Package errors provides standardized error handling patterns for packlens components.
//
// # Overview
//
// The errors package implements a three-class error classification system for
// the paged-viewer pipeline: Transient (temporary, retryable), Invalid (bad
// input, non-retryable), and Fatal (unrecoverable, stop processing).
//
// Classification lets the page-load path make informed decisions about which
// failures abort only the triggering load and which should tear the session
// down, without hardcoded error string matching at call sites.
//
// # Error Classification
//
// Errors are classified based on their type or content:
//
//   - Transient: transport timeouts, connection issues, open circuit (retry is the caller's choice)
//   - Invalid: malformed pages, bad page numbers, decode failures (do not retry)
//   - Fatal: configuration errors (stop processing)
//
// The classification system integrates with Go's standard error handling,
// supporting errors.Is(), errors.As(), and error wrapping chains.
//
// # Quick Start
//
// Use standard error variables for known conditions:
//
//	if !connected {
//	    return errors.ErrNoConnection
//	}
//
// Wrap errors with component context:
//
//	if err := svc.LoadPage(ctx, n); err != nil {
//	    return errors.WrapTransient(err, "Session", "LoadNext", "page fetch")
//	}
//
// Check classification for retry logic:
//
//	if errors.IsTransient(err) {
//	    // caller may retry the load
//	}
package errors
