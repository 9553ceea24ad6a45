package model

import "errors"

var (
	// ErrInvalidCurrency marks a malformed currency code or pair. Never
	// retried, surfaced straight to the caller.
	ErrInvalidCurrency = errors.New("invalid currency")

	// ErrMalformedResponse marks a provider response whose shape violates
	// the provider contract. Non-retryable: it aborts the offending source
	// for the cycle.
	ErrMalformedResponse = errors.New("malformed provider response")

	// ErrSourceUnavailable marks a source whose retries are exhausted. It is
	// recorded as a per-source failure, never fatal to the whole run.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrRateUnavailable means no direct or triangulated quote exists for
	// the requested pair.
	ErrRateUnavailable = errors.New("rate unavailable")

	// ErrPersistence marks a journal or snapshot write failure. The previous
	// snapshot remains intact and readable.
	ErrPersistence = errors.New("persistence failure")

	// ErrNoSnapshot is returned by the store when no snapshot has ever been
	// written, as opposed to an I/O failure reading one.
	ErrNoSnapshot = errors.New("no snapshot yet")
)
