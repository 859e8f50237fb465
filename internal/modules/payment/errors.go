package payment

import "errors"

var (
	// ErrAlreadyPending means a live unexpired attempt exists; the caller
	// should reuse its redirect URL or wait for it to expire.
	ErrAlreadyPending = errors.New("payment already pending")

	// ErrExpired is terminal for one attempt; a new attempt may be created.
	ErrExpired = errors.New("payment expired")

	// ErrUnknownProviderRef marks an untrusted callback for an attempt this
	// ledger never issued; it is logged and dropped, never propagated.
	ErrUnknownProviderRef = errors.New("unknown provider reference")

	ErrAmountMismatch = errors.New("callback amount mismatch")
	ErrInvalidMethod  = errors.New("unsupported payment method")
	ErrNotPayable     = errors.New("appointment cannot accept payments")
	ErrNoPaymentFound = errors.New("no payment found for appointment")
)
