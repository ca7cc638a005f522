package domain

import "errors"

var (
	// ErrInvalidSnapshot means the market data handed to the scorer is
	// malformed (missing, negative, or non-finite price/volume).
	// Retrying with the same input will fail again.
	ErrInvalidSnapshot = errors.New("invalid market snapshot")

	// ErrLedgerUnavailable wraps transient storage failures. No quota is
	// consumed when an operation fails with it; callers may retry.
	ErrLedgerUnavailable = errors.New("ledger unavailable")

	// ErrUnsupportedCoin means the coin query could not be resolved to a
	// known provider identifier.
	ErrUnsupportedCoin = errors.New("unsupported coin")
)
