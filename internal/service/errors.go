package service

import "errors"

// Validation failures are rejected before any external call is attempted and
// are never retried automatically.
var (
	ErrInvalidAmount    = errors.New("amount must be greater than zero")
	ErrInvalidPhone     = errors.New("invalid DRC phone number")
	ErrOperatorMismatch = errors.New("phone number does not match the selected network")

	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrKYCRequired blocks issuance until the caller has an approved KYC
	// submission on file.
	ErrKYCRequired = errors.New("kyc approval required")

	// ErrPaymentProofInvalid is returned when a supplied transactionId does
	// not resolve to a terminal-success deposit owned by the caller.
	ErrPaymentProofInvalid = errors.New("payment proof is not a confirmed transaction")
)
