package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Card statuses as reported to clients. ACTIVE and FROZEN are the two states
// this service transitions between; the remaining values come from the issuer.
const (
	CardStatusActive     = "ACTIVE"
	CardStatusFrozen     = "FROZEN"
	CardStatusInactive   = "INACTIVE"
	CardStatusTerminated = "TERMINATED"
	CardStatusCancelled  = "CANCELLED"
)

const (
	CardSchemeVisa       = "VISA"
	CardSchemeMastercard = "MASTERCARD"
)

// Transaction types.
const (
	TxTypeDeposit    = "DEPOSIT"
	TxTypeWithdrawal = "WITHDRAWAL"
	TxTypePayment    = "PAYMENT"
	TxTypeTransfer   = "TRANSFER"
)

// Transaction statuses. pending is the only non-terminal state.
const (
	TxStatusPending    = "pending"
	TxStatusSuccessful = "successful"
	TxStatusFailed     = "failed"
	TxStatusCompleted  = "completed"
)

// IsTerminalStatus reports whether a transaction status can no longer change.
func IsTerminalStatus(status string) bool {
	return status != TxStatusPending
}

type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	DisplayName    string    `json:"displayName"`
	PhotoURL       string    `json:"photoURL,omitempty"`
	ExternalAuthID string    `json:"-"`
	PasswordHash   string    `json:"-"`
	CreatedAt      time.Time `json:"createdTimestamp"`
	UpdatedAt      time.Time `json:"updatedTimestamp"`
}

// Card is a provisioned virtual payment instrument. PAN and CVV are never
// serialized; clients only ever see MaskedPAN, except in the one-time
// creation response which is built explicitly by the issuing handler.
type Card struct {
	ID         string          `json:"id"`
	UserID     string          `json:"-"`
	ProviderID string          `json:"-"`
	MaskedPAN  string          `json:"maskedNumber"`
	Last4      string          `json:"last4"`
	PAN        string          `json:"-"`
	CVV        string          `json:"-"`
	Expiry     string          `json:"expiry"`
	Balance    decimal.Decimal `json:"balance"`
	Currency   string          `json:"currency"`
	Label      string          `json:"label"`
	Status     string          `json:"status"`
	Scheme     string          `json:"scheme"`
	CreatedAt  time.Time       `json:"createdTimestamp"`
	UpdatedAt  time.Time       `json:"updatedTimestamp"`
}

type Transaction struct {
	ID         string          `json:"id"`
	UserID     string          `json:"userId"`
	CardID     string          `json:"cardId,omitempty"`
	Type       string          `json:"type"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
	Merchant   string          `json:"merchant,omitempty"`
	Status     string          `json:"status"`
	Reference  string          `json:"reference,omitempty"`
	ExternalID string          `json:"-"`
	Operator   string          `json:"-"`
	Phone      string          `json:"-"`
	CreatedAt  time.Time       `json:"createdTimestamp"`
	UpdatedAt  time.Time       `json:"updatedTimestamp"`
}

// KYC statuses.
const (
	KYCStatusPending  = "pending"
	KYCStatusApproved = "approved"
	KYCStatusRejected = "rejected"
)

type KYCVerification struct {
	ID           string    `json:"-"`
	UserID       string    `json:"-"`
	DocumentType string    `json:"documentType"`
	Status       string    `json:"status"`
	ReferenceID  string    `json:"referenceId"`
	RiskScore    float64   `json:"riskScore"`
	SubmittedAt  time.Time `json:"submittedAt"`
	VerifiedAt   time.Time `json:"verifiedAt,omitempty"`
}
