package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Abrahambaraka/Feza-pay/internal/flutterwave"
	"github.com/Abrahambaraka/Feza-pay/internal/models"
)

// PaymentGateway is the outbound mobile-money charge surface, implemented by
// flutterwave.Client.
type PaymentGateway interface {
	SubmitCharge(ctx context.Context, reference string, req flutterwave.ChargeRequest) (*flutterwave.ChargeResult, error)
	VerifyTransaction(ctx context.Context, externalID string) (*flutterwave.ChargeResult, error)
}

// CardIssuer is the outbound virtual-card surface, implemented by
// flutterwave.Client.
type CardIssuer interface {
	CreateCard(ctx context.Context, scheme, currency string, initialAmount decimal.Decimal, billing flutterwave.BillingProfile) (*flutterwave.CardDetails, error)
	GetCard(ctx context.Context, providerCardID string) (*flutterwave.CardDetails, error)
	FreezeCard(ctx context.Context, providerCardID string) error
	UnfreezeCard(ctx context.Context, providerCardID string) error
	FundCard(ctx context.Context, providerCardID string, amount decimal.Decimal, debitCurrency string) error
}

// Ledger is the slice of LedgerService the orchestrators depend on.
type Ledger interface {
	AppendTransaction(tx *models.Transaction) (*models.Transaction, error)
	SettleTransaction(reference, newStatus, externalID string) (*models.Transaction, bool, error)
	ApplyCardTransaction(tx *models.Transaction, delta decimal.Decimal) (*models.Transaction, error)
	RecordIssuedCard(card *models.Card, activation, funding *models.Transaction) error
	GetCard(userID, cardID string) (*models.Card, error)
	GetTransaction(userID, txID string) (*models.Transaction, error)
	UpdateCardStatus(cardID, status string) error
	RefreshCardBalance(cardID string, balance decimal.Decimal) error
	GetCardsByUser(userID string) ([]models.Card, error)
	GetTransactionsByUser(userID string) ([]models.Transaction, error)
}
