package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Abrahambaraka/Feza-pay/internal/flutterwave"
	"github.com/Abrahambaraka/Feza-pay/internal/models"
	"github.com/Abrahambaraka/Feza-pay/internal/phone"
)

// PayinService orchestrates mobile-money deposits: request validation, charge
// submission and the pending ledger row the asynchronous confirmation later
// settles.
type PayinService struct {
	gateway PaymentGateway
	ledger  Ledger
	logger  *zap.Logger
}

func NewPayinService(gateway PaymentGateway, ledger Ledger, logger *zap.Logger) *PayinService {
	return &PayinService{gateway: gateway, ledger: ledger, logger: logger}
}

type DepositRequest struct {
	Amount   decimal.Decimal
	Currency string
	PhoneRaw string
	Operator string
	Email    string
	FullName string
}

type DepositResult struct {
	Transaction *models.Transaction
	Reference   string
	Status      string
	Amount      decimal.Decimal
	Currency    string
	Message     string
}

// InitiateDeposit validates the request, submits the charge under a fresh
// idempotency reference and records the pending transaction. Validation
// failures never reach the provider; a gateway failure after submission is
// surfaced as-is and a retry must allocate a new reference, because the
// provider-side outcome of this one is unknown.
func (s *PayinService) InitiateDeposit(ctx context.Context, userID string, req DepositRequest) (*DepositResult, error) {
	if req.Amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if !phone.IsValidLocalNumber(req.PhoneRaw) {
		return nil, ErrInvalidPhone
	}
	if !phone.OperatorMatches(req.PhoneRaw, req.Operator) {
		return nil, ErrOperatorMismatch
	}
	phoneE164, err := phone.FormatToInternational(req.PhoneRaw)
	if err != nil {
		return nil, ErrInvalidPhone
	}

	reference := flutterwave.NewReference()
	charge, err := s.gateway.SubmitCharge(ctx, reference, flutterwave.ChargeRequest{
		Amount:    req.Amount,
		Currency:  req.Currency,
		PhoneE164: phoneE164,
		Operator:  req.Operator,
		Email:     req.Email,
		FullName:  req.FullName,
	})
	if err != nil {
		return nil, err
	}

	// The pending row must exist before the caller sees the charge result, so
	// a client-triggered verification always finds a row to update.
	tx, err := s.ledger.AppendTransaction(&models.Transaction{
		UserID:     userID,
		Type:       models.TxTypeDeposit,
		Amount:     req.Amount,
		Currency:   req.Currency,
		Merchant:   fmt.Sprintf("Depot %s mobile money", req.Operator),
		Status:     models.TxStatusPending,
		Reference:  reference,
		ExternalID: charge.ExternalID,
		Operator:   req.Operator,
		Phone:      phoneE164,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("mobile money deposit initiated",
		zap.String("user_id", userID),
		zap.String("transaction_id", tx.ID),
		zap.String("reference", reference),
		zap.String("status", charge.Status),
	)

	return &DepositResult{
		Transaction: tx,
		Reference:   reference,
		Status:      charge.Status,
		Amount:      charge.Amount,
		Currency:    charge.Currency,
		Message:     charge.Message,
	}, nil
}

// VerifyDeposit re-checks a deposit with the gateway on the caller's behalf.
// It runs through the same terminal-flip gate as the webhook path, so the two
// confirmation paths can race safely: whichever settles the row first wins
// and the other becomes a no-op.
func (s *PayinService) VerifyDeposit(ctx context.Context, userID, transactionID string) (*DepositResult, error) {
	tx, err := s.ledger.GetTransaction(userID, transactionID)
	if err != nil {
		return nil, err
	}

	externalID := tx.ExternalID
	if externalID == "" {
		externalID = tx.Reference
	}
	verification, err := s.gateway.VerifyTransaction(ctx, externalID)
	if err != nil {
		return nil, err
	}

	// The flip and any card credit are one atomic ledger operation; if it
	// fails the row stays pending and the next verification retries both.
	updated, flipped, err := s.ledger.SettleTransaction(tx.Reference, verification.Status, verification.ExternalID)
	if err != nil {
		return nil, err
	}
	if flipped {
		s.logger.Info("deposit settled via verification",
			zap.String("transaction_id", updated.ID),
			zap.String("status", updated.Status),
		)
	}

	return &DepositResult{
		Transaction: updated,
		Reference:   updated.Reference,
		Status:      updated.Status,
		Amount:      updated.Amount,
		Currency:    updated.Currency,
		Message:     verification.Message,
	}, nil
}
