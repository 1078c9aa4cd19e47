package service

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Abrahambaraka/Feza-pay/internal/flutterwave"
	"github.com/Abrahambaraka/Feza-pay/internal/models"
	"github.com/Abrahambaraka/Feza-pay/internal/repository"
	"github.com/Abrahambaraka/Feza-pay/internal/utils"
)

// KYCChecker reports whether a user currently holds an approved KYC
// submission.
type KYCChecker interface {
	IsApproved(userID string) (bool, error)
}

// IssuingService provisions virtual cards from confirmed deposits and keeps
// the local card records in sync with the issuer.
type IssuingService struct {
	issuer CardIssuer
	ledger Ledger
	kyc    KYCChecker
	logger *zap.Logger
}

func NewIssuingService(issuer CardIssuer, ledger Ledger, kyc KYCChecker, logger *zap.Logger) *IssuingService {
	return &IssuingService{issuer: issuer, ledger: ledger, kyc: kyc, logger: logger}
}

type IssueCardRequest struct {
	Scheme        string
	Currency      string
	Label         string
	TransactionID string
	Amount        decimal.Decimal
	Billing       flutterwave.BillingProfile
}

// IssuedCard carries the one-time sensitive fields alongside the stored card.
// PAN and CVV appear here and nowhere else.
type IssuedCard struct {
	Card *models.Card
	PAN  string
	CVV  string
}

// IssueCard creates a card at the issuer and persists it with its activation
// ledger entry. A supplied transactionId must resolve to a terminal-success
// transaction owned by the caller before any issuer call is made.
func (s *IssuingService) IssueCard(ctx context.Context, userID string, req IssueCardRequest) (*IssuedCard, error) {
	approved, err := s.kyc.IsApproved(userID)
	if err != nil {
		return nil, err
	}
	if !approved {
		return nil, ErrKYCRequired
	}

	if req.TransactionID != "" {
		proof, err := s.ledger.GetTransaction(userID, req.TransactionID)
		if err != nil {
			if err == repository.ErrTransactionNotFound || err == ErrForbidden {
				return nil, ErrPaymentProofInvalid
			}
			return nil, err
		}
		if proof.Status != models.TxStatusSuccessful {
			return nil, ErrPaymentProofInvalid
		}
	}

	details, err := s.issuer.CreateCard(ctx, req.Scheme, req.Currency, req.Amount, req.Billing)
	if err != nil {
		return nil, err
	}

	label := req.Label
	if label == "" {
		label = req.Billing.Name
	}

	card := &models.Card{
		ID:         utils.GenerateID("crd"),
		UserID:     userID,
		ProviderID: details.ProviderID,
		MaskedPAN:  details.MaskedPAN,
		Last4:      utils.Last4(details.PAN),
		Expiry:     details.Expiry,
		Balance:    details.Balance,
		Currency:   details.Currency,
		Label:      label,
		Status:     details.Status,
		Scheme:     details.Scheme,
	}

	activation := &models.Transaction{
		UserID:   userID,
		CardID:   card.ID,
		Type:     models.TxTypeDeposit,
		Amount:   decimal.Zero,
		Currency: req.Currency,
		Merchant: "Activation de carte virtuelle",
		Status:   models.TxStatusCompleted,
	}

	var funding *models.Transaction
	if req.Amount.Sign() > 0 {
		funding = &models.Transaction{
			UserID:    userID,
			CardID:    card.ID,
			Type:      models.TxTypeDeposit,
			Amount:    req.Amount,
			Currency:  req.Currency,
			Merchant:  "Approvisionnement initial",
			Status:    models.TxStatusCompleted,
			Reference: req.TransactionID,
		}
	}

	if err := s.ledger.RecordIssuedCard(card, activation, funding); err != nil {
		return nil, err
	}

	s.logger.Info("virtual card issued",
		zap.String("user_id", userID),
		zap.String("card_id", card.ID),
		zap.String("scheme", card.Scheme),
	)

	return &IssuedCard{Card: card, PAN: details.PAN, CVV: details.CVV}, nil
}

// GetCard returns the caller's card, refreshed from the issuer. The returned
// card never includes PAN or CVV.
func (s *IssuingService) GetCard(ctx context.Context, userID, cardID string) (*models.Card, error) {
	card, err := s.ledger.GetCard(userID, cardID)
	if err != nil {
		return nil, err
	}

	details, err := s.issuer.GetCard(ctx, card.ProviderID)
	if err != nil {
		// The local record still serves reads when the issuer is down.
		s.logger.Warn("issuer fetch failed, serving local card record",
			zap.String("card_id", cardID), zap.Error(err))
		return card, nil
	}

	if !details.Balance.Equal(card.Balance) {
		if err := s.ledger.RefreshCardBalance(cardID, details.Balance); err != nil {
			s.logger.Warn("failed to refresh card balance", zap.Error(err))
		} else {
			card.Balance = details.Balance
		}
	}
	return card, nil
}

// FreezeCard blocks the card at the issuer, then records the transition.
func (s *IssuingService) FreezeCard(ctx context.Context, userID, cardID string) error {
	return s.setCardStatus(ctx, userID, cardID, models.CardStatusFrozen)
}

// UnfreezeCard unblocks the card at the issuer, then records the transition.
func (s *IssuingService) UnfreezeCard(ctx context.Context, userID, cardID string) error {
	return s.setCardStatus(ctx, userID, cardID, models.CardStatusActive)
}

func (s *IssuingService) setCardStatus(ctx context.Context, userID, cardID, status string) error {
	card, err := s.ledger.GetCard(userID, cardID)
	if err != nil {
		return err
	}

	if status == models.CardStatusFrozen {
		err = s.issuer.FreezeCard(ctx, card.ProviderID)
	} else {
		err = s.issuer.UnfreezeCard(ctx, card.ProviderID)
	}
	if err != nil {
		return err
	}

	return s.ledger.UpdateCardStatus(cardID, status)
}

// FundCard moves a confirmed wallet deposit onto the card: the issuer-side
// top-up and the local ledger entry plus balance credit are applied together.
func (s *IssuingService) FundCard(ctx context.Context, userID, cardID string, amount decimal.Decimal) (*models.Transaction, error) {
	if amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	card, err := s.ledger.GetCard(userID, cardID)
	if err != nil {
		return nil, err
	}

	if err := s.issuer.FundCard(ctx, card.ProviderID, amount, card.Currency); err != nil {
		return nil, err
	}

	return s.ledger.ApplyCardTransaction(&models.Transaction{
		UserID:   userID,
		CardID:   cardID,
		Type:     models.TxTypeDeposit,
		Amount:   amount,
		Currency: card.Currency,
		Merchant: "Rechargement de carte",
		Status:   models.TxStatusCompleted,
	}, amount)
}
