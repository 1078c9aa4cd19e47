package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Abrahambaraka/Feza-pay/internal/models"
	"github.com/Abrahambaraka/Feza-pay/internal/redisx"
	"github.com/Abrahambaraka/Feza-pay/internal/repository"
	"github.com/Abrahambaraka/Feza-pay/internal/utils"
)

// LedgerService owns every persisted mutation of cards and transactions and
// enforces ownership and balance-consistency invariants. A ledger append and
// its matching balance change always share one database transaction.
type LedgerService struct {
	db       *sql.DB
	cards    *repository.CardRepository
	txs      *repository.TransactionRepository
	cardView *redisx.ViewCache[[]models.Card]
	txView   *redisx.ViewCache[[]models.Transaction]
	logger   *zap.Logger
}

func NewLedgerService(
	db *sql.DB,
	cards *repository.CardRepository,
	txs *repository.TransactionRepository,
	cardView *redisx.ViewCache[[]models.Card],
	txView *redisx.ViewCache[[]models.Transaction],
	logger *zap.Logger,
) *LedgerService {
	return &LedgerService{
		db:       db,
		cards:    cards,
		txs:      txs,
		cardView: cardView,
		txView:   txView,
		logger:   logger,
	}
}

func cardViewKey(userID string) string { return "cards:" + userID }
func txViewKey(userID string) string   { return "transactions:" + userID }

// AppendTransaction inserts a ledger entry with a fresh id. Status defaults
// to completed unless the caller specifies otherwise.
func (s *LedgerService) AppendTransaction(tx *models.Transaction) (*models.Transaction, error) {
	s.prepareTransaction(tx)
	if err := s.txs.Create(s.db, tx); err != nil {
		return nil, err
	}
	s.txView.Delete(context.Background(), txViewKey(tx.UserID))
	return tx, nil
}

func (s *LedgerService) prepareTransaction(tx *models.Transaction) {
	if tx.ID == "" {
		tx.ID = utils.GenerateID("tan")
	}
	if tx.Status == "" {
		tx.Status = models.TxStatusCompleted
	}
	now := time.Now().UTC()
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = now
	}
	tx.UpdatedAt = now
}

// SettleTransaction moves the transaction stored under reference out of
// pending and, when it settles successfully and carries a card id, applies
// the balance credit in the same database transaction. Rows already in a
// terminal state are left untouched and returned as-is; the boolean reports
// whether this call performed the transition. Webhook replays and the
// verify-polling race both funnel through this guard. A credit that cannot
// be applied rolls the flip back, so a redelivery retries the whole
// settlement rather than finding a successful row whose balance never moved.
func (s *LedgerService) SettleTransaction(reference, newStatus, externalID string) (*models.Transaction, bool, error) {
	if !models.IsTerminalStatus(newStatus) {
		// pending -> pending is a no-op by definition.
		tx, err := s.txs.GetByReference(reference)
		return tx, false, err
	}

	dbTx, err := s.db.Begin()
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	tx, flipped, err := s.txs.MarkTerminal(dbTx, reference, newStatus, externalID)
	if err != nil {
		return nil, false, err
	}
	if flipped && tx.Status == models.TxStatusSuccessful && tx.CardID != "" {
		if _, err := s.cards.ApplyBalanceDelta(dbTx, tx.CardID, tx.Amount); err != nil {
			return nil, false, err
		}
	}
	if err := dbTx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit settlement: %w", err)
	}

	if flipped {
		s.txView.Delete(context.Background(), txViewKey(tx.UserID))
		if tx.CardID != "" {
			s.invalidateCardViews(tx.CardID)
		}
		s.logger.Info("transaction settled",
			zap.String("transaction_id", tx.ID),
			zap.String("reference", reference),
			zap.String("status", newStatus),
		)
	}
	return tx, flipped, nil
}

// GetTransaction fetches a transaction and verifies ownership.
func (s *LedgerService) GetTransaction(userID, txID string) (*models.Transaction, error) {
	tx, err := s.txs.GetByID(txID)
	if err != nil {
		return nil, err
	}
	if tx.UserID != userID {
		return nil, ErrForbidden
	}
	return tx, nil
}

// ApplyCardTransaction appends a ledger entry and applies its balance effect
// to the card as one atomic unit. delta is signed: positive credits, negative
// debits. A crash between the two writes can therefore never leave an
// orphaned ledger entry or an unreferenced balance change.
func (s *LedgerService) ApplyCardTransaction(tx *models.Transaction, delta decimal.Decimal) (*models.Transaction, error) {
	if tx.CardID == "" {
		return nil, fmt.Errorf("card transaction requires a card id")
	}
	s.prepareTransaction(tx)

	dbTx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	if err := s.txs.Create(dbTx, tx); err != nil {
		return nil, err
	}
	if _, err := s.cards.ApplyBalanceDelta(dbTx, tx.CardID, delta); err != nil {
		return nil, err
	}
	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.txView.Delete(context.Background(), txViewKey(tx.UserID))
	s.invalidateCardViews(tx.CardID)
	return tx, nil
}

// RecordIssuedCard persists a newly issued card together with its zero-amount
// activation entry and, when the card was created pre-funded, the funding
// deposit. One database transaction covers all three writes.
func (s *LedgerService) RecordIssuedCard(card *models.Card, activation, funding *models.Transaction) error {
	s.prepareTransaction(activation)
	if funding != nil {
		s.prepareTransaction(funding)
	}

	dbTx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	if err := s.cards.Create(dbTx, card); err != nil {
		return err
	}
	if err := s.txs.Create(dbTx, activation); err != nil {
		return err
	}
	if funding != nil {
		if err := s.txs.Create(dbTx, funding); err != nil {
			return err
		}
	}
	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.cardView.Delete(context.Background(), cardViewKey(card.UserID))
	s.txView.Delete(context.Background(), txViewKey(card.UserID))
	return nil
}

// GetCard fetches a card and verifies the caller owns it.
func (s *LedgerService) GetCard(userID, cardID string) (*models.Card, error) {
	card, err := s.cards.GetByID(cardID)
	if err != nil {
		return nil, err
	}
	if card.UserID != userID {
		return nil, ErrForbidden
	}
	return card, nil
}

// UpdateCardStatus persists an issuer-confirmed status transition.
func (s *LedgerService) UpdateCardStatus(cardID, status string) error {
	if err := s.cards.UpdateStatus(cardID, status); err != nil {
		return err
	}
	s.invalidateCardViews(cardID)
	return nil
}

// RefreshCardBalance overwrites the local balance with the issuer-reported
// value after a details fetch.
func (s *LedgerService) RefreshCardBalance(cardID string, balance decimal.Decimal) error {
	if err := s.cards.SetBalance(cardID, balance); err != nil {
		return err
	}
	s.invalidateCardViews(cardID)
	return nil
}

// GetCardsByUser returns the user's cards newest-first, via the read cache
// when warm.
func (s *LedgerService) GetCardsByUser(userID string) ([]models.Card, error) {
	ctx := context.Background()
	if cached, ok := s.cardView.Get(ctx, cardViewKey(userID)); ok {
		return *cached, nil
	}
	cards, err := s.cards.GetByUser(userID)
	if err != nil {
		return nil, err
	}
	s.cardView.Set(ctx, cardViewKey(userID), &cards)
	return cards, nil
}

// GetTransactionsByUser returns the user's transactions newest-first.
func (s *LedgerService) GetTransactionsByUser(userID string) ([]models.Transaction, error) {
	ctx := context.Background()
	if cached, ok := s.txView.Get(ctx, txViewKey(userID)); ok {
		return *cached, nil
	}
	txs, err := s.txs.GetByUser(userID)
	if err != nil {
		return nil, err
	}
	s.txView.Set(ctx, txViewKey(userID), &txs)
	return txs, nil
}

func (s *LedgerService) invalidateCardViews(cardID string) {
	card, err := s.cards.GetByID(cardID)
	if err != nil {
		return
	}
	s.cardView.Delete(context.Background(), cardViewKey(card.UserID))
}
