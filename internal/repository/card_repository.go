package repository

import (
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Abrahambaraka/Feza-pay/internal/models"
)

type CardRepository struct {
	db *sql.DB
}

func NewCardRepository(db *sql.DB) *CardRepository {
	return &CardRepository{db: db}
}

const cardColumns = `id, user_id, provider_id, masked_pan, last4, expiry, balance, currency, label, status, scheme, created_at, updated_at`

func (r *CardRepository) Create(dbtx DBTX, card *models.Card) error {
	query := `
		INSERT INTO cards (` + cardColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := dbtx.Exec(query,
		card.ID, card.UserID, card.ProviderID, card.MaskedPAN, card.Last4,
		card.Expiry, card.Balance, card.Currency, card.Label, card.Status,
		card.Scheme, card.CreatedAt, card.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create card: %w", err)
	}
	return nil
}

func (r *CardRepository) GetByID(cardID string) (*models.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE id = $1`

	var card models.Card
	err := r.db.QueryRow(query, cardID).Scan(
		&card.ID, &card.UserID, &card.ProviderID, &card.MaskedPAN, &card.Last4,
		&card.Expiry, &card.Balance, &card.Currency, &card.Label, &card.Status,
		&card.Scheme, &card.CreatedAt, &card.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrCardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get card: %w", err)
	}
	return &card, nil
}

// GetByUser returns the user's cards newest-first.
func (r *CardRepository) GetByUser(userID string) ([]models.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	defer rows.Close()

	var cards []models.Card
	for rows.Next() {
		var card models.Card
		if err := rows.Scan(
			&card.ID, &card.UserID, &card.ProviderID, &card.MaskedPAN, &card.Last4,
			&card.Expiry, &card.Balance, &card.Currency, &card.Label, &card.Status,
			&card.Scheme, &card.CreatedAt, &card.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}

func (r *CardRepository) UpdateStatus(cardID, status string) error {
	query := `UPDATE cards SET status = $2, updated_at = NOW() WHERE id = $1`
	result, err := r.db.Exec(query, cardID, status)
	if err != nil {
		return fmt.Errorf("failed to update card status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return ErrCardNotFound
	}
	return nil
}

// ApplyBalanceDelta mutates the balance by delta in a single guarded UPDATE.
// The balance can never go negative: a debit past zero affects no rows and
// returns ErrInsufficientBalance. Concurrent credits and debits against the
// same card serialize on the row lock, so "new balance = old ± delta" is the
// unit of mutation rather than a blind overwrite.
func (r *CardRepository) ApplyBalanceDelta(dbtx DBTX, cardID string, delta decimal.Decimal) (decimal.Decimal, error) {
	query := `
		UPDATE cards
		SET balance = balance + $2, updated_at = NOW()
		WHERE id = $1 AND balance + $2 >= 0
		RETURNING balance
	`
	var newBalance decimal.Decimal
	err := dbtx.QueryRow(query, cardID, delta).Scan(&newBalance)
	if err == sql.ErrNoRows {
		// Either the card is missing or the debit would overdraw.
		if _, getErr := r.GetByID(cardID); getErr != nil {
			return decimal.Zero, getErr
		}
		return decimal.Zero, ErrInsufficientBalance
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to apply balance delta: %w", err)
	}
	return newBalance, nil
}

// SetBalance overwrites the stored balance with the issuer-reported value.
// Only used when refreshing from the card issuer, which owns the real funds.
func (r *CardRepository) SetBalance(cardID string, balance decimal.Decimal) error {
	query := `UPDATE cards SET balance = $2, updated_at = NOW() WHERE id = $1`
	result, err := r.db.Exec(query, cardID, balance)
	if err != nil {
		return fmt.Errorf("failed to set card balance: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return ErrCardNotFound
	}
	return nil
}
