package repository

import (
	"database/sql"
	"fmt"

	"github.com/Abrahambaraka/Feza-pay/internal/models"
)

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const txColumns = `id, user_id, card_id, type, amount, currency, merchant, status, reference, external_id, operator, phone, created_at, updated_at`

func (r *TransactionRepository) Create(dbtx DBTX, tx *models.Transaction) error {
	query := `
		INSERT INTO transactions (` + txColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := dbtx.Exec(query,
		tx.ID, tx.UserID, nullString(tx.CardID), tx.Type, tx.Amount, tx.Currency,
		nullString(tx.Merchant), tx.Status, nullString(tx.Reference),
		nullString(tx.ExternalID), nullString(tx.Operator), nullString(tx.Phone),
		tx.CreatedAt, tx.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (r *TransactionRepository) GetByID(txID string) (*models.Transaction, error) {
	return r.getOne(`WHERE id = $1`, txID)
}

// GetByReference looks up a transaction by its idempotency reference, the key
// the provider echoes back in webhooks and verification responses.
func (r *TransactionRepository) GetByReference(reference string) (*models.Transaction, error) {
	return r.getOne(`WHERE reference = $1`, reference)
}

func (r *TransactionRepository) getOne(where string, arg any) (*models.Transaction, error) {
	query := `SELECT ` + txColumns + ` FROM transactions ` + where

	row := r.db.QueryRow(query, arg)
	tx, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return tx, nil
}

// GetByUser returns the user's transactions newest-first.
func (r *TransactionRepository) GetByUser(userID string) ([]models.Transaction, error) {
	query := `SELECT ` + txColumns + ` FROM transactions WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, *tx)
	}
	return txs, rows.Err()
}

// MarkTerminal moves a pending transaction to a terminal status. The UPDATE
// is guarded on status = 'pending', which is what makes webhook replays and
// the verify-polling race idempotent: whichever path gets there first wins,
// later attempts affect zero rows. Returns the stored row and whether this
// call performed the flip.
func (r *TransactionRepository) MarkTerminal(dbtx DBTX, reference, newStatus, externalID string) (*models.Transaction, bool, error) {
	query := `
		UPDATE transactions
		SET status = $2,
		    external_id = COALESCE(NULLIF($3, ''), external_id),
		    updated_at = NOW()
		WHERE reference = $1 AND status = 'pending'
	`
	result, err := dbtx.Exec(query, reference, newStatus, externalID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to update transaction status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("failed to check rows affected: %w", err)
	}

	// Read back through the same dbtx so an uncommitted flip is visible.
	row := dbtx.QueryRow(`SELECT `+txColumns+` FROM transactions WHERE reference = $1`, reference)
	tx, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, false, ErrTransactionNotFound
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get transaction: %w", err)
	}
	return tx, rows > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var tx models.Transaction
	var cardID, merchant, reference, externalID, operator, phoneNum sql.NullString
	err := row.Scan(
		&tx.ID, &tx.UserID, &cardID, &tx.Type, &tx.Amount, &tx.Currency,
		&merchant, &tx.Status, &reference, &externalID, &operator, &phoneNum,
		&tx.CreatedAt, &tx.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	tx.CardID = cardID.String
	tx.Merchant = merchant.String
	tx.Reference = reference.String
	tx.ExternalID = externalID.String
	tx.Operator = operator.String
	tx.Phone = phoneNum.String
	return &tx, nil
}
