package repository

import (
	"database/sql"
	"fmt"

	"github.com/Abrahambaraka/Feza-pay/internal/models"
)

type KYCRepository struct {
	db *sql.DB
}

func NewKYCRepository(db *sql.DB) *KYCRepository {
	return &KYCRepository{db: db}
}

func (r *KYCRepository) Create(rec *models.KYCVerification) error {
	query := `
		INSERT INTO kyc_verifications (id, user_id, document_type, status, reference_id, risk_score, submitted_at, verified_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	verifiedAt := sql.NullTime{Time: rec.VerifiedAt, Valid: !rec.VerifiedAt.IsZero()}
	_, err := r.db.Exec(query,
		rec.ID, rec.UserID, rec.DocumentType, rec.Status,
		rec.ReferenceID, rec.RiskScore, rec.SubmittedAt, verifiedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create kyc record: %w", err)
	}
	return nil
}

// GetLatestByUser returns the most recent submission; it governs the user's
// current KYC standing even when older submissions exist.
func (r *KYCRepository) GetLatestByUser(userID string) (*models.KYCVerification, error) {
	query := `
		SELECT id, user_id, document_type, status, reference_id, risk_score, submitted_at, verified_at
		FROM kyc_verifications
		WHERE user_id = $1
		ORDER BY submitted_at DESC
		LIMIT 1
	`
	var rec models.KYCVerification
	var verifiedAt sql.NullTime
	err := r.db.QueryRow(query, userID).Scan(
		&rec.ID, &rec.UserID, &rec.DocumentType, &rec.Status,
		&rec.ReferenceID, &rec.RiskScore, &rec.SubmittedAt, &verifiedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrKYCNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get kyc record: %w", err)
	}
	if verifiedAt.Valid {
		rec.VerifiedAt = verifiedAt.Time
	}
	return &rec, nil
}

// UpdateStatus moves a submission to a terminal decision.
func (r *KYCRepository) UpdateStatus(referenceID, status string) error {
	query := `
		UPDATE kyc_verifications
		SET status = $2, verified_at = NOW()
		WHERE reference_id = $1 AND status = 'pending'
	`
	result, err := r.db.Exec(query, referenceID, status)
	if err != nil {
		return fmt.Errorf("failed to update kyc status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return ErrKYCNotFound
	}
	return nil
}
