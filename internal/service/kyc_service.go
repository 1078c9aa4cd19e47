package service

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Abrahambaraka/Feza-pay/internal/models"
	"github.com/Abrahambaraka/Feza-pay/internal/repository"
)

// KYCService records identity-document submissions and their decisions. The
// provider decision is simulated; swapping in a real verification vendor only
// changes decide().
type KYCService struct {
	repo   *repository.KYCRepository
	logger *zap.Logger
}

func NewKYCService(repo *repository.KYCRepository, logger *zap.Logger) *KYCService {
	return &KYCService{repo: repo, logger: logger}
}

type KYCSubmission struct {
	DocumentType  string
	FrontImageURL string
	BackImageURL  string
	FullName      string
	DateOfBirth   string
}

// Submit stores a new verification attempt and returns its decision. Every
// submission is durably recorded; the most recent one governs the user's
// standing.
func (s *KYCService) Submit(userID string, sub KYCSubmission) (*models.KYCVerification, error) {
	status, riskScore := s.decide(sub)

	now := time.Now().UTC()
	rec := &models.KYCVerification{
		ID:           uuid.NewString(),
		UserID:       userID,
		DocumentType: sub.DocumentType,
		Status:       status,
		ReferenceID:  "kyc_" + uuid.NewString(),
		RiskScore:    riskScore,
		SubmittedAt:  now,
	}
	if models.KYCStatusPending != status {
		rec.VerifiedAt = now
	}

	if err := s.repo.Create(rec); err != nil {
		return nil, err
	}

	s.logger.Info("kyc submission recorded",
		zap.String("user_id", userID),
		zap.String("reference_id", rec.ReferenceID),
		zap.String("status", rec.Status),
	)
	return rec, nil
}

// Status returns the user's most recent submission.
func (s *KYCService) Status(userID string) (*models.KYCVerification, error) {
	return s.repo.GetLatestByUser(userID)
}

// IsApproved implements KYCChecker for the issuing flow. A user with no
// submission on file is simply not approved.
func (s *KYCService) IsApproved(userID string) (bool, error) {
	rec, err := s.repo.GetLatestByUser(userID)
	if err == repository.ErrKYCNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return rec.Status == models.KYCStatusApproved, nil
}

// decide simulates the document-verification vendor: approve with a low risk
// score.
func (s *KYCService) decide(sub KYCSubmission) (string, float64) {
	return models.KYCStatusApproved, rand.Float64() * 0.1
}
