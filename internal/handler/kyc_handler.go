package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Abrahambaraka/Feza-pay/internal/middleware"
	"github.com/Abrahambaraka/Feza-pay/internal/models"
	"github.com/Abrahambaraka/Feza-pay/internal/service"
)

// KYCRecorder defines the identity verification operations used by KYCHandler.
type KYCRecorder interface {
	Submit(userID string, sub service.KYCSubmission) (*models.KYCVerification, error)
	Status(userID string) (*models.KYCVerification, error)
}

type KYCHandler struct {
	kyc    KYCRecorder
	logger *zap.Logger
}

func NewKYCHandler(kyc KYCRecorder, logger *zap.Logger) *KYCHandler {
	return &KYCHandler{kyc: kyc, logger: logger}
}

type KYCSubmitRequest struct {
	DocumentType  string `json:"documentType" validate:"required,oneof=passport national_id driving_license voter_card"`
	FrontImageURL string `json:"frontImageUrl" validate:"required,url"`
	BackImageURL  string `json:"backImageUrl" validate:"omitempty,url"`
	FullName      string `json:"fullName" validate:"required,min=2,max=100"`
	DateOfBirth   string `json:"dateOfBirth" validate:"required,datetime=2006-01-02"`
}

func (h *KYCHandler) Submit(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req KYCSubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, http.StatusBadRequest, "Invalid request body", "BAD_REQUEST")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	rec, err := h.kyc.Submit(userID, service.KYCSubmission{
		DocumentType:  req.DocumentType,
		FrontImageURL: req.FrontImageURL,
		BackImageURL:  req.BackImageURL,
		FullName:      req.FullName,
		DateOfBirth:   req.DateOfBirth,
	})
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	middleware.RespondSuccess(c, http.StatusCreated, rec)
}

func (h *KYCHandler) Status(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	rec, err := h.kyc.Status(userID)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	middleware.RespondSuccess(c, http.StatusOK, rec)
}
