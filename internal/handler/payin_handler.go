package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Abrahambaraka/Feza-pay/internal/middleware"
	"github.com/Abrahambaraka/Feza-pay/internal/models"
	"github.com/Abrahambaraka/Feza-pay/internal/service"
)

// Depositor defines the mobile money pay-in operations used by PayinHandler.
type Depositor interface {
	InitiateDeposit(ctx context.Context, userID string, req service.DepositRequest) (*service.DepositResult, error)
	VerifyDeposit(ctx context.Context, userID, transactionID string) (*service.DepositResult, error)
}

type PayinHandler struct {
	payin  Depositor
	logger *zap.Logger
}

func NewPayinHandler(payin Depositor, logger *zap.Logger) *PayinHandler {
	return &PayinHandler{payin: payin, logger: logger}
}

type MobileMoneyDepositRequest struct {
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	Currency    string  `json:"currency" validate:"required,oneof=USD CDF"`
	PhoneNumber string  `json:"phoneNumber" validate:"required"`
	Operator    string  `json:"operator" validate:"required,oneof=VODACOM AIRTEL ORANGE"`
	Email       string  `json:"email" validate:"omitempty,email"`
	FullName    string  `json:"fullName" validate:"omitempty,max=100"`
}

type DepositResponse struct {
	Transaction *models.Transaction `json:"transaction"`
	Reference   string              `json:"reference"`
	Status      string              `json:"status"`
	Message     string              `json:"message,omitempty"`
}

// InitiateDeposit submits a mobile money charge. The charge settles
// asynchronously, so a 202 with a pending transaction is the normal outcome;
// the client then waits for confirmation or polls the verify endpoint.
func (h *PayinHandler) InitiateDeposit(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req MobileMoneyDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, http.StatusBadRequest, "Invalid request body", "BAD_REQUEST")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	email := req.Email
	if email == "" {
		email, _ = middleware.GetUserEmail(c)
	}

	result, err := h.payin.InitiateDeposit(c.Request.Context(), userID, service.DepositRequest{
		Amount:   decimal.NewFromFloat(req.Amount),
		Currency: req.Currency,
		PhoneRaw: req.PhoneNumber,
		Operator: req.Operator,
		Email:    email,
		FullName: req.FullName,
	})
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	middleware.RespondSuccess(c, http.StatusAccepted, DepositResponse{
		Transaction: result.Transaction,
		Reference:   result.Reference,
		Status:      result.Status,
		Message:     result.Message,
	})
}

// VerifyDeposit re-checks a pending deposit with the provider on the client's
// behalf.
func (h *PayinHandler) VerifyDeposit(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	transactionID := c.Param("transactionId")

	result, err := h.payin.VerifyDeposit(c.Request.Context(), userID, transactionID)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	middleware.RespondSuccess(c, http.StatusOK, DepositResponse{
		Transaction: result.Transaction,
		Reference:   result.Reference,
		Status:      result.Status,
		Message:     result.Message,
	})
}
