package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Abrahambaraka/Feza-pay/internal/flutterwave"
	"github.com/Abrahambaraka/Feza-pay/internal/middleware"
	"github.com/Abrahambaraka/Feza-pay/internal/models"
	"github.com/Abrahambaraka/Feza-pay/internal/service"
)

// CardProvisioner defines the virtual card operations used by IssuingHandler.
type CardProvisioner interface {
	IssueCard(ctx context.Context, userID string, req service.IssueCardRequest) (*service.IssuedCard, error)
	GetCard(ctx context.Context, userID, cardID string) (*models.Card, error)
	FreezeCard(ctx context.Context, userID, cardID string) error
	UnfreezeCard(ctx context.Context, userID, cardID string) error
	FundCard(ctx context.Context, userID, cardID string, amount decimal.Decimal) (*models.Transaction, error)
}

type IssuingHandler struct {
	issuing CardProvisioner
	logger  *zap.Logger
}

func NewIssuingHandler(issuing CardProvisioner, logger *zap.Logger) *IssuingHandler {
	return &IssuingHandler{issuing: issuing, logger: logger}
}

type IssueCardRequest struct {
	Scheme        string  `json:"scheme" validate:"required,oneof=VISA MASTERCARD"`
	Currency      string  `json:"currency" validate:"required,oneof=USD"`
	Label         string  `json:"label" validate:"omitempty,max=100"`
	TransactionID string  `json:"transactionId" validate:"omitempty"`
	Amount        float64 `json:"amount" validate:"omitempty,gte=0"`
	FullName      string  `json:"fullName" validate:"required,min=2,max=100"`
	Address       string  `json:"address" validate:"omitempty,max=200"`
	City          string  `json:"city" validate:"omitempty,max=100"`
}

// IssuedCardResponse is the only place the full PAN and CVV ever appear. They
// are shown once, at creation; every later read returns the masked form.
type IssuedCardResponse struct {
	*models.Card
	Number string `json:"number"`
	CVV    string `json:"cvv"`
}

type FundCardRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

func (h *IssuingHandler) IssueCard(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req IssueCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, http.StatusBadRequest, "Invalid request body", "BAD_REQUEST")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	issued, err := h.issuing.IssueCard(c.Request.Context(), userID, service.IssueCardRequest{
		Scheme:        req.Scheme,
		Currency:      req.Currency,
		Label:         req.Label,
		TransactionID: req.TransactionID,
		Amount:        decimal.NewFromFloat(req.Amount),
		Billing: flutterwave.BillingProfile{
			Name:    req.FullName,
			Address: req.Address,
			City:    req.City,
		},
	})
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	middleware.RespondSuccess(c, http.StatusCreated, IssuedCardResponse{
		Card:   issued.Card,
		Number: issued.PAN,
		CVV:    issued.CVV,
	})
}

func (h *IssuingHandler) GetCard(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	cardID := c.Param("cardId")

	card, err := h.issuing.GetCard(c.Request.Context(), userID, cardID)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	middleware.RespondSuccess(c, http.StatusOK, card)
}

func (h *IssuingHandler) FreezeCard(c *gin.Context) {
	h.setStatus(c, h.issuing.FreezeCard)
}

func (h *IssuingHandler) UnfreezeCard(c *gin.Context) {
	h.setStatus(c, h.issuing.UnfreezeCard)
}

func (h *IssuingHandler) setStatus(c *gin.Context, apply func(context.Context, string, string) error) {
	userID, _ := middleware.GetUserID(c)
	cardID := c.Param("cardId")

	if err := apply(c.Request.Context(), userID, cardID); err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	card, err := h.issuing.GetCard(c.Request.Context(), userID, cardID)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	middleware.RespondSuccess(c, http.StatusOK, card)
}

func (h *IssuingHandler) FundCard(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	cardID := c.Param("cardId")

	var req FundCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, http.StatusBadRequest, "Invalid request body", "BAD_REQUEST")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	tx, err := h.issuing.FundCard(c.Request.Context(), userID, cardID, decimal.NewFromFloat(req.Amount))
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	middleware.RespondSuccess(c, http.StatusOK, gin.H{"transaction": tx})
}
