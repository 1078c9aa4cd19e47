package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Abrahambaraka/Feza-pay/internal/middleware"
	"github.com/Abrahambaraka/Feza-pay/internal/models"
)

// ProfileStore defines the user profile operations used by UserHandler.
type ProfileStore interface {
	GetByID(userID string) (*models.User, error)
	UpdateProfile(userID, displayName, photoURL string) (*models.User, error)
}

// WalletReader serves the per-user card and transaction listings.
type WalletReader interface {
	GetCardsByUser(userID string) ([]models.Card, error)
	GetTransactionsByUser(userID string) ([]models.Transaction, error)
}

type UserHandler struct {
	users  ProfileStore
	wallet WalletReader
	logger *zap.Logger
}

func NewUserHandler(users ProfileStore, wallet WalletReader, logger *zap.Logger) *UserHandler {
	return &UserHandler{users: users, wallet: wallet, logger: logger}
}

type UpdateProfileRequest struct {
	DisplayName string `json:"displayName" validate:"omitempty,min=2,max=100"`
	PhotoURL    string `json:"photoURL" validate:"omitempty,url"`
}

type ListCardsResponse struct {
	Cards []models.Card `json:"cards"`
}

type ListTransactionsResponse struct {
	Transactions []models.Transaction `json:"transactions"`
}

func (h *UserHandler) GetMe(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	user, err := h.users.GetByID(userID)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	middleware.RespondSuccess(c, http.StatusOK, user)
}

func (h *UserHandler) UpdateMe(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, http.StatusBadRequest, "Invalid request body", "BAD_REQUEST")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	user, err := h.users.UpdateProfile(userID, req.DisplayName, req.PhotoURL)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	middleware.RespondSuccess(c, http.StatusOK, user)
}

// ListCards never exposes PAN or CVV; the card model only serializes the
// masked form.
func (h *UserHandler) ListCards(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	cards, err := h.wallet.GetCardsByUser(userID)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	if cards == nil {
		cards = []models.Card{}
	}

	middleware.RespondSuccess(c, http.StatusOK, ListCardsResponse{Cards: cards})
}

func (h *UserHandler) ListTransactions(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	transactions, err := h.wallet.GetTransactionsByUser(userID)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	if transactions == nil {
		transactions = []models.Transaction{}
	}

	middleware.RespondSuccess(c, http.StatusOK, ListTransactionsResponse{Transactions: transactions})
}
