package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Abrahambaraka/Feza-pay/internal/middleware"
	"github.com/Abrahambaraka/Feza-pay/internal/models"
)

// Authenticator defines the auth operations used by AuthHandler.
type Authenticator interface {
	Register(email, password, displayName string) (*models.User, string, error)
	Login(email, password string) (*models.User, string, error)
	RefreshToken(tokenString string) (string, error)
}

type AuthHandler struct {
	auth   Authenticator
	logger *zap.Logger
}

func NewAuthHandler(auth Authenticator, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	DisplayName string `json:"displayName" validate:"required,min=2,max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	Token string `json:"token" validate:"required"`
}

type AuthResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, http.StatusBadRequest, "Invalid request body", "BAD_REQUEST")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	user, token, err := h.auth.Register(req.Email, req.Password, req.DisplayName)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	middleware.RespondSuccess(c, http.StatusCreated, AuthResponse{User: user, Token: token})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, http.StatusBadRequest, "Invalid request body", "BAD_REQUEST")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	user, token, err := h.auth.Login(req.Email, req.Password)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	middleware.RespondSuccess(c, http.StatusOK, AuthResponse{User: user, Token: token})
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, http.StatusBadRequest, "Invalid request body", "BAD_REQUEST")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	token, err := h.auth.RefreshToken(req.Token)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	middleware.RespondSuccess(c, http.StatusOK, gin.H{"token": token})
}
